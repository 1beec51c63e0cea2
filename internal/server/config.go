package server

import (
	"fmt"
	"os"
	"strings"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	AdminToken  string
	DBPath      string
	ListenAddr  string
	AllowSet    bool
	CORSOrigins []string
}

// LoadConfig loads server configuration from environment variables.
func LoadConfig() (*Config, error) {
	adminToken := os.Getenv("PRCTL_ADMIN_TOKEN")
	if adminToken == "" {
		return nil, fmt.Errorf("PRCTL_ADMIN_TOKEN is required")
	}
	if len(adminToken) < 16 {
		return nil, fmt.Errorf("PRCTL_ADMIN_TOKEN must be at least 16 characters")
	}

	dbPath := os.Getenv("PRCTL_DB_PATH")
	if dbPath == "" {
		dbPath = "prctl.db"
	}

	listenAddr := os.Getenv("PRCTL_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = "127.0.0.1:8080"
	}

	allowSet, err := parseBool("PRCTL_ALLOW_SET", true)
	if err != nil {
		return nil, err
	}

	var corsOrigins []string
	if v := os.Getenv("PRCTL_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		AdminToken:  adminToken,
		DBPath:      dbPath,
		ListenAddr:  listenAddr,
		AllowSet:    allowSet,
		CORSOrigins: corsOrigins,
	}, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "":
		return def, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be one of true/false/1/0/yes/no/on/off", key)
	}
}
