package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aspect-build/prctl/internal/logx"
	"github.com/aspect-build/prctl/internal/prctl"
	"github.com/aspect-build/prctl/internal/server"
	"github.com/aspect-build/prctl/internal/server/db"
	"github.com/aspect-build/prctl/internal/version"
	"github.com/gin-gonic/gin"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	verbose := flag.Bool("verbose", false, "Enable verbose debug logs (same as --log-level debug)")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error (or PRCTL_LOG_LEVEL)")
	flag.BoolVar(showVersion, "v", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.String("prctl-server"))
		fmt.Fprintf(os.Stderr, "prctl-server reports the prctl(2) attributes of its own process over HTTP\n")
		fmt.Fprintf(os.Stderr, "and keeps an audit log of attribute changes.\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  PRCTL_ADMIN_TOKEN   Admin Bearer token for writes and the audit log (min 16 chars, required)\n")
		fmt.Fprintf(os.Stderr, "  PRCTL_DB_PATH       SQLite database path (default: prctl.db)\n")
		fmt.Fprintf(os.Stderr, "  PRCTL_LISTEN_ADDR   Listen address (default: 127.0.0.1:8080)\n")
		fmt.Fprintf(os.Stderr, "  PRCTL_ALLOW_SET     Allow PUT /v1/options/:name (default: true)\n")
		fmt.Fprintf(os.Stderr, "  PRCTL_CORS_ORIGINS  Comma-separated allowed CORS origins\n")
		fmt.Fprintf(os.Stderr, "  PRCTL_LOG_LEVEL     Log level: debug|info|warn|error (default: info)\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("prctl-server"))
		os.Exit(0)
	}

	if err := logx.Configure(*logLevel, *verbose); err != nil {
		log.Fatalf("configure logging: %v", err)
	}
	if !logx.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	r := server.NewRouter(prctl.NewController(nil), store, cfg)
	logx.Infof("server config: allow_set=%v db=%s options=%d", cfg.AllowSet, cfg.DBPath, len(prctl.Options()))

	log.Printf("prctl-server listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
