package server

import (
	"github.com/aspect-build/prctl/internal/server/db"
	"github.com/aspect-build/prctl/internal/server/handler"
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the Gin router with all routes.
func NewRouter(ctrl handler.Controller, store *db.Store, cfg *Config) *gin.Engine {
	r := gin.New()
	r.Use(RequestLog(), gin.Recovery())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	r.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})

	admin := AdminAuth(cfg.AdminToken)

	v1 := r.Group("/v1")
	{
		// Attributes of the serving process
		v1.GET("/options", handler.HandleListOptions(ctrl))
		v1.GET("/options/:name", handler.HandleGetOption(ctrl))
		v1.PUT("/options/:name", admin, handler.HandleSetOption(ctrl, store, cfg.AllowSet))

		// Audit log
		v1.GET("/changes", admin, handler.HandleListChanges(store))
	}

	return r
}
