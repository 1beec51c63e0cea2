package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/aspect-build/prctl/internal/server/db"
	"github.com/gin-gonic/gin"
)

const defaultChangesLimit = 100

// HandleListChanges handles GET /v1/changes?option=NAME&limit=N.
func HandleListChanges(store *db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultChangesLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}

		changes, err := store.ListChanges(c.Query("option"), limit)
		if err != nil {
			log.Printf("ListChanges error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list changes"})
			return
		}
		if changes == nil {
			changes = []db.Change{}
		}
		c.JSON(http.StatusOK, changes)
	}
}
