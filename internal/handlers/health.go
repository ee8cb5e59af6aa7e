package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/store"
)

func Health(db store.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Println("[HEALTH] [ERROR] database ping failed:", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "database unavailable"})
			return
		}
		respond(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	}
}
