package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes registers GET /health, reporting the configured broker
// mode, and GET /metrics when a metrics handler is given.
func RegisterHealthRoutes(r gin.IRouter, brokerMode string, metrics http.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "broker": brokerMode})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
