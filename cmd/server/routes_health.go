package main

import (
	"time"

	"chrisgross-ctrl-project/internal/auth"
	"chrisgross-ctrl-project/internal/security"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterHealthRoutes registers health check and fallback error routes.
func RegisterHealthRoutes(r *gin.Engine, gormDB *gorm.DB, authManager *auth.SimpleAuthManager, encryptionManager *security.EncryptionManager) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"database":  gormDB != nil,
			"auth":      authManager != nil,
			"security":  encryptionManager != nil,
			"timestamp": time.Now(),
		})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"status": "error", "message": "not found"})
	})

	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		c.JSON(500, gin.H{"status": "error", "message": "internal server error"})
	}))
}
