package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/infrastructure/config"
)

// CORS builds the CORS middleware from the HTTP config. With no allowed
// origins configured cross-origin requests get no CORS headers at all.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	if len(cfg.CORSAllowOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	corsConfig := cors.DefaultConfig()
	if slices.Contains(cfg.CORSAllowOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowOrigins
		corsConfig.AllowCredentials = true
	}
	if len(cfg.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.CORSAllowHeaders
	} else {
		corsConfig.AddAllowHeaders("Authorization", RequestIDHeader)
	}
	corsConfig.ExposeHeaders = []string{RequestIDHeader, "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	return cors.New(corsConfig)
}
