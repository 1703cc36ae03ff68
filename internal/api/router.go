package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"ibis-route-manager/config"
	"ibis-route-manager/internal/mw"
)

// NewRouter creates and configures the gin router serving the UI operations.
func NewRouter(h *Handler, cfg config.ServerConfig, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)
	invalidate := mw.Invalidate(cacheStore)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/routes", caching, h.ListRoutes)
		api.POST("/routes", invalidate, h.AddRoute)
		api.PUT("/routes/:id", invalidate, h.UpdateRoute)
		api.DELETE("/routes/:id", invalidate, h.DeleteRoute)
		api.GET("/routes/:id/telegrams", h.GetTelegrams)

		api.POST("/export", h.ExportData)
	}

	return r
}
