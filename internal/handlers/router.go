package handlers

import (
	"net/http"

	"bantayani/internal/database/postgres"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router bundles everything the API exposes. Nil fields are skipped, so tests
// can mount a single handler.
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Detections *DetectionHandler
	Farms      *FarmHandler
	Advisories *AdvisoryHandler
	Messages   *MessageHandler
	AI         *AIHandler
	Realtime   gin.HandlerFunc
	Registry   *prometheus.Registry
}

func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/checkhealth", func(c *gin.Context) {
		status := http.StatusOK
		if !postgres.Healthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"service": "bantayani-api", "database": postgres.Healthy()})
	})
	if r.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})))
	}

	public := engine.Group("/api/v1")
	protected := public.Group("")
	protected.Use(r.Middleware.RequireAuth())

	if r.Auth != nil {
		r.Auth.RegisterRoutes(public, protected)
	}
	if r.Detections != nil {
		r.Detections.RegisterRoutes(protected)
	}
	if r.Farms != nil {
		r.Farms.RegisterRoutes(protected)
	}
	if r.Advisories != nil {
		r.Advisories.RegisterRoutes(protected)
	}
	if r.Messages != nil {
		r.Messages.RegisterRoutes(protected)
	}
	if r.AI != nil {
		r.AI.RegisterRoutes(protected)
	}
	if r.Realtime != nil {
		protected.GET("/realtime", r.Realtime)
	}
	return engine
}
