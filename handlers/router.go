package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tomsarry/tubescope/middleware"
	"github.com/tomsarry/tubescope/web"
)

func newEngine(corsOrigins []string, metrics *Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware())
	r.Use(middleware.NewCORS(corsOrigins))
	r.SetHTMLTemplate(web.Templates())
	return r
}

// NewDashboardRouter builds the search dashboard.
func NewDashboardRouter(d *Dashboard, health *Health, metrics *Metrics, corsOrigins []string) *gin.Engine {
	r := newEngine(corsOrigins, metrics)

	r.GET("/", d.Index)
	r.POST("/search", d.Search)

	api := r.Group("/api")
	api.GET("/quota", d.Quota)
	api.GET("/results", d.Results)
	api.POST("/search", d.SearchAPI)

	r.GET("/health", health.Handle)
	r.GET("/metrics", metrics.Handler())
	return r
}

// NewDetectorRouter builds the image upload app.
func NewDetectorRouter(u *Uploads, limiter *middleware.RateLimiter, health *Health, metrics *Metrics, corsOrigins []string) *gin.Engine {
	r := newEngine(corsOrigins, metrics)
	r.MaxMultipartMemory = 8 << 20

	r.GET("/", u.Form)
	r.POST("/upload", limiter.Handler(), u.Upload)
	r.GET("/uploads/:filename", u.File)

	r.GET("/health", health.Handle)
	r.GET("/metrics", metrics.Handler())
	return r
}
