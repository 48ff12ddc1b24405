package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guesthouse-occupancy-backend/internal/mw"
	"guesthouse-occupancy-backend/internal/occupancy"
	"guesthouse-occupancy-backend/internal/store"
)

// RouterOptions carries the optional pieces of the router. Nil fields
// disable the corresponding feature.
type RouterOptions struct {
	RateLimiter *mw.IPRateLimiter
	Cache       *mw.ResponseCache
	Gatherer    prometheus.Gatherer
}

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *occupancy.Service, s store.Store, opts RouterOptions) *gin.Engine {
	r := gin.Default()
	handler := NewHandler(svc, s)

	caching := func(c *gin.Context) { c.Next() }
	if opts.Cache != nil {
		caching = opts.Cache.Middleware()
		svc.OnChange(opts.Cache.Flush)
	}

	r.GET("/healthz", handler.Healthz)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	limited := r.Group("")
	if opts.RateLimiter != nil {
		limited.Use(mw.RateLimiter(opts.RateLimiter))
	}

	// API group
	api := limited.Group("/api")
	{
		api.GET("/admin", caching, handler.GetAdmin)
		api.POST("/admin/settings", handler.PostSettings)
		api.GET("/facility", caching, handler.GetFacility)

		api.POST("/guests", handler.PostGuest)
		api.GET("/guests", handler.GetGuests)
		api.POST("/guests/exit", handler.PostExit)

		api.GET("/occupancy", handler.GetOccupancy)
	}

	// Paths and payloads of the first deployment's front end.
	limited.GET("/admin_page/", caching, handler.LegacyAdminPage)
	limited.POST("/set_admin_settings/", handler.LegacySetAdminSettings)
	limited.POST("/set_guest/", handler.LegacySetGuest)
	limited.GET("/set_exit_page/", handler.LegacySetExitPage)
	limited.POST("/set_exit/", handler.LegacySetExit)
	limited.GET("/exit_page/", handler.LegacyExitPage)

	return r
}
