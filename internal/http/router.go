package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sqcb_dashboard/backend/internal/config"
	"github.com/sqcb_dashboard/backend/internal/db"
	"github.com/sqcb_dashboard/backend/internal/http/handlers"
	"github.com/sqcb_dashboard/backend/internal/http/middleware"
	"github.com/sqcb_dashboard/backend/internal/service"

	_ "github.com/sqcb_dashboard/backend/docs"
)

// Deps are the runtime collaborators the router wires into handlers. Store
// and Sync are nil when no database is configured.
type Deps struct {
	Store      *db.Store
	Loader     *service.Loader
	Sync       *service.SyncService
	Classifier service.Classifier
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", "X-Admin-Key", "X-Request-Id"},
		ExposeHeaders:    []string{"ETag", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	origins := splitOrigins(cfg.CORSAllowed)
	if cfg.CORSAllowed == "*" || len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Loader:     deps.Loader,
		Sync:       deps.Sync,
		Classifier: deps.Classifier,
		Validator:  validator.New(),
		Logger:     logger,
	}
	// A nil *db.Store must stay a nil interface.
	if deps.Store != nil {
		h.Store = deps.Store
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		api.GET("/dashboard", h.Dashboard)
		api.GET("/dashboard/categories/:name", h.DashboardCategory)
		api.GET("/records", h.RecordsList)
		api.GET("/sites", h.SitesList)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/sync", h.SyncNow)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
