package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sqcb_dashboard/backend/internal/db"
	"github.com/sqcb_dashboard/backend/internal/models"
	"github.com/sqcb_dashboard/backend/internal/service"
	"github.com/sqcb_dashboard/backend/internal/sqcbapi"
	"github.com/sqcb_dashboard/backend/internal/utils"
)

// RunStore is the part of the snapshot store the handlers read from.
type RunStore interface {
	Ping(ctx context.Context) error
	GetLatestRun(ctx context.Context) (models.Run, error)
}

type Handler struct {
	Store      RunStore
	Loader     *service.Loader
	Sync       *service.SyncService
	Classifier service.Classifier
	Validator  *validator.Validate
	Logger     zerolog.Logger
	Now        func() time.Time
}

type DashboardQuery struct {
	Plant  string `form:"plant" validate:"omitempty,oneof=all Thailand York Tomahawk"`
	Search string `form:"q" validate:"max=200"`
}

func (q DashboardQuery) Filter() service.Filter {
	return service.Filter{Plant: q.Plant, Search: q.Search}
}

type Site struct {
	Name       string   `json:"name"`
	PlantCodes []string `json:"plant_codes"`
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Dashboard
// @Description Classify SQCB records into dashboard categories
// @Tags dashboard
// @Produce json
// @Param plant query string false "Site" Enums(all, Thailand, York, Tomahawk)
// @Param q query string false "Free-text search"
// @Success 200 {object} service.AggregateResult
// @Success 304
// @Failure 400 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	result, ok := h.evaluate(c)
	if !ok {
		return
	}
	h.respondCached(c, dashboardTag{
		WindowDays: result.WindowDays,
		Total:      result.Total,
		Overview:   result.Overview,
		Categories: result.Categories,
	}, result)
}

// @Summary Dashboard category
// @Tags dashboard
// @Produce json
// @Param name path string true "Category name"
// @Param plant query string false "Site" Enums(all, Thailand, York, Tomahawk)
// @Param q query string false "Free-text search"
// @Success 200 {object} service.CategoryResult
// @Failure 404 {object} map[string]any
// @Router /api/dashboard/categories/{name} [get]
func (h *Handler) DashboardCategory(c *gin.Context) {
	name := service.Category(c.Param("name"))
	if !knownCategory(name) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Unknown category", string(name))
		return
	}
	result, ok := h.evaluate(c)
	if !ok {
		return
	}
	category, _ := result.Category(name)
	h.respondCached(c, category, category)
}

// @Summary SQCB full report
// @Tags records
// @Produce json
// @Param plant query string false "Site" Enums(all, Thailand, York, Tomahawk)
// @Param q query string false "Free-text search"
// @Success 200 {object} map[string]any
// @Router /api/records [get]
func (h *Handler) RecordsList(c *gin.Context) {
	query, ok := h.bindQuery(c)
	if !ok {
		return
	}
	records, ok := h.loadRecords(c)
	if !ok {
		return
	}
	items := query.Filter().Apply(records)
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// @Summary Sites
// @Tags records
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/sites [get]
func (h *Handler) SitesList(c *gin.Context) {
	items := make([]Site, 0, len(service.Sites))
	for _, name := range service.SiteNames() {
		items = append(items, Site{Name: name, PlantCodes: service.Sites[name]})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Sync snapshot
// @Description Pull records from the upstream API into the database snapshot
// @Tags sync
// @Produce json
// @Success 200 {object} service.SyncSummary
// @Failure 409 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/sync [post]
func (h *Handler) SyncNow(c *gin.Context) {
	if h.Sync == nil {
		writeError(c, http.StatusConflict, "SYNC_DISABLED", "Sync requires DATABASE_URL", nil)
		return
	}
	summary, err := h.Sync.Sync(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			writeError(c, http.StatusConflict, "SYNC_IN_PROGRESS", "A sync is already running", nil)
			return
		}
		h.Logger.Error().Err(err).Str("run_id", summary.RunID).Msg("sync failed")
		writeError(c, http.StatusBadGateway, "SYNC_FAILED", "Sync failed", summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	if h.Store == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", "no database configured")
		return
	}
	run, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNoRuns) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

// dashboardTag is the part of an AggregateResult that identifies its
// content. Now is left out so an unchanged dashboard keeps its tag.
type dashboardTag struct {
	WindowDays int                                         `json:"window_days"`
	Total      int                                         `json:"total"`
	Overview   service.Overview                            `json:"overview"`
	Categories map[service.Category]service.CategoryResult `json:"categories"`
}

func (h *Handler) evaluate(c *gin.Context) (service.AggregateResult, bool) {
	query, ok := h.bindQuery(c)
	if !ok {
		return service.AggregateResult{}, false
	}
	records, ok := h.loadRecords(c)
	if !ok {
		return service.AggregateResult{}, false
	}
	return h.Classifier.Evaluate(records, query.Filter(), h.now()), true
}

func (h *Handler) bindQuery(c *gin.Context) (DashboardQuery, bool) {
	var query DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid query", err.Error())
		return query, false
	}
	if err := h.Validator.Struct(query); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return query, false
	}
	return query, true
}

func (h *Handler) loadRecords(c *gin.Context) ([]models.Record, bool) {
	records, err := h.Loader.Records(c.Request.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to load records")
		if errors.Is(err, sqcbapi.ErrUpstream) {
			writeError(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to load SQCB records", err.Error())
			return nil, false
		}
		writeError(c, http.StatusInternalServerError, "LOAD_ERROR", "Failed to load SQCB records", err.Error())
		return nil, false
	}
	return records, true
}

// respondCached writes body with an ETag derived from tag, or 304 when the
// client already holds it.
func (h *Handler) respondCached(c *gin.Context, tag any, body any) {
	etag, err := utils.ETag(tag)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("etag failed")
		c.JSON(http.StatusOK, body)
		return
	}
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if utils.ETagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func knownCategory(name service.Category) bool {
	for _, c := range service.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
