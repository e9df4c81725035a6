package audithttp

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/audit"
	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

// Handler serves the audit trail read endpoints.
type Handler struct {
	service *audit.Service
	logger  *slog.Logger
}

func NewHandler(service *audit.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Timeline(r.Context(), parseFilters(r))
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

var exportHeader = []string{"At", "Actor", "Action", "Entity", "Entity ID"}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	// Export pages like the timeline; clients walk pages for a full dump.
	result, err := h.service.Timeline(r.Context(), parseFilters(r))
	if err != nil {
		h.logger.Error("audit export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, row := range result.Rows {
		_ = cw.Write([]string{
			row.At.Format(time.RFC3339),
			strconv.FormatInt(row.ActorID, 10),
			row.Action,
			row.Entity,
			row.EntityID,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("audit export write", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) audit.TimelineFilters {
	q := r.URL.Query()
	filters := audit.TimelineFilters{
		Entity: q.Get("entity"),
		Action: q.Get("action"),
		Page:   pageFromQuery(r),
	}
	if v := q.Get("actorId"); v != "" {
		filters.ActorID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("pageSize"); v != "" {
		filters.PageSize, _ = strconv.Atoi(v)
	}
	if t, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		filters.From = t
	}
	if t, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		// Inclusive end of day.
		filters.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	return filters
}

func pageFromQuery(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return page
}
