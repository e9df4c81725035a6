package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

// MountRoutes registers the audit timeline and CSV export endpoints. The
// export route carries its own tighter rate limit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(exportRateLimit, exportRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Get("/audit", h.handleTimeline)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/audit/export.csv", h.handleExport)
	})
}
