package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/reports"
	"github.com/atlas-erp/atlas-erp/internal/accounting/vouchers"
	audithttp "github.com/atlas-erp/atlas-erp/internal/audit/http"
	"github.com/atlas-erp/atlas-erp/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Metrics         *observability.Metrics
	AccountsHandler *coa.Handler
	VouchersHandler *vouchers.Handler
	LedgerHandler   *ledger.Handler
	ReportsHandler  *reports.Handler
	AuditHandler    *audithttp.Handler
	Integrity       *ledger.IntegrityChecker
}

// NewRouter constructs the chi.Router with Atlas defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/accounting", func(r chi.Router) {
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/vouchers", params.VouchersHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		params.LedgerHandler.MountRoutes(r)
		params.AuditHandler.MountRoutes(r)
		if params.Integrity != nil {
			r.Get("/integrity", params.Integrity.ServeHTTP)
		}
	})

	return r
}
