package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	query      *QueryService
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(logger *slog.Logger, query *QueryService, aggregator *Aggregator) *Handler {
	return &Handler{logger: logger, query: query, aggregator: aggregator}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts/{id}/ledger", h.AccountLedger)
	r.Get("/accounts/{id}/balance", h.AccountBalance)
	r.Get("/accounts/{id}/subtree-balance", h.SubtreeBalance)
	r.Get("/dealers/{id}/ledger", h.DealerLedger)
}

// parseRange reads optional startDate/endDate query params.
func parseRange(r *http.Request) (Range, error) {
	var rng Range
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Range{}, err
		}
		rng.Start = start
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Range{}, err
		}
		rng.End = end
	}
	return rng, nil
}

func (h *Handler) AccountLedger(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}
	view, err := h.query.AccountLedger(r.Context(), id, rng)
	if err != nil {
		h.logger.Error("account ledger", slog.Int64("account", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respondView(w, r, view)
}

func (h *Handler) DealerLedger(w http.ResponseWriter, r *http.Request) {
	dealerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid dealer id", http.StatusBadRequest)
		return
	}
	view, err := h.query.DealerLedger(r.Context(), dealerID)
	if err != nil {
		h.logger.Error("dealer ledger", slog.String("dealer", dealerID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respondView(w, r, view)
}

// respondView serves JSON or CSV from the same computed view, so the export
// can never drift from what the screen shows.
func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, view View) {
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
		if err := WriteCSV(w, view); err != nil {
			h.logger.Error("write csv", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) AccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}
	totals, err := h.aggregator.AccountTotals(r.Context(), id, rng)
	if err != nil {
		h.logger.Error("account balance", slog.Int64("account", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *Handler) SubtreeBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}
	totals, err := h.aggregator.SubtreeTotals(r.Context(), id, rng)
	if err != nil {
		h.logger.Error("subtree balance", slog.Int64("account", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}
