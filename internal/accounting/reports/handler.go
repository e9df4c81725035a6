package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	accounts AccountLister
	activity ActivitySource
	logger   *slog.Logger
}

func NewHandler(logger *slog.Logger, accounts AccountLister, activity ActivitySource) *Handler {
	return &Handler{logger: logger, accounts: accounts, activity: activity}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/profit-and-loss", h.ProfitAndLoss)
	r.Get("/balance-sheet", h.BalanceSheet)
}

func (h *Handler) rows(r *http.Request) ([]AccountBalance, error) {
	var rng ledger.Range
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
		rng.Start = start
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
		rng.End = end
	}
	return LoadRows(r.Context(), h.accounts, h.activity, rng)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r)
	if err != nil {
		h.logger.Error("trial balance rows", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BuildTrialBalance(rows))
}

func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r)
	if err != nil {
		h.logger.Error("profit and loss rows", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BuildProfitAndLoss(rows))
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r)
	if err != nil {
		h.logger.Error("balance sheet rows", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BuildBalanceSheet(rows))
}
