package coa

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/tree", h.Tree)
}

// AccountResponse mirrors a chart of accounts node.
type AccountResponse struct {
	ID            int64         `json:"id"`
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Type          AccountType   `json:"type"`
	NormalBalance NormalBalance `json:"normalBalance"`
	ParentID      *int64        `json:"parentId,omitempty"`
	Level         int           `json:"level"`
	IsPostable    bool          `json:"isPostable"`
	CashClass     CashClass     `json:"cashClass"`
}

// TreeNode is one node of the rendered account forest.
type TreeNode struct {
	AccountResponse
	Children []TreeNode `json:"children,omitempty"`
}

func toAccountResponse(a Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Type:          a.Type,
		NormalBalance: a.NormalBalance(),
		ParentID:      a.ParentID,
		Level:         a.Level,
		IsPostable:    a.IsPostable,
		CashClass:     a.EffectiveCashClass(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	forest, err := h.service.Forest(r.Context())
	if err != nil {
		h.logger.Error("build account tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, renderNodes(forest, forest.Roots()))
}

func renderNodes(f *Forest, accounts []Account) []TreeNode {
	out := make([]TreeNode, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, TreeNode{
			AccountResponse: toAccountResponse(a),
			Children:        renderNodes(f, f.Children(a.ID)),
		})
	}
	return out
}

type createAccountRequest struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	ParentID   *int64    `json:"parentId,omitempty"`
	IsPostable bool      `json:"isPostable"`
	CashClass  CashClass `json:"cashClass,omitempty"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), CreateInput{
		Code:       req.Code,
		Name:       req.Name,
		Type:       AccountType(req.Type),
		ParentID:   req.ParentID,
		IsPostable: req.IsPostable,
		CashClass:  req.CashClass,
	})
	if err != nil {
		h.logger.Warn("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(created))
}
