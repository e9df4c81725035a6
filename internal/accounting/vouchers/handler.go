package vouchers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list vouchers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]VoucherResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toVoucherResponse(v))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid voucher id", http.StatusBadRequest)
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toVoucherResponse(v))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := req.Input()
	if err != nil {
		http.Error(w, "invalid voucher date", http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toVoucherResponse(created))
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid voucher id", http.StatusBadRequest)
		return
	}
	result, err := h.service.Post(r.Context(), id, actorID(r))
	if err != nil {
		h.logger.Warn("post voucher", slog.Int64("voucher", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPostResponse(result))
}

type reverseRequest struct {
	Memo string `json:"memo"`
	Date string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid voucher id", http.StatusBadRequest)
		return
	}
	var req reverseRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in := ReverseInput{VoucherID: id, ActorID: actorID(r), Memo: req.Memo}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, "invalid reversal date", http.StatusBadRequest)
			return
		}
		in.Date = &date
	}
	result, err := h.service.Reverse(r.Context(), in)
	if err != nil {
		h.logger.Warn("reverse voucher", slog.Int64("voucher", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPostResponse(result))
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// actorID comes from the excluded auth layer; the header is how it hands
// the caller identity through.
func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}
