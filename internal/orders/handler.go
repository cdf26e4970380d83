package orders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/httpapi"
)

type orderStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, orderStatus domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error)
}

type Handler struct {
	repo   orderStore
	logger *slog.Logger
}

func NewHandler(repo orderStore, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("order retrieved", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		h.writeError(w, r, domain.NewValidationError("email", "is required"))
		return
	}

	orders, err := h.repo.ListByEmail(r.Context(), email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	OrderStatus   domain.OrderStatus   `json:"order_status" validate:"omitempty,order_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status" validate:"omitempty,payment_status"`
}

func (req updateStatusRequest) validate() error {
	if req.OrderStatus == "" && req.PaymentStatus == "" {
		return domain.NewValidationError("order_status", "order_status or payment_status is required")
	}
	return httpapi.Validate(req)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), id, req.OrderStatus, req.PaymentStatus)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "order_status", order.OrderStatus, "payment_status", order.PaymentStatus)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	httpapi.WriteJSON(w, h.logger, status, data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpapi.WriteError(w, r, h.logger, err)
}
