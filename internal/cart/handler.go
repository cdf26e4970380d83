package cart

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/httpapi"
)

type cartService interface {
	GetOrCreateCart(ctx context.Context, email string) (*domain.Cart, error)
	GetCartView(ctx context.Context, email string) (*domain.CartView, error)
	AddToCart(ctx context.Context, cartID, variantID int64, quantity int) (*domain.AddResult, error)
	UpdateQuantity(ctx context.Context, cartID, variantID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID, variantID int64) error
}

type Handler struct {
	service cartService
	logger  *slog.Logger
}

func NewHandler(service cartService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createCartRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) HandleGetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req createCartRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	cart, err := h.service.GetOrCreateCart(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("cart resolved", "cart_id", cart.ID)
	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) HandleGetByAccount(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetCartView(r.Context(), r.PathValue("email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("cart viewed", "items", len(view.Products))
	h.writeJSON(w, http.StatusOK, view)
}

type lineRequest struct {
	CartID    int64 `json:"cart_id" validate:"gt=0"`
	VariantID int64 `json:"variant_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.AddToCart(r.Context(), req.CartID, req.VariantID, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), req.CartID, req.VariantID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, req)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := httpapi.PathID(r, "cartId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	variantID, err := httpapi.PathID(r, "variantId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.RemoveItem(r.Context(), cartID, variantID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	httpapi.WriteJSON(w, h.logger, status, data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpapi.WriteError(w, r, h.logger, err)
}
