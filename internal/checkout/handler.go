package checkout

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/httpapi"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type checkoutEngine interface {
	Checkout(ctx context.Context, req Request, idempotencyKey string) (*Result, error)
}

type Handler struct {
	engine checkoutEngine
	logger *slog.Logger
}

func NewHandler(engine checkoutEngine, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	cartID, err := httpapi.PathID(r, "cartId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req Request
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.CartID = cartID

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if err := httpapi.ValidateVar(IdempotencyKeyHeader, key, "max=255"); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.engine.Checkout(r.Context(), req, key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	httpapi.WriteJSON(w, h.logger, status, data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpapi.WriteError(w, r, h.logger, err)
}
