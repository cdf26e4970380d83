package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/httpapi"
)

type variantReader interface {
	Get(ctx context.Context, id int64) (*domain.Variant, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.Variant, error)
}

type Handler struct {
	repo   variantReader
	logger *slog.Logger
}

func NewHandler(repo variantReader, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := httpapi.PathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	variants, err := h.repo.ListByProduct(r.Context(), productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("variants listed", "product_id", productID, "count", len(variants))
	h.writeJSON(w, http.StatusOK, variants)
}

func (h *Handler) HandleGetVariant(w http.ResponseWriter, r *http.Request) {
	variantID, err := httpapi.PathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	variant, err := h.repo.Get(r.Context(), variantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("variant retrieved", "variant_id", variantID)
	h.writeJSON(w, http.StatusOK, variant)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	httpapi.WriteJSON(w, h.logger, status, data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpapi.WriteError(w, r, h.logger, err)
}
