package cart

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/catalog"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/httpapi"
	"github.com/joao-fontenele/storefront-checkout/internal/store"
)

// Service owns cart mutations and the advisory stock check performed when a
// line is added or resized. No stock is held: checkout re-validates against
// the locked variant rows.
type Service struct {
	db       *sql.DB
	carts    *Repository
	variants *catalog.VariantRepository
	logger   *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		carts:    NewRepository(db),
		variants: catalog.NewVariantRepository(db),
		logger:   logger,
	}
}

func (s *Service) GetOrCreateCart(ctx context.Context, email string) (*domain.Cart, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.carts.GetOrCreate(ctx, email)
}

func (s *Service) GetCartView(ctx context.Context, email string) (*domain.CartView, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.carts.View(ctx, email)
}

// AddToCart adds quantity units of a variant. The check is cumulative: the
// resulting line quantity may not exceed the variant's current stock.
func (s *Service) AddToCart(ctx context.Context, cartID, variantID int64, quantity int) (*domain.AddResult, error) {
	if err := validateLine(cartID, variantID, quantity); err != nil {
		return nil, err
	}

	var result *domain.AddResult
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		if _, err := carts.GetForShare(ctx, cartID); err != nil {
			return err
		}

		variant, err := s.variants.WithTx(tx).Get(ctx, variantID)
		if err != nil {
			return err
		}
		if !variant.Available() {
			return domain.ErrVariantUnavailable
		}
		if quantity > variant.StockQuantity {
			return &domain.InsufficientStockError{VariantID: variantID, Available: variant.StockQuantity, Requested: quantity}
		}

		result, err = carts.AddLine(ctx, cartID, variantID, quantity, variant.Price, variant.StockQuantity)
		if errors.Is(err, domain.ErrInsufficientStock) {
			return &domain.InsufficientStockError{VariantID: variantID, Available: variant.StockQuantity, Requested: quantity}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart line added",
		"cart_id", cartID,
		"variant_id", variantID,
		"quantity", result.Quantity,
		"is_new_item", result.IsNewItem,
	)
	return result, nil
}

// UpdateQuantity overwrites the line quantity after checking it against the
// variant's current stock.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, variantID int64, quantity int) error {
	if err := validateLine(cartID, variantID, quantity); err != nil {
		return err
	}

	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		if _, err := carts.GetForShare(ctx, cartID); err != nil {
			return err
		}

		variant, err := s.variants.WithTx(tx).Get(ctx, variantID)
		if err != nil {
			return err
		}
		if quantity > variant.StockQuantity {
			return &domain.InsufficientStockError{VariantID: variantID, Available: variant.StockQuantity, Requested: quantity}
		}

		return carts.SetQuantity(ctx, cartID, variantID, quantity)
	})
	if err != nil {
		return err
	}

	s.logger.Info("cart line updated", "cart_id", cartID, "variant_id", variantID, "quantity", quantity)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, cartID, variantID int64) error {
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		if _, err := carts.GetForShare(ctx, cartID); err != nil {
			return err
		}
		return carts.RemoveLine(ctx, cartID, variantID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("cart line removed", "cart_id", cartID, "variant_id", variantID)
	return nil
}

func validateLine(cartID, variantID int64, quantity int) error {
	return httpapi.Validate(lineRequest{CartID: cartID, VariantID: variantID, Quantity: quantity})
}

func normalizeEmail(email string) (string, error) {
	req := createCartRequest{Email: strings.TrimSpace(email)}
	if err := httpapi.Validate(req); err != nil {
		return "", err
	}
	return req.Email, nil
}
