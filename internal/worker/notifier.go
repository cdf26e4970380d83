package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/email"
)

type mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// OrderNotifier sends a confirmation mail for every placed order.
type OrderNotifier struct {
	mailer mailer
	logger *slog.Logger
}

func NewOrderNotifier(mailer mailer, logger *slog.Logger) *OrderNotifier {
	return &OrderNotifier{
		mailer: mailer,
		logger: logger,
	}
}

// Handle processes one order.placed payload. A returned error stops the
// consumer before the offset is committed.
func (n *OrderNotifier) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	n.logger.Info("processing order placed event", "order_id", event.OrderID, "event_id", event.EventID)

	if err := n.mailer.Send(ctx, confirmationMessage(event)); err != nil {
		n.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	n.logger.Info("order confirmation sent", "order_id", event.OrderID)
	return nil
}

func confirmationMessage(event domain.OrderPlacedEvent) email.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "Thank you for your order #%d.\n\n", event.OrderID)
	for _, item := range event.Items {
		fmt.Fprintf(&body, "  variant %d x %d @ %s\n", item.VariantID, item.Quantity, item.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&body, "\nTotal: %s\n", event.TotalPrice.StringFixed(2))

	return email.Message{
		To:      event.Email,
		Subject: fmt.Sprintf("Order Confirmation: #%d", event.OrderID),
		Body:    body.String(),
	}
}
