//go:build integration

package test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/cart"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/email"
	"github.com/joao-fontenele/storefront-checkout/internal/messaging"
	"github.com/joao-fontenele/storefront-checkout/internal/worker"
)

func TestKafkaConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	if len(brokers) == 0 {
		t.Fatal("expected at least one broker")
	}

	t.Logf("kafka brokers: %v", brokers)
}

func createTopic(ctx context.Context, t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		t.Fatalf("failed to dial kafka: %v", err)
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		t.Fatalf("failed to find controller: %v", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		t.Fatalf("failed to dial controller: %v", err)
	}
	defer func() { _ = controllerConn.Close() }()

	if err := controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}); err != nil {
		t.Fatalf("failed to create topic %s: %v", topic, err)
	}
}

type mailCapture struct {
	mu       sync.Mutex
	messages []email.Message
}

func (m *mailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var msg email.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (m *mailCapture) sent() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]email.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func TestOrderPlacedEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokers, cleanupKafka := SetupKafka(ctx, t)
	defer cleanupKafka()

	const topic = "order.placed"
	createTopic(ctx, t, brokers[0], topic)

	db := OpenDB(t, pg.ConnStr)
	logger := newLogger()

	producer := messaging.NewProducer(brokers, topic)
	defer func() { _ = producer.Close() }()

	engine := newEngine(t, db, producer)
	carts := cart.NewService(db, logger)

	SeedAccount(ctx, t, db, "events@example.com", "5554443333")
	variantID := SeedVariant(ctx, t, db, "Event Poster", 4, "9.99")
	c, err := carts.GetOrCreateCart(ctx, "events@example.com")
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := carts.AddToCart(ctx, c.ID, variantID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	result, err := engine.Checkout(ctx, checkoutRequest(c.ID), "")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	mails := &mailCapture{}
	relayMux := http.NewServeMux()
	relayMux.HandleFunc("POST /send", mails.handler)
	relay := httptest.NewServer(relayMux)
	defer relay.Close()

	notifier := worker.NewOrderNotifier(email.NewClient(relay.URL, relay.Client()), logger)
	consumer := messaging.NewConsumer(brokers, topic, "order-notifier-test",
		messaging.WithStartOffset(kafka.FirstOffset),
		messaging.WithMaxWait(500*time.Millisecond),
	)
	defer func() { _ = consumer.Close() }()

	consumeCtx, stopConsumer := context.WithTimeout(ctx, time.Minute)
	defer stopConsumer()

	received := make(chan domain.OrderPlacedEvent, 1)
	go func() {
		_ = consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
			if err := notifier.Handle(ctx, payload); err != nil {
				return err
			}
			var event domain.OrderPlacedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return err
			}
			received <- event
			return nil
		})
	}()

	var event domain.OrderPlacedEvent
	select {
	case event = <-received:
	case <-consumeCtx.Done():
		t.Fatal("timed out waiting for order placed event")
	}
	stopConsumer()

	if event.OrderID != result.OrderID || event.Email != "events@example.com" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.EventID == "" {
		t.Error("expected event id")
	}
	if !event.TotalPrice.Equal(decimal.RequireFromString("19.98")) {
		t.Errorf("expected total 19.98, got %s", event.TotalPrice)
	}
	if len(event.Items) != 1 || event.Items[0].VariantID != variantID {
		t.Errorf("unexpected event items: %+v", event.Items)
	}

	sent := mails.sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sent))
	}
	if sent[0].To != "events@example.com" {
		t.Errorf("expected mail to events@example.com, got %q", sent[0].To)
	}
}
