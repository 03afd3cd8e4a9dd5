package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox/payloads"
)

type captureWriter struct {
	rows []OrderRevenueRow
}

func (c *captureWriter) Insert(ctx context.Context, row OrderRevenueRow) error {
	c.rows = append(c.rows, row)
	return nil
}

func newTestRouter(t *testing.T) (*Router, *captureWriter) {
	t.Helper()
	writer := &captureWriter{}
	log := logger.New(logger.Options{ServiceName: "analytics-test", Level: zerolog.Disabled})
	router, err := NewRouter(writer, log)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, writer
}

func mustMarshal(t *testing.T, payload any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestRouterOrderCreated(t *testing.T) {
	router, writer := newTestRouter(t)
	orderID := uuid.New()
	occurred := time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC)

	payload := mustMarshal(t, payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "CL-20260303-0001",
		CustomerID:  uuid.New(),
		Total:       "102.60",
		ItemCount:   2,
	})

	err := router.Handle(context.Background(), Envelope{
		EventID:    uuid.NewString(),
		EventType:  enums.EventOrderCreated,
		OccurredAt: occurred,
		Payload:    payload,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(writer.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(writer.rows))
	}
	row := writer.rows[0]
	if row.TotalCents != 10260 {
		t.Fatalf("expected 10260 cents, got %d", row.TotalCents)
	}
	if row.OrderID != orderID.String() {
		t.Fatalf("unexpected order id %s", row.OrderID)
	}
	if row.FinancialDay != FinancialDay(occurred) {
		t.Fatalf("unexpected financial day %v", row.FinancialDay)
	}
	if row.ItemCount == nil || *row.ItemCount != 2 {
		t.Fatalf("unexpected item count %v", row.ItemCount)
	}
}

func TestRouterOrderCancelledNegatesTotal(t *testing.T) {
	router, writer := newTestRouter(t)

	payload := mustMarshal(t, payloads.OrderCancelledEvent{
		OrderID:     uuid.New(),
		OrderNumber: "CL-20260303-0002",
		CustomerID:  uuid.New(),
		CancelledAt: time.Now().UTC(),
		Total:       "50.00",
		Reason:      "customer request",
	})

	err := router.Handle(context.Background(), Envelope{
		EventID:    uuid.NewString(),
		EventType:  enums.EventOrderCancelled,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(writer.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(writer.rows))
	}
	row := writer.rows[0]
	if row.TotalCents != -5000 {
		t.Fatalf("expected -5000 cents, got %d", row.TotalCents)
	}
	if row.CancelReason == nil || *row.CancelReason != "customer request" {
		t.Fatalf("unexpected cancel reason %v", row.CancelReason)
	}
}

func TestRouterSkipsNonRevenueEvents(t *testing.T) {
	router, writer := newTestRouter(t)

	err := router.Handle(context.Background(), Envelope{
		EventID:   uuid.NewString(),
		EventType: enums.EventOrderShipped,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(writer.rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(writer.rows))
	}
}

func TestRouterRejectsBadTotal(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := mustMarshal(t, map[string]any{"total": "not-a-number"})
	err := router.Handle(context.Background(), Envelope{
		EventID:   uuid.NewString(),
		EventType: enums.EventOrderCreated,
		Payload:   payload,
	})
	if err == nil {
		t.Fatal("expected error for malformed total")
	}
}
