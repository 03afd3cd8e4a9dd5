package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox/payloads"
)

// Envelope is the decoded analytics event handed to the router.
type Envelope struct {
	EventID    string
	EventType  enums.OutboxEventType
	OccurredAt time.Time
	Payload    json.RawMessage
}

type rowWriter interface {
	Insert(ctx context.Context, row OrderRevenueRow) error
}

// Router fans analytics envelopes out to the revenue handlers. Events
// without a revenue meaning are acknowledged and skipped.
type Router struct {
	writer rowWriter
	logg   *logger.Logger
}

// NewRouter wires the revenue handlers.
func NewRouter(writer rowWriter, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, fmt.Errorf("revenue writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Router{writer: writer, logg: logg}, nil
}

// Handle routes one envelope. Unknown event types are not an error.
func (r *Router) Handle(ctx context.Context, envelope Envelope) error {
	switch envelope.EventType {
	case enums.EventOrderCreated:
		return r.handleOrderCreated(ctx, envelope)
	case enums.EventOrderCancelled:
		return r.handleOrderCancelled(ctx, envelope)
	}
	return nil
}

func (r *Router) handleOrderCreated(ctx context.Context, envelope Envelope) error {
	var event payloads.OrderCreatedEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return fmt.Errorf("decode order_created payload: %w", err)
	}

	totalCents, err := totalToCents(event.Total)
	if err != nil {
		return err
	}
	payloadJSON, err := EncodeJSON(envelope.Payload)
	if err != nil {
		return fmt.Errorf("encode payload json: %w", err)
	}

	itemCount := int64(event.ItemCount)
	row := OrderRevenueRow{
		EventID:      envelope.EventID,
		EventType:    string(envelope.EventType),
		OccurredAt:   envelope.OccurredAt,
		FinancialDay: FinancialDay(envelope.OccurredAt),
		OrderID:      event.OrderID.String(),
		OrderNumber:  event.OrderNumber,
		CustomerID:   event.CustomerID.String(),
		TotalCents:   totalCents,
		ItemCount:    &itemCount,
		Payload:      payloadJSON,
	}
	if err := r.writer.Insert(ctx, row); err != nil {
		return err
	}
	r.logg.Info(r.logg.WithOrderID(ctx, row.OrderID), "revenue row inserted")
	return nil
}

func (r *Router) handleOrderCancelled(ctx context.Context, envelope Envelope) error {
	var event payloads.OrderCancelledEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return fmt.Errorf("decode order_cancelled payload: %w", err)
	}

	totalCents, err := totalToCents(event.Total)
	if err != nil {
		return err
	}
	payloadJSON, err := EncodeJSON(envelope.Payload)
	if err != nil {
		return fmt.Errorf("encode payload json: %w", err)
	}

	row := OrderRevenueRow{
		EventID:      envelope.EventID,
		EventType:    string(envelope.EventType),
		OccurredAt:   envelope.OccurredAt,
		FinancialDay: FinancialDay(envelope.OccurredAt),
		OrderID:      event.OrderID.String(),
		OrderNumber:  event.OrderNumber,
		CustomerID:   event.CustomerID.String(),
		TotalCents:   -totalCents,
		Payload:      payloadJSON,
	}
	if event.Reason != "" {
		reason := event.Reason
		row.CancelReason = &reason
	}
	if err := r.writer.Insert(ctx, row); err != nil {
		return err
	}
	r.logg.Info(r.logg.WithOrderID(ctx, row.OrderID), "cancellation revenue row inserted")
	return nil
}

func totalToCents(total string) (int64, error) {
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return 0, fmt.Errorf("parse total %q: %w", total, err)
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
