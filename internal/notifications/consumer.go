package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox"
	"github.com/centrelabs/backoffice/pkg/outbox/idempotency"
	"github.com/centrelabs/backoffice/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches order domain events and materializes them as stored
// notifications. Placement, shipment, delivery and cancellation notify the
// customer; placement and low-stock events notify staff.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("order events subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !isNotifiable(eventType) {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func isNotifiable(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderCreated, enums.EventOrderShipped, enums.EventOrderDelivered, enums.EventOrderCancelled, enums.EventStockLow:
		return true
	}
	return false
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyCreated(ctx, payload, logCtx)
	case enums.EventOrderShipped:
		var payload payloads.OrderShippedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyShipped(ctx, payload, logCtx)
	case enums.EventOrderDelivered:
		var payload payloads.OrderDeliveredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyDelivered(ctx, payload, logCtx)
	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyCancelled(ctx, payload, logCtx)
	case enums.EventStockLow:
		var payload payloads.StockLowEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyStockLow(ctx, payload, logCtx)
	}
	return nil
}

func (c *Consumer) notifyCreated(ctx context.Context, payload payloads.OrderCreatedEvent, logCtx context.Context) error {
	if payload.CustomerID == uuid.Nil {
		return fmt.Errorf("customer id missing")
	}
	customer := &models.Notification{
		CustomerID: &payload.CustomerID,
		Type:       enums.NotificationTypeOrder,
		Title:      "Order placed",
		Message:    fmt.Sprintf("Order %s was placed. Total %s.", payload.OrderNumber, payload.Total),
		Link:       orderLink(payload.OrderID),
	}
	if err := c.repo.Create(ctx, customer); err != nil {
		return err
	}
	adminLink := fmt.Sprintf("/admin/orders/%s", payload.OrderID)
	staff := &models.Notification{
		Type:    enums.NotificationTypeOrder,
		Title:   "New order",
		Message: fmt.Sprintf("Order %s received with %d items, total %s.", payload.OrderNumber, payload.ItemCount, payload.Total),
		Link:    stringPtr(adminLink),
	}
	if err := c.repo.Create(ctx, staff); err != nil {
		return err
	}
	c.logg.Info(logCtx, "order placement notifications created")
	return nil
}

func (c *Consumer) notifyShipped(ctx context.Context, payload payloads.OrderShippedEvent, logCtx context.Context) error {
	if payload.CustomerID == uuid.Nil {
		return fmt.Errorf("customer id missing")
	}
	notification := &models.Notification{
		CustomerID: &payload.CustomerID,
		Type:       enums.NotificationTypeOrder,
		Title:      "Order shipped",
		Message:    fmt.Sprintf("Order %s has shipped.", payload.OrderNumber),
		Link:       orderLink(payload.OrderID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "customer notified of shipment")
	return nil
}

func (c *Consumer) notifyDelivered(ctx context.Context, payload payloads.OrderDeliveredEvent, logCtx context.Context) error {
	if payload.CustomerID == uuid.Nil {
		return fmt.Errorf("customer id missing")
	}
	notification := &models.Notification{
		CustomerID: &payload.CustomerID,
		Type:       enums.NotificationTypeOrder,
		Title:      "Order delivered",
		Message:    fmt.Sprintf("Order %s was delivered.", payload.OrderNumber),
		Link:       orderLink(payload.OrderID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "customer notified of delivery")
	return nil
}

func (c *Consumer) notifyCancelled(ctx context.Context, payload payloads.OrderCancelledEvent, logCtx context.Context) error {
	if payload.CustomerID == uuid.Nil {
		return fmt.Errorf("customer id missing")
	}
	message := fmt.Sprintf("Order %s was cancelled.", payload.OrderNumber)
	if payload.Reason != "" {
		message = fmt.Sprintf("Order %s was cancelled. Reason: %s", payload.OrderNumber, payload.Reason)
	}
	notification := &models.Notification{
		CustomerID: &payload.CustomerID,
		Type:       enums.NotificationTypeOrder,
		Title:      "Order cancelled",
		Message:    message,
		Link:       orderLink(payload.OrderID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "customer notified of cancellation")
	return nil
}

func (c *Consumer) notifyStockLow(ctx context.Context, payload payloads.StockLowEvent, logCtx context.Context) error {
	if payload.VariantID == uuid.Nil {
		return fmt.Errorf("variant id missing")
	}
	link := fmt.Sprintf("/admin/inventory/%s", payload.VariantID)
	notification := &models.Notification{
		Type:    enums.NotificationTypeInventory,
		Title:   "Low stock",
		Message: fmt.Sprintf("SKU %s is down to %d sellable units (threshold %d).", payload.SKU, payload.Available, payload.Threshold),
		Link:    stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "staff notified of low stock")
	return nil
}

func orderLink(orderID uuid.UUID) *string {
	link := fmt.Sprintf("/orders/%s", orderID)
	return &link
}

func stringPtr(value string) *string {
	return &value
}
