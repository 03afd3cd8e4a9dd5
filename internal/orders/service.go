package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/internal/audit"
	"github.com/centrelabs/backoffice/internal/inventory"
	"github.com/centrelabs/backoffice/internal/pricing"
	"github.com/centrelabs/backoffice/internal/promotions"
	"github.com/centrelabs/backoffice/internal/warehouses"
	"github.com/centrelabs/backoffice/pkg/db"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox"
	"github.com/centrelabs/backoffice/pkg/outbox/payloads"
	"github.com/centrelabs/backoffice/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type customerDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ResolveAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
}

type spendingRecorder interface {
	AddSpendingTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal) error
}

type catalog interface {
	ActiveVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Variant, error)
}

type couponService interface {
	CalculateDiscount(ctx context.Context, req promotions.DiscountRequest) (*promotions.DiscountQuote, error)
	ApplyUsageTx(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) error
}

type warehouseSelector interface {
	Select(ctx context.Context, destination *models.Address, items []warehouses.Demand) (*warehouses.Selection, error)
}

type stockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, preferredWarehouseID uuid.UUID, requests []inventory.ReservationRequest) ([]models.OrderReservation, error)
	Commit(ctx context.Context, tx *gorm.DB, legs []models.OrderReservation) error
	CommitDelivered(ctx context.Context, tx *gorm.DB, legs []models.OrderReservation) error
	Release(ctx context.Context, tx *gorm.DB, legs []models.OrderReservation) error
}

type rateResolver interface {
	TaxRateFor(ctx context.Context, countryCode string, stateCode string) (decimal.Decimal, error)
	ShippingPriceFor(ctx context.Context, countryCode string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type auditSink interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// Service is the order orchestrator and status machine.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.Order, error)
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.OrderTransaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) (*pagination.Page[models.Order], error)
}

// ServiceParams bundles the orchestrator's collaborators.
type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Customers    customerDirectory
	Spending     spendingRecorder
	Catalog      catalog
	Coupons      couponService
	Selector     warehouseSelector
	Ledger       stockLedger
	Rates        rateResolver
	Audit        auditSink
	Log          *logger.Logger
	NumberPrefix string
}

type service struct {
	ServiceParams
	now func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, errors.New("orders: repository required")
	case params.Tx == nil:
		return nil, errors.New("orders: transaction runner required")
	case params.Outbox == nil:
		return nil, errors.New("orders: outbox publisher required")
	case params.Customers == nil:
		return nil, errors.New("orders: customer directory required")
	case params.Catalog == nil:
		return nil, errors.New("orders: catalog required")
	case params.Coupons == nil:
		return nil, errors.New("orders: coupon service required")
	case params.Selector == nil:
		return nil, errors.New("orders: warehouse selector required")
	case params.Ledger == nil:
		return nil, errors.New("orders: inventory ledger required")
	case params.Rates == nil:
		return nil, errors.New("orders: rate resolver required")
	case params.Audit == nil:
		return nil, errors.New("orders: audit sink required")
	case params.Log == nil:
		return nil, errors.New("orders: logger required")
	}
	if params.NumberPrefix == "" {
		params.NumberPrefix = "CL"
	}
	return &service{ServiceParams: params, now: time.Now}, nil
}

// CreateOrder runs the full checkout sequence. Validation reads happen
// before the transaction; every write, including coupon usage and inventory
// reservation, happens inside it so any failure leaves nothing behind.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if !input.PaymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment type")
	}

	customer, err := s.Customers.Get(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	ctx = s.Log.WithCustomerID(ctx, customer.ID.String())

	if _, err := s.Customers.ResolveAddress(ctx, customer.ID, input.BillingAddressID); err != nil {
		return nil, err
	}
	shippingAddress, err := s.Customers.ResolveAddress(ctx, customer.ID, input.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	if input.SalesChannelID != nil && input.PartnerOrderID != nil {
		if _, err := s.Repo.FindByChannelPair(ctx, *input.SalesChannelID, *input.PartnerOrderID); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "partner order already ingested")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed idempotency check")
		}
	}

	variantIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		variantIDs = append(variantIDs, item.VariantID)
	}
	variants, err := s.Catalog.ActiveVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	// Prices always come from the current catalog; whatever the caller sent
	// is ignored.
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	promoLines := make([]promotions.LineItem, 0, len(input.Items))
	demands := make([]warehouses.Demand, 0, len(input.Items))
	reserveReqs := make([]inventory.ReservationRequest, 0, len(input.Items))
	subtotal := decimal.Zero

	for _, item := range input.Items {
		variant := variants[item.VariantID]
		quote := pricing.ResolveQuote(variant, customer.Type, item.Quantity)
		lineTotal := quote.LineTotal(item.Quantity)
		subtotal = subtotal.Add(lineTotal)

		productName := ""
		if variant.Product != nil {
			productName = variant.Product.Name
		}
		orderItem := models.OrderItem{
			ID:          uuid.New(),
			VariantID:   variant.ID,
			SKU:         variant.SKU,
			ProductName: productName,
			VariantName: variant.Name,
			Quantity:    item.Quantity,
			UnitPrice:   quote.UnitPrice,
			TotalPrice:  lineTotal,
		}
		if quote.BulkUnitPrice != nil {
			orderItem.BulkUnitPrice = quote.BulkUnitPrice
			orderItem.BulkTotalPrice = &lineTotal
		}
		orderItems = append(orderItems, orderItem)

		promoLines = append(promoLines, promotions.LineItem{
			VariantID: variant.ID,
			ProductID: variant.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: quote.EffectiveUnit(),
		})
		demands = append(demands, warehouses.Demand{VariantID: variant.ID, Quantity: item.Quantity})
		reserveReqs = append(reserveReqs, inventory.ReservationRequest{
			VariantID: variant.ID,
			SKU:       variant.SKU,
			Quantity:  item.Quantity,
		})
	}
	subtotal = subtotal.Round(2)

	selection, err := s.Selector.Select(ctx, shippingAddress, demands)
	if err != nil {
		return nil, err
	}

	// Deferring the reservation does not defer the sufficiency check; an
	// order against a non-backorderable shortfall is rejected either way.
	if input.SkipReservation {
		var shortfalls []pkgerrors.ItemShortfall
		for _, detail := range selection.Details {
			if detail.Shortfall > 0 && !detail.Backorderable {
				shortfalls = append(shortfalls, pkgerrors.ItemShortfall{
					VariantID: detail.VariantID.String(),
					SKU:       variants[detail.VariantID].SKU,
					Requested: detail.Requested,
					Available: detail.Available,
				})
			}
		}
		if len(shortfalls) > 0 {
			return nil, pkgerrors.InsufficientStock(shortfalls)
		}
	}

	shippingAmount := decimal.Zero
	if input.ShippingAmount != nil {
		// Manual shipping always wins over the computed rate.
		shippingAmount = *input.ShippingAmount
	} else {
		shippingAmount, err = s.Rates.ShippingPriceFor(ctx, shippingAddress.CountryCode, subtotal)
		if err != nil {
			return nil, err
		}
	}
	shippingAmount = shippingAmount.Round(2)

	discount := decimal.Zero
	if input.DiscountAmount != nil {
		discount = *input.DiscountAmount
	}
	var appliedPromotion *models.Promotion
	if input.CouponCode != nil && *input.CouponCode != "" {
		quote, err := s.Coupons.CalculateDiscount(ctx, promotions.DiscountRequest{
			Code:           *input.CouponCode,
			Items:          promoLines,
			Customer:       customer,
			Subtotal:       subtotal,
			ShippingAmount: shippingAmount,
		})
		if err != nil {
			// Coupon failures are fatal, never silently dropped.
			return nil, err
		}
		// The coupon discount replaces any manual discount.
		discount = quote.Result.Discount
		appliedPromotion = quote.Promotion
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discount = discount.Round(2)

	taxAmount := decimal.Zero
	if input.TaxAmount != nil {
		taxAmount = *input.TaxAmount
	} else {
		taxRate, err := s.Rates.TaxRateFor(ctx, shippingAddress.CountryCode, shippingAddress.StateCode)
		if err != nil {
			return nil, err
		}
		taxable := subtotal.Sub(discount).Add(shippingAmount)
		taxAmount = taxable.Mul(taxRate).Div(decimal.NewFromInt(100))
	}
	taxAmount = taxAmount.Round(2)

	total := subtotal.Sub(discount).Add(shippingAmount).Add(taxAmount).Round(2)

	order := &models.Order{
		ID:                uuid.New(),
		CustomerID:        customer.ID,
		Status:            enums.OrderStatusPending,
		Subtotal:          subtotal,
		DiscountAmount:    discount,
		ShippingAmount:    shippingAmount,
		TaxAmount:         taxAmount,
		TotalAmount:       total,
		PaymentType:       input.PaymentType,
		BillingAddressID:  &input.BillingAddressID,
		ShippingAddressID: &input.ShippingAddressID,
		SalesChannelID:    input.SalesChannelID,
		PartnerOrderID:    input.PartnerOrderID,
		Notes:             input.Notes,
		Items:             orderItems,
	}
	order.WarehouseID = &selection.Warehouse.ID
	if appliedPromotion != nil {
		order.CouponCode = appliedPromotion.Code
		order.PromotionID = &appliedPromotion.ID
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)

		// Concurrent creates can derive the same day sequence; the loser
		// of the unique index re-counts once under a savepoint.
		var createErr error
		for attempt := 0; attempt < 2; attempt++ {
			number, err := nextOrderNumber(ctx, repo, s.NumberPrefix, s.now())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to derive order number")
			}
			order.OrderNumber = number

			if err := tx.SavePoint("order_number").Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to set savepoint")
			}
			createErr = repo.Create(ctx, order)
			if createErr == nil {
				break
			}
			if !db.IsUniqueViolation(createErr, "order_number") {
				break
			}
			if err := tx.RollbackTo("order_number").Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to roll back savepoint")
			}
		}
		if createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "failed to persist order")
		}

		if appliedPromotion != nil {
			if err := s.Coupons.ApplyUsageTx(ctx, tx, appliedPromotion.ID); err != nil {
				return err
			}
		}

		if !input.SkipReservation {
			legs, err := s.Ledger.Reserve(ctx, tx, order.ID, selection.Warehouse.ID, reserveReqs)
			if err != nil {
				return err
			}
			order.Reservations = legs
		}

		if err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				Total:       order.TotalAmount.StringFixed(2),
				ItemCount:   len(order.Items),
			},
		}); err != nil {
			return err
		}

		// One ERP sync per distinct product touched by the order.
		syncedProducts := make(map[uuid.UUID]bool, len(input.Items))
		for _, item := range input.Items {
			variant := variants[item.VariantID]
			if syncedProducts[variant.ProductID] {
				continue
			}
			syncedProducts[variant.ProductID] = true
			slug := ""
			if variant.Product != nil {
				slug = variant.Product.Slug
			}
			if err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventErpProductSync,
				AggregateType: enums.AggregateProduct,
				AggregateID:   variant.ProductID,
				Actor:         input.Actor,
				Data: payloads.ProductSyncEvent{
					ProductID: variant.ProductID,
					Slug:      slug,
					SyncedAt:  s.now(),
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.Log.WithOrderID(ctx, order.ID.String())
	s.Log.Info(ctx, "order created")
	return order, nil
}

// UpdateStatus moves the order along the transition table. The status write,
// audit row and events commit together; the inventory adjustment runs in a
// second transaction afterwards, and its failure is surfaced as a
// reconciliation warning rather than a blocked transition.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if !input.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == input.To {
		return order, nil
	}
	from := order.Status
	now := s.now().UTC()
	firstShipment := input.To == enums.OrderStatusShipped && order.ShippedAt == nil

	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)

		if err := repo.UpdateStatus(ctx, order.ID, input.To, stampColumnFor(input.To), now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to write order status")
		}

		var actorID *uuid.UUID
		actorEmail := ""
		if input.Actor != nil {
			if id := input.Actor.UserID; id != uuid.Nil {
				actorID = &id
			}
			actorEmail = input.Actor.Email
		}
		if err := s.Audit.RecordTx(ctx, tx, audit.Entry{
			ActorID:    actorID,
			ActorEmail: actorEmail,
			Action:     "order.status_changed",
			EntityType: "order",
			EntityID:   order.ID,
			Details: map[string]any{
				"from":   from.String(),
				"to":     input.To.String(),
				"detail": input.Detail,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to write audit log")
		}

		return s.emitStatusEvents(ctx, tx, order, from, input, now, firstShipment)
	})
	if err != nil {
		return nil, err
	}

	s.applyInventoryEffect(ctx, order, from, input.To)

	order.Status = input.To
	switch input.To {
	case enums.OrderStatusShipped:
		order.ShippedAt = &now
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	}
	return order, nil
}

func (s *service) emitStatusEvents(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, input UpdateStatusInput, now time.Time, firstShipment bool) error {
	emit := func(eventType enums.OutboxEventType, data any) error {
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data:          data,
		})
	}

	if err := emit(enums.EventOrderStatusChanged, payloads.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		From:        from,
		To:          input.To,
		ChangedAt:   now,
	}); err != nil {
		return err
	}

	switch input.To {
	case enums.OrderStatusShipped:
		// Only the first shipment notifies the customer.
		if firstShipment {
			event := payloads.OrderShippedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				ShippedAt:   now,
			}
			if order.WarehouseID != nil {
				event.WarehouseID = *order.WarehouseID
			}
			return emit(enums.EventOrderShipped, event)
		}
	case enums.OrderStatusCancelled:
		return emit(enums.EventOrderCancelled, payloads.OrderCancelledEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			CancelledAt: now,
			Total:       order.TotalAmount.StringFixed(2),
			Reason:      input.Detail,
		})
	case enums.OrderStatusDelivered:
		if err := emit(enums.EventOrderDelivered, payloads.OrderDeliveredEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			DeliveredAt: now,
			Total:       order.TotalAmount.StringFixed(2),
		}); err != nil {
			return err
		}
		// Spending aggregation is the hook point for tier upgrades.
		if s.Spending != nil {
			if err := s.Spending.AddSpendingTx(ctx, tx, order.CustomerID, order.TotalAmount); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record customer spending")
			}
			return emit(enums.EventCustomerSpending, payloads.CustomerSpendingUpdatedEvent{
				CustomerID: order.CustomerID,
				OrderID:    order.ID,
				TotalSpent: order.TotalAmount.StringFixed(2),
			})
		}
	}
	return nil
}

// applyInventoryEffect settles reservation legs for a committed transition.
// Failures here never surface to the caller; the status already changed, so
// the discrepancy is logged for reconciliation instead.
func (s *service) applyInventoryEffect(ctx context.Context, order *models.Order, from, to enums.OrderStatus) {
	effect := effectForTransition(from, to)
	if effect == effectNone {
		return
	}

	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		legs, err := s.Repo.WithTx(tx).Reservations(ctx, order.ID)
		if err != nil {
			return err
		}
		switch effect {
		case effectCommit:
			return s.Ledger.Commit(ctx, tx, legs)
		case effectCommitDelivered:
			return s.Ledger.CommitDelivered(ctx, tx, legs)
		case effectRelease:
			return s.Ledger.Release(ctx, tx, legs)
		}
		return nil
	})
	if err != nil {
		ctx = s.Log.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"from":     from.String(),
			"to":       to.String(),
		})
		s.Log.Error(ctx, "inventory reconciliation needed after status transition", err)
	}
}

// Adjust rewrites money columns and re-derives the total while preserving
// the processor-fee delta already folded into it.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.Order, error) {
	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	if input.DiscountAmount != nil {
		if input.DiscountAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
		}
		order.DiscountAmount = input.DiscountAmount.Round(2)
	}
	if input.ShippingAmount != nil {
		if input.ShippingAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping must not be negative")
		}
		order.ShippingAmount = input.ShippingAmount.Round(2)
	}
	if input.TaxAmount != nil {
		if input.TaxAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax must not be negative")
		}
		order.TaxAmount = input.TaxAmount.Round(2)
	}
	if order.DiscountAmount.GreaterThan(order.Subtotal) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds subtotal")
	}

	order.TotalAmount = order.Subtotal.
		Sub(order.DiscountAmount).
		Add(order.ShippingAmount).
		Add(order.TaxAmount).
		Add(order.ProcessorFee).
		Round(2)

	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		if err := repo.UpdateMoney(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order money")
		}
		var actorID *uuid.UUID
		actorEmail := ""
		if input.Actor != nil {
			if id := input.Actor.UserID; id != uuid.Nil {
				actorID = &id
			}
			actorEmail = input.Actor.Email
		}
		return s.Audit.RecordTx(ctx, tx, audit.Entry{
			ActorID:    actorID,
			ActorEmail: actorEmail,
			Action:     "order.adjusted",
			EntityType: "order",
			EntityID:   order.ID,
			Details: map[string]any{
				"discount_amount": order.DiscountAmount.StringFixed(2),
				"shipping_amount": order.ShippingAmount.StringFixed(2),
				"tax_amount":      order.TaxAmount.StringFixed(2),
				"total_amount":    order.TotalAmount.StringFixed(2),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.OrderTransaction, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown transaction kind")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction amount must be positive")
	}
	if _, err := s.Get(ctx, input.OrderID); err != nil {
		return nil, err
	}

	txn := &models.OrderTransaction{
		ID:          uuid.New(),
		OrderID:     input.OrderID,
		Kind:        input.Kind,
		Amount:      input.Amount.Round(2),
		PaymentType: input.PaymentType,
		Reference:   input.Reference,
		Note:        input.Note,
	}
	if err := s.Repo.AddTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record transaction")
	}
	return txn, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*pagination.Page[models.Order], error) {
	page, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return page, nil
}

func stampColumnFor(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusShipped:
		return "shipped_at"
	case enums.OrderStatusDelivered:
		return "delivered_at"
	case enums.OrderStatusCancelled:
		return "cancelled_at"
	}
	return ""
}
