package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/pagination"
)

// Repository is the orders persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByChannelPair(ctx context.Context, salesChannelID uuid.UUID, partnerOrderID string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) (*pagination.Page[models.Order], error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, stampColumn string, at time.Time) error
	UpdateMoney(ctx context.Context, order *models.Order) error
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	Reservations(ctx context.Context, orderID uuid.UUID) ([]models.OrderReservation, error)
	AddTransaction(ctx context.Context, txn *models.OrderTransaction) error
}

// ListFilter narrows the order listing.
type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
	Cursor     *pagination.Cursor
	Limit      int
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Reservations").
		Preload("Transactions").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByChannelPair(ctx context.Context, salesChannelID uuid.UUID, partnerOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("sales_channel_id = ? AND partner_order_id = ?", salesChannelID, partnerOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) (*pagination.Page[models.Order], error) {
	limit := pagination.NormalizeLimit(filter.Limit)

	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	page := pagination.BuildPage(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// UpdateStatus writes the status and, when stampColumn is non-empty, the
// matching lifecycle timestamp in one statement.
func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, stampColumn string, at time.Time) error {
	updates := map[string]any{"status": status}
	if stampColumn != "" {
		updates[stampColumn] = at
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

// UpdateMoney rewrites the monetary columns after an adjustment.
func (r *repository) UpdateMoney(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"subtotal":        order.Subtotal,
			"discount_amount": order.DiscountAmount,
			"shipping_amount": order.ShippingAmount,
			"tax_amount":      order.TaxAmount,
			"processor_fee":   order.ProcessorFee,
			"total_amount":    order.TotalAmount,
		}).Error
}

func (r *repository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repository) Reservations(ctx context.Context, orderID uuid.UUID) ([]models.OrderReservation, error) {
	var rows []models.OrderReservation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) AddTransaction(ctx context.Context, txn *models.OrderTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}
