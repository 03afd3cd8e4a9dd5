package carts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/internal/pricing"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
)

// View is a cart with freshly resolved prices.
type View struct {
	Cart     *models.Cart
	Subtotal decimal.Decimal
}

type customerReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type variantReader interface {
	FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error)
}

// Service manages the single active cart per customer. Cached item prices
// are advisory only: every read resolves prices again against the current
// catalog, so a price edit or segment change shows up immediately.
type Service interface {
	GetActive(ctx context.Context, customerID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, customerID, variantID uuid.UUID, quantity int) (*View, error)
	SetItemQuantity(ctx context.Context, customerID, variantID uuid.UUID, quantity int) (*View, error)
	Close(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type service struct {
	db        *gorm.DB
	customers customerReader
	variants  variantReader
}

func NewService(db *gorm.DB, customers customerReader, variants variantReader) (Service, error) {
	if db == nil {
		return nil, errors.New("carts: db is required")
	}
	if customers == nil {
		return nil, errors.New("carts: customer reader is required")
	}
	if variants == nil {
		return nil, errors.New("carts: variant reader is required")
	}
	return &service{db: db, customers: customers, variants: variants}, nil
}

func (s *service) GetActive(ctx context.Context, customerID uuid.UUID) (*View, error) {
	cart, err := s.findOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.reprice(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, customerID, variantID uuid.UUID, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	cart, err := s.findOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var existing *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].VariantID == variantID {
			existing = &cart.Items[i]
			break
		}
	}

	if existing != nil {
		existing.Quantity += quantity
		err = s.db.WithContext(ctx).Model(&models.CartItem{}).
			Where("id = ?", existing.ID).
			Update("quantity", existing.Quantity).Error
	} else {
		item := models.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			VariantID: variantID,
			Quantity:  quantity,
		}
		err = s.db.WithContext(ctx).Create(&item).Error
		cart.Items = append(cart.Items, item)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update cart")
	}
	return s.reprice(ctx, cart)
}

// SetItemQuantity updates one line; zero removes it.
func (s *service) SetItemQuantity(ctx context.Context, customerID, variantID uuid.UUID, quantity int) (*View, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	cart, err := s.findOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		err = s.db.WithContext(ctx).
			Where("cart_id = ? AND variant_id = ?", cart.ID, variantID).
			Delete(&models.CartItem{}).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to remove cart item")
		}
		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.VariantID != variantID {
				kept = append(kept, item)
			}
		}
		cart.Items = kept
		return s.reprice(ctx, cart)
	}

	res := s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("cart_id = ? AND variant_id = ?", cart.ID, variantID).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to update cart item")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	for i := range cart.Items {
		if cart.Items[i].VariantID == variantID {
			cart.Items[i].Quantity = quantity
		}
	}
	return s.reprice(ctx, cart)
}

// Close deactivates the cart, typically after its order was created. Runs in
// the caller's transaction when one is given.
func (s *service) Close(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("is_active", false).Error
}

func (s *service) findOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ? AND is_active = ?", customerID, true).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart")
	}

	cart = models.Cart{ID: uuid.New(), CustomerID: customerID, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create cart")
	}
	return &cart, nil
}

// reprice resolves every line against the current catalog, persists changed
// caches, and computes the subtotal.
func (s *service) reprice(ctx context.Context, cart *models.Cart) (*View, error) {
	if len(cart.Items) == 0 {
		return &View{Cart: cart, Subtotal: decimal.Zero}, nil
	}

	customerType := enums.CustomerTypeB2C
	if customer, err := s.customers.FindByID(ctx, cart.CustomerID); err == nil {
		customerType = customer.Type
	}

	variantIDs := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		variantIDs = append(variantIDs, item.VariantID)
	}
	variants, err := s.variants.FindVariantsByIDs(ctx, variantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart variants")
	}
	byID := make(map[uuid.UUID]models.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	subtotal := decimal.Zero
	for i := range cart.Items {
		item := &cart.Items[i]
		variant, ok := byID[item.VariantID]
		if !ok {
			continue
		}
		quote := pricing.ResolveQuote(variant, customerType, item.Quantity)
		current := quote.EffectiveUnit()
		if !current.Equal(item.UnitPrice) {
			item.UnitPrice = current
			if err := s.db.WithContext(ctx).Model(&models.CartItem{}).
				Where("id = ?", item.ID).
				Update("unit_price", current).Error; err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to refresh cart price")
			}
		}
		subtotal = subtotal.Add(quote.LineTotal(item.Quantity))
	}
	return &View{Cart: cart, Subtotal: subtotal.Round(2)}, nil
}
