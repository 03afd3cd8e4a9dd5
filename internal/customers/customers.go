package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
)

// Repository is the customers persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	AddSpendingTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal) error
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Preload("Addresses").Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).Where("id = ?", addressID).First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// AddSpendingTx accumulates delivered order totals onto the customer row.
func (r *repository) AddSpendingTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("total_spent", gorm.Expr("total_spent + ?", amount)).Error
}

// Service exposes customer lookups with the error taxonomy checkout expects.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ResolveAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	SetType(ctx context.Context, id uuid.UUID, customerType enums.CustomerType) (*models.Customer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("customers: repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load customer")
	}
	return customer, nil
}

// ResolveAddress loads an address and verifies ownership. An address that
// exists but belongs to another customer is rejected the same way a missing
// one is, so the response does not leak other customers' data.
func (s *service) ResolveAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindAddress(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load address")
	}
	if address.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}

func (s *service) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if customer.Type == "" {
		customer.Type = enums.CustomerTypeB2C
	}
	if !customer.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown customer type")
	}
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create customer")
	}
	return customer, nil
}

func (s *service) SetType(ctx context.Context, id uuid.UUID, customerType enums.CustomerType) (*models.Customer, error) {
	if !customerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown customer type")
	}
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Type = customerType
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update customer")
	}
	return customer, nil
}
