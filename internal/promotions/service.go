package promotions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

// DiscountRequest describes the prospective order a discount is computed for.
type DiscountRequest struct {
	Code           string
	Items          []LineItem
	Customer       *models.Customer
	Subtotal       decimal.Decimal
	ShippingAmount decimal.Decimal
}

// Service is the promotions entry point used by checkout and the admin API.
type Service interface {
	CalculateDiscount(ctx context.Context, req DiscountRequest) (*DiscountQuote, error)
	ApplyUsageTx(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) error
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context, activeOnly bool) ([]models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
}

// DiscountQuote is the evaluator result annotated with the promotion it
// came from, so callers can persist the coupon snapshot on the order.
type DiscountQuote struct {
	Promotion *models.Promotion
	Result    Result
}

type service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService wires a promotions Service.
func NewService(repo Repository, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("promotions: repository is required")
	}
	if log == nil {
		return nil, errors.New("promotions: logger is required")
	}
	return &service{repo: repo, log: log, now: time.Now}, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load promotion")
	}
	return promo, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load promotion")
	}
	return promo, nil
}

func (s *service) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := validatePromotion(promo); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create promotion")
	}
	return promo, nil
}

func (s *service) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if promo == nil || promo.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id is required")
	}
	if err := validatePromotion(promo); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, promo.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, promo); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update promotion")
	}
	return promo, nil
}

// validatePromotion normalizes the code and enforces the authoring-time
// invariants the evaluator assumes at runtime.
func validatePromotion(promo *models.Promotion) error {
	if promo == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion is required")
	}
	if strings.TrimSpace(promo.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion name is required")
	}
	if !promo.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion type")
	}
	if promo.DiscountValue.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}
	if promo.Code != nil {
		normalized := NormalizeCode(*promo.Code)
		if normalized == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "coupon code cannot be blank")
		}
		promo.Code = &normalized
	}
	if promo.StartsAt != nil && promo.EndsAt != nil && !promo.EndsAt.After(*promo.StartsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion window must end after it starts")
	}
	if promo.Type == enums.PromotionTypeBogo && (promo.BuyQuantity <= 0 || promo.GetQuantity <= 0) {
		return pkgerrors.New(pkgerrors.CodeValidation, "bogo promotions need buy and get quantities")
	}
	if promo.Type == enums.PromotionTypeVolumeDiscount {
		if len(promo.VolumeTiers) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "volume promotions need at least one tier")
		}
		seen := map[int]bool{}
		for _, tier := range promo.VolumeTiers {
			if tier.MinQuantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "volume tier minimum quantity must be positive")
			}
			if seen[tier.MinQuantity] {
				return pkgerrors.New(pkgerrors.CodeValidation, "volume tiers must have distinct minimum quantities")
			}
			seen[tier.MinQuantity] = true
			if !tier.Type.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid volume tier type")
			}
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list promotions")
	}
	return rows, nil
}

// CalculateDiscount resolves the code and evaluates it against the
// prospective order. It performs no writes; the usage counter moves only
// when the order itself commits, via ApplyUsageTx.
func (s *service) CalculateDiscount(ctx context.Context, req DiscountRequest) (*DiscountQuote, error) {
	promo, err := s.GetByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	result, err := Evaluate(*promo, req.Items, req.Customer, req.Subtotal, req.ShippingAmount, s.now())
	if err != nil {
		return nil, err
	}

	ctx = s.log.WithFields(ctx, map[string]any{
		"promotion_id":   promo.ID.String(),
		"promotion_type": promo.Type.String(),
		"discount":       result.Discount.String(),
	})
	s.log.Info(ctx, "discount calculated")

	return &DiscountQuote{Promotion: promo, Result: result}, nil
}

// ApplyUsageTx consumes one use of the promotion inside the caller's order
// transaction. A promotion whose limit was exhausted between evaluation and
// commit surfaces as a conflict, which rolls the whole order back.
func (s *service) ApplyUsageTx(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "promotion usage requires a transaction")
	}
	applied, err := s.repo.WithTx(tx).IncrementUsage(ctx, promotionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record coupon usage")
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached")
	}
	return nil
}
