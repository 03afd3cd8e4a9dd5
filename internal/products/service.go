package products

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

// Service is the catalog administration and checkout lookup surface.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	CreateVariant(ctx context.Context, variant *models.Variant) (*models.Variant, error)
	SetSegmentPrices(ctx context.Context, variantID uuid.UUID, prices []models.SegmentPrice) error
	SetBulkPrices(ctx context.Context, variantID uuid.UUID, tiers []models.BulkPrice) error
	ActiveVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Variant, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("products: repository is required")
	}
	if log == nil {
		return nil, errors.New("products: logger is required")
	}
	return &service{repo: repo, log: log}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	rows, err := s.repo.ListProducts(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list products")
	}
	return rows, nil
}

func (s *service) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if strings.TrimSpace(product.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update product")
	}
	return product, nil
}

func (s *service) CreateVariant(ctx context.Context, variant *models.Variant) (*models.Variant, error) {
	if variant.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant needs a product")
	}
	if strings.TrimSpace(variant.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if !variant.RegularPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "regular price must be positive")
	}
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create variant")
	}
	return variant, nil
}

func (s *service) SetSegmentPrices(ctx context.Context, variantID uuid.UUID, prices []models.SegmentPrice) error {
	seen := map[string]bool{}
	for i := range prices {
		if !prices[i].CustomerType.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown customer type in segment prices")
		}
		key := string(prices[i].CustomerType)
		if seen[key] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate customer type in segment prices")
		}
		seen[key] = true
		prices[i].VariantID = variantID
		if prices[i].ID == uuid.Nil {
			prices[i].ID = uuid.New()
		}
	}
	if err := s.repo.ReplaceSegmentPrices(ctx, variantID, prices); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save segment prices")
	}
	return nil
}

// SetBulkPrices stores quantity tiers. Overlapping ranges are accepted (the
// resolver's first-match scan keeps runtime behavior defined) but logged so
// pricing staff can clean them up.
func (s *service) SetBulkPrices(ctx context.Context, variantID uuid.UUID, tiers []models.BulkPrice) error {
	for i := range tiers {
		if tiers[i].MinQty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "bulk tier min quantity must be positive")
		}
		if tiers[i].MaxQty != nil && *tiers[i].MaxQty < tiers[i].MinQty {
			return pkgerrors.New(pkgerrors.CodeValidation, "bulk tier max quantity below min")
		}
		if !tiers[i].Price.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "bulk tier price must be positive")
		}
		tiers[i].VariantID = variantID
		if tiers[i].ID == uuid.Nil {
			tiers[i].ID = uuid.New()
		}
	}

	if overlap := findTierOverlap(tiers); overlap != "" {
		ctx = s.log.WithFields(ctx, map[string]any{
			"variant_id": variantID.String(),
			"overlap":    overlap,
		})
		s.log.Warn(ctx, "bulk price tiers overlap; first matching tier wins at runtime")
	}

	if err := s.repo.ReplaceBulkPrices(ctx, variantID, tiers); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save bulk prices")
	}
	return nil
}

// ActiveVariants resolves the requested IDs and rejects the whole lookup if
// any variant is missing or inactive, naming the offenders.
func (s *service) ActiveVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Variant, error) {
	rows, err := s.repo.FindVariantsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load variants")
	}

	byID := make(map[uuid.UUID]models.Variant, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var unavailable []string
	for _, id := range ids {
		row, ok := byID[id]
		switch {
		case !ok:
			unavailable = append(unavailable, id.String())
		case !row.IsActive:
			unavailable = append(unavailable, row.Name)
			delete(byID, id)
		}
	}
	if len(unavailable) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variants unavailable").
			WithDetails(map[string]any{"variants": unavailable})
	}
	return byID, nil
}

func findTierOverlap(tiers []models.BulkPrice) string {
	sorted := make([]models.BulkPrice, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinQty < sorted[j].MinQty })

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.MaxQty == nil || *prev.MaxQty >= sorted[i].MinQty {
			return fmt.Sprintf("tier min %d overlaps tier min %d", prev.MinQty, sorted[i].MinQty)
		}
	}
	return ""
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}
