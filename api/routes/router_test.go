package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/internal/carts"
	"github.com/centrelabs/backoffice/internal/notifications"
	"github.com/centrelabs/backoffice/internal/orders"
	"github.com/centrelabs/backoffice/internal/promotions"
	"github.com/centrelabs/backoffice/internal/rates"
	"github.com/centrelabs/backoffice/internal/staff"
	pkgauth "github.com/centrelabs/backoffice/pkg/auth"
	"github.com/centrelabs/backoffice/pkg/config"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubOrdersService struct{}

func (stubOrdersService) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Adjust(ctx context.Context, input orders.AdjustInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) RecordTransaction(ctx context.Context, input orders.RecordTransactionInput) (*models.OrderTransaction, error) {
	panic("unimplemented")
}

func (stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, filter orders.ListFilter) (*pagination.Page[models.Order], error) {
	return &pagination.Page[models.Order]{Items: []models.Order{}}, nil
}

type stubProductsService struct{}

func (stubProductsService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubProductsService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) CreateVariant(ctx context.Context, variant *models.Variant) (*models.Variant, error) {
	panic("unimplemented")
}

func (stubProductsService) SetSegmentPrices(ctx context.Context, variantID uuid.UUID, prices []models.SegmentPrice) error {
	panic("unimplemented")
}

func (stubProductsService) SetBulkPrices(ctx context.Context, variantID uuid.UUID, tiers []models.BulkPrice) error {
	panic("unimplemented")
}

func (stubProductsService) ActiveVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Variant, error) {
	panic("unimplemented")
}

type stubPromotionsService struct{}

func (stubPromotionsService) CalculateDiscount(ctx context.Context, req promotions.DiscountRequest) (*promotions.DiscountQuote, error) {
	panic("unimplemented")
}

func (stubPromotionsService) ApplyUsageTx(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) error {
	panic("unimplemented")
}

func (stubPromotionsService) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) List(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	return []models.Promotion{}, nil
}

func (stubPromotionsService) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	panic("unimplemented")
}

type stubCartsService struct{}

func (stubCartsService) GetActive(ctx context.Context, customerID uuid.UUID) (*carts.View, error) {
	return &carts.View{Subtotal: decimal.Zero}, nil
}

func (stubCartsService) AddItem(ctx context.Context, customerID, variantID uuid.UUID, quantity int) (*carts.View, error) {
	panic("unimplemented")
}

func (stubCartsService) SetItemQuantity(ctx context.Context, customerID, variantID uuid.UUID, quantity int) (*carts.View, error) {
	panic("unimplemented")
}

func (stubCartsService) Close(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	panic("unimplemented")
}

type stubCustomersService struct{}

func (stubCustomersService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	panic("unimplemented")
}

func (stubCustomersService) ResolveAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	panic("unimplemented")
}

func (stubCustomersService) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	panic("unimplemented")
}

func (stubCustomersService) SetType(ctx context.Context, id uuid.UUID, customerType enums.CustomerType) (*models.Customer, error) {
	panic("unimplemented")
}

type stubRatesService struct{}

func (stubRatesService) TaxRateFor(ctx context.Context, countryCode, stateCode string) (decimal.Decimal, error) {
	panic("unimplemented")
}

func (stubRatesService) ShippingPriceFor(ctx context.Context, countryCode string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	panic("unimplemented")
}

func (stubRatesService) ShippingOptionsFor(ctx context.Context, countryCode string, subtotal decimal.Decimal) ([]rates.ShippingOption, error) {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, customerID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, customerID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubStaffService struct{}

func (stubStaffService) Login(ctx context.Context, input staff.LoginInput) (*staff.LoginResult, error) {
	return &staff.LoginResult{Token: "stub-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "centrelabs-backoffice",
			ExpirationMinutes: 60,
		},
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.StaffRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "staff@example.com",
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: zerolog.Disabled, Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Orders:        stubOrdersService{},
		Products:      stubProductsService{},
		Promotions:    stubPromotionsService{},
		Carts:         stubCartsService{},
		Customers:     stubCustomersService{},
		Rates:         stubRatesService{},
		Notifications: stubNotificationsService{},
		Staff:         stubStaffService{},
	})
}

func TestHealthzIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for healthz got %d", resp.Code)
	}
	var body struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body.Data["status"] != "live" {
		t.Fatalf("expected live status got %q", body.Data["status"])
	}
}

func TestOrdersRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrdersSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.StaffRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for orders list got %d", resp.Code)
	}
}

func TestAdminGroupRequiresCatalogRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	staff := httptest.NewRequest(http.MethodGet, "/v1/admin/products", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.StaffRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff role got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodGet, "/v1/admin/products", nil)
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.StaffRoleManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager role got %d", resp.Code)
	}
}

func TestNotificationsRouteWiring(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.StaffRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for notifications list got %d", resp.Code)
	}
}

func TestLoginIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	body := strings.NewReader(`{"email":"ops@example.com","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login without token got %d", resp.Code)
	}
	var envelope struct {
		Data staff.LoginResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if envelope.Data.Token != "stub-token" {
		t.Fatalf("unexpected token %q", envelope.Data.Token)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}