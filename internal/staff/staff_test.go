package staff

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/auth"
	"github.com/centrelabs/backoffice/pkg/config"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
)

type fakeRepo struct {
	users map[string]*models.User
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.users[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func testJWT() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "staff-test-secret",
		Issuer:            "centrelabs-backoffice",
		ExpirationMinutes: 60,
	}
}

func newTestService(t *testing.T, password string, active bool) (Service, *models.User) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        "ops@centrelabs.test",
		PasswordHash: hash,
		Name:         "Ops Admin",
		Role:         enums.StaffRoleManager,
		IsActive:     active,
	}
	repo := &fakeRepo{users: map[string]*models.User{user.Email: user}}
	return NewService(repo, testJWT()), user
}

func TestLoginSuccess(t *testing.T) {
	svc, user := newTestService(t, "correct-horse", true)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "  OPS@centrelabs.test ",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a signed token")
	}
	if result.User.ID != user.ID.String() {
		t.Fatalf("user id = %s, want %s", result.User.ID, user.ID)
	}
	if result.User.Role != string(enums.StaffRoleManager) {
		t.Fatalf("role = %s", result.User.Role)
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Fatal("expected future expiry")
	}

	claims, err := auth.ParseAccessToken(testJWT(), result.Token)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatal("token carries wrong user id")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, "correct-horse", true)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "ops@centrelabs.test",
		Password: "battery-staple",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t, "correct-horse", true)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@centrelabs.test",
		Password: "correct-horse",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newTestService(t, "correct-horse", false)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "ops@centrelabs.test",
		Password: "correct-horse",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginValidatesInput(t *testing.T) {
	svc, _ := newTestService(t, "correct-horse", true)

	_, err := svc.Login(context.Background(), LoginInput{Email: "", Password: ""})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != want {
		t.Fatalf("code = %s, want %s", typed.Code(), want)
	}
}
