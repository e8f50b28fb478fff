package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type userFixture struct {
	users   *mockUserRepository
	tokens  *mockRefreshTokenRepository
	stores  *mockStoreRepository
	service UserService
}

func newUserFixture(secret string) *userFixture {
	f := &userFixture{
		users:  newMockUserRepository(),
		tokens: newMockRefreshTokenRepository(),
		stores: newMockStoreRepository(),
	}
	f.service = NewUserService(f.users, f.tokens, f.stores, TokenConfig{Secret: secret}, zap.NewNop())
	return f
}

func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email, password, name string) bool {
			f := newUserFixture("test-secret")
			ctx := context.Background()

			user, err := f.service.Register(ctx, RegisterInput{Name: name, Email: email, Password: password})
			if err != nil {
				t.Logf("FAIL: Register failed: %v", err)
				return false
			}

			if user.PasswordHash == password {
				t.Logf("FAIL: Password stored as plaintext for email %s", email)
				return false
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: Password hash doesn't match: %v", err)
				return false
			}

			return user.Role == domain.RoleBuyer
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_JWTTokensContainRequiredClaims(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("access tokens carry userId and role and last seven days", prop.ForAll(
		func(email, password, role string) bool {
			f := newUserFixture("test-secret-key")
			ctx := context.Background()

			user, err := f.service.Register(ctx, RegisterInput{Name: "Tester", Email: email, Password: password, Role: role})
			if err != nil {
				t.Logf("FAIL: Register failed: %v", err)
				return false
			}

			accessToken, refreshToken, _, err := f.service.Login(ctx, email, password)
			if err != nil || refreshToken == "" {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			claims, err := f.service.ValidateToken(accessToken)
			if err != nil {
				t.Logf("FAIL: Token validation failed: %v", err)
				return false
			}

			if claims.UserID != user.ID || claims.Role != role {
				t.Logf("FAIL: claims mismatch: %+v", claims)
				return false
			}

			ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
			return ttl == DefaultAccessTokenTTL
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9]{8,20}`),
		gen.OneConstOf(domain.RoleBuyer, domain.RoleSeller),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegisterSellerCreatesPendingStore(t *testing.T) {
	f := newUserFixture("secret")

	user, err := f.service.Register(context.Background(), RegisterInput{
		Name: "Sam", Email: "sam@example.com", Password: "password123", Role: domain.RoleSeller,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	store, err := f.stores.FindByOwner(context.Background(), user.ID.String())
	if err != nil {
		t.Fatalf("expected a store for the seller: %v", err)
	}
	if store.Status != domain.StoreStatusPending {
		t.Errorf("expected pending store, got %s", store.Status)
	}
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	f := newUserFixture("secret")
	ctx := context.Background()

	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password123", Role: domain.RoleAdmin})
	if domain.CodeOf(err) != domain.CodeInvalidRequest {
		t.Errorf("expected INVALID_REQUEST for admin self-registration, got %v", err)
	}

	in := RegisterInput{Name: "B", Email: "b@example.com", Password: "password123"}
	if _, err := f.service.Register(ctx, in); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	in.Email = "B@Example.com"
	if _, err := f.service.Register(ctx, in); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict for a duplicate email, got %v", err)
	}
}

func TestLoginWithWrongPassword(t *testing.T) {
	f := newUserFixture("secret")
	ctx := context.Background()

	if _, err := f.service.Register(ctx, RegisterInput{Name: "C", Email: "c@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, _, err := f.service.Login(ctx, "c@example.com", "wrong-password"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := f.service.Login(ctx, "nobody@example.com", "password123"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestValidateTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	f := newUserFixture("secret")

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: "buyer"})
	signed, _ := foreign.SignedString([]byte("other-secret"))
	if _, err := f.service.ValidateToken(signed); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: "buyer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, _ = expired.SignedString([]byte("secret"))
	if _, err := f.service.ValidateToken(signed); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	f := newUserFixture("secret")
	ctx := context.Background()

	user, _ := f.service.Register(ctx, RegisterInput{Name: "D", Email: "d@example.com", Password: "password123"})
	_, refresh, _, err := f.service.Login(ctx, "d@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := f.service.RefreshToken(ctx, refresh); err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}

	if err := f.service.Logout(ctx, refresh); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := f.service.Logout(ctx, "unknown"); err != nil {
		t.Errorf("expected logout of an unknown token to succeed, got %v", err)
	}
	if _, err := f.service.RefreshToken(ctx, refresh); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken after logout, got %v", err)
	}

	_, _, _, _ = f.service.Login(ctx, "d@example.com", "password123")
	_, _, _, _ = f.service.Login(ctx, "d@example.com", "password123")
	n, err := f.service.LogoutAll(ctx, user.ID)
	if err != nil || n != 2 {
		t.Errorf("expected 2 revoked sessions, got %d, %v", n, err)
	}
}
