package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/bcrypt"
)

func newTestUser(email, name, role string) *domain.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	return &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestProperty_UserRoundTripPreservesAccount(t *testing.T) {
	requirePostgres(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("stored accounts are found by email and id", prop.ForAll(
		func(email, name, role string) bool {
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			user := newTestUser(email, name, role)
			if err := repo.Create(ctx, user); err != nil {
				t.Logf("Failed to create user: %v", err)
				return false
			}

			byEmail, err := repo.FindByEmail(ctx, email)
			if err != nil || byEmail.ID != user.ID || byEmail.Name != name || byEmail.Role != role {
				t.Logf("FindByEmail mismatch: %+v, %v", byEmail, err)
				return false
			}

			byID, err := repo.FindByID(ctx, user.ID)
			if err != nil || byID.Email != email {
				t.Logf("FindByID mismatch: %+v, %v", byID, err)
				return false
			}

			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)
			return true
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.OneConstOf("buyer", "seller", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreateDuplicateEmail(t *testing.T) {
	requirePostgres(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	first := newTestUser("dup@example.com", "First", domain.RoleBuyer)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	defer testDB.Exec("DELETE FROM users WHERE email = $1", first.Email)

	second := newTestUser("dup@example.com", "Second", domain.RoleSeller)
	if err := repo.Create(ctx, second); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestFindByIDsBatchLoadsKnownUsers(t *testing.T) {
	requirePostgres(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	a := newTestUser("batch-a@example.com", "Ann", domain.RoleBuyer)
	b := newTestUser("batch-b@example.com", "Ben", domain.RoleBuyer)
	for _, u := range []*domain.User{a, b} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
		defer testDB.Exec("DELETE FROM users WHERE id = $1", u.ID)
	}

	users, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("FindByIDs failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	empty, err := repo.FindByIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result for no ids, got %v, %v", empty, err)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	requirePostgres(t)
	users := NewUserRepository(testDB)
	tokens := NewRefreshTokenRepository(testDB)
	ctx := context.Background()

	user := newTestUser("tokens@example.com", "Tia", domain.RoleBuyer)
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)

	rt := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	if err := tokens.Create(ctx, rt); err != nil {
		t.Fatalf("Failed to create refresh token: %v", err)
	}

	if _, err := tokens.FindByToken(ctx, rt.Token); err != nil {
		t.Fatalf("expected token to be found, got %v", err)
	}

	revoked, err := tokens.RevokeAllForUser(ctx, user.ID)
	if err != nil || revoked != 1 {
		t.Fatalf("expected one revoked token, got %d, %v", revoked, err)
	}

	if _, err := tokens.FindByToken(ctx, rt.Token); !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked, got %v", err)
	}
}
