package service

import (
	"context"
	"testing"
	"time"

	"tailor-backend/internal/cache"
	"tailor-backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthEnv(t *testing.T) (AuthService, *memDB) {
	t.Helper()
	db := newMemDB()
	svc := NewAuthService(&fakeUserRepo{db: db}, cache.NewMemoryLoginGuard(3, time.Minute), testSecret)
	return svc, db
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestRegister(t *testing.T) {
	svc, db := newAuthEnv(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, RegisterRequest{Username: "sara", Password: "secret1"}, "")
	require.NoError(t, err)

	claims := parseClaims(t, token.Token)
	assert.Equal(t, model.RoleUser, claims["role"])
	require.Len(t, db.users, 1)
	for _, u := range db.users {
		assert.NotEqual(t, "secret1", u.Password)
		assert.Equal(t, u.ID.String(), claims["sub"])
	}

	_, err = svc.Register(ctx, RegisterRequest{Username: "sara", Password: "another"}, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_Rules(t *testing.T) {
	svc, _ := newAuthEnv(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		req        RegisterRequest
		callerRole string
		wantErr    error
	}{
		{"blank username", RegisterRequest{Username: " ", Password: "secret1"}, "", ErrValidation},
		{"short password", RegisterRequest{Username: "a", Password: "123"}, "", ErrValidation},
		{"unknown role", RegisterRequest{Username: "b", Password: "secret1", Role: "owner"}, "", ErrValidation},
		{"admin by anonymous", RegisterRequest{Username: "c", Password: "secret1", Role: "admin"}, "", ErrForbidden},
		{"admin by user", RegisterRequest{Username: "d", Password: "secret1", Role: "admin"}, model.RoleUser, ErrForbidden},
		{"admin by admin", RegisterRequest{Username: "e", Password: "secret1", Role: "admin"}, model.RoleAdmin, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req, tt.callerRole)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthEnv(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin123"))
	// Seeding twice is harmless.
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "other"))

	token, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	claims := parseClaims(t, token.Token)
	assert.Equal(t, model.RoleAdmin, claims["role"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), exp.Time, time.Minute)

	user, err := svc.CurrentUser(ctx, claims["sub"].(string))
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, LoginRequest{Username: "ghost", Password: "admin123"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CurrentUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_BlocksAfterRepeatedFailures(t *testing.T) {
	svc, _ := newAuthEnv(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin123"))

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "nope"})
		require.ErrorIs(t, err, ErrUnauthorized)
	}

	_, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "admin123"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "too many")
}
