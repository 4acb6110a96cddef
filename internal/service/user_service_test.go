package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bgovha/shopsphere-backend/internal/entity"
)

const testSecret = "test-secret"

func TestRegister_HashesPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, nil, testSecret)

	user, err := svc.Register(context.Background(), "brenda", "brenda@example.com", "s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestRegister_Validation(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), nil, testSecret)

	cases := []struct {
		name     string
		username string
		email    string
		password string
		code     string
	}{
		{"missing username", "", "a@example.com", "longenough", "username_required"},
		{"missing email", "a", "", "longenough", "email_required"},
		{"short password", "a", "a@example.com", "short", "password_too_short"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.username, tc.email, tc.password)

			var validationErr *entity.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tc.code, validationErr.Code)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, nil, testSecret)

	_, err := svc.Register(context.Background(), "brenda", "brenda@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "other", "brenda@example.com", "s3cret-pass")

	var conflictErr *entity.ConflictError
	require.True(t, errors.As(err, &conflictErr))
}

func TestLogin_IssuesTokenWithUserClaims(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, nil, testSecret)

	user, err := svc.Register(context.Background(), "brenda", "brenda@example.com", "s3cret-pass")
	require.NoError(t, err)

	tokenString, err := svc.Login(context.Background(), "brenda@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "brenda", claims.Name)
	assert.Equal(t, "brenda@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, nil, testSecret)

	_, err := svc.Register(context.Background(), "brenda", "brenda@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "brenda@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), nil, testSecret)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
