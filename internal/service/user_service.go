package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bgovha/shopsphere-backend/internal/entity"
)

// ErrInvalidCredentials is returned on login with an unknown email or a wrong
// password. The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the persistence contract for user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUserByID(ctx context.Context, id int) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
}

type UserService struct {
	users     UserStore
	rdb       *redis.Client
	jwtSecret []byte
}

// NewUserService creates a new instance of UserService. The redis client may
// be nil, which disables the session record.
func NewUserService(users UserStore, rdb *redis.Client, jwtSecret string) *UserService {
	return &UserService{users: users, rdb: rdb, jwtSecret: []byte(jwtSecret)}
}

type JwtCustomClaims struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Register creates a new user account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &entity.ValidationError{Code: "username_required"}
	}
	if strings.TrimSpace(email) == "" {
		return nil, &entity.ValidationError{Code: "email_required"}
	}
	if len(password) < 8 {
		return nil, &entity.ValidationError{Code: "password_too_short"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Error creating user")
		return nil, err
	}

	return created, nil
}

// Login verifies the credentials and issues a signed JWT valid for 24 hours.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		var notFound *entity.NotFoundError
		if errors.As(err, &notFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &JwtCustomClaims{
		UserID: user.ID,
		Name:   user.Username,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, sessionKey(email), t, time.Hour*24).Err(); err != nil {
			logger.Error().Err(err).Str("email", email).Msg("Error storing session")
			return "", err
		}
	}

	return t, nil
}

// ValidateSession reports whether a session token is on record for the email.
func (s *UserService) ValidateSession(ctx context.Context, email string) (string, error) {
	if s.rdb == nil {
		return "", errors.New("sessions disabled")
	}

	token, err := s.rdb.Get(ctx, sessionKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.New("session not found")
		}
		return "", err
	}

	return token, nil
}

// GetUserByID retrieves a user by ID.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Int("user_id", id).Msg("Error getting user")
		return nil, err
	}

	return user, nil
}

func sessionKey(email string) string {
	return "session:" + email
}
