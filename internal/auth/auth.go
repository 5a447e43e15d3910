// Package auth handles password hashing and the JWT tokens issued at the
// service boundary.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
)

// Claims carried inside an access token.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Service issues tokens and registers/authenticates users against the
// user store.
type Service struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
}

// UserStore is the slice of the persistence layer auth needs.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
}

func NewService(store UserStore, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a new user with the default role. Duplicate emails
// yield ErrEmailTaken.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if password == "" {
		return core.User{}, fmt.Errorf("%w: password is required", core.ErrValidation)
	}
	if len(password) < 8 {
		return core.User{}, fmt.Errorf("%w: password must be at least 8 characters", core.ErrValidation)
	}

	u := core.User{
		Name:  name,
		Email: email,
		Role:  core.RoleUser,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash

	created, err := s.store.CreateUser(ctx, u)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return core.User{}, ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", created.ID, "email", created.Email)
	return created, nil
}

// Login authenticates a user and returns a signed token. A wrong email and
// a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", core.User{}, fmt.Errorf("login lookup: %w", err)
	}

	if !CheckPassword(u.PasswordHash, password) {
		return "", core.User{}, ErrInvalidCredentials
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return "", core.User{}, err
	}

	slog.InfoContext(ctx, "User logged in", "user_id", u.ID, "email", u.Email)
	return token, u, nil
}

// IssueToken signs an access token for a user.
func (s *Service) IssueToken(u core.User) (string, error) {
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(s.tokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token string and returns its claims.
func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
