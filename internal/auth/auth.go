package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pulseboard/backend/internal/db"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is the single failure for every non-valid token state:
	// bad signature, expired, malformed, or missing user_id. Callers must
	// not learn which check failed.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the authenticated user's id plus the registered exp/iat set.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id int64) (*db.User, error)
}

type Service struct {
	users  UserStore
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewService builds an auth service. The signing algorithm comes from
// configuration and must be in the HMAC family.
func NewService(users UserStore, secret, algorithm string, ttl time.Duration) (*Service, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not HMAC-based", algorithm)
	}

	return &Service{
		users:  users,
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
	}, nil
}

// HashPassword derives a one-way bcrypt hash from a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a new user with a hashed password. Duplicate emails
// surface as db.ErrEmailExists.
func (s *Service) Register(ctx context.Context, email, password string) (*db.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.CreateAccessToken(user.ID)
}

// CreateAccessToken issues a signed token embedding the user id, expiring
// after the configured TTL.
func (s *Service) CreateAccessToken(userID int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// VerifyAccessToken decodes a token and returns the embedded user id.
// Signature, expiry, signing method, and claim shape are all checked in one
// parse; any failure collapses to ErrInvalidToken.
func (s *Service) VerifyAccessToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

// ResolveUser turns a bearer token into the current user record. The token's
// embedded identity is only trusted after an existence check against the
// store, so tokens for deleted users fail like any other invalid token.
func (s *Service) ResolveUser(ctx context.Context, tokenString string) (*db.User, error) {
	userID, err := s.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}
