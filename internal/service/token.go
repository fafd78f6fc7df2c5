package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/VanshSharma0/MyTube/internal/util"
)

var (
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)

// TokenService signs and verifies the two token kinds. Access and refresh
// tokens use independent secrets and TTLs.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (ts *TokenService) CreateAccessToken(userID string) (string, error) {
	return ts.create(userID, ts.accessSecret, ts.accessTTL)
}

func (ts *TokenService) CreateRefreshToken(userID string) (string, error) {
	return ts.create(userID, ts.refreshSecret, ts.refreshTTL)
}

func (ts *TokenService) ParseAccessToken(token string) (string, error) {
	return ts.parse(token, ts.accessSecret)
}

func (ts *TokenService) ParseRefreshToken(token string) (string, error) {
	return ts.parse(token, ts.refreshSecret)
}

func (ts *TokenService) create(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}

	return signedToken, nil
}

// parse verifies signature and expiry and returns the embedded user id.
// No leeway: a token is expired the moment its exp passes.
func (ts *TokenService) parse(token string, secret []byte) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		&jwtClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return secret, nil
		},
		opts...,
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		default:
			return "", ErrTokenInvalid
		}
	}

	if parsedToken == nil || !parsedToken.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(*jwtClaims)
	if !ok || claims.UserID == "" {
		return "", ErrTokenInvalid
	}

	return claims.UserID, nil
}
