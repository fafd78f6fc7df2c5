package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/VanshSharma0/MyTube/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// DBTX is the subset of *sql.DB / *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	// SetRefreshToken overwrites the stored refresh token and returns the
	// updated record. The previous session, if any, is implicitly revoked.
	SetRefreshToken(ctx context.Context, id, token string) (*models.User, error)
	ClearRefreshToken(ctx context.Context, id string) error
}
