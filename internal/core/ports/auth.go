package ports

import (
	"context"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// AuthService coordinates credential validation and session management.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

// UserRepository handles persistence of operator accounts.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
	CountUsers(ctx context.Context) (int64, error)
}

// ScanHistory records scan runs and query-agent activity.
type ScanHistory interface {
	SaveRun(ctx context.Context, run domain.ScanRun) error
	ListRuns(ctx context.Context, limit int) ([]domain.ScanRun, error)
	LogQuery(ctx context.Context, entry domain.QueryLogEntry) error
	ListQueries(ctx context.Context, limit int) ([]domain.QueryLogEntry, error)
}
