package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

var ErrUserNotFound = errors.New("user not found")

// UserModel is the GORM model for operator accounts.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLogin    time.Time
}

// UserRepository persists operator accounts in the same SQLite database
// as the graph.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(store *SQLiteGraphStore) *UserRepository {
	return &UserRepository{db: store.db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", username, err)
	}
	return userToEntity(model), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return userToEntity(model), nil
}

func (r *UserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	model := UserModel{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		LastLogin:    user.LastLogin,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "password_hash", "role", "last_login",
		}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.Username, err)
	}
	return nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func userToEntity(m UserModel) *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		LastLogin:    m.LastLogin,
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)
