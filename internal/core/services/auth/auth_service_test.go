package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// MockUserRepository implements ports.UserRepository for testing.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	password := "secret123"
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	user := &domain.User{
		ID:           "u-1",
		Username:     "admin",
		PasswordHash: string(hashed),
		Role:         domain.RoleAdmin,
	}

	// 1. Success (login also records last_login)
	mockRepo.On("GetByUsername", ctx, "admin").Return(user, nil)
	mockRepo.On("SaveUser", ctx, mock.Anything).Return(nil)

	token, err := svc.Login(ctx, domain.Credentials{Username: "admin", Password: "secret123"})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// 2. Wrong Password
	mockRepo.On("GetByUsername", ctx, "admin_fail").Return(user, nil)
	token, err = svc.Login(ctx, domain.Credentials{Username: "admin_fail", Password: "wrong"})
	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Equal(t, ErrInvalidCredentials, err)

	// 3. User Not Found
	mockRepo.On("GetByUsername", ctx, "ghost").Return(nil, errors.New("not found"))
	token, err = svc.Login(ctx, domain.Credentials{Username: "ghost", Password: "any"})
	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestAuthService_LoginRateLimit(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByUsername", ctx, "bruteforce").Return(nil, errors.New("not found"))

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(ctx, domain.Credentials{Username: "bruteforce", Password: "guess"})
		assert.Equal(t, ErrInvalidCredentials, err)
	}

	_, err := svc.Login(ctx, domain.Credentials{Username: "bruteforce", Password: "guess"})
	assert.Equal(t, ErrRateLimitExceeded, err)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	password := "secret123"
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := &domain.User{ID: "u-1", Username: "admin", PasswordHash: string(hashed), Role: domain.RoleAdmin}

	mockRepo.On("GetByUsername", ctx, "admin").Return(user, nil)
	mockRepo.On("SaveUser", ctx, mock.Anything).Return(nil)
	mockRepo.On("GetByID", ctx, "u-1").Return(user, nil)

	token, err := svc.Login(ctx, domain.Credentials{Username: "admin", Password: password})
	assert.NoError(t, err)

	validated, err := svc.ValidateToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, "u-1", validated.ID)

	// Unknown token
	_, err = svc.ValidateToken(ctx, "bogus")
	assert.Equal(t, ErrInvalidSession, err)

	// Logout invalidates
	assert.NoError(t, svc.Logout(ctx, token))
	_, err = svc.ValidateToken(ctx, token)
	assert.Equal(t, ErrInvalidSession, err)
}

func TestAuthService_EnsureDefaultAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	mockRepo.On("CountUsers", ctx).Return(int64(0), nil)
	mockRepo.On("SaveUser", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "admin" && u.Role == domain.RoleAdmin && u.PasswordHash != ""
	})).Return(nil)

	assert.NoError(t, svc.EnsureDefaultAdmin(ctx))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_EnsureDefaultAdminSkipsWhenUsersExist(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	mockRepo.On("CountUsers", ctx).Return(int64(3), nil)

	assert.NoError(t, svc.EnsureDefaultAdmin(ctx))
	mockRepo.AssertNotCalled(t, "SaveUser")
}
