package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrInvalidSession     = errors.New("invalid session")
)

const maxLoginAttempts = 5

// Session represents an active user session.
type Session struct {
	UserID    string
	Role      domain.Role
	ExpiresAt time.Time
}

// AuthService implements ports.AuthService.
// It coordinates credentials validation and session management.
type AuthService struct {
	repo          ports.UserRepository
	sessions      map[string]Session
	loginAttempts map[string]int
	mu            sync.RWMutex
	sessionTTL    time.Duration
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo ports.UserRepository) *AuthService {
	return &AuthService{
		repo:          repo,
		sessions:      make(map[string]Session),
		loginAttempts: make(map[string]int),
		sessionTTL:    24 * time.Hour,
	}
}

// Login validates user credentials and returns a session token.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if err := s.checkRateLimit(creds.Username); err != nil {
		return "", err
	}

	user, err := s.repo.GetByUsername(ctx, creds.Username)
	if err != nil {
		s.incrementAttempts(creds.Username)
		return "", ErrInvalidCredentials // Generic error to avoid enumeration
	}

	if err := s.verifyPassword(user.PasswordHash, creds.Password); err != nil {
		s.incrementAttempts(creds.Username)
		return "", ErrInvalidCredentials
	}

	s.resetAttempts(creds.Username)

	user.LastLogin = time.Now().UTC()
	if err := s.repo.SaveUser(ctx, user); err != nil {
		slog.Warn("failed to record last login", "username", user.Username, "error", err)
	}

	return s.createSession(user)
}

// ValidateToken verifies a session token and returns the associated user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if time.Now().After(session.ExpiresAt) {
		s.Logout(ctx, token)
		return nil, ErrTokenExpired
	}

	user, err := s.repo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// Logout invalidates a session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// CreateUser provisions a new user with a hashed password.
func (s *AuthService) CreateUser(ctx context.Context, user *domain.User, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	return s.repo.SaveUser(ctx, user)
}

// EnsureDefaultAdmin creates an admin account with a random password when
// the user table is empty, so a fresh install is reachable. The generated
// password is logged once; change it after first login.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) error {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password, err := randomPassword()
	if err != nil {
		return err
	}
	admin, err := domain.NewUser(uuid.New().String(), "admin", domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.CreateUser(ctx, admin, password); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}
	slog.Warn("created default admin account", "username", "admin", "password", password)
	return nil
}

// Private helpers

func (s *AuthService) checkRateLimit(username string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loginAttempts[username] >= maxLoginAttempts {
		return ErrRateLimitExceeded
	}
	return nil
}

func (s *AuthService) incrementAttempts(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginAttempts[username]++
}

func (s *AuthService) resetAttempts(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loginAttempts, username)
}

func (s *AuthService) verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) createSession(user *domain.User) (string, error) {
	token := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = Session{
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}

	return token, nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

var _ ports.AuthService = (*AuthService)(nil)
