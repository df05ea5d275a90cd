package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdf-toolkit/internal/domain"
	apperrors "pdf-toolkit/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL          = 24 * time.Hour
	minPasswordLength = 8
)

// AuthService handles registration, login and bearer-token validation.
// Tokens are HS256 JWTs carrying the account ID as subject.
type AuthService struct {
	accounts  domain.AccountRepository
	jwtSecret []byte
	logger    domain.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(accounts domain.AccountRepository, jwtSecret string, logger domain.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a new free-tier account. The password is stored only as a
// bcrypt hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, apperrors.NewValidationError("Invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("Email already registered")
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, apperrors.NewInternalError("Failed to check existing account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to hash password", err)
	}

	now := s.now().UTC()
	account := &domain.Account{
		ID:                 uuid.NewString(),
		Email:              email,
		PasswordHash:       string(hash),
		SubscriptionTier:   domain.TierFree,
		SubscriptionStatus: domain.StatusActive,
		UsageCount:         0,
		UsageCycleStart:    now,
		Role:               domain.RoleUser,
		CreatedAt:          now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperrors.NewValidationError("Email already registered")
		}
		return nil, apperrors.NewInternalError("Failed to create account", err)
	}

	s.logger.Info("Account registered", "account_id", account.ID)
	return account, nil
}

// Login verifies the credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil, apperrors.NewUnauthorizedError("Invalid email or password")
		}
		return "", nil, apperrors.NewInternalError("Failed to load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return "", nil, apperrors.NewInternalError("Failed to issue token", err)
	}
	return token, account, nil
}

// ValidateToken parses and verifies a bearer token, returning the account ID.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

// TokenFor issues a signed token for an account that is already
// authenticated, e.g. right after registration.
func (s *AuthService) TokenFor(accountID string) (string, error) {
	return s.issueToken(accountID)
}

func (s *AuthService) issueToken(accountID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	host := email[at+1:]
	return !strings.Contains(host, "@") && strings.Contains(host, ".")
}
