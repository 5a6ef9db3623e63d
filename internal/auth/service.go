package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Predefined service errors.
var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)

// AdminRepository defines the interface for admin account operations.
type AdminRepository interface {
	// FindByEmail finds an admin by their email address.
	FindByEmail(ctx context.Context, email string) (*Admin, error)

	// FindByID finds an admin by their internal ID.
	FindByID(ctx context.Context, id string) (*Admin, error)

	// Create creates a new admin account.
	Create(ctx context.Context, admin *Admin) error
}

// RefreshTokenRepository defines the interface for refresh token operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *RefreshToken) error

	// FindByToken finds a refresh token by its value.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke marks a refresh token as revoked.
	Revoke(ctx context.Context, token string) error

	// RevokeAllForAdmin revokes all refresh tokens for an admin.
	RevokeAllForAdmin(ctx context.Context, adminID string) error
}

// Service provides authentication operations.
type Service struct {
	jwtService  *JWTService
	adminRepo   AdminRepository
	refreshRepo RefreshTokenRepository
	bcryptCost  int
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService  *JWTService
	AdminRepo   AdminRepository
	RefreshRepo RefreshTokenRepository

	// BcryptCost overrides the password hashing cost (default: bcrypt.DefaultCost).
	// Tests lower it to keep hashing fast.
	BcryptCost int
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		jwtService:  cfg.JWTService,
		adminRepo:   cfg.AdminRepo,
		refreshRepo: cfg.RefreshRepo,
		bcryptCost:  cost,
	}
}

// Login authenticates an admin with email and password and returns API tokens.
// Unknown emails and wrong passwords return the same error so accounts cannot
// be enumerated.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation error: %s", errs[0].Message)
	}

	admin, err := s.adminRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, admin)
}

// RefreshAccessToken refreshes an access token using a refresh token.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshTokenStr string) (*TokenResponse, error) {
	// Find the refresh token
	refreshToken, err := s.refreshRepo.FindByToken(ctx, refreshTokenStr)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// Check if token is valid
	if refreshToken.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	// Get the admin
	admin, err := s.adminRepo.FindByID(ctx, refreshToken.AdminID)
	if err != nil {
		return nil, ErrAdminNotFound
	}

	// Revoke the old refresh token (rotation)
	if err := s.refreshRepo.Revoke(ctx, refreshTokenStr); err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}

	// Generate new tokens
	return s.generateTokens(ctx, admin)
}

// ValidateAccessToken validates an access token and returns the admin ID.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.AdminID, nil
}

// GetAdmin retrieves an admin by ID.
func (s *Service) GetAdmin(ctx context.Context, adminID string) (*Admin, error) {
	return s.adminRepo.FindByID(ctx, adminID)
}

// RevokeRefreshToken revokes a specific refresh token.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshTokenStr string) error {
	return s.refreshRepo.Revoke(ctx, refreshTokenStr)
}

// RevokeAllTokens revokes all refresh tokens for an admin (logout everywhere).
func (s *Service) RevokeAllTokens(ctx context.Context, adminID string) error {
	return s.refreshRepo.RevokeAllForAdmin(ctx, adminID)
}

// CreateAdmin registers a new admin account with a bcrypt-hashed password.
// Used by the bootstrap path and by existing admins adding colleagues.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (*Admin, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("validation error: email is required")
	}
	if len(password) < 12 {
		return nil, fmt.Errorf("validation error: password must be at least 12 characters")
	}

	if _, err := s.adminRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrAdminNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	admin := &Admin{
		ID:           generateAdminID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("creating admin: %w", err)
	}

	return admin, nil
}

// generateTokens generates both access and refresh tokens for an admin.
func (s *Service) generateTokens(ctx context.Context, admin *Admin) (*TokenResponse, error) {
	// Generate access token
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(admin)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	// Generate refresh token
	refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	// Store refresh token
	refreshToken := &RefreshToken{
		ID:        uuid.New().String(),
		Token:     refreshTokenStr,
		AdminID:   admin.ID,
		ExpiresAt: time.Now().Add(RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}

	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		RefreshToken: refreshTokenStr,
		Admin:        admin,
	}, nil
}

// generateAdminID generates a unique admin ID with prefix.
func generateAdminID() string {
	return "adm_" + uuid.New().String()[:22]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
