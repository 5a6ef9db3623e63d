package auth

import (
	"context"
	"sync"
	"time"
)

// InMemoryAdminRepository is an in-memory implementation of AdminRepository.
// This is intended for testing. Production should use a database-backed implementation.
type InMemoryAdminRepository struct {
	mu      sync.RWMutex
	admins  map[string]*Admin // keyed by admin ID
	byEmail map[string]string // email -> adminID
}

// NewInMemoryAdminRepository creates a new in-memory admin repository.
func NewInMemoryAdminRepository() *InMemoryAdminRepository {
	return &InMemoryAdminRepository{
		admins:  make(map[string]*Admin),
		byEmail: make(map[string]string),
	}
}

// FindByEmail finds an admin by their email address.
func (r *InMemoryAdminRepository) FindByEmail(_ context.Context, email string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adminID, ok := r.byEmail[email]
	if !ok {
		return nil, ErrAdminNotFound
	}

	admin, ok := r.admins[adminID]
	if !ok {
		return nil, ErrAdminNotFound
	}

	// Return a copy to avoid mutation
	adminCopy := *admin
	return &adminCopy, nil
}

// Create creates a new admin account.
func (r *InMemoryAdminRepository) Create(_ context.Context, admin *Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	adminCopy := *admin
	r.admins[admin.ID] = &adminCopy
	r.byEmail[admin.Email] = admin.ID

	return nil
}

// FindByID finds an admin by their internal ID.
func (r *InMemoryAdminRepository) FindByID(_ context.Context, id string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}

	// Return a copy to avoid mutation
	adminCopy := *admin
	return &adminCopy, nil
}

// InMemoryRefreshTokenRepository is an in-memory implementation of RefreshTokenRepository.
// This is intended for testing. Production should use a database-backed implementation.
type InMemoryRefreshTokenRepository struct {
	mu      sync.RWMutex
	tokens  map[string]*RefreshToken // keyed by token value
	byAdmin map[string][]string      // adminID -> list of token values
}

// NewInMemoryRefreshTokenRepository creates a new in-memory refresh token repository.
func NewInMemoryRefreshTokenRepository() *InMemoryRefreshTokenRepository {
	return &InMemoryRefreshTokenRepository{
		tokens:  make(map[string]*RefreshToken),
		byAdmin: make(map[string][]string),
	}
}

// Create stores a new refresh token.
func (r *InMemoryRefreshTokenRepository) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokenCopy := *token
	r.tokens[token.Token] = &tokenCopy
	r.byAdmin[token.AdminID] = append(r.byAdmin[token.AdminID], token.Token)

	return nil
}

// FindByToken finds a refresh token by its value.
func (r *InMemoryRefreshTokenRepository) FindByToken(_ context.Context, tokenValue string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[tokenValue]
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	tokenCopy := *token
	return &tokenCopy, nil
}

// Revoke marks a refresh token as revoked.
func (r *InMemoryRefreshTokenRepository) Revoke(_ context.Context, tokenValue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenValue]
	if !ok {
		return nil // Token not found, consider already revoked
	}

	now := time.Now()
	token.RevokedAt = &now

	return nil
}

// RevokeAllForAdmin revokes all refresh tokens for an admin.
func (r *InMemoryRefreshTokenRepository) RevokeAllForAdmin(_ context.Context, adminID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokenValues, ok := r.byAdmin[adminID]
	if !ok {
		return nil
	}

	now := time.Now()
	for _, tokenValue := range tokenValues {
		if token, ok := r.tokens[tokenValue]; ok {
			token.RevokedAt = &now
		}
	}

	return nil
}
