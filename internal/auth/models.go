// Package auth provides admin authentication services for PandalPath.
package auth

import "time"

// Admin represents an administrator account. Admins curate the pandal
// directory and manage feature flags.
type Admin struct {
	ID           string    `json:"adminId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // bcrypt hash, never exposed in API
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LoginRequest represents the request body for password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request.
func (r *LoginRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Email == "" {
		errors = append(errors, FieldError{
			Field:   "email",
			Message: "email is required",
			Code:    "REQUIRED",
		})
	}
	if r.Password == "" {
		errors = append(errors, FieldError{
			Field:   "password",
			Message: "password is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string `json:"refreshToken,omitempty"`

	// Admin contains the authenticated admin's information.
	Admin *Admin `json:"admin"`
}

// RefreshTokenRequest represents the request to refresh an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate validates the refresh token request.
func (r *RefreshTokenRequest) Validate() []FieldError {
	var errors []FieldError

	if r.RefreshToken == "" {
		errors = append(errors, FieldError{
			Field:   "refreshToken",
			Message: "refresh token is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}
