package auth

import (
	"context"

	"agrichain/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates user data.
	Update(ctx context.Context, user *User) error

	// Exists checks if email exists.
	Exists(ctx context.Context, email string) (bool, error)

	// LoadRoles loads user's role codes.
	LoadRoles(ctx context.Context, userID id.ID) ([]string, error)

	// LoadCompanies loads IDs of companies the user's profile is attached to.
	LoadCompanies(ctx context.Context, userID id.ID) ([]string, error)

	// AttachCompany links the user to a company.
	AttachCompany(ctx context.Context, userID, companyID id.ID) error
}

// TokenRepository defines refresh token storage operations.
type TokenRepository interface {
	// SaveRefreshToken saves a refresh token.
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves refresh token by hash.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeRefreshToken revokes a refresh token.
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error

	// RevokeAllUserTokens revokes all tokens for a user.
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error
}
