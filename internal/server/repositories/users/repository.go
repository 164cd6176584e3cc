// Package users is the credential store: persisted accounts keyed by unique
// email and unique USN, plus the pending password reset digest.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/server/models"
)

// Repository persists users. Implementations enforce email and USN
// uniqueness themselves and report violations as common.ErrDuplicateIdentity;
// missing rows are common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByEmailOrUSN returns any user holding either identifier.
	FindByEmailOrUSN(ctx context.Context, email, usn string) (*models.User, error)
	// UpdateProfile writes name, USN, phone and semester. Email and role are
	// never changed here.
	UpdateProfile(ctx context.Context, user *models.User) (*models.User, error)
	// UpdatePassword replaces the hash and drops any pending reset token.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken atomically matches a live reset digest, sets the new
	// password hash and clears the reset fields. A digest that is unknown,
	// expired at now, or already consumed yields common.ErrorNotFound.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*models.User, error)
	SetRole(ctx context.Context, email string, role models.Role) (*models.User, error)
}
