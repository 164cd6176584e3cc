// Package registrations is the registration ledger: at most one entry per
// (event, USN) and per (event, email), enforced by the store itself.
package registrations

import (
	"context"

	"github.com/dmitrijs2005/eventhub/internal/server/models"
)

// Repository persists registrations. Create reports a violation of either
// uniqueness key as common.ErrAlreadyRegistered; that check and the write
// are one atomic step, so concurrent duplicates cannot both succeed.
type Repository interface {
	Create(ctx context.Context, reg *models.Registration) (*models.Registration, error)
	// Exists reports whether eventID already has an entry with usn or email.
	Exists(ctx context.Context, eventID, usn, email string) (bool, error)
	ExistsByUSN(ctx context.Context, eventID, usn string) (bool, error)
	// ListByEvent returns the event's registrations, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error)
	EventIDsByUSN(ctx context.Context, usn string) ([]string, error)
	// CountByEvents returns registration counts keyed by event ID. Events
	// without registrations are absent from the map.
	CountByEvents(ctx context.Context, eventIDs []string) (map[string]int64, error)
	Count(ctx context.Context) (int64, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}
