// Package events persists the event catalogue.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/server/models"
)

// Repository persists events. Missing rows are common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// List returns all events, latest date first.
	List(ctx context.Context) ([]*models.Event, error)
	// ListByIDs returns the named events, earliest date first. Unknown IDs
	// are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]*models.Event, error)
	// Update rewrites the editable fields. CreatedBy and CreatedAt are kept.
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	// ListExpired returns events whose registration deadline is before now.
	ListExpired(ctx context.Context, now time.Time) ([]*models.Event, error)
	Count(ctx context.Context) (int64, error)
	// CountUpcoming counts events dated at or after now.
	CountUpcoming(ctx context.Context, now time.Time) (int64, error)
	// Recent returns the most recently created events.
	Recent(ctx context.Context, limit int) ([]*models.Event, error)
}
