package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/dbx"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
)

const eventColumns = `id, title, description, department, club_name, date, time, venue, created_by, registration_deadline, whatsapp_group_link, rules, payment_required, payment_amount, payment_qr_key, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanEvent(row interface{ Scan(dest ...any) error }) (*models.Event, error) {
	var (
		e      models.Event
		amount sql.NullFloat64
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Department, &e.ClubName, &e.Date, &e.Time, &e.Venue,
		&e.CreatedBy, &e.RegistrationDeadline, &e.WhatsappGroupLink, &e.Rules, &e.PaymentRequired, &amount,
		&e.PaymentQRKey, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		e.PaymentAmount = &amount.Float64
	}
	return &e, nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	result := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func nullAmount(a *float64) sql.NullFloat64 {
	if a == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *a, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (id, title, description, department, club_name, date, time, venue, created_by,
		                     registration_deadline, whatsapp_group_link, rules, payment_required, payment_amount, payment_qr_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.ID, event.Title, event.Description, event.Department, event.ClubName, event.Date, event.Time,
		event.Venue, event.CreatedBy, event.RegistrationDeadline, event.WhatsappGroupLink, event.Rules,
		event.PaymentRequired, nullAmount(event.PaymentAmount), event.PaymentQRKey,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return event, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date DESC`)
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Event, error) {
	if len(ids) == 0 {
		return []*models.Event{}, nil
	}
	return r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ANY($1::uuid[]) ORDER BY date ASC`,
		dbx.TextArray(ids))
}

func (r *PostgresRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	query :=
		`UPDATE events SET title = $2, description = $3, department = $4, club_name = $5, date = $6, time = $7,
		        venue = $8, registration_deadline = $9, whatsapp_group_link = $10, rules = $11,
		        payment_required = $12, payment_amount = $13, payment_qr_key = $14, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + eventColumns

	e, err := scanEvent(r.db.QueryRowContext(ctx, query,
		event.ID, event.Title, event.Description, event.Department, event.ClubName, event.Date, event.Time,
		event.Venue, event.RegistrationDeadline, event.WhatsappGroupLink, event.Rules,
		event.PaymentRequired, nullAmount(event.PaymentAmount), event.PaymentQRKey,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE registration_deadline < $1`, now)
}

func (r *PostgresRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM events`)
}

func (r *PostgresRepository) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM events WHERE date >= $1`, now)
}

func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]*models.Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC LIMIT $1`, limit)
}
