package registrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/dbx"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
)

const registrationColumns = `id, event_id, student_name, usn, email, phone, semester, transaction_id, registered_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if _, ok := dbx.IsUniqueViolation(err); ok {
		return common.ErrAlreadyRegistered
	}
	return fmt.Errorf("db error: %w", err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	query :=
		`INSERT INTO registrations (event_id, student_name, usn, email, phone, semester, transaction_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, registered_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.EventID, reg.Name, reg.USN, reg.Email, reg.Phone, reg.Semester, nullString(reg.TransactionID),
	).Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		return nil, mapError(err)
	}
	return reg, nil
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, mapError(err)
	}
	return found, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, eventID, usn, email string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND (usn = $2 OR email = $3))`,
		eventID, usn, email)
}

func (r *PostgresRepository) ExistsByUSN(ctx context.Context, eventID, usn string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND usn = $2)`,
		eventID, usn)
}

func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 ORDER BY registered_at DESC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	result := make([]*models.Registration, 0)
	for rows.Next() {
		var (
			reg models.Registration
			tx  sql.NullString
		)
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.Name, &reg.USN, &reg.Email, &reg.Phone, &reg.Semester,
			&tx, &reg.RegisteredAt); err != nil {
			return nil, mapError(err)
		}
		if tx.Valid {
			reg.TransactionID = &tx.String
		}
		result = append(result, &reg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (r *PostgresRepository) EventIDsByUSN(ctx context.Context, usn string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT event_id FROM registrations WHERE usn = $1`, usn)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

func (r *PostgresRepository) CountByEvents(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, COUNT(*) FROM registrations WHERE event_id = ANY($1::uuid[]) GROUP BY event_id`,
		dbx.TextArray(eventIDs))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, mapError(err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID); err != nil {
		return mapError(err)
	}
	return nil
}
