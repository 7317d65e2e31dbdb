package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bill_reminder_service/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrNotificationNotFound = fmt.Errorf("notification not found")

// uniqueViolation is the PostgreSQL error code for unique-constraint
// violations; the idempotency index surfaces duplicates this way.
const uniqueViolation = "23505"

// PostgresNotificationRepository implements the notification sink. The
// notifications table carries a unique index on idempotency_key, which is
// the final backstop against two passes racing on the same reminder.
type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// CreateIfAbsent inserts the record unless its idempotency key already
// exists. A collision is the expected duplicate-trigger outcome: the
// pre-existing record is returned with wasCreated=false, never an error.
func (r *PostgresNotificationRepository) CreateIfAbsent(ctx context.Context, rec *notification.Record) (*notification.Record, bool, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `INSERT INTO notifications
               (id, user_id, bill_id, kind, due_date_key, offset_days, idempotency_key, title, message, email_sent)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               ON CONFLICT (idempotency_key) DO NOTHING
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.BillID, rec.Kind, rec.DueDateKey,
		rec.OffsetDays, rec.IdempotencyKey, rec.Title, rec.Message, rec.EmailSent,
	).Scan(&rec.CreatedAt)
	if err == nil {
		return rec, true, nil
	}
	if err != sql.ErrNoRows {
		if pqErr, ok := err.(*pq.Error); !ok || pqErr.Code != uniqueViolation {
			return nil, false, fmt.Errorf("error creating notification: %w", err)
		}
	}

	// The insert was a no-op; hand back whatever won the race.
	existing, err := r.getByIdempotencyKey(ctx, rec.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("error fetching existing notification for key %s: %w", rec.IdempotencyKey, err)
	}
	return existing, false, nil
}

func (r *PostgresNotificationRepository) getByIdempotencyKey(ctx context.Context, key string) (*notification.Record, error) {
	query := `SELECT id, user_id, bill_id, kind, due_date_key, offset_days, idempotency_key,
                      title, message, email_sent, read_at, dismissed_at, created_at
               FROM notifications WHERE idempotency_key = $1`
	rec := notification.Record{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&rec.ID, &rec.UserID, &rec.BillID, &rec.Kind, &rec.DueDateKey,
		&rec.OffsetDays, &rec.IdempotencyKey, &rec.Title, &rec.Message,
		&rec.EmailSent, &rec.ReadAt, &rec.DismissedAt, &rec.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresNotificationRepository) MarkEmailSent(ctx context.Context, idempotencyKey string) error {
	query := `UPDATE notifications SET email_sent = TRUE WHERE idempotency_key = $1`
	res, err := r.db.ExecContext(ctx, query, idempotencyKey)
	if err != nil {
		return fmt.Errorf("error marking notification email sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteDismissedBefore removes dismissed notifications older than the
// cutoff. Invoked by the maintenance pass, never by the reminder pass.
func (r *PostgresNotificationRepository) DeleteDismissedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE dismissed_at IS NOT NULL AND dismissed_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting dismissed notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted notifications: %w", err)
	}
	return n, nil
}
