package database

import (
	"context"
	"database/sql"
	"fmt"

	"bill_reminder_service/internal/domain/bill"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrBillNotFound = fmt.Errorf("recurring bill not found")

// PostgresBillRepository implements bill.Repository against the
// recurring_bills table, joining the owner's contact columns so a reminder
// pass gets everything it needs in one query.
type PostgresBillRepository struct {
	db *sql.DB
}

func NewPostgresBillRepository(db *sql.DB) *PostgresBillRepository {
	return &PostgresBillRepository{db: db}
}

const billColumns = `b.id, b.user_id, b.name, b.amount, b.cycle, b.due_day,
	b.custom_interval_days, b.start_date, b.end_date, b.timezone,
	b.reminder_offsets, b.status, b.reminders_sent, b.marked_paid_until,
	u.email, u.telegram_chat_id, b.created_at, b.updated_at`

func (r *PostgresBillRepository) ListActive(ctx context.Context) ([]*bill.Bill, error) {
	query := `SELECT ` + billColumns + `
               FROM recurring_bills b
               JOIN users u ON u.id = b.user_id
               WHERE b.status = $1
               ORDER BY b.created_at`
	rows, err := r.db.QueryContext(ctx, query, bill.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("error querying active bills: %w", err)
	}
	defer rows.Close()
	return scanBills(rows)
}

func (r *PostgresBillRepository) GetByID(ctx context.Context, id uuid.UUID) (*bill.Bill, error) {
	query := `SELECT ` + billColumns + `
               FROM recurring_bills b
               JOIN users u ON u.id = b.user_id
               WHERE b.id = $1 AND b.status != $2`
	row := r.db.QueryRowContext(ctx, query, id, bill.StatusDeleted)
	b, err := scanBill(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("error getting bill by ID: %w", err)
	}
	return b, nil
}

// Save persists the bill's mutable state. The sent ledger and
// marked_paid_until always travel with the rest of the schedule config so a
// pass never writes a partial snapshot.
func (r *PostgresBillRepository) Save(ctx context.Context, b *bill.Bill) error {
	query := `UPDATE recurring_bills
               SET name = $1, amount = $2, cycle = $3, due_day = $4,
                   custom_interval_days = $5, start_date = $6, end_date = $7,
                   timezone = $8, reminder_offsets = $9, status = $10,
                   reminders_sent = $11, marked_paid_until = $12, updated_at = NOW()
               WHERE id = $13
               RETURNING updated_at`
	offsets := make(pq.Int64Array, 0, len(b.ReminderOffsets))
	for _, o := range b.ReminderOffsets {
		offsets = append(offsets, int64(o))
	}
	err := r.db.QueryRowContext(ctx, query,
		b.Name, b.Amount, b.Cycle, b.DueDay,
		b.CustomIntervalDays, b.StartDate, b.EndDate,
		b.Timezone, offsets, b.Status,
		b.RemindersSent, b.MarkedPaidUntil, b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrBillNotFound
		}
		return fmt.Errorf("error saving bill %s: %w", b.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row rowScanner) (*bill.Bill, error) {
	b := bill.Bill{RemindersSent: bill.SentLedger{}}
	var offsets pq.Int64Array
	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Amount, &b.Cycle, &b.DueDay,
		&b.CustomIntervalDays, &b.StartDate, &b.EndDate, &b.Timezone,
		&offsets, &b.Status, &b.RemindersSent, &b.MarkedPaidUntil,
		&b.UserEmail, &b.TelegramChatID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ReminderOffsets = make([]int, 0, len(offsets))
	for _, o := range offsets {
		b.ReminderOffsets = append(b.ReminderOffsets, int(o))
	}
	if b.RemindersSent == nil {
		b.RemindersSent = bill.SentLedger{}
	}
	return &b, nil
}

func scanBills(rows *sql.Rows) ([]*bill.Bill, error) {
	bills := make([]*bill.Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning bill row: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bill rows: %w", err)
	}
	return bills, nil
}
