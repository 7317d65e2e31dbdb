package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"bill_reminder_service/internal/domain/bill"
	"bill_reminder_service/internal/domain/notification"
	"bill_reminder_service/internal/domain/push"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Mailer dispatches one HTML email. Implementations are best-effort; the
// service never lets a mail failure affect a bill's processing.
type Mailer interface {
	Send(to string, subject string, htmlBody string) error
}

// PassStats aggregates what one reminder pass did. Observability only, never
// control flow.
type PassStats struct {
	Processed int // bills evaluated
	Sent      int // notifications created this pass
	Skipped   int // idempotency collisions (already handled elsewhere)
	Errored   int // bills that failed; the pass continued past them
	Pruned    int // ledger keys removed by probabilistic pruning
}

// ReminderService defines the operations the scheduler drives.
type ReminderService interface {
	// ProcessDueReminders runs one full reminder pass over all active bills.
	ProcessDueReminders(ctx context.Context) (PassStats, error)
	// RunMaintenance prunes sent ledgers and deletes old dismissed
	// notifications. Runs far less often than the reminder pass.
	RunMaintenance(ctx context.Context) error
}

// ReminderServiceImpl implements ReminderService.
type ReminderServiceImpl struct {
	billRepo  bill.Repository
	notifRepo notification.Repository
	mailer    Mailer      // nil when SMTP is not configured
	pusher    push.Client // nil when telegram push is not configured
	clock     clockwork.Clock
	logger    *logrus.Logger

	pruneProbability float64
	retentionDays    int

	// randFloat decides probabilistic pruning; injectable so tests can force
	// deterministic behavior.
	randFloat func() float64
}

func NewReminderService(
	br bill.Repository,
	nr notification.Repository,
	mailer Mailer,
	pusher push.Client,
	clock clockwork.Clock,
	logger *logrus.Logger,
	pruneProbability float64,
	retentionDays int,
) *ReminderServiceImpl {
	return &ReminderServiceImpl{
		billRepo:         br,
		notifRepo:        nr,
		mailer:           mailer,
		pusher:           pusher,
		clock:            clock,
		logger:           logger,
		pruneProbability: pruneProbability,
		retentionDays:    retentionDays,
		randFloat:        rand.Float64,
	}
}

// ProcessDueReminders loads every active bill and evaluates it
// independently. A failure on one bill is logged and counted, never allowed
// to starve the rest of the pass. Only a pass-level fault (the bill store is
// unreachable) is returned to the caller.
func (s *ReminderServiceImpl) ProcessDueReminders(ctx context.Context) (PassStats, error) {
	stats := PassStats{}
	now := s.clock.Now()

	bills, err := s.billRepo.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list active bills: %w", err)
	}
	if len(bills) == 0 {
		s.logger.Debug("Reminder pass found no active bills.")
		return stats, nil
	}

	for _, b := range bills {
		stats.Processed++
		if err := s.processBill(ctx, b, now, &stats); err != nil {
			stats.Errored++
			s.logger.WithError(err).WithFields(logrus.Fields{
				"bill_id": b.ID,
				"user_id": b.UserID,
			}).Error("Failed to process bill; continuing with next.")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"processed": stats.Processed,
		"sent":      stats.Sent,
		"skipped":   stats.Skipped,
		"errored":   stats.Errored,
	}).Info("Reminder pass complete.")
	return stats, nil
}

func (s *ReminderServiceImpl) processBill(ctx context.Context, b *bill.Bill, now time.Time, stats *PassStats) error {
	if b.RemindersSent == nil {
		b.RemindersSent = bill.SentLedger{}
	}
	if !knownCycle(b.Cycle) {
		s.logger.WithFields(logrus.Fields{
			"bill_id": b.ID,
			"cycle":   b.Cycle,
		}).Warn("Unrecognized bill cycle; falling back to one-month advance.")
	}

	// Amortized ledger maintenance: each pass prunes a random slice of
	// bills so the write volume stays negligible.
	if s.pruneProbability > 0 && s.randFloat() < s.pruneProbability {
		if removed := bill.PruneOldReminders(b, now); removed > 0 {
			if err := s.billRepo.Save(ctx, b); err != nil {
				return fmt.Errorf("failed to persist pruned ledger: %w", err)
			}
			stats.Pruned += removed
		}
	}

	loc := b.Location()
	for _, due := range bill.RemindersToFire(b, now) {
		dueDateKey := bill.DateKey(due.DueDate, loc)
		key := notification.IdempotencyKey(notification.KindBillReminder, b.ID, dueDateKey, due.Offset)

		rec := &notification.Record{
			UserID:         b.UserID,
			BillID:         b.ID,
			Kind:           notification.KindBillReminder,
			DueDateKey:     dueDateKey,
			OffsetDays:     due.Offset,
			IdempotencyKey: key,
			Title:          reminderTitle(due.Offset),
			Message:        reminderMessage(b, due.Offset, dueDateKey),
		}
		_, created, err := s.notifRepo.CreateIfAbsent(ctx, rec)
		if err != nil {
			return fmt.Errorf("failed to create notification %s: %w", key, err)
		}
		if !created {
			// Another pass (or a concurrent instance) already handled this
			// reminder. Expected, not an error.
			stats.Skipped++
			continue
		}

		// The ledger write must land before the next pass can read this
		// bill, so persist synchronously before moving on.
		b.RemindersSent.Mark(dueDateKey, due.Offset)
		if err := s.billRepo.Save(ctx, b); err != nil {
			return fmt.Errorf("failed to persist sent ledger after notification %s: %w", key, err)
		}
		stats.Sent++

		if due.Offset == 0 {
			s.dispatchDueTodayChannels(ctx, b, key, dueDateKey)
		}
	}
	return nil
}

// dispatchDueTodayChannels sends the optional email and telegram push for a
// due-today reminder. Both channels are best-effort: failures are logged and
// swallowed, and never touch the in-app notification or the bill's ledger.
func (s *ReminderServiceImpl) dispatchDueTodayChannels(ctx context.Context, b *bill.Bill, idempotencyKey, dueDateKey string) {
	if s.mailer != nil && b.UserEmail != "" {
		subject := fmt.Sprintf("Reminder: %s is due today", b.Name)
		body := dueTodayEmailBody(b, dueDateKey)
		if err := s.mailer.Send(b.UserEmail, subject, body); err != nil {
			s.logger.WithError(err).WithField("bill_id", b.ID).Warn("Email dispatch failed; in-app notification is unaffected.")
		} else if err := s.notifRepo.MarkEmailSent(ctx, idempotencyKey); err != nil {
			s.logger.WithError(err).WithField("bill_id", b.ID).Warn("Could not flag notification as emailed.")
		}
	}

	if s.pusher != nil && b.TelegramChatID.Valid {
		text := fmt.Sprintf("%s (%.2f) is due today.", b.Name, b.Amount)
		if err := s.pusher.SendReminder(ctx, b.TelegramChatID.Int64, text); err != nil {
			s.logger.WithError(err).WithField("bill_id", b.ID).Warn("Telegram push failed; in-app notification is unaffected.")
		}
	}
}

// RunMaintenance force-prunes every active bill's ledger and deletes
// dismissed notifications older than the retention window.
func (s *ReminderServiceImpl) RunMaintenance(ctx context.Context) error {
	now := s.clock.Now()

	bills, err := s.billRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active bills for maintenance: %w", err)
	}

	prunedKeys := 0
	for _, b := range bills {
		if removed := bill.PruneOldReminders(b, now); removed > 0 {
			if err := s.billRepo.Save(ctx, b); err != nil {
				s.logger.WithError(err).WithField("bill_id", b.ID).Error("Failed to persist pruned ledger; continuing with next bill.")
				continue
			}
			prunedKeys += removed
		}
	}

	cutoff := now.AddDate(0, 0, -s.retentionDays)
	deleted, err := s.notifRepo.DeleteDismissedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old dismissed notifications: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"pruned_ledger_keys":    prunedKeys,
		"deleted_notifications": deleted,
	}).Info("Maintenance pass complete.")
	return nil
}

func knownCycle(c bill.Cycle) bool {
	switch c {
	case bill.CycleWeekly, bill.CycleBiweekly, bill.CycleMonthly,
		bill.CycleQuarterly, bill.CycleYearly, bill.CycleCustom:
		return true
	}
	return false
}

func reminderTitle(offset int) string {
	switch offset {
	case 0:
		return "Bill due today"
	case 1:
		return "Bill due tomorrow"
	default:
		return fmt.Sprintf("Bill due in %d days", offset)
	}
}

func reminderMessage(b *bill.Bill, offset int, dueDateKey string) string {
	if offset == 0 {
		return fmt.Sprintf("%s (%.2f) is due today (%s).", b.Name, b.Amount, dueDateKey)
	}
	return fmt.Sprintf("%s (%.2f) is due on %s.", b.Name, b.Amount, dueDateKey)
}

func dueTodayEmailBody(b *bill.Bill, dueDateKey string) string {
	return fmt.Sprintf(
		"<p>Hi,</p><p>Your recurring bill <strong>%s</strong> (%.2f) is due today, %s.</p><p>Open the app to mark it as paid.</p>",
		b.Name, b.Amount, dueDateKey,
	)
}
