package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bill_reminder_service/internal/app"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned by Start when the scheduler is running;
// double-starting must never double-schedule a pass.
var ErrAlreadyRunning = errors.New("reminder scheduler is already running")

const (
	reminderPassTimeout    = 10 * time.Minute
	maintenancePassTimeout = 5 * time.Minute
)

// ReminderScheduler owns the periodic driver for the reminder service: a
// recurring reminder pass, a much rarer maintenance pass, and a one-shot
// catch-up pass shortly after start for reminders missed during downtime.
// All timer handles live on this struct; constructing two independent
// schedulers (as the tests do) is safe.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	service    app.ReminderService
	clock      clockwork.Clock
	logger     *logrus.Logger

	specReminderPass string
	specMaintenance  string
	startupDelay     time.Duration

	mu           sync.Mutex
	running      bool
	jobsAdded    bool
	startupTimer clockwork.Timer
}

func NewReminderScheduler(
	service app.ReminderService,
	clock clockwork.Clock,
	logger *logrus.Logger,
	specReminderPass string, // e.g., "0 * * * *" (hourly)
	specMaintenance string, // e.g., "30 4 * * *" (daily)
	startupDelay time.Duration,
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			// A panicking job must not take the cron goroutine down with it.
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		service:          service,
		clock:            clock,
		logger:           logger,
		specReminderPass: specReminderPass,
		specMaintenance:  specMaintenance,
		startupDelay:     startupDelay,
	}
}

// Start registers the cron jobs, schedules the catch-up pass and starts the
// engine. Returns ErrAlreadyRunning if called while running.
func (s *ReminderScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	if !s.jobsAdded {
		if _, err := s.cronEngine.AddFunc(s.specReminderPass, s.reminderPassJob); err != nil {
			return fmt.Errorf("could not add reminder pass job: %w", err)
		}
		if _, err := s.cronEngine.AddFunc(s.specMaintenance, s.maintenancePassJob); err != nil {
			return fmt.Errorf("could not add maintenance pass job: %w", err)
		}
		s.jobsAdded = true
	}

	// Catch-up pass: anything that came due while the process was down is
	// still inside the evaluator's grace window, so one early pass picks it
	// up without waiting for the first cron tick.
	s.startupTimer = s.clock.AfterFunc(s.startupDelay, func() {
		s.logger.Info("Running startup catch-up reminder pass.")
		s.reminderPassJob()
	})

	s.cronEngine.Start()
	s.running = true
	s.logger.WithFields(logrus.Fields{
		"reminder_spec":    s.specReminderPass,
		"maintenance_spec": s.specMaintenance,
	}).Info("Reminder scheduler started.")
	return nil
}

// Stop cancels future firings and waits for an in-flight pass to complete;
// a pass is never interrupted mid-bill.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if s.startupTimer != nil {
		s.startupTimer.Stop()
		s.startupTimer = nil
	}
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("Reminder scheduler stopped.")
}

// RunOnce executes a single reminder pass immediately. Used by the tests and
// available for manual triggering.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (app.PassStats, error) {
	return s.service.ProcessDueReminders(ctx)
}

func (s *ReminderScheduler) reminderPassJob() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderPassTimeout)
	defer cancel()
	if _, err := s.service.ProcessDueReminders(ctx); err != nil {
		// Pass-level fault (e.g. bill store unreachable). The next tick
		// still runs.
		s.logger.WithError(err).Error("Reminder pass failed; will retry on next tick.")
	}
}

func (s *ReminderScheduler) maintenancePassJob() {
	ctx, cancel := context.WithTimeout(context.Background(), maintenancePassTimeout)
	defer cancel()
	if err := s.service.RunMaintenance(ctx); err != nil {
		s.logger.WithError(err).Error("Maintenance pass failed; will retry on next tick.")
	}
}
