package main

import (
	"os"
	"os/signal"
	"syscall"

	"bill_reminder_service/internal/app"
	"bill_reminder_service/internal/domain/push"
	"bill_reminder_service/internal/infra/config"
	idb "bill_reminder_service/internal/infra/database"
	"bill_reminder_service/internal/infra/logger"
	"bill_reminder_service/internal/infra/mail"
	"bill_reminder_service/internal/infra/scheduler"
	"bill_reminder_service/internal/infra/telegram"

	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Log
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Database connection and repositories.
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established.")

	billRepo := idb.NewPostgresBillRepository(db)
	notifRepo := idb.NewPostgresNotificationRepository(db)

	// Optional best-effort channels.
	var mailer app.Mailer
	if cfg.EmailEnabled() {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSender)
		log.Infof("Email dispatch enabled via %s:%s.", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		log.Info("SMTP_HOST not set; email dispatch disabled.")
	}

	var pusher push.Client
	if cfg.TelegramToken != "" {
		adapter, err := telegram.NewTelebotAdapter(cfg.TelegramToken)
		if err != nil {
			log.Warnf("Could not initialize Telegram push client, continuing without it: %v", err)
		} else {
			pusher = adapter
			log.Info("Telegram push channel enabled.")
		}
	}

	reminderService := app.NewReminderService(
		billRepo,
		notifRepo,
		mailer,
		pusher,
		clockwork.NewRealClock(),
		log,
		cfg.PruneProbability,
		cfg.NotificationRetentionDays,
	)

	reminderScheduler := scheduler.NewReminderScheduler(
		reminderService,
		clockwork.NewRealClock(),
		log,
		cfg.CronSpecReminderPass,
		cfg.CronSpecMaintenance,
		cfg.StartupCatchupDelay,
	)
	if err := reminderScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start reminder scheduler: %v", err)
	}

	// Graceful shutdown: let an in-flight pass finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down reminder service...")
	reminderScheduler.Stop()
	log.Info("Reminder service shut down gracefully.")
}
