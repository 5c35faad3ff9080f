// Command advance_expirations runs the time-based sweep: pending invites past
// their expiry move to expired, and supervisors are reminded about logbooks
// sitting in submitted. Intended to run from cron.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/practicetrack/practicetrack-backend/internal/db"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/services"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	reminderAfter := flag.Duration("reminder-after", 72*time.Hour, "nudge supervisors about logbooks submitted longer ago than this")
	flag.Parse()

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Failed to connect to postgres", "error", err)
	}
	gormDB := pg.DB()

	userRepo := repos.NewUserRepo(gormDB, log)
	inviteRepo := repos.NewInviteRepo(gormDB, log)
	logbookRepo := repos.NewWeeklyLogbookRepo(gormDB, log)
	notificationRepo := repos.NewNotificationRepo(gormDB, log)

	// No SSE hub in a one-shot CLI; events still land in the notification
	// table through the dedupe path.
	var notify services.Notifier = services.NewNotifier(log, notificationRepo, nil)
	if *dryRun {
		notify = services.NopNotifier{}
	}

	inviteService := services.NewInviteService(gormDB, log, inviteRepo, userRepo)
	sweep := services.NewSweepService(gormDB, log, inviteService, logbookRepo, inviteRepo)

	ctx := context.Background()
	result, err := sweep.Run(ctx, time.Now().UTC(), *reminderAfter, *dryRun)
	if err != nil {
		log.Fatal("Sweep failed", "error", err)
	}
	notify.Dispatch(ctx, result.Events...)

	log.Info("Sweep finished",
		"expired_invites", result.ExpiredInvites,
		"reminders", result.Reminders,
		"events", len(result.Events),
		"dry_run", *dryRun)
}
