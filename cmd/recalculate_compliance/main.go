// Command recalculate_compliance rebuilds stored compliance reports, either
// for the trainees given with --trainee or for every trainee with recorded
// supervision.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/practicetrack/practicetrack-backend/internal/db"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/policy"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/services"
	"github.com/practicetrack/practicetrack-backend/internal/utils"
)

type uuidList []uuid.UUID

func (l *uuidList) String() string {
	parts := make([]string, 0, len(*l))
	for _, id := range *l {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

func (l *uuidList) Set(raw string) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid trainee id %q: %w", raw, err)
	}
	*l = append(*l, id)
	return nil
}

func main() {
	var trainees uuidList
	flag.Var(&trainees, "trainee", "trainee id to recalculate (repeatable; default: all)")
	dryRun := flag.Bool("dry-run", false, "compute reports without persisting them")
	concurrency := flag.Int("concurrency", 4, "number of trainees processed in parallel")
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

	pol := policy.Default()
	if path := utils.GetEnv("SUPERVISION_POLICY_PATH", "", log); path != "" {
		pol, err = policy.Load(path)
		if err != nil {
			log.Fatal("Failed to load supervision policy", "error", err, "path", path)
		}
	}

	entryRepo := repos.NewSupervisionEntryRepo(gormDB, log)
	obsRepo := repos.NewSupervisionObservationRepo(gormDB, log)
	reportRepo := repos.NewComplianceReportRepo(gormDB, log)
	compliance := services.NewComplianceService(gormDB, log, pol, entryRepo, obsRepo, reportRepo)

	ctx := context.Background()
	targets := []uuid.UUID(trainees)
	if len(targets) == 0 {
		targets, err = compliance.ListTraineeIDs(ctx, nil)
		if err != nil {
			log.Fatal("Failed to list trainees", "error", err)
		}
	}
	if len(targets) == 0 {
		log.Info("No trainees with supervision records; nothing to do")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for _, traineeID := range targets {
		g.Go(func() error {
			var err error
			if *dryRun {
				report, perr := compliance.Preview(gctx, nil, traineeID)
				if perr == nil {
					log.Info("Would recalculate", "trainee_id", traineeID, "is_compliant", report.IsCompliant)
				}
				err = perr
			} else {
				_, err = compliance.Recalculate(gctx, nil, traineeID)
			}
			if err != nil {
				return fmt.Errorf("trainee %s: %w", traineeID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal("Recalculation failed", "error", err)
	}
	log.Info("Compliance recalculation finished", "trainees", len(targets), "dry_run", *dryRun)
}
