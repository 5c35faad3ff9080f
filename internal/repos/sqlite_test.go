package repos

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// Postgres-only pieces of the schema (uuid_generate_v4 defaults, jsonb) do
// not translate to sqlite, so tests create the tables with explicit DDL and
// assign ids themselves.
const (
	weeklyLogbookDDL = `CREATE TABLE weekly_logbook (
		id text PRIMARY KEY,
		trainee_id text NOT NULL,
		week_start datetime NOT NULL,
		week_end datetime NOT NULL,
		status text NOT NULL DEFAULT 'draft',
		submitted_at datetime,
		review_started_at datetime,
		approved_at datetime,
		locked_at datetime,
		change_requests_count integer NOT NULL DEFAULT 0,
		resubmission_count integer NOT NULL DEFAULT 0,
		pending_change_requests text,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at datetime,
		UNIQUE (trainee_id, week_start)
	)`

	notificationDDL = `CREATE TABLE notification (
		id text PRIMARY KEY,
		recipient_id text NOT NULL,
		event_type text NOT NULL,
		subject_type text NOT NULL,
		subject_id text NOT NULL,
		dedupe_key text NOT NULL UNIQUE,
		payload text,
		read_at datetime,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at datetime
	)`

	complianceReportDDL = `CREATE TABLE supervision_compliance_report (
		id text PRIMARY KEY,
		trainee_id text NOT NULL UNIQUE,
		total_hours real NOT NULL DEFAULT 0,
		direct_in_person_hours real NOT NULL DEFAULT 0,
		direct_video_hours real NOT NULL DEFAULT 0,
		direct_phone_hours real NOT NULL DEFAULT 0,
		indirect_hours real NOT NULL DEFAULT 0,
		individual_hours real NOT NULL DEFAULT 0,
		group_hours real NOT NULL DEFAULT 0,
		cultural_hours real NOT NULL DEFAULT 0,
		board_approved_hours real NOT NULL DEFAULT 0,
		assessment_observations integer NOT NULL DEFAULT 0,
		intervention_observations integer NOT NULL DEFAULT 0,
		meets_total_hours boolean NOT NULL DEFAULT false,
		meets_individual_ratio boolean NOT NULL DEFAULT false,
		meets_direct_ratio boolean NOT NULL DEFAULT false,
		meets_cultural_hours boolean NOT NULL DEFAULT false,
		meets_observation_count boolean NOT NULL DEFAULT false,
		meets_board_approved_ratio boolean NOT NULL DEFAULT false,
		is_compliant boolean NOT NULL DEFAULT false,
		warnings text,
		last_calculated_at datetime NOT NULL,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at datetime
	)`
)

func newTestDB(t *testing.T, ddl ...string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func TestWeeklyLogbookUpdateGuardedStaleStatus(t *testing.T) {
	db := newTestDB(t, weeklyLogbookDDL)
	repo := NewWeeklyLogbookRepo(db, testLogger())
	ctx := context.Background()

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	row := &types.WeeklyLogbook{
		ID:        uuid.New(),
		TraineeID: uuid.New(),
		WeekStart: weekStart,
		WeekEnd:   weekStart.AddDate(0, 0, 6),
		Status:    types.LogbookStatusSubmitted,
	}
	if _, err := repo.Create(ctx, nil, row); err != nil {
		t.Fatalf("create logbook: %v", err)
	}

	row.Status = types.LogbookStatusApproved
	if err := repo.UpdateGuarded(ctx, nil, row, types.LogbookStatusDraft); !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("err=%v, want ErrStaleStatus when the stored status differs", err)
	}

	var stored types.WeeklyLogbook
	if err := db.Where("id = ?", row.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload logbook: %v", err)
	}
	if stored.Status != types.LogbookStatusSubmitted {
		t.Fatalf("status=%s after a stale update, want submitted untouched", stored.Status)
	}

	if err := repo.UpdateGuarded(ctx, nil, row, types.LogbookStatusSubmitted); err != nil {
		t.Fatalf("guarded update against the current status: %v", err)
	}
	if err := db.Where("id = ?", row.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload logbook: %v", err)
	}
	if stored.Status != types.LogbookStatusApproved {
		t.Fatalf("status=%s, want approved", stored.Status)
	}
}

func TestComplianceReportUpsertOneRowPerTrainee(t *testing.T) {
	db := newTestDB(t, complianceReportDDL)
	repo := NewComplianceReportRepo(db, testLogger())
	ctx := context.Background()

	traineeID := uuid.New()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	first := &types.SupervisionComplianceReport{
		ID:               uuid.New(),
		TraineeID:        traineeID,
		TotalHours:       10,
		Warnings:         datatypes.JSON(`["total supervision hours below required"]`),
		LastCalculatedAt: now,
	}
	if err := repo.Upsert(ctx, nil, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &types.SupervisionComplianceReport{
		ID:               uuid.New(),
		TraineeID:        traineeID,
		TotalHours:       80,
		MeetsTotalHours:  true,
		IsCompliant:      true,
		Warnings:         datatypes.JSON(`[]`),
		LastCalculatedAt: now.Add(time.Hour),
	}
	if err := repo.Upsert(ctx, nil, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := db.Model(&types.SupervisionComplianceReport{}).Where("trainee_id = ?", traineeID).Count(&count).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows=%d, want one report per trainee", count)
	}

	stored, err := repo.GetByTraineeID(ctx, nil, traineeID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if stored.ID != first.ID {
		t.Fatalf("recalculation created a new row instead of replacing the existing one")
	}
	if stored.TotalHours != 80 || !stored.IsCompliant || !stored.MeetsTotalHours {
		t.Fatalf("stored report not updated: total_hours=%v is_compliant=%v", stored.TotalHours, stored.IsCompliant)
	}
}

func TestNotificationCreateIfAbsentDedupe(t *testing.T) {
	db := newTestDB(t, notificationDDL)
	repo := NewNotificationRepo(db, testLogger())
	ctx := context.Background()

	recipientID := uuid.New()
	subjectID := uuid.New()
	dedupe := "logbook_approved:" + subjectID.String()

	first := &types.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		EventType:   types.EventLogbookApproved,
		SubjectType: "weekly_logbook",
		SubjectID:   subjectID,
		DedupeKey:   dedupe,
	}
	inserted, err := repo.CreateIfAbsent(ctx, nil, first)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatalf("first insert reported no row written")
	}

	dup := &types.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		EventType:   types.EventLogbookApproved,
		SubjectType: "weekly_logbook",
		SubjectID:   subjectID,
		DedupeKey:   dedupe,
	}
	inserted, err = repo.CreateIfAbsent(ctx, nil, dup)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate dedupe key inserted a second row")
	}

	rows, err := repo.ListByRecipientID(ctx, nil, recipientID, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("notifications=%d, want 1", len(rows))
	}
	if rows[0].ID != first.ID {
		t.Fatalf("surviving notification is not the first insert")
	}
}
