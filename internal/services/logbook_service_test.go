package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// Sqlite stands in for postgres here; uuid defaults and jsonb have no sqlite
// equivalent, so the schema is spelled out and rows carry explicit ids.
const reviewSchemaDDL = `
CREATE TABLE weekly_logbook (
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
);
CREATE TABLE logbook_entry (
	id text PRIMARY KEY,
	logbook_id text NOT NULL,
	section text NOT NULL,
	position integer NOT NULL DEFAULT 0,
	activity_date datetime NOT NULL,
	description text NOT NULL,
	duration_minutes integer NOT NULL DEFAULT 0,
	is_direct_contact boolean NOT NULL DEFAULT false,
	competency_codes text,
	created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
	deleted_at datetime
);
CREATE TABLE logbook_review_request (
	id text PRIMARY KEY,
	logbook_id text NOT NULL,
	supervisor_id text NOT NULL,
	request_type text NOT NULL,
	target_section text,
	status text NOT NULL DEFAULT 'pending',
	priority text NOT NULL DEFAULT 'medium',
	comment text NOT NULL,
	trainee_response text,
	supervisor_notes text,
	requested_at datetime NOT NULL,
	responded_at datetime,
	completed_at datetime,
	created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
	deleted_at datetime
);`

func newLogbookServiceForTest(t *testing.T) (LogbookService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(reviewSchemaDDL).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
	svc := NewLogbookService(db, log,
		repos.NewWeeklyLogbookRepo(db, log),
		repos.NewLogbookEntryRepo(db, log),
		repos.NewReviewRequestRepo(db, log),
		NopNotifier{})
	return svc, db
}

func pendingJSON(t *testing.T, ids ...uuid.UUID) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(ids)
	if err != nil {
		t.Fatalf("marshal pending ids: %v", err)
	}
	return datatypes.JSON(raw)
}

func seedLogbookWithRequest(t *testing.T, db *gorm.DB, status string) (*types.WeeklyLogbook, *types.LogbookReviewRequest) {
	t.Helper()
	now := time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC)
	reqID := uuid.New()
	lb := &types.WeeklyLogbook{
		ID:                    uuid.New(),
		TraineeID:             uuid.New(),
		WeekStart:             time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		WeekEnd:               time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Status:                status,
		ChangeRequestsCount:   1,
		PendingChangeRequests: pendingJSON(t, reqID),
	}
	if status == types.LogbookStatusLocked {
		lockedAt := now
		lb.LockedAt = &lockedAt
	}
	if err := db.Create(lb).Error; err != nil {
		t.Fatalf("seed logbook: %v", err)
	}
	req := &types.LogbookReviewRequest{
		ID:           reqID,
		LogbookID:    lb.ID,
		SupervisorID: uuid.New(),
		RequestType:  "clarification",
		Status:       types.ReviewRequestPending,
		Priority:     types.ReviewPriorityMedium,
		Comment:      "section B totals do not match the roster",
		RequestedAt:  now,
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("seed review request: %v", err)
	}
	return lb, req
}

func TestCompleteReviewRequestLockedLogbook(t *testing.T) {
	svc, db := newLogbookServiceForTest(t)
	ctx := context.Background()
	lb, req := seedLogbookWithRequest(t, db, types.LogbookStatusLocked)

	if _, err := svc.CompleteReviewRequest(ctx, req.SupervisorID, req.ID, "resolved offline"); !apierr.IsCode(err, apierr.CodePolicyViolation) {
		t.Fatalf("err=%v, want policy violation on a locked logbook", err)
	}
	if _, err := svc.DismissReviewRequest(ctx, req.SupervisorID, req.ID); !apierr.IsCode(err, apierr.CodePolicyViolation) {
		t.Fatalf("dismiss err=%v, want policy violation on a locked logbook", err)
	}

	var storedLB types.WeeklyLogbook
	if err := db.Where("id = ?", lb.ID).First(&storedLB).Error; err != nil {
		t.Fatalf("reload logbook: %v", err)
	}
	if string(storedLB.PendingChangeRequests) != string(lb.PendingChangeRequests) {
		t.Fatalf("pending_change_requests rewritten on a locked logbook: %s", storedLB.PendingChangeRequests)
	}
	if storedLB.Status != types.LogbookStatusLocked {
		t.Fatalf("status=%s, want locked", storedLB.Status)
	}

	var storedReq types.LogbookReviewRequest
	if err := db.Where("id = ?", req.ID).First(&storedReq).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if storedReq.Status != types.ReviewRequestPending || storedReq.CompletedAt != nil {
		t.Fatalf("request mutated on a locked logbook: status=%s", storedReq.Status)
	}
}

func TestRespondToReviewRequestLockedLogbook(t *testing.T) {
	svc, db := newLogbookServiceForTest(t)
	ctx := context.Background()
	lb, req := seedLogbookWithRequest(t, db, types.LogbookStatusLocked)

	if _, err := svc.RespondToReviewRequest(ctx, lb.TraineeID, req.ID, "fixed the totals"); !apierr.IsCode(err, apierr.CodePolicyViolation) {
		t.Fatalf("err=%v, want policy violation on a locked logbook", err)
	}

	var storedReq types.LogbookReviewRequest
	if err := db.Where("id = ?", req.ID).First(&storedReq).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if storedReq.Status != types.ReviewRequestPending || storedReq.TraineeResponse != "" {
		t.Fatalf("request mutated on a locked logbook: status=%s response=%q", storedReq.Status, storedReq.TraineeResponse)
	}
}

func TestCompleteReviewRequestClearsPending(t *testing.T) {
	svc, db := newLogbookServiceForTest(t)
	ctx := context.Background()
	lb, req := seedLogbookWithRequest(t, db, types.LogbookStatusReturnedForEdits)

	closed, err := svc.CompleteReviewRequest(ctx, req.SupervisorID, req.ID, "verified against the roster")
	if err != nil {
		t.Fatalf("complete request: %v", err)
	}
	if closed.Status != types.ReviewRequestCompleted || closed.CompletedAt == nil {
		t.Fatalf("request not completed: status=%s", closed.Status)
	}
	if closed.SupervisorNotes != "verified against the roster" {
		t.Fatalf("supervisor notes not recorded: %q", closed.SupervisorNotes)
	}

	var storedLB types.WeeklyLogbook
	if err := db.Where("id = ?", lb.ID).First(&storedLB).Error; err != nil {
		t.Fatalf("reload logbook: %v", err)
	}
	ids, err := decodePendingIDs(storedLB.PendingChangeRequests)
	if err != nil {
		t.Fatalf("decode pending ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("pending_change_requests=%v, want empty after completion", ids)
	}
	if storedLB.Status != types.LogbookStatusReturnedForEdits {
		t.Fatalf("status=%s, want returned_for_edits preserved", storedLB.Status)
	}
}
