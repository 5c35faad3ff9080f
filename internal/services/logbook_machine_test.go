package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

func testLogbook(status string) *types.WeeklyLogbook {
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &types.WeeklyLogbook{
		ID:        uuid.New(),
		TraineeID: uuid.New(),
		WeekStart: weekStart,
		WeekEnd:   weekStart.AddDate(0, 0, 6),
		Status:    status,
	}
}

func fullSectionCounts() map[string]int64 {
	return map[string]int64{
		types.SectionPractice:    3,
		types.SectionSupervision: 1,
		types.SectionPD:          2,
	}
}

func testReviewRequest(logbookID uuid.UUID, response string) *types.LogbookReviewRequest {
	return &types.LogbookReviewRequest{
		ID:              uuid.New(),
		LogbookID:       logbookID,
		SupervisorID:    uuid.New(),
		Status:          types.ReviewRequestPending,
		Comment:         "add session durations",
		TraineeResponse: response,
	}
}

func TestApplySubmit(t *testing.T) {
	now := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)

	t.Run("draft_with_all_sections", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusDraft)
		events, err := applySubmit(lb, types.LogbookStatusDraft, fullSectionCounts(), now)
		if err != nil {
			t.Fatalf("applySubmit: %v", err)
		}
		if len(events) != 0 {
			t.Fatalf("submit produced %d events, want 0", len(events))
		}
		if lb.Status != types.LogbookStatusSubmitted {
			t.Fatalf("status=%q, want submitted", lb.Status)
		}
		if lb.SubmittedAt == nil || !lb.SubmittedAt.Equal(now) {
			t.Fatalf("SubmittedAt=%v, want %v", lb.SubmittedAt, now)
		}
	})

	t.Run("empty_section_rejected", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusDraft)
		counts := fullSectionCounts()
		delete(counts, types.SectionSupervision)
		_, err := applySubmit(lb, types.LogbookStatusDraft, counts, now)
		if !apierr.IsCode(err, apierr.CodeValidation) {
			t.Fatalf("err=%v, want validation error", err)
		}
		if lb.Status != types.LogbookStatusDraft {
			t.Fatalf("failed submit mutated status to %q", lb.Status)
		}
	})

	t.Run("stale_expected_status_conflicts", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		_, err := applySubmit(lb, types.LogbookStatusDraft, fullSectionCounts(), now)
		if !apierr.IsCode(err, apierr.CodeConflict) {
			t.Fatalf("err=%v, want conflict", err)
		}
	})

	t.Run("submit_from_approved_is_policy_violation", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusApproved)
		_, err := applySubmit(lb, types.LogbookStatusApproved, fullSectionCounts(), now)
		if !apierr.IsCode(err, apierr.CodePolicyViolation) {
			t.Fatalf("err=%v, want policy violation", err)
		}
	})
}

func TestApplyRequestChanges(t *testing.T) {
	now := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)

	t.Run("returns_for_edits_and_notifies_trainee", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		requests := []*types.LogbookReviewRequest{
			testReviewRequest(lb.ID, ""),
			testReviewRequest(lb.ID, ""),
		}
		events, err := applyRequestChanges(lb, types.LogbookStatusSubmitted, requests, now)
		if err != nil {
			t.Fatalf("applyRequestChanges: %v", err)
		}
		if lb.Status != types.LogbookStatusReturnedForEdits {
			t.Fatalf("status=%q, want returned_for_edits", lb.Status)
		}
		if lb.ChangeRequestsCount != 2 {
			t.Fatalf("ChangeRequestsCount=%d, want 2", lb.ChangeRequestsCount)
		}
		pending, err := decodePendingIDs(lb.PendingChangeRequests)
		if err != nil {
			t.Fatalf("decodePendingIDs: %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("pending=%d, want 2", len(pending))
		}
		if len(events) != 1 {
			t.Fatalf("events=%d, want 1", len(events))
		}
		if events[0].EventType != types.EventReviewRequested {
			t.Fatalf("event type=%q, want %q", events[0].EventType, types.EventReviewRequested)
		}
		if events[0].RecipientID != lb.TraineeID {
			t.Fatalf("event recipient=%s, want trainee %s", events[0].RecipientID, lb.TraineeID)
		}
	})

	t.Run("no_requests_rejected", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		_, err := applyRequestChanges(lb, types.LogbookStatusSubmitted, nil, now)
		if !apierr.IsCode(err, apierr.CodeValidation) {
			t.Fatalf("err=%v, want validation error", err)
		}
	})

	t.Run("second_round_accumulates", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		first := []*types.LogbookReviewRequest{testReviewRequest(lb.ID, "")}
		if _, err := applyRequestChanges(lb, types.LogbookStatusSubmitted, first, now); err != nil {
			t.Fatalf("first round: %v", err)
		}

		// Trainee responds and resubmits with the request still open.
		first[0].TraineeResponse = "added the durations"
		if _, err := applyResubmit(lb, types.LogbookStatusReturnedForEdits, first, now.Add(time.Hour)); err != nil {
			t.Fatalf("resubmit: %v", err)
		}

		second := []*types.LogbookReviewRequest{testReviewRequest(lb.ID, "")}
		events, err := applyRequestChanges(lb, types.LogbookStatusSubmitted, second, now.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("second round: %v", err)
		}
		if lb.ChangeRequestsCount != 2 {
			t.Fatalf("ChangeRequestsCount=%d, want 2 across rounds", lb.ChangeRequestsCount)
		}
		pending, _ := decodePendingIDs(lb.PendingChangeRequests)
		if len(pending) != 2 {
			t.Fatalf("pending=%d, want 2 (first request carried forward)", len(pending))
		}
		if events[0].DedupeKey == "" {
			t.Fatalf("dedupe key empty")
		}
	})
}

func TestApplyResubmit(t *testing.T) {
	now := time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC)

	t.Run("requires_response_on_every_open_request", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusReturnedForEdits)
		open := []*types.LogbookReviewRequest{
			testReviewRequest(lb.ID, "fixed"),
			testReviewRequest(lb.ID, ""),
		}
		_, err := applyResubmit(lb, types.LogbookStatusReturnedForEdits, open, now)
		if !apierr.IsCode(err, apierr.CodeValidation) {
			t.Fatalf("err=%v, want validation error", err)
		}
	})

	t.Run("carries_open_requests_forward", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusReturnedForEdits)
		open := []*types.LogbookReviewRequest{
			testReviewRequest(lb.ID, "added details"),
		}
		if _, err := applyResubmit(lb, types.LogbookStatusReturnedForEdits, open, now); err != nil {
			t.Fatalf("applyResubmit: %v", err)
		}
		if lb.Status != types.LogbookStatusSubmitted {
			t.Fatalf("status=%q, want submitted", lb.Status)
		}
		if lb.ResubmissionCount != 1 {
			t.Fatalf("ResubmissionCount=%d, want 1", lb.ResubmissionCount)
		}
		pending, _ := decodePendingIDs(lb.PendingChangeRequests)
		if len(pending) != 1 || pending[0] != open[0].ID {
			t.Fatalf("pending=%v, want the open request carried forward", pending)
		}
	})

	t.Run("clears_pending_when_all_requests_closed", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusReturnedForEdits)
		lb.PendingChangeRequests = encodePendingIDs([]uuid.UUID{uuid.New()})
		if _, err := applyResubmit(lb, types.LogbookStatusReturnedForEdits, nil, now); err != nil {
			t.Fatalf("applyResubmit: %v", err)
		}
		pending, _ := decodePendingIDs(lb.PendingChangeRequests)
		if len(pending) != 0 {
			t.Fatalf("pending=%v, want empty after all requests closed", pending)
		}
	})
}

func TestApplyApprove(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

	t.Run("approves_clean_submission", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		events, err := applyApprove(lb, types.LogbookStatusSubmitted, now)
		if err != nil {
			t.Fatalf("applyApprove: %v", err)
		}
		if lb.Status != types.LogbookStatusApproved {
			t.Fatalf("status=%q, want approved", lb.Status)
		}
		if lb.ApprovedAt == nil || !lb.ApprovedAt.Equal(now) {
			t.Fatalf("ApprovedAt=%v, want %v", lb.ApprovedAt, now)
		}
		if len(events) != 1 || events[0].EventType != types.EventLogbookApproved {
			t.Fatalf("events=%v, want one approval event", events)
		}
	})

	t.Run("blocked_by_unresolved_change_requests", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		lb.PendingChangeRequests = encodePendingIDs([]uuid.UUID{uuid.New()})
		_, err := applyApprove(lb, types.LogbookStatusSubmitted, now)
		if !apierr.IsCode(err, apierr.CodePolicyViolation) {
			t.Fatalf("err=%v, want policy violation", err)
		}
		if lb.Status != types.LogbookStatusSubmitted {
			t.Fatalf("failed approve mutated status to %q", lb.Status)
		}
	})
}

func TestApplyRejectAndLock(t *testing.T) {
	now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	t.Run("reject_then_lock", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		events, err := applyReject(lb, types.LogbookStatusSubmitted, now)
		if err != nil {
			t.Fatalf("applyReject: %v", err)
		}
		if len(events) != 1 || events[0].EventType != types.EventLogbookRejected {
			t.Fatalf("events=%v, want one rejection event", events)
		}
		if _, err := applyLock(lb, types.LogbookStatusRejected, now.Add(time.Hour)); err != nil {
			t.Fatalf("applyLock: %v", err)
		}
		if lb.Status != types.LogbookStatusLocked {
			t.Fatalf("status=%q, want locked", lb.Status)
		}
		if lb.LockedAt == nil {
			t.Fatalf("LockedAt not set")
		}
	})

	t.Run("lock_requires_terminal_review_outcome", func(t *testing.T) {
		lb := testLogbook(types.LogbookStatusSubmitted)
		_, err := applyLock(lb, types.LogbookStatusSubmitted, now)
		if !apierr.IsCode(err, apierr.CodePolicyViolation) {
			t.Fatalf("err=%v, want policy violation", err)
		}
	})
}

func TestLockedIsAbsorbing(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	lb := testLogbook(types.LogbookStatusLocked)

	transitions := []struct {
		name string
		run  func() error
	}{
		{"submit", func() error { _, err := applySubmit(lb, types.LogbookStatusLocked, fullSectionCounts(), now); return err }},
		{"start_review", func() error { _, err := applyStartReview(lb, types.LogbookStatusLocked, now); return err }},
		{"request_changes", func() error {
			_, err := applyRequestChanges(lb, types.LogbookStatusLocked, []*types.LogbookReviewRequest{testReviewRequest(lb.ID, "")}, now)
			return err
		}},
		{"resubmit", func() error { _, err := applyResubmit(lb, types.LogbookStatusLocked, nil, now); return err }},
		{"approve", func() error { _, err := applyApprove(lb, types.LogbookStatusLocked, now); return err }},
		{"reject", func() error { _, err := applyReject(lb, types.LogbookStatusLocked, now); return err }},
		{"lock", func() error { _, err := applyLock(lb, types.LogbookStatusLocked, now); return err }},
	}

	for _, tc := range transitions {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !apierr.IsCode(err, apierr.CodePolicyViolation) {
				t.Fatalf("%s on locked logbook: err=%v, want policy violation", tc.name, err)
			}
			if lb.Status != types.LogbookStatusLocked {
				t.Fatalf("locked logbook moved to %q", lb.Status)
			}
		})
	}
}

func TestApplyStartReviewKeepsStatus(t *testing.T) {
	now := time.Date(2026, 3, 12, 11, 0, 0, 0, time.UTC)
	lb := testLogbook(types.LogbookStatusSubmitted)
	if _, err := applyStartReview(lb, types.LogbookStatusSubmitted, now); err != nil {
		t.Fatalf("applyStartReview: %v", err)
	}
	if lb.Status != types.LogbookStatusSubmitted {
		t.Fatalf("status=%q, want submitted", lb.Status)
	}
	if lb.ReviewStartedAt == nil || !lb.ReviewStartedAt.Equal(now) {
		t.Fatalf("ReviewStartedAt=%v, want %v", lb.ReviewStartedAt, now)
	}
}

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		name      string
		day       time.Time
		wantStart time.Time
	}{
		{
			name:      "wednesday_maps_to_monday",
			day:       time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC),
			wantStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monday_is_its_own_start",
			day:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday_belongs_to_previous_monday",
			day:       time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := weekBounds(tc.day)
			if !start.Equal(tc.wantStart) {
				t.Fatalf("weekBounds start=%v, want %v", start, tc.wantStart)
			}
			if !end.Equal(tc.wantStart.AddDate(0, 0, 6)) {
				t.Fatalf("weekBounds end=%v, want %v", end, tc.wantStart.AddDate(0, 0, 6))
			}
		})
	}
}
