package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// The review state machine mutates a loaded WeeklyLogbook in memory and
// returns the notification events the transition produced. Persistence and
// dispatch stay with the caller: the transition's correctness never depends
// on a notification being delivered.
//
// Every transition takes the status the caller read. locked always fails
// with a policy violation; any other mismatch between expected and stored
// status fails with a conflict so the caller can refetch and retry.

type ChangeRequestInput struct {
	RequestType   string `json:"request_type"`
	TargetSection string `json:"target_section"`
	Priority      string `json:"priority"`
	Comment       string `json:"comment"`
}

func guardTransition(lb *types.WeeklyLogbook, expectedStatus string) error {
	if lb == nil {
		return apierr.NotFound("logbook not found")
	}
	if lb.Status == types.LogbookStatusLocked {
		return apierr.PolicyViolation("logbook %s is locked; no further changes are permitted", lb.ID)
	}
	if lb.Status != expectedStatus {
		return apierr.Conflict("logbook %s is %s, expected %s; refetch and retry", lb.ID, lb.Status, expectedStatus)
	}
	return nil
}

func requireFromStatus(lb *types.WeeklyLogbook, trigger string, allowed ...string) error {
	for _, status := range allowed {
		if lb.Status == status {
			return nil
		}
	}
	return apierr.PolicyViolation("cannot %s a logbook in status %s", trigger, lb.Status)
}

// applySubmit moves draft -> submitted after checking every section has at
// least one entry.
func applySubmit(lb *types.WeeklyLogbook, expectedStatus string, sectionCounts map[string]int64, now time.Time) ([]NotificationEvent, error) {
	if err := guardTransition(lb, expectedStatus); err != nil {
		return nil, err
	}
	if err := requireFromStatus(lb, "submit", types.LogbookStatusDraft); err != nil {
		return nil, err
	}
	for _, section := range []string{types.SectionPractice, types.SectionSupervision, types.SectionPD} {
		if sectionCounts[section] == 0 {
			return nil, apierr.Validation("section %s is empty; every section needs at least one entry before submission", section)
		}
	}
	lb.Status = types.LogbookStatusSubmitted
	lb.SubmittedAt = &now
	return nil, nil
}

// applyStartReview marks the supervisor as having opened the review. The
// status stays submitted; only the timestamp moves.
func applyStartReview(lb *types.WeeklyLogbook, expectedStatus string, now time.Time) ([]NotificationEvent, error) {
	if err := guardTransition(lb, expectedStatus); err != nil {
		return nil, err
	}
	if err := requireFromStatus(lb, "start reviewing", types.LogbookStatusSubmitted); err != nil {
		return nil, err
	}
	lb.ReviewStartedAt = &now
	return nil, nil
}

// applyRequestChanges moves submitted -> returned_for_edits. The created
// request rows are passed in with ids already assigned so their ids can be
// recorded on the logbook.
func applyRequestChanges(lb *types.WeeklyLogbook, expectedStatus string, requests []*types.LogbookReviewRequest, now time.Time) ([]NotificationEvent, error) {
	if err := guardTransition(lb, expectedStatus); err != nil {
		return nil, err
	}
	if err := requireFromStatus(lb, "request changes on", types.LogbookStatusSubmitted); err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, apierr.Validation("at least one change request is required")
	}

	pending, err := decodePendingIDs(lb.PendingChangeRequests)
	if err != nil {
		return nil, err
	}
	for _, req := range requests {
		pending = append(pending, req.ID)
	}

	lb.Status = types.LogbookStatusReturnedForEdits
	lb.ChangeRequestsCount += len(requests)
	lb.PendingChangeRequests = encodePendingIDs(pending)

	event := NotificationEvent{
		RecipientID: lb.TraineeID,
		EventType:   types.EventReviewRequested,
		SubjectType: "logbook",
		SubjectID:   lb.ID,
		DedupeKey:   fmt.Sprintf("%s:logbook:%s:round:%d", types.EventReviewRequested, lb.ID, lb.ChangeRequestsCount),
		Payload: map[string]any{
			"logbook_id":     lb.ID.String(),
			"week_start":     lb.WeekStart.Format("2006-01-02"),
			"request_count":  len(requests),
			"total_requests": lb.ChangeRequestsCount,
		},
	}
	return []NotificationEvent{event}, nil
}

// applyResubmit moves returned_for_edits -> submitted. Resubmission is
// allowed while requests remain open, provided the trainee has responded to
// every one of them; open requests are carried forward in
// pending_change_requests and only completed or dismissed ones are cleared.
func applyResubmit(lb *types.WeeklyLogbook, expectedStatus string, openRequests []*types.LogbookReviewRequest, now time.Time) ([]NotificationEvent, error) {
	if err := guardTransition(lb, expectedStatus); err != nil {
		return nil, err
	}
	if err := requireFromStatus(lb, "resubmit", types.LogbookStatusReturnedForEdits); err != nil {
		return nil, err
	}

	carried := make([]uuid.UUID, 0, len(openRequests))
	for _, req := range openRequests {
		if req.TraineeResponse == "" {
			return nil, apierr.Validation("change request %s has no response; respond to every open request before resubmitting", req.ID)
		}
		carried = append(carried, req.ID)
	}

	lb.Status = types.LogbookStatusSubmitted
	lb.ResubmissionCount++
	lb.SubmittedAt = &now
	lb.PendingChangeRequests = encodePendingIDs(carried)
	return nil, nil
}

// applyApprove moves submitted -> approved. A logbook with open change
// requests can never be approved.
func applyApprove(lb *types.WeeklyLogbook, expectedStatus string, now time.Time) ([]NotificationEvent, error) {
	if err := guardTransition(lb, expectedStatus); err != nil {
		return nil, err
	}
	if err := requireFromStatus(lb, "approve", types.LogbookStatusSubmitted); err != nil {
		return nil, err
	}
	pending, err := decodePendingIDs(lb.PendingChangeRequests)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, apierr.PolicyViolation("logbook %s has %d unresolved change requests and cannot be approved", lb.ID, len(pending))
	}

	lb.Status = types.LogbookStatusApproved
	lb.ApprovedAt = &now

	event := NotificationEvent{
		RecipientID: lb.TraineeID,
		EventType:   types.EventLogbookApproved,
		SubjectType: "logbook",
		SubjectID:   lb.ID,
		DedupeKey:   fmt.Sprintf("%s:logbook:%s", types.EventLogbookApproved, lb.ID),
		Payload: map[string]any{
			"logbook_id": lb.ID.String(),
			"week_start": lb.WeekStart.Format("2006-01-02"),
		},
	}
	return []NotificationEvent{event}, nil
}

// applyReject moves submitted -> rejected. Terminal short of an
// administrative reopen, which is out of scope here.
func applyReject(lb *types.WeeklyLogbook, expectedStatus string, now time.Time) ([]NotificationEvent, error) {
	if err := guardTransition(lb, expectedStatus); err != nil {
		return nil, err
	}
	if err := requireFromStatus(lb, "reject", types.LogbookStatusSubmitted); err != nil {
		return nil, err
	}

	lb.Status = types.LogbookStatusRejected

	event := NotificationEvent{
		RecipientID: lb.TraineeID,
		EventType:   types.EventLogbookRejected,
		SubjectType: "logbook",
		SubjectID:   lb.ID,
		DedupeKey:   fmt.Sprintf("%s:logbook:%s", types.EventLogbookRejected, lb.ID),
		Payload: map[string]any{
			"logbook_id": lb.ID.String(),
			"week_start": lb.WeekStart.Format("2006-01-02"),
		},
	}
	return []NotificationEvent{event}, nil
}

// applyLock is the administrative lock on an already approved or rejected
// logbook.
func applyLock(lb *types.WeeklyLogbook, expectedStatus string, now time.Time) ([]NotificationEvent, error) {
	if err := guardTransition(lb, expectedStatus); err != nil {
		return nil, err
	}
	if err := requireFromStatus(lb, "lock", types.LogbookStatusApproved, types.LogbookStatusRejected); err != nil {
		return nil, err
	}
	lb.Status = types.LogbookStatusLocked
	lb.LockedAt = &now
	return nil, nil
}

// traineeEditableStatus reports whether the trainee may still change the
// logbook's entries.
func traineeEditableStatus(status string) bool {
	return status == types.LogbookStatusDraft || status == types.LogbookStatusReturnedForEdits
}

func decodePendingIDs(raw datatypes.JSON) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode pending change requests: %w", err)
	}
	return ids, nil
}

func encodePendingIDs(ids []uuid.UUID) datatypes.JSON {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, _ := json.Marshal(ids)
	return datatypes.JSON(raw)
}

func removePendingID(raw datatypes.JSON, id uuid.UUID) (datatypes.JSON, error) {
	ids, err := decodePendingIDs(raw)
	if err != nil {
		return raw, err
	}
	kept := make([]uuid.UUID, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return encodePendingIDs(kept), nil
}
