package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/policy"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// Predicate names reported on a compliance evaluation.
const (
	PredicateTotalHours         = "total_hours"
	PredicateIndividualRatio    = "individual_ratio"
	PredicateDirectRatio        = "direct_ratio"
	PredicateCulturalHours      = "cultural_hours"
	PredicateObservationCount   = "observation_count"
	PredicateBoardApprovedRatio = "board_approved_ratio"
)

type ComplianceTotals struct {
	TotalHours          float64
	DirectInPersonHours float64
	DirectVideoHours    float64
	DirectPhoneHours    float64
	IndirectHours       float64
	IndividualHours     float64
	GroupHours          float64
	CulturalHours       float64
	BoardApprovedHours  float64
}

type ObservationCounts struct {
	Assessment   int
	Intervention int
}

type PredicateOutcome struct {
	Name    string
	Met     bool
	Warning string
}

// ComplianceEvaluation is the tagged result of one aggregation pass:
// IsCompliant is always the AND of the named predicate outcomes, never an
// independently mutable flag.
type ComplianceEvaluation struct {
	Totals       ComplianceTotals
	Observations ObservationCounts
	Predicates   []PredicateOutcome
	Warnings     []string
	IsCompliant  bool
}

func (e ComplianceEvaluation) Predicate(name string) (PredicateOutcome, bool) {
	for _, p := range e.Predicates {
		if p.Name == name {
			return p, true
		}
	}
	return PredicateOutcome{}, false
}

// EvaluateCompliance aggregates a trainee's supervision entries and
// observations against the supplied policy. Pure: same inputs, same output.
// Malformed entries are excluded from totals with a warning instead of
// failing the whole evaluation. With no usable entries every predicate
// fails and the evaluation is still produced.
func EvaluateCompliance(entries []*types.SupervisionEntry, observations []*types.SupervisionObservation, pol policy.SupervisionPolicy) ComplianceEvaluation {
	var warnings []string

	var totalMin, individualMin, culturalMin, boardApprovedMin, directMin int
	minutesByMode := map[string]int{}

	usable := 0
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.DurationMinutes <= 0 {
			warnings = append(warnings, fmt.Sprintf("supervision entry %s excluded: non-positive duration (%d minutes)", entry.ID, entry.DurationMinutes))
			continue
		}
		if !types.ValidSupervisionMode(entry.Mode) {
			warnings = append(warnings, fmt.Sprintf("supervision entry %s excluded: unknown mode %q", entry.ID, entry.Mode))
			continue
		}
		usable++
		totalMin += entry.DurationMinutes
		minutesByMode[entry.Mode] += entry.DurationMinutes
		if types.IsDirectMode(entry.Mode) {
			directMin += entry.DurationMinutes
		}
		if entry.IsIndividual {
			individualMin += entry.DurationMinutes
		}
		if entry.IsCultural {
			culturalMin += entry.DurationMinutes
		}
		if entry.SupervisorBoardApproved {
			boardApprovedMin += entry.DurationMinutes
		}
	}

	counts := ObservationCounts{}
	for _, obs := range observations {
		if obs == nil {
			continue
		}
		switch obs.ObservationType {
		case types.ObservationAssessment:
			counts.Assessment++
		case types.ObservationIntervention:
			counts.Intervention++
		default:
			warnings = append(warnings, fmt.Sprintf("observation %s excluded: unknown type %q", obs.ID, obs.ObservationType))
		}
	}

	totals := ComplianceTotals{
		TotalHours:          minutesToHours(totalMin),
		DirectInPersonHours: minutesToHours(minutesByMode[types.ModeDirectInPerson]),
		DirectVideoHours:    minutesToHours(minutesByMode[types.ModeDirectVideo]),
		DirectPhoneHours:    minutesToHours(minutesByMode[types.ModeDirectPhone]),
		IndirectHours:       minutesToHours(minutesByMode[types.ModeIndirect]),
		IndividualHours:     minutesToHours(individualMin),
		GroupHours:          minutesToHours(totalMin - individualMin),
		CulturalHours:       minutesToHours(culturalMin),
		BoardApprovedHours:  minutesToHours(boardApprovedMin),
	}

	hasHours := usable > 0 && totalMin > 0
	totalObs := counts.Assessment + counts.Intervention

	predicates := []PredicateOutcome{
		evalThreshold(PredicateTotalHours, hasHours && totals.TotalHours >= pol.RequiredTotalHours,
			fmt.Sprintf("total supervision hours below required: current %.2f, required %.2f", totals.TotalHours, pol.RequiredTotalHours)),
		evalThreshold(PredicateIndividualRatio, hasHours && ratio(individualMin, totalMin) >= pol.MinIndividualRatio,
			fmt.Sprintf("individual supervision proportion below required: current %.0f%%, required %.0f%%", ratio(individualMin, totalMin)*100, pol.MinIndividualRatio*100)),
		evalThreshold(PredicateDirectRatio, hasHours && ratio(directMin, totalMin) >= pol.MinDirectRatio,
			fmt.Sprintf("direct supervision proportion below required: current %.0f%%, required %.0f%%", ratio(directMin, totalMin)*100, pol.MinDirectRatio*100)),
		evalThreshold(PredicateCulturalHours, hasHours && totals.CulturalHours >= pol.RequiredCulturalHours,
			fmt.Sprintf("cultural supervision hours below required: current %.2f, required %.2f", totals.CulturalHours, pol.RequiredCulturalHours)),
		evalThreshold(PredicateObservationCount, hasHours && totalObs >= pol.RequiredObservationCount,
			fmt.Sprintf("direct observations below required: current %d, required %d", totalObs, pol.RequiredObservationCount)),
		evalThreshold(PredicateBoardApprovedRatio, hasHours && ratio(boardApprovedMin, totalMin) >= pol.MinBoardApprovedRatio,
			fmt.Sprintf("board-approved supervisor proportion below required: current %.0f%%, required %.0f%%", ratio(boardApprovedMin, totalMin)*100, pol.MinBoardApprovedRatio*100)),
	}

	compliant := true
	for _, p := range predicates {
		if !p.Met {
			compliant = false
			warnings = append(warnings, p.Warning)
		}
	}

	return ComplianceEvaluation{
		Totals:       totals,
		Observations: counts,
		Predicates:   predicates,
		Warnings:     warnings,
		IsCompliant:  compliant,
	}
}

func evalThreshold(name string, met bool, warning string) PredicateOutcome {
	out := PredicateOutcome{Name: name, Met: met}
	if !met {
		out.Warning = warning
	}
	return out
}

func minutesToHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

func ratio(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// ComplianceService recomputes and persists compliance reports. The policy
// is injected at construction and passed through to the pure evaluation so
// tests can vary it freely.
type ComplianceService interface {
	Recalculate(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error)
	Preview(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error)
	GetReport(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error)
	ListTraineeIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
}

type complianceService struct {
	db       *gorm.DB
	log      *logger.Logger
	pol      policy.SupervisionPolicy
	entries  repos.SupervisionEntryRepo
	obs      repos.SupervisionObservationRepo
	reports  repos.ComplianceReportRepo
	nowFunc  func() time.Time
}

func NewComplianceService(db *gorm.DB, log *logger.Logger, pol policy.SupervisionPolicy, entries repos.SupervisionEntryRepo, obs repos.SupervisionObservationRepo, reports repos.ComplianceReportRepo) ComplianceService {
	return &complianceService{
		db:      db,
		log:     log.With("service", "ComplianceService"),
		pol:     pol,
		entries: entries,
		obs:     obs,
		reports: reports,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (s *complianceService) Recalculate(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error) {
	report, err := s.buildReport(ctx, tx, traineeID)
	if err != nil {
		return nil, err
	}
	if err := s.reports.Upsert(ctx, tx, report); err != nil {
		return nil, err
	}
	s.log.Debug("compliance report recalculated", "trainee_id", traineeID, "is_compliant", report.IsCompliant)
	return report, nil
}

// Preview computes the report without persisting it, for dry-run mode.
func (s *complianceService) Preview(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error) {
	return s.buildReport(ctx, tx, traineeID)
}

func (s *complianceService) GetReport(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error) {
	return s.reports.GetByTraineeID(ctx, tx, traineeID)
}

func (s *complianceService) ListTraineeIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	return s.entries.ListTraineeIDs(ctx, tx)
}

func (s *complianceService) buildReport(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error) {
	entryRows, err := s.entries.GetByTraineeID(ctx, tx, traineeID)
	if err != nil {
		return nil, err
	}
	obsRows, err := s.obs.GetByTraineeID(ctx, tx, traineeID)
	if err != nil {
		return nil, err
	}

	eval := EvaluateCompliance(entryRows, obsRows, s.pol)
	return BuildComplianceReport(traineeID, eval, s.nowFunc())
}

// BuildComplianceReport flattens an evaluation into the persisted row shape.
func BuildComplianceReport(traineeID uuid.UUID, eval ComplianceEvaluation, calculatedAt time.Time) (*types.SupervisionComplianceReport, error) {
	warnings := eval.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	raw, err := json.Marshal(warnings)
	if err != nil {
		return nil, fmt.Errorf("marshal compliance warnings: %w", err)
	}

	report := &types.SupervisionComplianceReport{
		TraineeID:                traineeID,
		TotalHours:               eval.Totals.TotalHours,
		DirectInPersonHours:      eval.Totals.DirectInPersonHours,
		DirectVideoHours:         eval.Totals.DirectVideoHours,
		DirectPhoneHours:         eval.Totals.DirectPhoneHours,
		IndirectHours:            eval.Totals.IndirectHours,
		IndividualHours:          eval.Totals.IndividualHours,
		GroupHours:               eval.Totals.GroupHours,
		CulturalHours:            eval.Totals.CulturalHours,
		BoardApprovedHours:       eval.Totals.BoardApprovedHours,
		AssessmentObservations:   eval.Observations.Assessment,
		InterventionObservations: eval.Observations.Intervention,
		IsCompliant:              eval.IsCompliant,
		Warnings:                 datatypes.JSON(raw),
		LastCalculatedAt:         calculatedAt,
	}
	for _, p := range eval.Predicates {
		switch p.Name {
		case PredicateTotalHours:
			report.MeetsTotalHours = p.Met
		case PredicateIndividualRatio:
			report.MeetsIndividualRatio = p.Met
		case PredicateDirectRatio:
			report.MeetsDirectRatio = p.Met
		case PredicateCulturalHours:
			report.MeetsCulturalHours = p.Met
		case PredicateObservationCount:
			report.MeetsObservationCount = p.Met
		case PredicateBoardApprovedRatio:
			report.MeetsBoardApprovedRatio = p.Met
		}
	}
	return report, nil
}
