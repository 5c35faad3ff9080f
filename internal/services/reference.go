package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// ReferenceService serves the AHPRA competency framework and EPA catalogue.
// Seeding is idempotent: it only runs against an empty competency table.
type ReferenceService interface {
	ListCompetencies(ctx context.Context) ([]*types.Competency, error)
	GetCompetency(ctx context.Context, code string) (*types.Competency, error)
	ListEPAs(ctx context.Context) ([]*types.EPA, error)
	SeedIfEmpty(ctx context.Context) (bool, error)
}

type referenceService struct {
	db        *gorm.DB
	log       *logger.Logger
	reference repos.ReferenceRepo
}

func NewReferenceService(db *gorm.DB, log *logger.Logger, reference repos.ReferenceRepo) ReferenceService {
	return &referenceService{
		db:        db,
		log:       log.With("service", "ReferenceService"),
		reference: reference,
	}
}

func (rs *referenceService) ListCompetencies(ctx context.Context) ([]*types.Competency, error) {
	rows, err := rs.reference.ListCompetencies(ctx, nil)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

func (rs *referenceService) GetCompetency(ctx context.Context, code string) (*types.Competency, error) {
	row, err := rs.reference.GetCompetencyByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("competency %q not found", code)
		}
		return nil, apierr.AsError(err)
	}
	return row, nil
}

func (rs *referenceService) ListEPAs(ctx context.Context) ([]*types.EPA, error) {
	rows, err := rs.reference.ListEPAs(ctx, nil)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

func (rs *referenceService) SeedIfEmpty(ctx context.Context) (bool, error) {
	count, err := rs.reference.CountCompetencies(ctx, nil)
	if err != nil {
		return false, apierr.AsError(err)
	}
	if count > 0 {
		return false, nil
	}

	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rs.reference.SeedCompetencies(ctx, tx, seedCompetencies()); err != nil {
			return err
		}
		return rs.reference.SeedEPAs(ctx, tx, seedEPAs())
	})
	if err != nil {
		return false, apierr.AsError(err)
	}
	rs.log.Info("reference data seeded")
	return true, nil
}

// The eight core competencies for general registration, with a descriptor
// set trimmed to the ones the logbook template references.
func seedCompetencies() []*types.Competency {
	comps := []struct {
		code, title string
		descriptors []string
	}{
		{"C1", "Applies scientific knowledge of psychology", []string{
			"Applies evidence-based models of human behaviour",
			"Critically evaluates research and applies findings to practice",
		}},
		{"C2", "Practises ethically and professionally", []string{
			"Practises within the profession's code of ethics and legal requirements",
			"Recognises and manages limits of own competence",
		}},
		{"C3", "Exercises professional reflexivity and purposeful practice", []string{
			"Engages in reflective practice and supervision",
			"Monitors own wellbeing and its impact on practice",
		}},
		{"C4", "Conducts psychological assessments", []string{
			"Selects and administers appropriate assessment instruments",
			"Formulates and communicates assessment findings",
		}},
		{"C5", "Conducts psychological interventions", []string{
			"Plans and implements evidence-based interventions",
			"Monitors intervention outcomes and adjusts as required",
		}},
		{"C6", "Communicates and relates effectively", []string{
			"Builds and maintains effective professional relationships",
			"Produces clear, accurate professional documentation",
		}},
		{"C7", "Demonstrates an intentional practice perspective", []string{
			"Works safely and responsively with Aboriginal and Torres Strait Islander peoples",
			"Adapts practice for culturally and linguistically diverse clients",
		}},
		{"C8", "Works collaboratively within the health system", []string{
			"Collaborates with other professionals in the client's care",
			"Makes and responds to referrals appropriately",
		}},
	}

	rows := make([]*types.Competency, 0, len(comps))
	for _, c := range comps {
		row := &types.Competency{Code: c.code, Title: c.title}
		for i, text := range c.descriptors {
			row.Descriptors = append(row.Descriptors, &types.CompetencyDescriptor{
				Code: c.code + "." + string(rune('1'+i)),
				Text: text,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func seedEPAs() []*types.EPA {
	epas := []struct {
		code, title, description string
		descriptorCodes          []string
	}{
		{"EPA1", "Conduct an initial intake assessment",
			"Complete an intake interview, risk screen and presenting-problem formulation for a new client.",
			[]string{"C4.1", "C4.2", "C6.1"}},
		{"EPA2", "Deliver a planned psychological intervention session",
			"Deliver a session from an agreed intervention plan and record progress against goals.",
			[]string{"C5.1", "C5.2", "C6.2"}},
		{"EPA3", "Prepare a psychological report",
			"Integrate assessment data into a written report suitable for the referrer.",
			[]string{"C4.2", "C6.2"}},
		{"EPA4", "Manage a clinical risk presentation",
			"Identify, assess and respond to acute risk, escalating per the service's protocol.",
			[]string{"C2.1", "C2.2", "C8.1"}},
		{"EPA5", "Work with a culturally diverse client",
			"Adapt assessment and intervention to the client's cultural context, seeking cultural consultation where indicated.",
			[]string{"C7.1", "C7.2", "C3.1"}},
	}

	rows := make([]*types.EPA, 0, len(epas))
	for _, e := range epas {
		raw, _ := json.Marshal(e.descriptorCodes)
		rows = append(rows, &types.EPA{
			Code:            e.code,
			Title:           e.title,
			Description:     e.description,
			DescriptorCodes: datatypes.JSON(raw),
		})
	}
	return rows
}
