package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SupervisionPolicy holds the AHPRA supervision-hour thresholds the compliance
// aggregator evaluates against. It is loaded from configuration and passed in
// explicitly at calculation time so reports stay reproducible under a given
// policy revision.
type SupervisionPolicy struct {
	// Hours, not minutes. Entry durations are stored in minutes and converted
	// before comparison.
	RequiredTotalHours    float64 `yaml:"required_total_hours"`
	RequiredCulturalHours float64 `yaml:"required_cultural_hours"`

	// Ratios are proportions of total supervision hours, in [0,1].
	MinIndividualRatio    float64 `yaml:"min_individual_ratio"`
	MinDirectRatio        float64 `yaml:"min_direct_ratio"`
	MinBoardApprovedRatio float64 `yaml:"min_board_approved_ratio"`

	RequiredObservationCount int `yaml:"required_observation_count"`
}

// Default mirrors the board's 4+6 internship program requirements.
func Default() SupervisionPolicy {
	return SupervisionPolicy{
		RequiredTotalHours:       80,
		RequiredCulturalHours:    10,
		MinIndividualRatio:       0.5,
		MinDirectRatio:           0.66,
		MinBoardApprovedRatio:    1.0,
		RequiredObservationCount: 4,
	}
}

func Load(path string) (SupervisionPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SupervisionPolicy{}, fmt.Errorf("read supervision policy: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (SupervisionPolicy, error) {
	p := Default()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return SupervisionPolicy{}, fmt.Errorf("parse supervision policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return SupervisionPolicy{}, err
	}
	return p, nil
}

func (p SupervisionPolicy) Validate() error {
	if p.RequiredTotalHours < 0 || p.RequiredCulturalHours < 0 {
		return fmt.Errorf("supervision policy: hour thresholds must be non-negative")
	}
	if p.RequiredObservationCount < 0 {
		return fmt.Errorf("supervision policy: required_observation_count must be non-negative")
	}
	for name, ratio := range map[string]float64{
		"min_individual_ratio":     p.MinIndividualRatio,
		"min_direct_ratio":         p.MinDirectRatio,
		"min_board_approved_ratio": p.MinBoardApprovedRatio,
	} {
		if ratio < 0 || ratio > 1 {
			return fmt.Errorf("supervision policy: %s must be within [0,1], got %v", name, ratio)
		}
	}
	return nil
}
