package policy

import (
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	raw := []byte("required_total_hours: 40\nmin_direct_ratio: 0.5\n")
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.RequiredTotalHours != 40 {
		t.Errorf("RequiredTotalHours = %v, want 40", p.RequiredTotalHours)
	}
	if p.MinDirectRatio != 0.5 {
		t.Errorf("MinDirectRatio = %v, want 0.5", p.MinDirectRatio)
	}
	// Unset keys keep their defaults.
	if p.RequiredObservationCount != Default().RequiredObservationCount {
		t.Errorf("RequiredObservationCount = %d, want default %d", p.RequiredObservationCount, Default().RequiredObservationCount)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"negative hours", "required_total_hours: -1\n", "non-negative"},
		{"ratio above one", "min_individual_ratio: 1.5\n", "within [0,1]"},
		{"negative observation count", "required_observation_count: -2\n", "non-negative"},
		{"malformed yaml", "required_total_hours: [\n", "parse supervision policy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.raw)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default policy failed validation: %v", err)
	}
}
