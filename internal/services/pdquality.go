package services

import (
	"strings"
)

// Quality tiers for professional-development activity descriptions.
// Thresholds are inclusive lower bounds.
const (
	PDTierExcellent        = "excellent"
	PDTierGood             = "good"
	PDTierNeedsImprovement = "needs_improvement"

	pdTierExcellentMin = 80
	pdTierGoodMin      = 60
)

// Heuristic weights. They sum to 100, so a description satisfying every
// check scores exactly the cap.
const (
	pdPointsLongText     = 20
	pdPointsMediumText   = 10
	pdPointsWordCount    = 15
	pdPointsPresenter    = 20
	pdPointsInstitution  = 15
	pdPointsFormat       = 15
	pdPointsProfessional = 15

	pdMaxScore = 100

	pdLongTextChars   = 200
	pdMediumTextChars = 100
	pdMinWordCount    = 20
	pdMaxPrompts      = 3
)

var pdPresenterKeywords = []string{
	"presented by", "facilitated by", "run by", "delivered by",
	"dr ", "dr.", "prof", "psychologist", "supervisor", "presenter", "speaker",
}

var pdInstitutionKeywords = []string{
	"university", "institute", "college", "hospital", "clinic",
	"association", "society", "centre", "center", "board", "aps",
}

var pdFormatKeywords = []string{
	"workshop", "seminar", "webinar", "conference", "lecture",
	"training", "course", "symposium", "masterclass", "reading", "podcast",
	"supervision group", "journal club",
}

var pdProfessionalKeywords = []string{
	"evidence", "formulation", "assessment", "intervention", "therapy",
	"cbt", "clinical", "competenc", "ethic", "reflect", "diagnos", "treatment",
	"outcome", "practice",
}

type PDQualityResult struct {
	Score    int      `json:"score"`
	Tier     string   `json:"tier"`
	Feedback []string `json:"feedback"`
}

// EvaluatePDQuality scores a free-text activity description against fixed
// keyword and length heuristics. It is a pure function of the input text, so
// it is safe to run on every save or validate call.
func EvaluatePDQuality(text string) PDQualityResult {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 5 {
		return PDQualityResult{
			Score:    0,
			Tier:     PDTierNeedsImprovement,
			Feedback: []string{"Description is too short to evaluate. Describe what the activity was and what it covered."},
		}
	}

	lower := strings.ToLower(trimmed)
	score := 0
	var feedback []string

	switch {
	case len(trimmed) >= pdLongTextChars:
		score += pdPointsLongText
	case len(trimmed) >= pdMediumTextChars:
		score += pdPointsMediumText
		feedback = append(feedback, "Add more detail about the content and your key takeaways.")
	default:
		feedback = append(feedback, "Description is brief. Expand on what the activity covered and what you learned.")
	}

	if wordCount(trimmed) >= pdMinWordCount {
		score += pdPointsWordCount
	} else {
		feedback = append(feedback, "Use complete sentences rather than a few words.")
	}

	if containsAny(lower, pdPresenterKeywords) {
		score += pdPointsPresenter
	} else {
		feedback = append(feedback, "Name who presented, facilitated or supervised the activity.")
	}

	if containsAny(lower, pdInstitutionKeywords) {
		score += pdPointsInstitution
	} else {
		feedback = append(feedback, "Mention the organisation, institution or provider involved.")
	}

	if containsAny(lower, pdFormatKeywords) {
		score += pdPointsFormat
	} else {
		feedback = append(feedback, "State the format of the activity (workshop, seminar, reading, etc).")
	}

	if containsAny(lower, pdProfessionalKeywords) {
		score += pdPointsProfessional
	} else {
		feedback = append(feedback, "Link the activity to professional practice, e.g. assessment, intervention or ethics.")
	}

	if score > pdMaxScore {
		score = pdMaxScore
	}
	if len(feedback) == 0 {
		feedback = []string{"Well documented: this entry covers the who, where, format and professional relevance."}
	}

	return PDQualityResult{
		Score:    score,
		Tier:     pdTierForScore(score),
		Feedback: feedback,
	}
}

// GeneratePDPrompts inspects the same text independently of the scorer and
// returns up to pdMaxPrompts targeted writing prompts. When no gaps are
// found it falls back to generic improvement suggestions rather than an
// empty list.
func GeneratePDPrompts(text string) []string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 5 {
		return nil
	}
	lower := strings.ToLower(trimmed)

	var prompts []string
	if !containsAny(lower, pdPresenterKeywords) {
		prompts = append(prompts, "Who delivered or facilitated this activity? Include their name and role.")
	}
	if !containsAny(lower, pdInstitutionKeywords) {
		prompts = append(prompts, "Which organisation or institution provided the activity?")
	}
	if !containsAny(lower, pdFormatKeywords) {
		prompts = append(prompts, "What format did the activity take, e.g. workshop, seminar or self-directed reading?")
	}
	if len(trimmed) < pdLongTextChars {
		prompts = append(prompts, "What were the two or three most useful things you took away from it?")
	}
	if len(prompts) == 0 {
		prompts = []string{
			"How will this activity change your day-to-day practice?",
			"Which competencies does this activity map to, and how?",
		}
	}
	if len(prompts) > pdMaxPrompts {
		prompts = prompts[:pdMaxPrompts]
	}
	return prompts
}

func pdTierForScore(score int) string {
	switch {
	case score >= pdTierExcellentMin:
		return PDTierExcellent
	case score >= pdTierGoodMin:
		return PDTierGood
	default:
		return PDTierNeedsImprovement
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
