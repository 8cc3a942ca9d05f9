// Package questionnaire runs the onboarding questions that precede the
// first scan. A completed questionnaire's ID becomes the scan session ID.
package questionnaire

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the answer shape of a question.
type Kind int

const (
	SingleChoice Kind = iota
	MultiChoice
	FreeText
	Number
)

func (k Kind) String() string {
	switch k {
	case SingleChoice:
		return "single_choice"
	case MultiChoice:
		return "multi_choice"
	case FreeText:
		return "free_text"
	case Number:
		return "number"
	default:
		return "unknown"
	}
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Condition shows a follow-up only when an earlier answer contains one of AnyOf.
type Condition struct {
	QuestionID string
	AnyOf      []string
}

type Question struct {
	ID       string
	Prompt   string
	Kind     Kind
	Options  []Option
	Required bool
	// MaxSelections bounds MultiChoice answers; zero means no limit.
	MaxSelections int
	// Min and Max bound Number answers.
	Min, Max int
	// MaxLength bounds FreeText answers in bytes; zero means 280.
	MaxLength int
	ShowIf    *Condition
}

const defaultMaxLength = 280

func (q Question) hasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Label returns the display label for an option value.
func (q Question) Label(value string) string {
	for _, o := range q.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Check validates values as an answer to q. An empty answer is accepted
// only when q is optional.
func (q Question) Check(values []string) error {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		if q.Required {
			return fmt.Errorf("%s: an answer is required", q.ID)
		}
		return nil
	}

	switch q.Kind {
	case SingleChoice:
		if len(cleaned) != 1 {
			return fmt.Errorf("%s: choose exactly one option", q.ID)
		}
		if !q.hasOption(cleaned[0]) {
			return fmt.Errorf("%s: %q is not an option", q.ID, cleaned[0])
		}
	case MultiChoice:
		if q.MaxSelections > 0 && len(cleaned) > q.MaxSelections {
			return fmt.Errorf("%s: choose at most %d options", q.ID, q.MaxSelections)
		}
		seen := make(map[string]bool, len(cleaned))
		for _, v := range cleaned {
			if !q.hasOption(v) {
				return fmt.Errorf("%s: %q is not an option", q.ID, v)
			}
			if seen[v] {
				return fmt.Errorf("%s: %q chosen twice", q.ID, v)
			}
			seen[v] = true
		}
	case FreeText:
		limit := q.MaxLength
		if limit == 0 {
			limit = defaultMaxLength
		}
		if len(cleaned) != 1 {
			return fmt.Errorf("%s: expected a single text answer", q.ID)
		}
		if len(cleaned[0]) > limit {
			return fmt.Errorf("%s: answer is longer than %d characters", q.ID, limit)
		}
	case Number:
		if len(cleaned) != 1 {
			return fmt.Errorf("%s: expected a single number", q.ID)
		}
		n, err := strconv.Atoi(cleaned[0])
		if err != nil {
			return fmt.Errorf("%s: %q is not a whole number", q.ID, cleaned[0])
		}
		if n < q.Min || n > q.Max {
			return fmt.Errorf("%s: %d is outside %d-%d", q.ID, n, q.Min, q.Max)
		}
	default:
		return fmt.Errorf("%s: unsupported question kind %v", q.ID, q.Kind)
	}
	return nil
}

// DefaultQuestions is the onboarding set shown before the first scan.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:       "age",
			Prompt:   "How old are you?",
			Kind:     Number,
			Required: true,
			Min:      13,
			Max:      120,
		},
		{
			ID:       "skin_feel",
			Prompt:   "How does your skin usually feel by midday?",
			Kind:     SingleChoice,
			Required: true,
			Options: []Option{
				{"oily", "Shiny all over"},
				{"dry", "Tight or flaky"},
				{"combination", "Oily T-zone, dry cheeks"},
				{"normal", "Comfortable"},
			},
		},
		{
			ID:            "concerns",
			Prompt:        "Which concerns matter most to you?",
			Kind:          MultiChoice,
			Required:      true,
			MaxSelections: 3,
			Options: []Option{
				{"acne", "Breakouts"},
				{"redness", "Redness"},
				{"dark_spots", "Dark spots"},
				{"wrinkles", "Fine lines"},
				{"pores", "Visible pores"},
				{"dryness", "Dryness"},
			},
		},
		{
			ID:       "sensitive",
			Prompt:   "Do products often sting or irritate your skin?",
			Kind:     SingleChoice,
			Required: true,
			Options:  []Option{{"yes", "Yes"}, {"no", "No"}},
		},
		{
			ID:     "irritants",
			Prompt: "Which ingredients or products caused irritation?",
			Kind:   FreeText,
			ShowIf: &Condition{QuestionID: "sensitive", AnyOf: []string{"yes"}},
		},
		{
			ID:       "sunscreen",
			Prompt:   "Do you wear sunscreen?",
			Kind:     SingleChoice,
			Required: true,
			Options:  []Option{{"daily", "Every day"}, {"sometimes", "Sometimes"}, {"never", "Never"}},
		},
		{
			ID:       "sun_exposure",
			Prompt:   "How many hours a day are you outdoors?",
			Kind:     Number,
			Required: true,
			Min:      0,
			Max:      24,
			ShowIf:   &Condition{QuestionID: "sunscreen", AnyOf: []string{"sometimes", "never"}},
		},
	}
}
