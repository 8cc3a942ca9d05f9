package questionnaire

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnanswered is returned by Next when a required question has no answer.
var ErrUnanswered = errors.New("question not answered")

// Flow walks the visible questions in order. Follow-ups appear or vanish as
// the answers they depend on change.
type Flow struct {
	id        string
	questions []Question
	answers   map[string][]string
	index     int
	done      bool
	now       func() time.Time
}

// NewFlow checks the question set and starts at the first question.
func NewFlow(questions []Question) (*Flow, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("questionnaire has no questions")
	}
	seen := make(map[string]int, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d has no id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		if (q.Kind == SingleChoice || q.Kind == MultiChoice) && len(q.Options) == 0 {
			return nil, fmt.Errorf("question %q has no options", q.ID)
		}
		if q.ShowIf != nil {
			if _, ok := seen[q.ShowIf.QuestionID]; !ok {
				return nil, fmt.Errorf("question %q depends on %q, which must come earlier", q.ID, q.ShowIf.QuestionID)
			}
		}
		seen[q.ID] = i
	}
	if questions[0].ShowIf != nil {
		return nil, fmt.Errorf("first question cannot be conditional")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate questionnaire id: %w", err)
	}
	return &Flow{
		id:        id.String(),
		questions: questions,
		answers:   make(map[string][]string),
		now:       time.Now,
	}, nil
}

// ID is the questionnaire ID, fixed for the life of the flow.
func (f *Flow) ID() string { return f.id }

// Current returns the question on screen. ok is false once the flow is done.
func (f *Flow) Current() (Question, bool) {
	if f.done {
		return Question{}, false
	}
	return f.questions[f.index], true
}

// Answer records values for the current question after validating them.
func (f *Flow) Answer(values ...string) error {
	q, ok := f.Current()
	if !ok {
		return fmt.Errorf("questionnaire already complete")
	}
	if err := q.Check(values); err != nil {
		return err
	}
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		delete(f.answers, q.ID)
		return nil
	}
	f.answers[q.ID] = cleaned
	return nil
}

// Answered returns the stored answer for id.
func (f *Flow) Answered(id string) ([]string, bool) {
	v, ok := f.answers[id]
	return slices.Clone(v), ok
}

// Next moves to the next visible question, or completes the flow.
func (f *Flow) Next() error {
	q, ok := f.Current()
	if !ok {
		return nil
	}
	if _, answered := f.answers[q.ID]; q.Required && !answered {
		return fmt.Errorf("%s: %w", q.ID, ErrUnanswered)
	}
	for i := f.index + 1; i < len(f.questions); i++ {
		if f.visible(f.questions[i]) {
			f.index = i
			return nil
		}
	}
	f.done = true
	return nil
}

// Back moves to the previous visible question. It reports false at the start.
func (f *Flow) Back() bool {
	start := f.index
	if f.done {
		start = len(f.questions)
		f.done = false
	}
	for i := start - 1; i >= 0; i-- {
		if f.visible(f.questions[i]) {
			f.index = i
			return true
		}
	}
	return false
}

// Done reports whether every visible question has been passed.
func (f *Flow) Done() bool { return f.done }

// Position returns the 1-based index of the current question among the
// visible ones, and how many are visible.
func (f *Flow) Position() (int, int) {
	pos, total := 0, 0
	for i, q := range f.questions {
		if !f.visible(q) {
			continue
		}
		total++
		if i <= f.index {
			pos = total
		}
	}
	if f.done {
		pos = total
	}
	return pos, total
}

func (f *Flow) visible(q Question) bool {
	if q.ShowIf == nil {
		return true
	}
	parent, ok := f.answers[q.ShowIf.QuestionID]
	if !ok {
		return false
	}
	for _, v := range parent {
		if slices.Contains(q.ShowIf.AnyOf, v) {
			return true
		}
	}
	return false
}

// Result is a completed questionnaire.
type Result struct {
	QuestionnaireID string              `json:"questionnaire_id"`
	CompletedAt     time.Time           `json:"completed_at"`
	Answers         map[string][]string `json:"answers"`
}

// Result returns the answers of visible questions. Answers to follow-ups
// that were later hidden are dropped.
func (f *Flow) Result() (Result, error) {
	if !f.done {
		return Result{}, fmt.Errorf("questionnaire is not complete")
	}
	answers := make(map[string][]string)
	for _, q := range f.questions {
		if !f.visible(q) {
			continue
		}
		if v, ok := f.answers[q.ID]; ok {
			answers[q.ID] = slices.Clone(v)
		}
	}
	return Result{
		QuestionnaireID: f.id,
		CompletedAt:     f.now().UTC(),
		Answers:         answers,
	}, nil
}
