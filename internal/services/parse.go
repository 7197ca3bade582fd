package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"quizbot/internal/models"
)

var validate = validator.New()

// QuestionValidationError reports why a generated question was rejected.
type QuestionValidationError struct {
	Index  int
	Fields map[string]string // field -> failed rule
	Err    error
}

func (e *QuestionValidationError) Error() string {
	return fmt.Sprintf("question %d invalid: %s", e.Index+1, describeFields(e.Fields, e.Err))
}

func (e *QuestionValidationError) Unwrap() error { return e.Err }

// PlanValidationError reports why a generated study plan was rejected.
type PlanValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *PlanValidationError) Error() string {
	return "study plan invalid: " + describeFields(e.Fields, e.Err)
}

func (e *PlanValidationError) Unwrap() error { return e.Err }

func describeFields(fields map[string]string, err error) string {
	if len(fields) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fields))
	for field, tag := range fields {
		parts = append(parts, field+"="+tag)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func fieldErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// rawQuestion accepts the field names the model is known to use in either
// English or Indonesian.
type rawQuestion struct {
	Question    string   `json:"question"`
	Pertanyaan  string   `json:"pertanyaan"`
	Soal        string   `json:"soal"`
	Options     []string `json:"options"`
	Pilihan     []string `json:"pilihan"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Jawaban     string   `json:"jawaban"`
	Explanation string   `json:"explanation"`
	Penjelasan  string   `json:"penjelasan"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

// ParseQuestion turns one generated question into a models.Question. The
// answer letter is normalised to upper case; anything that still fails
// validation yields a *QuestionValidationError.
func ParseQuestion(index int, raw json.RawMessage) (models.Question, error) {
	var rq rawQuestion
	if err := json.Unmarshal(raw, &rq); err != nil {
		return models.Question{}, &QuestionValidationError{Index: index, Err: fmt.Errorf("decode: %w", err)}
	}

	q := models.Question{
		Text:        firstNonEmpty(rq.Question, rq.Pertanyaan, rq.Soal),
		Options:     firstNonEmptyList(rq.Options, rq.Pilihan, rq.Choices),
		Answer:      normaliseAnswer(firstNonEmpty(rq.Answer, rq.Jawaban)),
		Explanation: firstNonEmpty(rq.Explanation, rq.Penjelasan),
	}
	if err := validate.Struct(q); err != nil {
		return models.Question{}, &QuestionValidationError{Index: index, Fields: fieldErrors(err), Err: err}
	}
	return q, nil
}

// normaliseAnswer reduces answers like "b", "B." or "B) Paris" to "B".
func normaliseAnswer(answer string) string {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if len(answer) > 1 && strings.ContainsAny(answer[1:2], ".):") {
		answer = answer[:1]
	}
	return answer
}

// ParseStudyPlan decodes and validates a generated study plan.
func ParseStudyPlan(raw []byte) (models.StudyPlan, error) {
	var plan models.StudyPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return models.StudyPlan{}, &PlanValidationError{Err: fmt.Errorf("decode: %w", err)}
	}
	plan.Topic = strings.TrimSpace(plan.Topic)
	if err := validate.Struct(plan); err != nil {
		return models.StudyPlan{}, &PlanValidationError{Fields: fieldErrors(err), Err: err}
	}
	return plan, nil
}
