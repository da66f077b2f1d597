// internal/quiz/session.go
//
// A QuizSession is the transient state of one quiz run: it lives from topic
// selection until submission or navigation away, and is never persisted.
// The backend scores the submission; the local score is a preview.

package quiz

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/model"
)

// DefaultConfidence is assumed when the user skips the confidence prompt.
const DefaultConfidence = 50

// DefaultWeeklyHours is the study budget assumed when the user doesn't
// set one before submitting.
const DefaultWeeklyHours = 10

var (
	// ErrUnanswered means the current question needs an answer before
	// moving forward.
	ErrUnanswered = errors.New("quiz: answer the current question first")

	// ErrNoQuestions means the chosen topic has no questions.
	ErrNoQuestions = errors.New("quiz: topic has no questions")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type submissionForm struct {
	WeeklyHours int    `validate:"required,min=1,max=100"`
	Target      string `validate:"max=120"`
}

// Session is one in-flight quiz run.
type Session struct {
	Topic     model.Topic
	Questions []model.Question

	current     int
	answers     map[int64]int
	confidences map[int64]int
}

// New starts a session for a topic with its ordered questions.
func New(topic model.Topic, questions []model.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &Session{
		Topic:       topic,
		Questions:   questions,
		answers:     make(map[int64]int, len(questions)),
		confidences: make(map[int64]int, len(questions)),
	}, nil
}

// Current returns the question in front of the user and its position.
func (s *Session) Current() (model.Question, int) {
	return s.Questions[s.current], s.current
}

// Answer records the selected option for the current question. Re-answering
// overwrites; the quiz is only scored at submission.
func (s *Session) Answer(optionIndex int) {
	q, _ := s.Current()
	s.answers[q.ID] = optionIndex
}

// SetConfidence records the 0-100 confidence for the current question.
// Values outside the range are clamped.
func (s *Session) SetConfidence(level int) {
	q, _ := s.Current()
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	s.confidences[q.ID] = level
}

// Confidence returns the recorded confidence for the current question, or
// DefaultConfidence when none was set.
func (s *Session) Confidence() int {
	q, _ := s.Current()
	if c, ok := s.confidences[q.ID]; ok {
		return c
	}
	return DefaultConfidence
}

// Answered reports whether the current question has an answer.
func (s *Session) Answered() bool {
	q, _ := s.Current()
	_, ok := s.answers[q.ID]
	return ok
}

// SelectedOption returns the recorded answer for the current question, or
// -1 when none.
func (s *Session) SelectedOption() int {
	q, _ := s.Current()
	if opt, ok := s.answers[q.ID]; ok {
		return opt
	}
	return -1
}

// Next advances to the next question. The current one must be answered
// first; the last question has no next.
func (s *Session) Next() error {
	if !s.Answered() {
		return ErrUnanswered
	}
	if s.current < len(s.Questions)-1 {
		s.current++
	}
	return nil
}

// Prev steps back one question. Always allowed.
func (s *Session) Prev() {
	if s.current > 0 {
		s.current--
	}
}

// OnLast reports whether the user is on the final question.
func (s *Session) OnLast() bool { return s.current == len(s.Questions)-1 }

// Complete reports whether every question has an answer.
func (s *Session) Complete() bool { return len(s.answers) == len(s.Questions) }

// Unanswered lists the 1-based positions still missing an answer, for the
// "please answer all questions" message.
func (s *Session) Unanswered() []int {
	var missing []int
	for i, q := range s.Questions {
		if _, ok := s.answers[q.ID]; !ok {
			missing = append(missing, i+1)
		}
	}
	return missing
}

// LocalScore counts locally-correct answers. Preview only; the backend's
// result is authoritative.
func (s *Session) LocalScore() (correct int) {
	for _, q := range s.Questions {
		if opt, ok := s.answers[q.ID]; ok && opt == q.CorrectIndex {
			correct++
		}
	}
	return correct
}

// Submission builds the submit payload, validating completeness and the
// accompanying form first. Questions without an explicit confidence get
// DefaultConfidence.
func (s *Session) Submission(name, target string, weeklyHours int) (model.QuizSubmission, error) {
	if !s.Complete() {
		return model.QuizSubmission{}, api.ValidationError("answer all questions before submitting (missing: %v)", s.Unanswered())
	}
	if err := validate.Struct(submissionForm{WeeklyHours: weeklyHours, Target: target}); err != nil {
		return model.QuizSubmission{}, api.ValidationError("weekly hours must be between 1 and 100")
	}

	answers := make(map[int64]int, len(s.answers))
	confidence := make(map[int64]int, len(s.Questions))
	for _, q := range s.Questions {
		answers[q.ID] = s.answers[q.ID]
		if lvl, ok := s.confidences[q.ID]; ok {
			confidence[q.ID] = lvl
		} else {
			confidence[q.ID] = DefaultConfidence
		}
	}
	return model.QuizSubmission{
		Answers:     answers,
		Confidence:  confidence,
		Name:        name,
		Target:      target,
		WeeklyHours: weeklyHours,
	}, nil
}
