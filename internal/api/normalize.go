// internal/api/normalize.go
//
// The backend's duplicated app versions drifted apart in field naming
// (title/name, text/questionText, numeric vs string ids). Responses are
// normalized into one canonical shape here, at the boundary, so nothing
// above this package ever sees the variants.

package api

import (
	"fmt"
	"strconv"

	"github.com/kindrove/pathway/internal/model"
)

type rawTopic struct {
	ID          any    `json:"id"`
	TopicID     any    `json:"topicId"`
	AltID       any    `json:"_id"`
	Name        string `json:"name"`
	TopicName   string `json:"topicName"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Desc        string `json:"desc"`
	Details     string `json:"details"`
}

func (r rawTopic) normalize(pos int) model.Topic {
	id := firstID(r.ID, r.TopicID, r.AltID)
	if id == "" {
		id = fmt.Sprintf("topic-%d", pos)
	}
	name := firstNonEmpty(r.Name, r.TopicName, r.Title)
	if name == "" {
		name = "Unnamed Topic"
	}
	return model.Topic{
		ID:          id,
		Name:        name,
		Description: firstNonEmpty(r.Description, r.Desc, r.Details),
	}
}

type rawQuestion struct {
	ID           any      `json:"id"`
	QuestionID   any      `json:"questionId"`
	Text         string   `json:"text"`
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

func (r rawQuestion) normalize(pos int) model.Question {
	id := firstInt64(r.ID, r.QuestionID)
	// Same positional fallback topics get. A run of id-less questions must
	// not collapse onto one answers-map key, or the quiz can never be
	// completed.
	if id == 0 {
		id = int64(pos + 1)
	}
	return model.Question{
		ID:           id,
		Text:         firstNonEmpty(r.Text, r.QuestionText),
		Options:      r.Options,
		CorrectIndex: r.CorrectIndex,
	}
}

func normalizeTopics(raw []rawTopic) []model.Topic {
	topics := make([]model.Topic, len(raw))
	for i, r := range raw {
		topics[i] = r.normalize(i)
	}
	return topics
}

func normalizeQuestions(raw []rawQuestion) []model.Question {
	questions := make([]model.Question, len(raw))
	for i, r := range raw {
		questions[i] = r.normalize(i)
	}
	return questions
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstID coerces the first present id value to a string. JSON numbers
// arrive as float64.
func firstID(values ...any) string {
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatInt(int64(t), 10)
		}
	}
	return ""
}

func firstInt64(values ...any) int64 {
	for _, v := range values {
		switch t := v.(type) {
		case float64:
			return int64(t)
		case string:
			if n, err := strconv.ParseInt(t, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}
