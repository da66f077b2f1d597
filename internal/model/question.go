// internal/model/question.go
package model

// Question is one quiz question in canonical form (see api normalization;
// the backend alternates between text and questionText).
type Question struct {
	ID           int64    `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuestionInput is the admin-side payload for creating or updating a
// question.
type QuestionInput struct {
	TopicID      string   `json:"topicId"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}
