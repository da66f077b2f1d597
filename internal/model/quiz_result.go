// internal/model/quiz_result.go
package model

// QuizSubmission is the payload for POST /quiz/{topicId}/submit. Answers and
// Confidence are keyed by question ID; confidence is 0-100 per question.
type QuizSubmission struct {
	Answers     map[int64]int `json:"answers"`
	Confidence  map[int64]int `json:"confidence"`
	Name        string        `json:"name"`
	Target      string        `json:"target"`
	WeeklyHours int           `json:"weeklyHours"`
}

// QuizResult is the backend's verdict on a submission. InferredSkill and the
// generated LearningPath are backend-computed; the client's local score is a
// preview only and never overrides these.
type QuizResult struct {
	Score         float64       `json:"score"`
	Correct       int           `json:"correct"`
	Total         int           `json:"total"`
	InferredSkill string        `json:"inferredSkill"`
	LearningPath  *LearningPath `json:"learningPath"`
}
