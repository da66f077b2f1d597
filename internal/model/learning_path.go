// internal/model/learning_path.go
package model

// LearningPath is the generated plan for one user. The backend owns the
// authoritative copy; the client only ever holds a cached snapshot of it.
type LearningPath struct {
	ID             int64    `json:"id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	SkillLevel     string   `json:"skillLevel"`
	WeeklyHours    int      `json:"weeklyHours"`
	EstimatedWeeks int      `json:"estimatedWeeks"`
	TotalHours     float64  `json:"totalHours"`
	Modules        []Module `json:"modules"`
}

// Module is one step of a learning path. Immutable once delivered.
type Module struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hours       float64  `json:"hours"`
	Topics      []string `json:"topics"`
	Resources   []string `json:"resources"`
}

// GenerateRequest asks the backend to build a path without a quiz.
type GenerateRequest struct {
	Name        string   `json:"name"`
	SkillLevel  string   `json:"skillLevel"`
	Interests   []string `json:"interests"`
	WeeklyHours int      `json:"weeklyHours"`
	Target      string   `json:"target"`
}
