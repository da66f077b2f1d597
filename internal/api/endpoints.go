// internal/api/endpoints.go
//
// One method per backend operation. Methods return canonical model types;
// classification and normalization happen in client.go / normalize.go.

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kindrove/pathway/internal/model"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for an identity. A 401 here means bad
// credentials, not a dead session.
func (c *Client) Login(ctx context.Context, username, password string) (model.Identity, error) {
	var id model.Identity
	err := c.do(ctx, http.MethodPost, "/auth/login", credentials{username, password}, &id)
	if err != nil {
		return model.Identity{}, err
	}
	if id.Username == "" {
		id.Username = username
	}
	return id, nil
}

// Register creates an account. The backend answers 400 when the username
// already exists.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/register", credentials{username, password}, nil)
}

// ForgotPassword starts the reset flow for a username.
func (c *Client) ForgotPassword(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", body, nil)
}

// Topics lists the quiz topics, normalized.
func (c *Client) Topics(ctx context.Context) ([]model.Topic, error) {
	var raw []rawTopic
	if err := c.do(ctx, http.MethodGet, "/quiz/topics", nil, &raw); err != nil {
		return nil, err
	}
	return normalizeTopics(raw), nil
}

// Questions lists the ordered questions for one topic. 404 means the topic
// is unknown.
func (c *Client) Questions(ctx context.Context, topicID string) ([]model.Question, error) {
	var raw []rawQuestion
	path := "/quiz/topics/" + url.PathEscape(topicID) + "/questions"
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return normalizeQuestions(raw), nil
}

// SubmitQuiz posts a completed quiz and returns the backend's verdict,
// including the generated learning path.
func (c *Client) SubmitQuiz(ctx context.Context, topicID string, sub model.QuizSubmission) (model.QuizResult, error) {
	var result model.QuizResult
	path := "/quiz/" + url.PathEscape(topicID) + "/submit"
	err := c.do(ctx, http.MethodPost, path, sub, &result)
	return result, err
}

// GeneratePath asks the backend to build a learning path directly.
func (c *Client) GeneratePath(ctx context.Context, req model.GenerateRequest) (model.LearningPath, error) {
	var lp model.LearningPath
	err := c.do(ctx, http.MethodPost, "/learning-path/generate", req, &lp)
	return lp, err
}

// Progress fetches a user's progress. 404 means "no progress yet".
func (c *Client) Progress(ctx context.Context, username string) (model.Progress, error) {
	var p model.Progress
	err := c.do(ctx, http.MethodGet, "/progress/user/"+url.PathEscape(username), nil, &p)
	return p, err
}

// UpdateProgress posts a progress mutation and returns the server's
// recomputed copy, which is the only one worth caching.
func (c *Client) UpdateProgress(ctx context.Context, p model.Progress) (model.Progress, error) {
	var out model.Progress
	err := c.do(ctx, http.MethodPost, "/progress/update", p, &out)
	return out, err
}

// UserPath fetches the user's saved learning path. 404 means none yet.
func (c *Client) UserPath(ctx context.Context, username string) (model.LearningPath, error) {
	var lp model.LearningPath
	err := c.do(ctx, http.MethodGet, "/user-learning-paths/"+url.PathEscape(username), nil, &lp)
	return lp, err
}

type savePathRequest struct {
	Username string             `json:"username"`
	Path     model.LearningPath `json:"path"`
}

// SavePath persists a generated path as the user's active one.
func (c *Client) SavePath(ctx context.Context, username string, lp model.LearningPath) (model.LearningPath, error) {
	var out model.LearningPath
	err := c.do(ctx, http.MethodPost, "/user-learning-paths/save", savePathRequest{username, lp}, &out)
	return out, err
}

// DeletePath removes the user's saved learning path.
func (c *Client) DeletePath(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/user-learning-paths/"+url.PathEscape(username), nil, nil)
}

// Leaderboard returns the gamification ranking, backend-ordered.
func (c *Client) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := c.do(ctx, http.MethodGet, "/gamification/leaderboard", nil, &entries)
	return entries, err
}

// Rank returns the user's own standing, including positions below the
// leaderboard cutoff. 404 until the user has earned any points.
func (c *Client) Rank(ctx context.Context, username string) (model.Rank, error) {
	var rank model.Rank
	err := c.do(ctx, http.MethodGet, "/gamification/user/"+url.PathEscape(username)+"/rank", nil, &rank)
	return rank, err
}

// ExportCSV asks the backend to render a learning path as CSV.
func (c *Client) ExportCSV(ctx context.Context, lp model.LearningPath) ([]byte, error) {
	return c.doRaw(ctx, http.MethodPost, "/export/learning-path/csv", lp)
}

// --- Admin endpoints. All answer 403 for non-admin tokens. ---

// AdminStats returns platform totals.
func (c *Client) AdminStats(ctx context.Context) (model.AdminStats, error) {
	var stats model.AdminStats
	err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &stats)
	return stats, err
}

// AdminTopics lists all topics, including ones without questions.
func (c *Client) AdminTopics(ctx context.Context) ([]model.Topic, error) {
	var raw []rawTopic
	if err := c.do(ctx, http.MethodGet, "/admin/topics", nil, &raw); err != nil {
		return nil, err
	}
	return normalizeTopics(raw), nil
}

// AdminCreateTopic adds a topic.
func (c *Client) AdminCreateTopic(ctx context.Context, t model.Topic) (model.Topic, error) {
	var raw rawTopic
	if err := c.do(ctx, http.MethodPost, "/admin/topics", t, &raw); err != nil {
		return model.Topic{}, err
	}
	return raw.normalize(0), nil
}

// AdminUpdateTopic edits a topic in place.
func (c *Client) AdminUpdateTopic(ctx context.Context, t model.Topic) (model.Topic, error) {
	var raw rawTopic
	if err := c.do(ctx, http.MethodPut, "/admin/topics/"+url.PathEscape(t.ID), t, &raw); err != nil {
		return model.Topic{}, err
	}
	return raw.normalize(0), nil
}

// AdminDeleteTopic removes a topic and its questions.
func (c *Client) AdminDeleteTopic(ctx context.Context, topicID string) error {
	return c.do(ctx, http.MethodDelete, "/admin/topics/"+url.PathEscape(topicID), nil, nil)
}

// AdminQuestions lists every question across topics.
func (c *Client) AdminQuestions(ctx context.Context) ([]model.Question, error) {
	var raw []rawQuestion
	if err := c.do(ctx, http.MethodGet, "/admin/questions", nil, &raw); err != nil {
		return nil, err
	}
	return normalizeQuestions(raw), nil
}

// AdminAddQuestion creates a question under a topic.
func (c *Client) AdminAddQuestion(ctx context.Context, q model.QuestionInput) (model.Question, error) {
	var raw rawQuestion
	if err := c.do(ctx, http.MethodPost, "/admin/questions", q, &raw); err != nil {
		return model.Question{}, err
	}
	return raw.normalize(0), nil
}

// AdminUpdateQuestion edits a question.
func (c *Client) AdminUpdateQuestion(ctx context.Context, id int64, q model.QuestionInput) (model.Question, error) {
	var raw rawQuestion
	path := fmt.Sprintf("/admin/questions/%d", id)
	if err := c.do(ctx, http.MethodPut, path, q, &raw); err != nil {
		return model.Question{}, err
	}
	return raw.normalize(0), nil
}

// AdminDeleteQuestion removes a question.
func (c *Client) AdminDeleteQuestion(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/questions/%d", id), nil, nil)
}

// AdminUsers lists accounts.
func (c *Client) AdminUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, http.MethodGet, "/admin/users", nil, &users)
	return users, err
}

type roleChange struct {
	Role string `json:"role"`
}

// AdminSetUserRole promotes or demotes an account.
func (c *Client) AdminSetUserRole(ctx context.Context, userID int64, role string) (model.User, error) {
	var u model.User
	path := fmt.Sprintf("/admin/users/%d/role", userID)
	err := c.do(ctx, http.MethodPut, path, roleChange{role}, &u)
	return u, err
}

// AdminDeleteUser removes an account.
func (c *Client) AdminDeleteUser(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", userID), nil, nil)
}
