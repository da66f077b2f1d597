package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kindrove/pathway/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *observer.ObservedLogs) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	core, logs := observer.New(zap.DebugLevel)
	c := New(srv.URL, 2*time.Second, zap.New(core))
	return c, logs
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth, gotReqID string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode([]model.LeaderboardEntry{})
	}))
	c.SetTokenFunc(func() string { return "tok-123" })

	_, err := c.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotReqID, "every request carries a request id")
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(model.Identity{Token: "t", Username: "alice", Role: "USER"})
	}))

	_, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		path   string
		kind   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, "/progress/user/alice", KindUnauthorized},
		{"forbidden", http.StatusForbidden, "/admin/stats", KindForbidden},
		{"not found", http.StatusNotFound, "/progress/user/alice", KindNotFound},
		{"bad request", http.StatusBadRequest, "/auth/register", KindValidation},
		{"server error", http.StatusInternalServerError, "/quiz/topics", KindTransport},
		{"bad gateway", http.StatusBadGateway, "/quiz/topics", KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
			}))
			err := c.do(context.Background(), http.MethodGet, tt.path, nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			var ae *Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.status, ae.Status)
			assert.Equal(t, "boom", ae.Message)
		})
	}
}

func TestUnauthorizedHookFiresOutsideAuthFamily(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	var fired int
	c.SetUnauthorizedHook(func() { fired++ })

	_, err := c.Progress(context.Background(), "alice")
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, fired, "401 outside /auth/ tears the session down")

	_, err = c.Login(context.Background(), "alice", "wrong")
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, fired, "401 on login is bad credentials, not teardown")
}

func TestNetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := New(srv.URL, time.Second, zap.NewNop())

	_, err := c.Topics(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestTopicNormalization(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Three shapes the duplicated backends actually produce.
		w.Write([]byte(`[
			{"id": 7, "name": "Java", "description": "JVM"},
			{"topicId": "py", "topicName": "Python", "desc": "snakes"},
			{"title": "Databases", "details": "SQL"}
		]`))
	}))

	topics, err := c.Topics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 3)
	assert.Equal(t, model.Topic{ID: "7", Name: "Java", Description: "JVM"}, topics[0])
	assert.Equal(t, model.Topic{ID: "py", Name: "Python", Description: "snakes"}, topics[1])
	assert.Equal(t, "topic-2", topics[2].ID, "missing id falls back to position")
	assert.Equal(t, "Databases", topics[2].Name)
	assert.Equal(t, "SQL", topics[2].Description)
}

func TestQuestionNormalization(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quiz/topics/java/questions", r.URL.Path)
		w.Write([]byte(`[
			{"id": 1, "text": "What is a JVM?", "options": ["a","b"], "correctIndex": 1},
			{"questionId": 2, "questionText": "What is GC?", "options": ["c","d"], "correctIndex": 0}
		]`))
	}))

	qs, err := c.Questions(context.Background(), "java")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "What is a JVM?", qs[0].Text)
	assert.Equal(t, int64(2), qs[1].ID)
	assert.Equal(t, "What is GC?", qs[1].Text, "questionText variant maps onto Text")
}

func TestQuestionNormalizationFallsBackToPosition(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Neither id nor questionId; some backend versions omit both.
		w.Write([]byte(`[
			{"text": "q1", "options": ["a","b"], "correctIndex": 0},
			{"text": "q2", "options": ["a","b"], "correctIndex": 1}
		]`))
	}))

	qs, err := c.Questions(context.Background(), "java")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, int64(1), qs[0].ID)
	assert.Equal(t, int64(2), qs[1].ID, "id-less questions must not share a key")
}

func TestSubmitQuizShape(t *testing.T) {
	var got model.QuizSubmission
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/quiz/java/submit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(model.QuizResult{
			Score: 80, Correct: 4, Total: 5, InferredSkill: "INTERMEDIATE",
			LearningPath: &model.LearningPath{Title: "Java Path"},
		})
	}))

	sub := model.QuizSubmission{
		Answers:     map[int64]int{1: 2, 2: 0},
		Confidence:  map[int64]int{1: 90, 2: 40},
		Name:        "alice",
		Target:      "Backend Developer",
		WeeklyHours: 10,
	}
	result, err := c.SubmitQuiz(context.Background(), "java", sub)
	require.NoError(t, err)
	assert.Equal(t, sub, got, "payload travels unmodified")
	assert.Equal(t, "INTERMEDIATE", result.InferredSkill)
	require.NotNil(t, result.LearningPath)
	assert.Equal(t, "Java Path", result.LearningPath.Title)
}

func TestOneLogLinePerRoundTrip(t *testing.T) {
	c, logs := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/quiz/topics" {
			w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	_, _ = c.Topics(context.Background())
	_, _ = c.Progress(context.Background(), "alice")
	assert.Equal(t, 2, logs.Len(), "exactly one line per request/response pair")
}

func TestRank(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gamification/user/alice/rank", r.URL.Path)
		w.Write([]byte(`{"rank": 3, "totalPoints": 120, "level": 2}`))
	}))

	rank, err := c.Rank(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, model.Rank{Rank: 3, TotalPoints: 120, Level: 2}, rank)
}

func TestExportCSVReturnsRawBytes(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("Module #,Title\n1,Basics\n"))
	}))

	raw, err := c.ExportCSV(context.Background(), model.LearningPath{Title: "p"})
	require.NoError(t, err)
	assert.Equal(t, "Module #,Title\n1,Basics\n", string(raw))
}
