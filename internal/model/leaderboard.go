// internal/model/leaderboard.go
package model

// LeaderboardEntry is one row of GET /gamification/leaderboard, ordered by
// the backend (highest points first).
type LeaderboardEntry struct {
	Username      string `json:"username"`
	TotalPoints   int    `json:"totalPoints"`
	Level         int    `json:"level"`
	CurrentStreak int    `json:"currentStreak"`
}

// Rank is one user's own standing, GET /gamification/user/{username}/rank.
// Unlike the leaderboard it is available even when the user is outside the
// returned top N.
type Rank struct {
	Rank        int `json:"rank"`
	TotalPoints int `json:"totalPoints"`
	Level       int `json:"level"`
}
