// internal/model/admin.go
package model

// User is an account as seen through the admin endpoints.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// AdminStats is the GET /admin/stats summary.
type AdminStats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalTopics    int `json:"totalTopics"`
	TotalQuestions int `json:"totalQuestions"`
	TotalPaths     int `json:"totalPaths"`
}
