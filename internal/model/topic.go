// internal/model/topic.go
package model

// Topic is a quiz subject. The canonical shape produced by the api package's
// normalization layer; backend responses vary their field names across
// versions (id/topicId, name/topicName/title).
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
