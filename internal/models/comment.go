package models

import "time"

// Comment is a follow-up entry attached to a note, kept in insertion order.
type Comment struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// NewComment builds a comment with a fresh id.
func NewComment(userID, content string, now time.Time) Comment {
	return Comment{
		ID:        NewID(),
		Content:   content,
		UserID:    userID,
		CreatedAt: now,
	}
}
