package models

import (
	"time"
)

type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	PostID    string    `json:"post_id" gorm:"not null;size:191;index"`
	AuthorID  string    `json:"author_id" gorm:"not null;size:191;index"`
	ParentID  *string   `json:"parent_id" gorm:"size:191;index"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author User `json:"author" gorm:"foreignKey:AuthorID"`
}

// CommentNode is a comment together with its replies, as rendered under a post.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
