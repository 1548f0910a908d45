// File: /models/post.go
package models

import (
	"strings"
	"time"
)

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
)

// DisplayDateLayout is the format of Post.Date, e.g. "March 04, 2025".
const DisplayDateLayout = "January 02, 2006"

type Post struct {
	ID                string     `json:"id" gorm:"primaryKey;size:191"`
	AuthorID          string     `json:"author_id" gorm:"not null;size:191;index"`
	Title             string     `json:"title" gorm:"uniqueIndex;not null;size:255"`
	Date              string     `json:"date" gorm:"not null;size:50"`
	Body              string     `json:"body" gorm:"type:text;not null"`
	ImgURL            string     `json:"img_url" gorm:"not null;size:500"`
	Category          string     `json:"category" gorm:"not null;size:191;index"`
	Status            PostStatus `json:"status" gorm:"not null;default:'published';size:20;index"`
	ScheduledDatetime *time.Time `json:"scheduled_datetime"`
	Views             int        `json:"views" gorm:"default:0"`
	Likes             int        `json:"likes" gorm:"default:0"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Author   User      `json:"author" gorm:"foreignKey:AuthorID"`
	Comments []Comment `json:"-" gorm:"foreignKey:PostID"`
}

func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// CategorySlug turns "Random Musings" into "random-musings" for URLs.
func CategorySlug(category string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(category), " ", "-"))
}

// CategoryFromSlug reverses CategorySlug up to letter case.
func CategoryFromSlug(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}
