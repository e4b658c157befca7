package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Comment is an entry in a post's comment sequence. In MongoDB comments are
// embedded in the post document; in PostgreSQL they are rows keyed by PostID.
type Comment struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	PostID    string    `json:"-" bson:"-" gorm:"size:24;not null;index:idx_comments_post_created,priority:1"`
	Username  string    `json:"username" bson:"username" gorm:"size:30;not null"`
	Text      string    `json:"text" bson:"text" gorm:"size:500;not null"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at" gorm:"index:idx_comments_post_created,priority:2"`
}

// NewComment validates text and stamps the comment with the current time.
// The ID is left to the store.
func NewComment(authorName, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidationError("Comment text is required",
			FieldError{Field: "text", Message: "Comment text is required"})
	}
	if utf8.RuneCountInString(text) > MaxCommentTextLength {
		return nil, NewValidationError("Comment cannot exceed 500 characters",
			FieldError{Field: "text", Message: "Comment cannot exceed 500 characters"})
	}
	if authorName == "" {
		return nil, NewValidationError("Username required")
	}
	return &Comment{
		Username:  authorName,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}
