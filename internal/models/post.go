package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxPostTextLength bounds Post.Text, counted in runes after trimming.
	MaxPostTextLength = 2000
	// MaxCommentTextLength bounds Comment.Text, counted in runes after trimming.
	MaxCommentTextLength = 500
)

// Post represents a social post. The same shape is stored as a MongoDB
// document, a PostgreSQL row (likes and comments live in their own tables)
// and an in-memory record.
//
// Username is a snapshot of the author's name at creation time and is not
// updated if the user later renames.
type Post struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	UserID    string    `json:"userId" bson:"user_id" gorm:"size:24;not null;index:idx_posts_user_created,priority:1"`
	Username  string    `json:"username" bson:"username" gorm:"size:30;not null"`
	Text      string    `json:"text,omitempty" bson:"text,omitempty" gorm:"size:2000"`
	ImageURL  string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Likes     []string  `json:"likes" bson:"likes" gorm:"-"`
	Comments  []Comment `json:"comments" bson:"comments" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at" gorm:"index;index:idx_posts_user_created,priority:2"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// MarshalJSON adds the derived likeCount and commentCount fields and makes
// sure empty likes and comments are rendered as [] rather than null.
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	a := alias(p)
	if a.Likes == nil {
		a.Likes = []string{}
	}
	if a.Comments == nil {
		a.Comments = []Comment{}
	}
	return json.Marshal(struct {
		alias
		LikeCount    int `json:"likeCount"`
		CommentCount int `json:"commentCount"`
	}{a, len(a.Likes), len(a.Comments)})
}

// LikedBy reports whether userID is currently in the like set.
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// NewPost builds a post owned by ownerID. It fails with a *ValidationError
// when neither text nor image is given or when the text is too long.
func NewPost(ownerID, authorName, text, imageURL string) (*Post, error) {
	text = strings.TrimSpace(text)
	imageURL = strings.TrimSpace(imageURL)

	if text == "" && imageURL == "" {
		return nil, NewValidationError("Post must contain either text or image")
	}
	if utf8.RuneCountInString(text) > MaxPostTextLength {
		return nil, NewValidationError("Post text cannot exceed 2000 characters",
			FieldError{Field: "text", Message: "Post text cannot exceed 2000 characters"})
	}
	if ownerID == "" || authorName == "" {
		return nil, NewValidationError("User info required")
	}

	now := time.Now().UTC()
	return &Post{
		UserID:    ownerID,
		Username:  authorName,
		Text:      text,
		ImageURL:  imageURL,
		Likes:     []string{},
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CreatePostRequest is the JSON or multipart body for creating a post. An
// uploaded file in the "image" field takes precedence over ImageURL.
type CreatePostRequest struct {
	Text     string `json:"text" form:"text" validate:"omitempty,max=2000"`
	ImageURL string `json:"imageUrl" form:"imageUrl" validate:"omitempty,url"`
}

// PostList is one page of posts plus the total number of matching posts.
type PostList struct {
	Posts []Post
	Total int64
	Page  Page
}

// TotalPages returns ceil(Total / Page.Limit).
func (l *PostList) TotalPages() int64 {
	if l.Page.Limit <= 0 {
		return 0
	}
	limit := int64(l.Page.Limit)
	return (l.Total + limit - 1) / limit
}
