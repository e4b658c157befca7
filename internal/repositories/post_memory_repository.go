package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/mini-social/backend/internal/models"
)

// MemoryPostRepository is a process-lifetime PostRepository used in demo
// mode and in tests. A single mutex makes every operation atomic.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*models.Post
}

// NewMemoryPostRepository creates an empty MemoryPostRepository
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[string]*models.Post)}
}

// CreatePost validates and stores a new post in memory
func (r *MemoryPostRepository) CreatePost(_ context.Context, ownerID, authorName, text, imageURL string) (*models.Post, error) {
	post, err := models.NewPost(ownerID, authorName, text, imageURL)
	if err != nil {
		return nil, err
	}
	post.ID = newID()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post
	return clonePost(post), nil
}

// GetPostByID returns a copy of the post with the given ID
func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clonePost(post), nil
}

// ListPosts returns one page of all posts, newest first
func (r *MemoryPostRepository) ListPosts(_ context.Context, page models.Page) (*models.PostList, error) {
	return r.list(func(*models.Post) bool { return true }, page), nil
}

// ListPostsByUser returns one page of the posts owned by ownerID, newest first
func (r *MemoryPostRepository) ListPostsByUser(_ context.Context, ownerID string, page models.Page) (*models.PostList, error) {
	return r.list(func(p *models.Post) bool { return p.UserID == ownerID }, page), nil
}

func (r *MemoryPostRepository) list(match func(*models.Post) bool, page models.Page) *models.PostList {
	page = page.Normalize()

	r.mu.RLock()
	matched := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if match(p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	posts := []models.Post{}
	for i := page.Skip(); i < len(matched) && len(posts) < page.Limit; i++ {
		posts = append(posts, *clonePost(matched[i]))
	}
	r.mu.RUnlock()

	return &models.PostList{Posts: posts, Total: int64(len(matched)), Page: page}
}

// ToggleLike flips the membership of userID under the write lock
func (r *MemoryPostRepository) ToggleLike(_ context.Context, postID, userID string) (*models.Post, error) {
	return r.update(postID, func(p *models.Post) {
		if p.LikedBy(userID) {
			p.Likes = removeString(p.Likes, userID)
		} else {
			p.Likes = append(p.Likes, userID)
		}
	})
}

// SetLike adds or removes userID; repeating either is a no-op
func (r *MemoryPostRepository) SetLike(_ context.Context, postID, userID string, liked bool) (*models.Post, error) {
	return r.update(postID, func(p *models.Post) {
		switch {
		case liked && !p.LikedBy(userID):
			p.Likes = append(p.Likes, userID)
		case !liked:
			p.Likes = removeString(p.Likes, userID)
		}
	})
}

// AddComment appends a comment to the end of the post's comments
func (r *MemoryPostRepository) AddComment(_ context.Context, postID, authorName, text string) (*models.Comment, *models.Post, error) {
	comment, err := models.NewComment(authorName, text)
	if err != nil {
		return nil, nil, err
	}
	comment.ID = newID()

	post, err := r.update(postID, func(p *models.Post) {
		p.Comments = append(p.Comments, *comment)
	})
	if err != nil {
		return nil, nil, err
	}
	return comment, post, nil
}

// DeletePost removes the post when requestingUserID owns it
func (r *MemoryPostRepository) DeletePost(_ context.Context, postID, requestingUserID string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if post.UserID != requestingUserID {
		return nil, models.ErrForbidden
	}
	delete(r.posts, postID)
	return post, nil
}

// Insert stores a fully built post as-is. Used to seed demo content.
func (r *MemoryPostRepository) Insert(post *models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == "" {
		post.ID = newID()
	}
	r.posts[post.ID] = clonePost(post)
}

func (r *MemoryPostRepository) update(postID string, mutate func(*models.Post)) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, models.ErrNotFound
	}
	mutate(post)
	post.UpdatedAt = time.Now().UTC()
	return clonePost(post), nil
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = append([]string{}, p.Likes...)
	c.Comments = append([]models.Comment{}, p.Comments...)
	return &c
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
