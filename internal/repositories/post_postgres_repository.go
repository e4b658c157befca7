package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/mini-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostLike is one member of a post's like set in PostgreSQL. The composite
// primary key keeps the set free of duplicates.
type PostLike struct {
	PostID    string `gorm:"primaryKey;size:24"`
	UserID    string `gorm:"primaryKey;size:24"`
	CreatedAt time.Time
}

// PostgresPostRepository implements PostRepository on top of GORM. Every
// mutation runs in a transaction that first takes a row lock on the post,
// which serializes concurrent toggles and comments on the same post.
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// AutoMigrate creates or updates the posts, comments and post_likes tables.
func (r *PostgresPostRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.Post{}, &models.Comment{}, &PostLike{})
}

// CreatePost validates and inserts a new post in PostgreSQL
func (r *PostgresPostRepository) CreatePost(ctx context.Context, ownerID, authorName, text, imageURL string) (*models.Post, error) {
	post, err := models.NewPost(ownerID, authorName, text, imageURL)
	if err != nil {
		return nil, err
	}
	post.ID = newID()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, models.NewStorageError("insert post", err)
	}
	return post, nil
}

// GetPostByID retrieves a post with its comments and likes from PostgreSQL
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := loadPost(r.db.WithContext(ctx), id, false)
	if err != nil {
		return nil, models.NewStorageError("find post", err)
	}
	return post, nil
}

// ListPosts returns one page of all posts, newest first
func (r *PostgresPostRepository) ListPosts(ctx context.Context, page models.Page) (*models.PostList, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.Post{}), page)
}

// ListPostsByUser returns one page of the posts owned by ownerID, newest first
func (r *PostgresPostRepository) ListPostsByUser(ctx context.Context, ownerID string, page models.Page) (*models.PostList, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", ownerID), page)
}

func (r *PostgresPostRepository) list(q *gorm.DB, page models.Page) (*models.PostList, error) {
	page = page.Normalize()

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, models.NewStorageError("count posts", err)
	}

	posts := []models.Post{}
	err := q.Session(&gorm.Session{}).
		Preload("Comments", orderComments).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Skip()).Limit(page.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewStorageError("find posts", err)
	}

	if len(posts) > 0 {
		ids := make([]string, len(posts))
		for i := range posts {
			ids[i] = posts[i].ID
		}
		var likes []PostLike
		if err := q.Session(&gorm.Session{NewDB: true}).Where("post_id IN ?", ids).Order("created_at").Find(&likes).Error; err != nil {
			return nil, models.NewStorageError("find likes", err)
		}
		byPost := make(map[string][]string, len(posts))
		for _, l := range likes {
			byPost[l.PostID] = append(byPost[l.PostID], l.UserID)
		}
		for i := range posts {
			posts[i].Likes = byPost[posts[i].ID]
			if posts[i].Likes == nil {
				posts[i].Likes = []string{}
			}
		}
	}

	return &models.PostList{Posts: posts, Total: total, Page: page}, nil
}

// ToggleLike removes the like row if present and inserts it otherwise,
// under the post row lock
func (r *PostgresPostRepository) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	return r.mutate(ctx, postID, "toggle like", func(tx *gorm.DB, _ *models.Post) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&PostLike{PostID: postID, UserID: userID}).Error
	})
}

// SetLike inserts the like row with ON CONFLICT DO NOTHING or deletes it
func (r *PostgresPostRepository) SetLike(ctx context.Context, postID, userID string, liked bool) (*models.Post, error) {
	return r.mutate(ctx, postID, "set like", func(tx *gorm.DB, _ *models.Post) error {
		if !liked {
			return tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&PostLike{}).Error
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&PostLike{PostID: postID, UserID: userID}).Error
	})
}

// AddComment inserts a comment and returns the post re-read in the same
// transaction
func (r *PostgresPostRepository) AddComment(ctx context.Context, postID, authorName, text string) (*models.Comment, *models.Post, error) {
	comment, err := models.NewComment(authorName, text)
	if err != nil {
		return nil, nil, err
	}
	comment.ID = newID()
	comment.PostID = postID

	post, err := r.mutate(ctx, postID, "add comment", func(tx *gorm.DB, _ *models.Post) error {
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return comment, post, nil
}

// DeletePost deletes the post with its likes and comments when
// requestingUserID owns it
func (r *PostgresPostRepository) DeletePost(ctx context.Context, postID, requestingUserID string) (*models.Post, error) {
	var deleted *models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := loadPost(tx, postID, true)
		if err != nil {
			return err
		}
		if post.UserID != requestingUserID {
			return models.ErrForbidden
		}
		if err := tx.Where("post_id = ?", postID).Delete(&PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, "id = ?", postID).Error; err != nil {
			return err
		}
		deleted = post
		return nil
	})
	if err != nil {
		return nil, models.NewStorageError("delete post", err)
	}
	return deleted, nil
}

// mutate locks the post row, applies fn, bumps updated_at and returns the
// post as seen inside the same transaction.
func (r *PostgresPostRepository) mutate(ctx context.Context, postID, op string, fn func(tx *gorm.DB, post *models.Post) error) (*models.Post, error) {
	var updated *models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := loadPost(tx, postID, true)
		if err != nil {
			return err
		}
		if err := fn(tx, post); err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Update("updated_at", time.Now().UTC()).Error; err != nil {
			return err
		}
		updated, err = loadPost(tx, postID, false)
		return err
	})
	if err != nil {
		return nil, models.NewStorageError(op, err)
	}
	return updated, nil
}

// loadPost reads a post with its comments and like set. With lock set the
// post row is read with SELECT ... FOR UPDATE and associations are skipped.
func loadPost(db *gorm.DB, id string, lock bool) (*models.Post, error) {
	var post models.Post
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	} else {
		q = q.Preload("Comments", orderComments)
	}
	if err := q.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if lock {
		return &post, nil
	}

	post.Likes = []string{}
	if err := db.Model(&PostLike{}).Where("post_id = ?", id).Order("created_at").Pluck("user_id", &post.Likes).Error; err != nil {
		return nil, err
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return &post, nil
}

func orderComments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
