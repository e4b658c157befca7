package repositories

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPostLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)
	assert.Empty(t, post.Likes)
	assert.Empty(t, post.Comments)

	post, err = repo.ToggleLike(ctx, post.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, post.Likes)

	post, err = repo.ToggleLike(ctx, post.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, post.Likes)

	comment, post, err := repo.AddComment(ctx, post.ID, "bob", "nice!")
	require.NoError(t, err)
	assert.Equal(t, "bob", comment.Username)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "bob", post.Comments[0].Username)
	assert.Equal(t, "nice!", post.Comments[0].Text)

	_, err = repo.DeletePost(ctx, post.ID, "someoneElse")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err, "post must survive a forbidden delete")

	deleted, err := repo.DeletePost(ctx, post.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, post.ID, deleted.ID)

	_, err = repo.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryCreatePostValidation(t *testing.T) {
	repo := NewMemoryPostRepository()
	_, err := repo.CreatePost(context.Background(), "owner-1", "pike", "", "")
	assert.True(t, models.IsValidation(err))

	list, err := repo.ListPosts(context.Background(), models.Page{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestMemoryGetPostIsStable(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)

	first, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	second, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// returned posts are copies
	first.Likes = append(first.Likes, "mallory")
	third, _ := repo.GetPostByID(ctx, post.ID)
	assert.Empty(t, third.Likes)
}

func TestMemoryToggleLaw(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)
	_, err = repo.ToggleLike(ctx, post.ID, "carol")
	require.NoError(t, err)

	for n := 1; n <= 6; n++ {
		var got *models.Post
		for i := 0; i < n; i++ {
			got, err = repo.ToggleLike(ctx, post.ID, "alice")
			require.NoError(t, err)
		}
		assert.Equal(t, n%2 == 1, got.LikedBy("alice"), "after %d toggles", n)
		assert.True(t, got.LikedBy("carol"), "other members are untouched")
		if n%2 == 1 {
			_, err = repo.ToggleLike(ctx, post.ID, "alice")
			require.NoError(t, err)
		}
	}
}

func TestMemoryToggleLikeNotFound(t *testing.T) {
	_, err := NewMemoryPostRepository().ToggleLike(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)

	const users = 64
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := fmt.Sprintf("user-%d", i)
			// odd users toggle three times, even users twice
			toggles := 2 + i%2
			for j := 0; j < toggles; j++ {
				_, err := repo.ToggleLike(ctx, post.ID, uid)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, users/2)
	for i := 0; i < users; i++ {
		assert.Equal(t, i%2 == 1, got.LikedBy(fmt.Sprintf("user-%d", i)))
	}
}

func TestMemoryConcurrentComments(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := repo.AddComment(ctx, post.ID, "bob", fmt.Sprintf("comment %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 50)
}

func TestMemoryCommentOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)

	for _, text := range []string{"C1", "C2", "C3"} {
		_, _, err := repo.AddComment(ctx, post.ID, "bob", text)
		require.NoError(t, err)
	}
	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)

	texts := make([]string, len(got.Comments))
	for i, c := range got.Comments {
		texts[i] = c.Text
	}
	assert.Equal(t, []string{"C1", "C2", "C3"}, texts)
}

func TestMemoryAddCommentValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)

	_, _, err = repo.AddComment(ctx, post.ID, "bob", "   ")
	assert.True(t, models.IsValidation(err))

	_, _, err = repo.AddComment(ctx, "missing", "bob", "hi")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemorySetLikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	post, err := repo.CreatePost(ctx, "owner-1", "pike", "hello", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		post, err = repo.SetLike(ctx, post.ID, "alice", true)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"alice"}, post.Likes)

	for i := 0; i < 2; i++ {
		post, err = repo.SetLike(ctx, post.ID, "alice", false)
		require.NoError(t, err)
	}
	assert.Empty(t, post.Likes)
}

func TestMemoryListPosts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		owner := "owner-a"
		if i%5 == 0 {
			owner = "owner-b"
		}
		repo.Insert(&models.Post{
			ID:        fmt.Sprintf("p%02d", i),
			UserID:    owner,
			Username:  owner,
			Text:      fmt.Sprintf("post %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	list, err := repo.ListPosts(ctx, models.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), list.Total)
	assert.Equal(t, int64(3), list.TotalPages())
	require.Len(t, list.Posts, 10)
	assert.Equal(t, "p24", list.Posts[0].ID)

	list, err = repo.ListPosts(ctx, models.Page{Number: 3, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Posts, 5)
	assert.Equal(t, "p00", list.Posts[4].ID)

	list, err = repo.ListPostsByUser(ctx, "owner-b", models.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), list.Total)
	assert.Equal(t, "p20", list.Posts[0].ID)

	list, err = repo.ListPosts(ctx, models.ParsePage("4611686018427387905", "10"))
	require.NoError(t, err)
	assert.Empty(t, list.Posts)
	assert.Equal(t, int64(25), list.Total)

	list, err = repo.ListPosts(ctx, models.Page{Number: math.MaxInt, Limit: models.MaxPageLimit})
	require.NoError(t, err)
	assert.Empty(t, list.Posts)
}
