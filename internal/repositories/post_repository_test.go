package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func postDoc(id, owner string, likes ...string) bson.D {
	likesArr := bson.A{}
	for _, l := range likes {
		likesArr = append(likesArr, l)
	}
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user_id", Value: owner},
		{Key: "username", Value: "pike"},
		{Key: "text", Value: "hello"},
		{Key: "likes", Value: likesArr},
		{Key: "comments", Value: bson.A{}},
		{Key: "created_at", Value: now},
		{Key: "updated_at", Value: now},
	}
}

func TestMongoCreatePost(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		post, err := repo.CreatePost(context.Background(), "owner-1", "pike", "hello", "")
		require.NoError(mt, err)
		assert.Len(mt, post.ID, 24)
		assert.Equal(mt, "insert", mt.GetStartedEvent().CommandName)
	})

	mt.Run("validation error skips the store", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)

		_, err := repo.CreatePost(context.Background(), "owner-1", "pike", "", "")
		assert.True(mt, models.IsValidation(err))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("insert error", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 91, Message: "shutdown in progress", Name: "ShutdownInProgress",
		}))

		_, err := repo.CreatePost(context.Background(), "owner-1", "pike", "hello", "")
		var se *models.StorageError
		assert.ErrorAs(mt, err, &se)
	})
}

func TestMongoGetPostByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch, postDoc("p1", "owner-1", "alice")))

		post, err := repo.GetPostByID(context.Background(), "p1")
		require.NoError(mt, err)
		assert.Equal(mt, "owner-1", post.UserID)
		assert.Equal(mt, []string{"alice"}, post.Likes)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch))

		_, err := repo.GetPostByID(context.Background(), "missing")
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}

func TestMongoListPosts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("page with total", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(12)}}),
			mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch,
				postDoc("p2", "owner-1"), postDoc("p1", "owner-1")),
		)

		list, err := repo.ListPostsByUser(context.Background(), "owner-1", models.Page{Number: 2, Limit: 10})
		require.NoError(mt, err)
		assert.Equal(mt, int64(12), list.Total)
		assert.Equal(mt, int64(2), list.TotalPages())
		require.Len(mt, list.Posts, 2)
		assert.Equal(mt, "p2", list.Posts[0].ID)

		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 2)
		find := started[1].Command
		assert.EqualValues(mt, 10, find.Lookup("skip").AsInt64())
		assert.EqualValues(mt, 10, find.Lookup("limit").AsInt64())
		assert.Equal(mt, "owner-1", find.Lookup("filter", "user_id").StringValue())
	})
}

func TestMongoToggleLike(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("single atomic findAndModify", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: postDoc("p1", "owner-1", "alice")}))

		post, err := repo.ToggleLike(context.Background(), "p1", "alice")
		require.NoError(mt, err)
		assert.Equal(mt, []string{"alice"}, post.Likes)

		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 1, "toggle must not read before writing")
		assert.Equal(mt, "findAndModify", started[0].CommandName)
		update := started[0].Command.Lookup("update")
		_, isPipeline := update.ArrayOK()
		assert.True(mt, isPipeline, "toggle is expressed as an update pipeline")
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.ToggleLike(context.Background(), "missing", "alice")
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}

func TestMongoAddComment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("push", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		doc := postDoc("p1", "owner-1")
		doc[5] = bson.E{Key: "comments", Value: bson.A{bson.D{
			{Key: "_id", Value: "c1"},
			{Key: "username", Value: "bob"},
			{Key: "text", Value: "nice!"},
			{Key: "created_at", Value: time.Now().UTC()},
		}}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc}))

		comment, post, err := repo.AddComment(context.Background(), "p1", "bob", "nice!")
		require.NoError(mt, err)
		assert.Equal(mt, "nice!", comment.Text)
		require.Len(mt, post.Comments, 1)

		update := mt.GetStartedEvent().Command.Lookup("update").Document()
		_, err = update.LookupErr("$push", "comments")
		assert.NoError(mt, err)
	})

	mt.Run("empty text", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		_, _, err := repo.AddComment(context.Background(), "p1", "bob", "")
		assert.True(mt, models.IsValidation(err))
	})
}

func TestMongoDeletePost(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("owner", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: postDoc("p1", "owner-1")}))

		deleted, err := repo.DeletePost(context.Background(), "p1", "owner-1")
		require.NoError(mt, err)
		assert.Equal(mt, "p1", deleted.ID)
	})

	mt.Run("someone else", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch, postDoc("p1", "owner-1")),
		)

		_, err := repo.DeletePost(context.Background(), "p1", "intruder")
		assert.ErrorIs(mt, err, models.ErrForbidden)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch),
		)

		_, err := repo.DeletePost(context.Background(), "p1", "owner-1")
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}
