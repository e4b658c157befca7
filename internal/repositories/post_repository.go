package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/mini-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository is the post interaction store. Every mutation is a single
// atomic operation against the underlying storage.
type PostRepository interface {
	CreatePost(ctx context.Context, ownerID, authorName, text, imageURL string) (*models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, page models.Page) (*models.PostList, error)
	ListPostsByUser(ctx context.Context, ownerID string, page models.Page) (*models.PostList, error)
	// ToggleLike removes userID from the like set if present and adds it
	// otherwise, returning the post as stored after the flip.
	ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error)
	// SetLike is the idempotent form of ToggleLike.
	SetLike(ctx context.Context, postID, userID string, liked bool) (*models.Post, error)
	AddComment(ctx context.Context, postID, authorName, text string) (*models.Comment, *models.Post, error)
	// DeletePost removes the post if requestingUserID owns it and returns the
	// removed post so the caller can release its image.
	DeletePost(ctx context.Context, postID, requestingUserID string) (*models.Post, error)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes backing the newest-first listings.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return models.NewStorageError("create post indexes", err)
}

// CreatePost validates and inserts a new post
func (r *MongoPostRepository) CreatePost(ctx context.Context, ownerID, authorName, text, imageURL string) (*models.Post, error) {
	post, err := models.NewPost(ownerID, authorName, text, imageURL)
	if err != nil {
		return nil, err
	}
	post.ID = newID()

	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return nil, models.NewStorageError("insert post", err)
	}
	return post, nil
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, models.NewStorageError("find post", err)
	}
	return &post, nil
}

// ListPosts returns one page of all posts, newest first
func (r *MongoPostRepository) ListPosts(ctx context.Context, page models.Page) (*models.PostList, error) {
	return r.list(ctx, bson.M{}, page)
}

// ListPostsByUser returns one page of the posts owned by ownerID, newest first
func (r *MongoPostRepository) ListPostsByUser(ctx context.Context, ownerID string, page models.Page) (*models.PostList, error) {
	return r.list(ctx, bson.M{"user_id": ownerID}, page)
}

func (r *MongoPostRepository) list(ctx context.Context, filter bson.M, page models.Page) (*models.PostList, error) {
	page = page.Normalize()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, models.NewStorageError("count posts", err)
	}

	findOptions := options.Find().
		SetSkip(int64(page.Skip())).
		SetLimit(int64(page.Limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, models.NewStorageError("find posts", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, models.NewStorageError("decode posts", err)
	}
	return &models.PostList{Posts: posts, Total: total, Page: page}, nil
}

// ToggleLike flips the membership of userID in a single findAndModify whose
// update is an aggregation pipeline, so the membership test and the write
// happen inside one document-level atomic operation.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	uid := bson.M{"$literal": userID}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.M{
				"if": bson.M{"$in": bson.A{uid, likes}},
				"then": bson.M{"$filter": bson.M{
					"input": likes,
					"cond":  bson.M{"$ne": bson.A{"$$this", uid}},
				}},
				"else": bson.M{"$concatArrays": bson.A{likes, bson.A{uid}}},
			}},
			"updated_at": time.Now().UTC(),
		}}},
	}
	return r.findOneAndUpdate(ctx, postID, update, "toggle like")
}

// SetLike adds userID with $addToSet or removes it with $pull
func (r *MongoPostRepository) SetLike(ctx context.Context, postID, userID string, liked bool) (*models.Post, error) {
	op := "$pull"
	if liked {
		op = "$addToSet"
	}
	update := bson.M{
		op:     bson.M{"likes": userID},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, postID, update, "set like")
}

// AddComment appends a comment with $push; comments are kept in
// chronological order, oldest first.
func (r *MongoPostRepository) AddComment(ctx context.Context, postID, authorName, text string) (*models.Comment, *models.Post, error) {
	comment, err := models.NewComment(authorName, text)
	if err != nil {
		return nil, nil, err
	}
	comment.ID = newID()

	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": comment.CreatedAt},
	}
	post, err := r.findOneAndUpdate(ctx, postID, update, "add comment")
	if err != nil {
		return nil, nil, err
	}
	return comment, post, nil
}

// DeletePost deletes the post only when the owner matches. The ownership
// check is part of the delete filter; a miss is disambiguated afterwards.
func (r *MongoPostRepository) DeletePost(ctx context.Context, postID, requestingUserID string) (*models.Post, error) {
	var deleted models.Post
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": postID, "user_id": requestingUserID}).Decode(&deleted)
	if err == nil {
		return &deleted, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NewStorageError("delete post", err)
	}

	if _, err := r.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	return nil, models.ErrForbidden
}

func (r *MongoPostRepository) findOneAndUpdate(ctx context.Context, postID string, update interface{}, op string) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, models.NewStorageError(op, err)
	}
	return &post, nil
}
