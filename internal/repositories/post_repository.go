package repositories

import (
	"context"
	"fmt"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrPostNotFound is returned when a post ID resolves to no document.
var ErrPostNotFound = fmt.Errorf("post not found")

// PostRepository defines the read surface this core needs from the Mongo
// post collection: target existence, author resolution and the
// cursor-paginated feed. Post CRUD is owned by the content service.
type PostRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	AuthorID(ctx context.Context, id string) (uint, error)

	// FeedPage returns one page of recent posts positioned by cursor,
	// newest first, and the continuation token ("" when the page was not
	// full).
	FeedPage(ctx context.Context, cur *pagination.Cursor, limit int) ([]models.Post, string, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// Exists checks whether a post with the given ID exists.
func (r *MongoPostRepository) Exists(ctx context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil // malformed ID cannot match any document
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AuthorID returns the author of the post.
func (r *MongoPostRepository) AuthorID(ctx context.Context, id string) (uint, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrPostNotFound
	}
	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrPostNotFound
		}
		return 0, err
	}
	return post.AuthorID, nil
}

// FeedPage pages the feed by the (created_at, _id) keyset, mirroring the
// SQL tuple predicate: strictly-before rows by timestamp, with the object
// ID breaking ties, so concurrent inserts never shift the scan position.
func (r *MongoPostRepository) FeedPage(ctx context.Context, cur *pagination.Cursor, limit int) ([]models.Post, string, error) {
	filter := bson.M{}
	if cur != nil {
		curID, err := primitive.ObjectIDFromHex(cur.ID)
		if err != nil {
			return nil, "", fmt.Errorf("invalid feed cursor id %q: %w", cur.ID, err)
		}
		filter = bson.M{"$or": bson.A{
			bson.M{"created_at": bson.M{"$lt": cur.Time}},
			bson.M{"created_at": cur.Time, "_id": bson.M{"$lt": curID}},
		}}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, "", err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, "", err
	}

	var next string
	if len(posts) == limit {
		last := posts[len(posts)-1]
		next = pagination.Encode(pagination.Cursor{Time: last.CreatedAt, ID: last.ID.Hex()})
	}
	return posts, next, nil
}
