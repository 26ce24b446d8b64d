package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/config"
	"github.com/rentcard-app/rentcard_backend/models"
)

// ShortlinkRepository persists shortlinks. Slug uniqueness is enforced by a
// unique index; Insert surfaces the duplicate key error so the service can
// retry with a fresh slug.
type ShortlinkRepository struct {
	collection *mongo.Collection
}

func NewShortlinkRepository(db *mongo.Client) *ShortlinkRepository {
	return &ShortlinkRepository{
		collection: config.GetCollection(db, "shortlinks"),
	}
}

func (r *ShortlinkRepository) Insert(ctx context.Context, link *models.Shortlink) error {
	res, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		link.ID = oid
	}
	return nil
}

func (r *ShortlinkRepository) FindBySlug(ctx context.Context, slug string) (*models.Shortlink, error) {
	var link models.Shortlink
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *ShortlinkRepository) IncrementClicks(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"clickCount": 1}})
	return err
}
