package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rentcard-app/rentcard_backend/config"
	"github.com/rentcard-app/rentcard_backend/models"
)

// SharingHistoryRepository is append-only; there is deliberately no update
// or delete here.
type SharingHistoryRepository struct {
	collection *mongo.Collection
}

func NewSharingHistoryRepository(db *mongo.Client) *SharingHistoryRepository {
	return &SharingHistoryRepository{
		collection: config.GetCollection(db, "sharingHistory"),
	}
}

func (r *SharingHistoryRepository) Insert(ctx context.Context, record *models.SharingHistoryRecord) error {
	res, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid
	}
	return nil
}

func (r *SharingHistoryRepository) ListByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]models.SharingHistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"tenantId": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.SharingHistoryRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
