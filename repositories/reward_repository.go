package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rentcard-app/rentcard_backend/config"
	"github.com/rentcard-app/rentcard_backend/models"
)

// RewardRepository persists referral rewards. Claim is the one operation in
// the whole subsystem where a race has financial consequence, so it is a
// single compare-and-set: the expected "earned" status lives in the filter.
type RewardRepository struct {
	collection *mongo.Collection
}

func NewRewardRepository(db *mongo.Client) *RewardRepository {
	return &RewardRepository{
		collection: config.GetCollection(db, "referralRewards"),
	}
}

func (r *RewardRepository) Insert(ctx context.Context, reward *models.ReferralReward) error {
	res, err := r.collection.InsertOne(ctx, reward)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		reward.ID = oid
	}
	return nil
}

func (r *RewardRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.ReferralReward, error) {
	var reward models.ReferralReward
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reward)
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *RewardRepository) ListByRecipient(ctx context.Context, recipientUserID primitive.ObjectID) ([]models.ReferralReward, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"recipientUserId": recipientUserID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rewards := []models.ReferralReward{}
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r *RewardRepository) ListByReferral(ctx context.Context, referralID primitive.ObjectID) ([]models.ReferralReward, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"referralId": referralID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rewards := []models.ReferralReward{}
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

// Claim atomically moves an earned reward to redeemed. Concurrent duplicate
// claims see mongo.ErrNoDocuments because the first winner flips the status
// out of the filter.
func (r *RewardRepository) Claim(ctx context.Context, id primitive.ObjectID, method models.RedemptionMethod, now time.Time) (*models.ReferralReward, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.RewardStatusEarned,
	}
	update := bson.M{"$set": bson.M{
		"status":           models.RewardStatusRedeemed,
		"redeemedAt":       now,
		"redemptionMethod": method,
		"updatedAt":        now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reward models.ReferralReward
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&reward)
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// ExpireStale sweeps earned and pending rewards past their expiry.
func (r *RewardRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":    bson.M{"$in": []models.RewardStatus{models.RewardStatusEarned, models.RewardStatusPending}},
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":    models.RewardStatusExpired,
		"updatedAt": now,
	}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
