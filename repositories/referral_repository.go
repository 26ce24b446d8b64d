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

// ReferralRepository persists referrals. All status transitions are
// conditional updates with the expected current status in the filter, so the
// state machine can only move forward even under concurrent requests.
type ReferralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Client) *ReferralRepository {
	return &ReferralRepository{
		collection: config.GetCollection(db, "referrals"),
	}
}

func (r *ReferralRepository) Insert(ctx context.Context, referral *models.Referral) error {
	res, err := r.collection.InsertOne(ctx, referral)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		referral.ID = oid
	}
	return nil
}

func (r *ReferralRepository) FindByCode(ctx context.Context, code string) (*models.Referral, error) {
	var referral models.Referral
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&referral)
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *ReferralRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	var referral models.Referral
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&referral)
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// Convert transitions pending -> converted in a single conditional update.
// Returns mongo.ErrNoDocuments when no pending referral carries the code,
// leaving it to the caller to distinguish "absent" from "already moved on".
func (r *ReferralRepository) Convert(ctx context.Context, code string, refereeUserID primitive.ObjectID, refereeEmail string, event models.ConversionEvent, referrerEligible, refereeEligible bool, now time.Time) (*models.Referral, error) {
	filter := bson.M{
		"referralCode": code,
		"status":       models.ReferralStatusPending,
	}
	set := bson.M{
		"status":                 models.ReferralStatusConverted,
		"conversionEvent":        event,
		"convertedAt":            now,
		"refereeUserId":          refereeUserID,
		"placeholderReferee":     false,
		"referrerRewardEligible": referrerEligible,
		"refereeRewardEligible":  refereeEligible,
		"updatedAt":              now,
	}
	if refereeEmail != "" {
		set["refereeEmail"] = refereeEmail
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var referral models.Referral
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&referral)
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// MarkRewarded transitions converted -> rewarded once rewards were issued.
func (r *ReferralRepository) MarkRewarded(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	filter := bson.M{"_id": id, "status": models.ReferralStatusConverted}
	update := bson.M{"$set": bson.M{
		"status":    models.ReferralStatusRewarded,
		"updatedAt": now,
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// ExpireByCode transitions pending -> expired, only once past expiresAt.
func (r *ReferralRepository) ExpireByCode(ctx context.Context, code string, now time.Time) (*models.Referral, error) {
	filter := bson.M{
		"referralCode": code,
		"status":       models.ReferralStatusPending,
		"expiresAt":    bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":    models.ReferralStatusExpired,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var referral models.Referral
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&referral)
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// ExpirePending is the background sweep: every pending referral past its
// expiry moves to expired. Idempotent and safe to run concurrently with
// user-facing requests.
func (r *ReferralRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":    models.ReferralStatusPending,
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":    models.ReferralStatusExpired,
		"updatedAt": now,
	}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListByStatus feeds the reconciliation sweep with converted referrals whose
// rewards were never fully issued.
func (r *ReferralRepository) ListByStatus(ctx context.Context, status models.ReferralStatus) ([]models.Referral, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	referrals := []models.Referral{}
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, err
	}
	return referrals, nil
}

func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerUserID primitive.ObjectID) ([]models.Referral, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"referrerUserId": referrerUserID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	referrals := []models.Referral{}
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, err
	}
	return referrals, nil
}
