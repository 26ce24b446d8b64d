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

// ShareTokenRepository persists share tokens in the shareTokens collection.
// The partial unique index on (tenantId, scope) where revoked=false is what
// linearizes concurrent get-or-create calls; Insert surfaces the duplicate
// key error so the service can fall back to the surviving token.
type ShareTokenRepository struct {
	collection *mongo.Collection
}

func NewShareTokenRepository(db *mongo.Client) *ShareTokenRepository {
	return &ShareTokenRepository{
		collection: config.GetCollection(db, "shareTokens"),
	}
}

func (r *ShareTokenRepository) Insert(ctx context.Context, token *models.ShareToken) error {
	res, err := r.collection.InsertOne(ctx, token)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		token.ID = oid
	}
	return nil
}

func (r *ShareTokenRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.ShareToken, error) {
	var token models.ShareToken
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *ShareTokenRepository) FindByToken(ctx context.Context, tokenStr string) (*models.ShareToken, error) {
	var token models.ShareToken
	err := r.collection.FindOne(ctx, bson.M{"token": tokenStr}).Decode(&token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// FindLatestActive returns the most recently created non-revoked,
// non-expired token for the tenant+scope, or mongo.ErrNoDocuments.
func (r *ShareTokenRepository) FindLatestActive(ctx context.Context, tenantID primitive.ObjectID, scope string, now time.Time) (*models.ShareToken, error) {
	filter := bson.M{
		"tenantId": tenantID,
		"scope":    scope,
		"revoked":  false,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$gt": now}},
		},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var token models.ShareToken
	err := r.collection.FindOne(ctx, filter, opts).Decode(&token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *ShareTokenRepository) ListByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]models.ShareToken, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"tenantId": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tokens := []models.ShareToken{}
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// RevokeExpired retires expired-but-unrevoked tokens for a tenant+scope.
// Those tokens still occupy the partial unique index slot, so minting a
// replacement needs them revoked first.
func (r *ShareTokenRepository) RevokeExpired(ctx context.Context, tenantID primitive.ObjectID, scope string, now time.Time) (int64, error) {
	filter := bson.M{
		"tenantId":  tenantID,
		"scope":     scope,
		"revoked":   false,
		"expiresAt": bson.M{"$lte": now},
	}
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Revoke soft-revokes the token and returns the updated document. Revoking
// an already-revoked token is a no-op success.
func (r *ShareTokenRepository) Revoke(ctx context.Context, id primitive.ObjectID) (*models.ShareToken, error) {
	update := bson.M{"$set": bson.M{"revoked": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var token models.ShareToken
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// IncrementViewIfValid bumps viewCount and lastViewedAt only while the token
// is still valid. The validity check and the update are one conditional
// write, so a concurrent revoke can never lose against a view. Returns
// whether a document was updated.
func (r *ShareTokenRepository) IncrementViewIfValid(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":     id,
		"revoked": false,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$gt": now}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"viewCount": 1},
		"$set": bson.M{"lastViewedAt": now},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
