package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/config"
	"github.com/rentcard-app/rentcard_backend/models"
)

// UserRepository reads the account projections owned by the identity
// provider. This service never writes users.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Client) *UserRepository {
	return &UserRepository{
		collection: config.GetCollection(db, "users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// TenantProfileRepository reads tenant profiles; the profile store itself is
// an external collaborator, we only need the share precondition and the
// public projection.
type TenantProfileRepository struct {
	collection *mongo.Collection
}

func NewTenantProfileRepository(db *mongo.Client) *TenantProfileRepository {
	return &TenantProfileRepository{
		collection: config.GetCollection(db, "tenantProfiles"),
	}
}

func (r *TenantProfileRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.TenantProfile, error) {
	var profile models.TenantProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *TenantProfileRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TenantProfile, error) {
	var profile models.TenantProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
