// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use Docker service name as fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://mongodb:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "rentcard"
	}
	return client.Database(dbName).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist.
// Token, slug and referral code namespaces are global: their uniqueness is
// enforced here in the storage layer, never by check-then-insert.
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "rentcard"
	}

	db := client.Database(dbName)

	collections := []string{"users", "tenantProfiles", "shareTokens", "shortlinks", "referrals", "referralRewards", "sharingHistory"}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	type indexSpec struct {
		collection string
		model      mongo.IndexModel
	}

	indexes := []indexSpec{
		{
			collection: "shareTokens",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			// One active token per tenant+scope. The partial filter makes
			// concurrent get-or-create linearizable: the second insert for
			// the same tenant+scope fails on this index.
			collection: "shareTokens",
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "scope", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"revoked": false}),
			},
		},
		{
			collection: "shortlinks",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: "shortlinks",
			model:      mongo.IndexModel{Keys: bson.D{{Key: "shareTokenId", Value: 1}}},
		},
		{
			collection: "referrals",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "referralCode", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: "referrals",
			model:      mongo.IndexModel{Keys: bson.D{{Key: "referrerUserId", Value: 1}}},
		},
		{
			collection: "referrals",
			model:      mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
		},
		{
			collection: "referralRewards",
			model:      mongo.IndexModel{Keys: bson.D{{Key: "recipientUserId", Value: 1}}},
		},
		{
			collection: "referralRewards",
			model:      mongo.IndexModel{Keys: bson.D{{Key: "referralId", Value: 1}}},
		},
		{
			collection: "referralRewards",
			model:      mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
		},
		{
			collection: "tenantProfiles",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: "users",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for _, spec := range indexes {
		_, err := db.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model)
		if err != nil {
			log.Printf("Error creating index on %s: %v", spec.collection, err)
		}
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
