package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func SetupIndexes(db *mongo.Database, catalogCollection, usersCollection string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	catalogIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "refRow", Value: 1}},
			Options: options.Index().
				SetName("ref_row"),
		},
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("username_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
			Options: options.Index().
				SetName("role_index"),
		},
	}

	if _, err := db.Collection(catalogCollection).Indexes().CreateMany(ctx, catalogIndexes); err != nil {
		return fmt.Errorf("failed to create catalog indexes: %w", err)
	}

	if _, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	logger.Info("Successfully created all indexes")
	return nil
}
