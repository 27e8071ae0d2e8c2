package utils

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOptions struct {
	URI             string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	RetryWrites     bool
}

// NewMongoClient connects lazily; reachability is checked later by the
// catalog's ping so an unreachable store degrades instead of failing startup.
func NewMongoClient(ctx context.Context, opts MongoOptions) (*mongo.Client, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("MongoDB URI is not set")
	}

	clientOptions := options.Client().
		ApplyURI(opts.URI).
		SetRetryWrites(opts.RetryWrites)
	if opts.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.MaxConnIdleTime > 0 {
		clientOptions.SetMaxConnIdleTime(opts.MaxConnIdleTime)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return client, nil
}
