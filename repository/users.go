package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quetzal/middleware"
	"quetzal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UsersStore is implemented by the Mongo and SQLite user repositories.
type UsersStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

type UserRepo struct {
	MongoCollection *mongo.Collection
}

func GetUserRepo(client *mongo.Client, dbName, collection string) *UserRepo {
	return &UserRepo{
		MongoCollection: client.Database(dbName).Collection(collection),
	}
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	timer := middleware.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user model.User
	err := r.MongoCollection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		middleware.TrackError("db")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	timer := middleware.TrackDBOperation("insert", "users")
	defer timer.ObserveDuration()

	if user.Username == "" || user.PasswordHash == "" {
		return errors.New("username and password required")
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.MongoCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		middleware.TrackError("db")
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	timer := middleware.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	if passwordHash == "" {
		return errors.New("password hash required")
	}

	update := bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	}}
	result, err := r.MongoCollection.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		middleware.TrackError("db")
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
