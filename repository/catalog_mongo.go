package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quetzal/middleware"
	"quetzal/model"
)

type CatalogRepo struct {
	MongoCollection *mongo.Collection
}

type catalogDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RefRow    string             `bson:"refRow,omitempty"`
	Data      bson.RawValue      `bson:"data,omitempty"`
	Version   int64              `bson:"version"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func GetCatalogRepo(client *mongo.Client, dbName, collection string) *CatalogRepo {
	return &CatalogRepo{
		MongoCollection: client.Database(dbName).Collection(collection),
	}
}

// Ping runs a trivial query against the catalog collection, which checks both
// connectivity and authorisation.
func (r *CatalogRepo) Ping(ctx context.Context) error {
	timer := middleware.TrackDBOperation("ping", "catalog")
	defer timer.ObserveDuration()

	err := r.MongoCollection.FindOne(ctx, bson.M{}).Err()
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("catalog store unreachable: %w", err)
	}
	return nil
}

func (r *CatalogRepo) Load(ctx context.Context) ([]model.Paper, error) {
	timer := middleware.TrackDBOperation("find", "catalog")
	defer timer.ObserveDuration()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(scanLimit)

	cursor, err := r.MongoCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []catalogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode catalog rows: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoCatalog
	}

	doc := docs[0]
	for _, d := range docs {
		if d.RefRow == RefRowMarker {
			doc = d
			break
		}
	}

	raw, err := rawValueJSON(doc.Data)
	if err != nil {
		return nil, err
	}
	return decodePapers(raw)
}

// Save rewrites the data of the marked row, else of the oldest row, else
// inserts a new marked row.
func (r *CatalogRepo) Save(ctx context.Context, papers []model.Paper) error {
	timer := middleware.TrackDBOperation("update", "catalog")
	defer timer.ObserveDuration()

	if papers == nil {
		papers = []model.Paper{}
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"data": papers, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, bson.M{"refRow": RefRowMarker}, update)
	if err != nil {
		return fmt.Errorf("failed to update catalog: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	var first catalogDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	err = r.MongoCollection.FindOne(ctx, bson.M{}, opts).Decode(&first)
	switch {
	case err == nil:
		if _, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": first.ID}, update); err != nil {
			return fmt.Errorf("failed to update catalog: %w", err)
		}
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		doc := bson.M{
			"refRow":     RefRowMarker,
			"data":       papers,
			"version":    int64(1),
			"updated_at": now,
		}
		if _, err := r.MongoCollection.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("failed to create catalog row: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to read catalog: %w", err)
	}
}

// rawValueJSON turns the data field into JSON text. The field holds either a
// native array or a JSON string.
func rawValueJSON(v bson.RawValue) ([]byte, error) {
	switch v.Type {
	case 0, bson.TypeNull, bson.TypeUndefined:
		return nil, nil
	case bson.TypeString:
		return []byte(v.StringValue()), nil
	case bson.TypeArray:
		ext, err := bson.MarshalExtJSON(bson.D{{Key: "data", Value: v}}, false, false)
		if err != nil {
			return nil, fmt.Errorf("failed to convert catalog data: %w", err)
		}
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(ext, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to convert catalog data: %w", err)
		}
		return wrapper.Data, nil
	default:
		return nil, fmt.Errorf("unsupported catalog data type %s", v.Type)
	}
}
