package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quetzal/model"
)

const (
	// RefRowMarker tags the row that holds the catalog.
	RefRowMarker = "ref"
	// scanLimit bounds how many rows are inspected to find the catalog row.
	scanLimit = 10
)

var ErrNoCatalog = errors.New("catalog row not found")

// CatalogBackend stores the whole paper list as one value. Load returns
// ErrNoCatalog when the table holds no row at all.
type CatalogBackend interface {
	Ping(ctx context.Context) error
	Load(ctx context.Context) ([]model.Paper, error)
	Save(ctx context.Context, papers []model.Paper) error
}

// decodePapers accepts the JSON text of the data column. Empty and null
// values decode to an empty list.
func decodePapers(raw []byte) ([]model.Paper, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []model.Paper{}, nil
	}

	// Some rows hold the array JSON-encoded a second time as a string.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("failed to decode catalog data: %w", err)
		}
		return decodePapers([]byte(inner))
	}

	var papers []model.Paper
	if err := json.Unmarshal(raw, &papers); err != nil {
		return nil, fmt.Errorf("failed to decode catalog data: %w", err)
	}
	if papers == nil {
		papers = []model.Paper{}
	}
	return papers, nil
}

func encodePapers(papers []model.Paper) ([]byte, error) {
	if papers == nil {
		papers = []model.Paper{}
	}
	data, err := json.Marshal(papers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog data: %w", err)
	}
	return data, nil
}
