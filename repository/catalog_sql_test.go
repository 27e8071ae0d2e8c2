package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quetzal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "quetzal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLCatalogRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("empty table", func(t *testing.T) {
		repo := NewSQLCatalogRepo(openTestDB(t))
		require.NoError(t, repo.Ping(ctx))

		_, err := repo.Load(ctx)
		assert.ErrorIs(t, err, ErrNoCatalog)
	})

	t.Run("save creates marked row", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewSQLCatalogRepo(db)

		papers := []model.Paper{{PaperID: "p1", Title: "JEE Main", Date: "10-01-2024", Std: 12, Category: model.CategoryJEE}}
		require.NoError(t, repo.Save(ctx, papers))

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, papers, got)

		var refRow string
		var version int
		require.NoError(t, db.QueryRow("SELECT ref_row, version FROM quetzal").Scan(&refRow, &version))
		assert.Equal(t, RefRowMarker, refRow)
		assert.Equal(t, 1, version)

		require.NoError(t, repo.Save(ctx, nil))
		got, err = repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*), MAX(version) FROM quetzal").Scan(&count, &version))
		assert.Equal(t, 1, count)
		assert.Equal(t, 2, version)
	})

	t.Run("prefers marked row", func(t *testing.T) {
		db := openTestDB(t)
		_, err := db.Exec(`INSERT INTO quetzal (ref_row, data) VALUES (NULL, '[{"paperID":"first"}]'), ('ref', '[{"paperID":"marked"}]')`)
		require.NoError(t, err)

		repo := NewSQLCatalogRepo(db)
		got, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "marked", got[0].PaperID)

		require.NoError(t, repo.Save(ctx, []model.Paper{{PaperID: "new"}}))
		var first string
		require.NoError(t, db.QueryRow("SELECT data FROM quetzal WHERE ref_row IS NULL").Scan(&first))
		assert.Equal(t, `[{"paperID":"first"}]`, first)
	})

	t.Run("falls back to first row", func(t *testing.T) {
		db := openTestDB(t)
		_, err := db.Exec(`INSERT INTO quetzal (ref_row, data) VALUES (NULL, '"[{\"paperID\":\"one\"}]"'), (NULL, '[]')`)
		require.NoError(t, err)

		repo := NewSQLCatalogRepo(db)
		got, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "one", got[0].PaperID)

		require.NoError(t, repo.Save(ctx, []model.Paper{{PaperID: "two"}}))
		got, err = repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "two", got[0].PaperID)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM quetzal").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("null data is empty", func(t *testing.T) {
		db := openTestDB(t)
		_, err := db.Exec(`INSERT INTO quetzal (ref_row, data) VALUES ('ref', NULL)`)
		require.NoError(t, err)

		got, err := NewSQLCatalogRepo(db).Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
	t.Run("keeps every paper with padded legacy dates", func(t *testing.T) {
		db := openTestDB(t)
		_, err := db.Exec(`INSERT INTO quetzal (ref_row, data) VALUES ('ref', '[{"paperID":"a","date":"10-01-2024","std":12},{"paperID":"b","date":{"day":"05","month":"06","year":"2023"},"std":"11th"}]')`)
		require.NoError(t, err)

		repo := NewSQLCatalogRepo(db)
		got, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.PaperDate("05-06-2023"), got[1].Date)

		require.NoError(t, repo.Save(ctx, append(got, model.Paper{PaperID: "c"})))
		got, err = repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}
