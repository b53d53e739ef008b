package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_EmbebidasEnOrden(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.Len(t, files, 4)
	assert.True(t, strings.HasSuffix(files[0], "_warehouses.sql"))
	assert.True(t, strings.HasSuffix(files[3], "_orders.sql"))
}

func TestInventoryRecordsMigration_Restricciones(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_inventory_records.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS inventory_records",
		"CHECK (quantity >= 0)",
		"CHECK (max_stock_level > min_stock_level)",
		"UNIQUE (company_id, sku, batch_id, warehouse_id)",
		"DROP TABLE IF EXISTS inventory_records",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestMigraciones_TienenUpYDown(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	for _, name := range files {
		data, err := migrationsFS.ReadFile(Dir + "/" + name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", name)
		assert.Contains(t, string(data), "-- +goose Down", name)
	}
}
