package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesOrdered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestSchemaHasAuditTable(t *testing.T) {
	sql, err := migrationsFS.ReadFile("migrations/001_schema.sql")
	require.NoError(t, err)
	for _, table := range []string{"assets", "media_files", "quotes", "quote_media_history", "playlist_items", "users"} {
		assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestHistoryAcceptedMigration(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Contains(t, names, "002_history_accepted.sql")

	sql, err := migrationsFS.ReadFile("migrations/002_history_accepted.sql")
	require.NoError(t, err)
	assert.Contains(t, string(sql), "ADD COLUMN IF NOT EXISTS accepted BOOLEAN")
	assert.Contains(t, string(sql), "SET NOT NULL")
}
