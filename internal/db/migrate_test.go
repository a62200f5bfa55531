package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Version)
	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
}

func TestCoreMigrationEnforcesSlotUniqueness(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)

	sql := migrations[0].SQL
	assert.True(t, strings.Contains(sql, "UNIQUE INDEX IF NOT EXISTS appointments_day_slot_key ON appointments (day, slot)"))
	assert.True(t, strings.Contains(sql, "CREATE TABLE IF NOT EXISTS visits"))
	assert.True(t, strings.Contains(sql, "CREATE TABLE IF NOT EXISTS event_logs"))
}
