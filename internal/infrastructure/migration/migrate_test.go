package migration

import (
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaguide/backend/migrations"
)

func TestListMigrations_Embedded(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"20240501030000_create_supplements",
		"20240501030100_create_user_profiles",
	}, names)
}

func TestListMigrations_IgnoresOtherFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.up.sql":    {Data: []byte("SELECT 1;")},
		"002_b.down.sql":  {Data: []byte("SELECT 1;")},
		"001_a.up.sql":    {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("notes")},
		"nested/x.up.sql": {Data: []byte("SELECT 1;")},
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a", "002_b"}, names)
}

func TestEmbeddedSource(t *testing.T) {
	src, err := EmbeddedSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(20240501030000), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(20240501030100), next)

	r, identifier, err := src.ReadUp(first)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "create_supplements", identifier)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	sql := string(body)
	assert.True(t, strings.Contains(sql, "CREATE UNIQUE INDEX IF NOT EXISTS idx_supplement_source ON supplements (source_id, source_type)"))
}
