package migration

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulmuralitechnology/cartzilla-sub003/migrations"
)

func TestListVersions_Embedded(t *testing.T) {
	versions, err := ListVersions(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, versions)
}

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestEmbeddedMigrations_CreateSyncTables(t *testing.T) {
	up, err := fs.ReadFile(migrations.FS, "000002_create_erp_document_links.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "UNIQUE (tenant_id, entity_kind, external_id)")

	up, err = fs.ReadFile(migrations.FS, "000001_create_tenant_erp_configs.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "api_secret_encrypted")
}

func TestListVersions_Custom(t *testing.T) {
	src := fstest.MapFS{
		"10_b.up.sql":  {Data: []byte("SELECT 1;")},
		"2_a.up.sql":   {Data: []byte("SELECT 1;")},
		"2_a.down.sql": {Data: []byte("SELECT 1;")},
	}
	versions, err := ListVersions(src)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 10}, versions)
}

func TestListVersions_Empty(t *testing.T) {
	versions, err := ListVersions(fstest.MapFS{"README.md": {Data: []byte("x")}})
	require.NoError(t, err)
	assert.Empty(t, versions)
}
