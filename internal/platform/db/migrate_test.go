package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdersAndChecksums(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_payments.sql": {Data: []byte("CREATE TABLE payments ();")},
		"0001_init.sql":     {Data: []byte("CREATE TABLE vendors ();")},
		"README.md":         {Data: []byte("ignored")},
	}
	all, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "0001", all[0].Version)
	assert.Equal(t, "0002", all[1].Version)
	assert.Len(t, all[0].Checksum, 64)
	assert.NotEqual(t, all[0].Checksum, all[1].Checksum)
}

func TestLoadMigrationsRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_init.sql":  {Data: []byte("SELECT 1;")},
		"0001_again.sql": {Data: []byte("SELECT 2;")},
	}
	_, err := LoadMigrations(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 0001")
}

func TestPending(t *testing.T) {
	all, err := LoadMigrations(fstest.MapFS{
		"0001_init.sql": {Data: []byte("SELECT 1;")},
		"0002_more.sql": {Data: []byte("SELECT 2;")},
	})
	require.NoError(t, err)

	pending, err := Pending(all, map[string]string{"0001": all[0].Checksum})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "0002_more.sql", pending[0].Filename)

	_, err = Pending(all, map[string]string{"0001": "edited"})
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}
