package guidstore

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wixpack/internal/ids"
)

func TestLookupMiss(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Lookup("app.exe")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreAndLookup(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	require.NoError(t, store.Store("app.exe", id))

	got, ok, err := store.Lookup("app.exe")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got)

	// First allocation wins.
	other := uuid.MustParse("99999999-8888-7777-6666-555555555555")
	require.NoError(t, store.Store("app.exe", other))
	got, _, err = store.Lookup("app.exe")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestPersistenceAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guids.db")

	store, err := Open(path)
	require.NoError(t, err)
	id := uuid.New()
	require.NoError(t, store.Store("lib/core.dll", id))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Lookup("lib/core.dll")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestFreshGuidsBecomeStickyThroughStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guids.db")

	run := func() string {
		store, err := Open(path)
		require.NoError(t, err)
		defer store.Close()
		src := ids.NewGuidSource(ids.GuidModeFresh, "").WithStore(store)
		guid, err := src.ComponentGuid("app.exe")
		require.NoError(t, err)
		return guid
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}
