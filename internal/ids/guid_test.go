package ids

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGuidMode(t *testing.T) {
	mode, err := ParseGuidMode("")
	require.NoError(t, err)
	assert.Equal(t, GuidModeStable, mode)

	mode, err = ParseGuidMode("Fresh")
	require.NoError(t, err)
	assert.Equal(t, GuidModeFresh, mode)

	_, err = ParseGuidMode("random")
	assert.Error(t, err)
}

func TestStableGuidsAreStable(t *testing.T) {
	a := NewGuidSource(GuidModeStable, "69C966BC-C892-421F-A9D0-749E21A0745A")
	b := NewGuidSource(GuidModeStable, "69c966bc-c892-421f-a9d0-749e21a0745a")

	g1, err := a.ComponentGuid("lib/core.dll")
	require.NoError(t, err)
	g2, err := b.ComponentGuid("lib/core.dll")
	require.NoError(t, err)

	// Same path, same upgrade code (case-insensitive) means same GUID.
	assert.Equal(t, g1, g2)
	assert.Equal(t, strings.ToUpper(g1), g1)
	_, err = uuid.Parse(g1)
	assert.NoError(t, err)
}

func TestStableGuidsDifferAcrossPathsAndProducts(t *testing.T) {
	src := NewGuidSource(GuidModeStable, "69C966BC-C892-421F-A9D0-749E21A0745A")

	g1, err := src.ComponentGuid("app.exe")
	require.NoError(t, err)
	g2, err := src.ComponentGuid("lib/core.dll")
	require.NoError(t, err)
	assert.NotEqual(t, g1, g2)

	other := NewGuidSource(GuidModeStable, "00000000-0000-0000-0000-000000000001")
	g3, err := other.ComponentGuid("app.exe")
	require.NoError(t, err)
	assert.NotEqual(t, g1, g3)
}

func TestFreshGuidsDiffer(t *testing.T) {
	src := NewGuidSource(GuidModeFresh, "")

	g1, err := src.ComponentGuid("app.exe")
	require.NoError(t, err)
	g2, err := src.ComponentGuid("app.exe")
	require.NoError(t, err)
	assert.NotEqual(t, g1, g2)
}

type fakeStore struct {
	entries map[string]uuid.UUID
	stored  int
}

func (f *fakeStore) Lookup(relPath string) (uuid.UUID, bool, error) {
	id, ok := f.entries[relPath]
	return id, ok, nil
}

func (f *fakeStore) Store(relPath string, id uuid.UUID) error {
	f.entries[relPath] = id
	f.stored++
	return nil
}

func TestGuidStoreWinsOverDerivation(t *testing.T) {
	pinned := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	store := &fakeStore{entries: map[string]uuid.UUID{"app.exe": pinned}}

	src := NewGuidSource(GuidModeStable, "").WithStore(store)

	got, err := src.ComponentGuid("app.exe")
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", strings.ToLower(got))
	assert.Zero(t, store.stored)

	// Misses are derived and persisted.
	_, err = src.ComponentGuid("lib/core.dll")
	require.NoError(t, err)
	assert.Equal(t, 1, store.stored)
	_, ok := store.entries["lib/core.dll"]
	assert.True(t, ok)
}
