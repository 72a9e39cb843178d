package wxs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wixpack/internal/config"
	"git.home.luguber.info/inful/wixpack/internal/errors"
)

func TestSerializeDeterministic(t *testing.T) {
	dir := scenarioTree(t)
	cfg := config.Default()

	first, err := buildTree(t, dir, cfg)
	require.NoError(t, err)
	second, err := buildTree(t, dir, cfg)
	require.NoError(t, err)

	out1, err := Serialize(first)
	require.NoError(t, err)
	out2, err := Serialize(second)
	require.NoError(t, err)

	assert.Equal(t, out1, out2, "identical trees must serialize byte-identically")
}

func TestSerializeShape(t *testing.T) {
	dir := scenarioTree(t)
	cfg := config.Default()
	cfg.Product.Name = "MView6"
	cfg.Product.Version = "1.0.0.0"

	doc, err := buildTree(t, dir, cfg)
	require.NoError(t, err)
	out, err := Serialize(doc)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>"))
	assert.Contains(t, text, `xmlns="http://schemas.microsoft.com/wix/2006/wi"`)
	assert.Contains(t, text, `<Package InstallerVersion="200" Compressed="yes" InstallScope="perMachine">`)
	assert.Contains(t, text, `<MediaTemplate EmbedCab="yes">`)
	assert.Contains(t, text, `<ComponentGroupRef Id="ProductComponents">`)
	assert.Contains(t, text, `<Directory Id="INSTALLFOLDER" Name="MView6">`)
	assert.Contains(t, text, `KeyPath="yes"`)
}

func TestSerializeEscapesSpecialCharacters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a&b.txt"), []byte("x"), 0o644))

	doc, err := buildTree(t, dir, config.Default())
	require.NoError(t, err)
	out, err := Serialize(doc)
	require.NoError(t, err)

	assert.Contains(t, string(out), "a&amp;b.txt")
	assert.NotContains(t, string(out), `"a&b.txt"`)
}

func TestSerializeRejectsUnrepresentablePaths(t *testing.T) {
	dir := t.TempDir()
	// Outside Windows-1252.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "данные.txt"), []byte("x"), 0o644))

	doc, err := buildTree(t, dir, config.Default())
	require.NoError(t, err)

	_, err = Serialize(doc)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryEncoding))
}
