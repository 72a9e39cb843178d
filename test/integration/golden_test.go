package integration

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wixpack/internal/config"
	"git.home.luguber.info/inful/wixpack/internal/pipeline"
)

// payloadTree builds the canonical fixture: one executable at the root, a
// library below it and an empty plugin directory.
func payloadTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.exe"), []byte("exe"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib", "plugins"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "core.dll"), []byte("dll"), 0o644))
	return dir
}

func generate(t *testing.T, src string, mutate func(*config.Config)) ([]byte, *pipeline.Result) {
	t.Helper()
	cfg := config.Default()
	cfg.Product.Name = "MyApp"
	cfg.Product.Version = "1.2.3.0"
	cfg.Product.Executable = "app.exe"
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	out := filepath.Join(t.TempDir(), "app.wxs")
	result, err := pipeline.Run(context.Background(), pipeline.Request{
		SourceDir:  src,
		OutputPath: out,
		Config:     cfg,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data, result
}

func TestGolden_ManifestShape(t *testing.T) {
	data, result := generate(t, payloadTree(t), nil)
	manifest := string(data)

	assert.Equal(t, 3, result.Directories)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 2, result.Components)

	assert.Contains(t, manifest, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, manifest, `xmlns="http://schemas.microsoft.com/wix/2006/wi"`)
	assert.Contains(t, manifest, `Version="1.2.3.0"`)
	assert.Contains(t, manifest, `InstallerVersion="200"`)
	assert.Contains(t, manifest, `InstallScope="perMachine"`)
	assert.Contains(t, manifest, `EmbedCab="yes"`)
	assert.Contains(t, manifest, `<Directory Id="INSTALLFOLDER" Name="MyApp">`)
	assert.Contains(t, manifest, `<ComponentGroupRef Id="ProductComponents">`)

	// One component per file, each its own GUID keypath.
	assert.Equal(t, 2, len(regexp.MustCompile(`<Component Id="Comp_`).FindAllString(manifest, -1)))
	assert.Equal(t, 2, len(regexp.MustCompile(`KeyPath="yes"`).FindAllString(manifest, -1)))

	// The empty plugins directory appears without any component.
	assert.Contains(t, manifest, `Name="plugins"`)
}

func TestGolden_StableAcrossRuns(t *testing.T) {
	src := payloadTree(t)
	first, _ := generate(t, src, nil)
	second, _ := generate(t, src, nil)
	assert.Equal(t, first, second, "regenerating an unchanged tree must be byte-identical")
}

func TestGolden_GuidsSurviveTreeGrowth(t *testing.T) {
	src := payloadTree(t)
	before, _ := generate(t, src, nil)

	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "plugins", "extra.dll"), []byte("dll"), 0o644))
	after, _ := generate(t, src, nil)

	guidFor := func(manifest []byte, comp string) string {
		re := regexp.MustCompile(`<Component Id="` + comp + `" Guid="([0-9A-F-]+)"`)
		m := re.FindSubmatch(manifest)
		require.NotNil(t, m, "component %s not found", comp)
		return string(m[1])
	}

	assert.Equal(t, guidFor(before, "Comp_app.exe"), guidFor(after, "Comp_app.exe"))
	assert.Equal(t, guidFor(before, "Comp_lib_core.dll"), guidFor(after, "Comp_lib_core.dll"))
}

func TestGolden_ShortcutAndAssociations(t *testing.T) {
	data, result := generate(t, payloadTree(t), func(cfg *config.Config) {
		cfg.Shortcut = &config.ShortcutConfig{Name: "MyApp", Description: "Launch MyApp"}
		cfg.Associations = []config.Association{
			{Extensions: []string{"myp"}, ContentType: "application/x-myapp"},
		}
	})
	manifest := string(data)

	// Shortcut adds its own registry keypath component.
	assert.Equal(t, 3, result.Components)
	assert.Contains(t, manifest, `<Shortcut Id="ApplicationStartMenuShortcut"`)
	assert.Contains(t, manifest, `Root="HKCU"`)
	assert.Contains(t, manifest, `<RemoveFolder Id="RemoveApplicationProgramsFolder"`)

	assert.Contains(t, manifest, `<Extension Id="myp"`)
	assert.Contains(t, manifest, `Root="HKCR"`)
	assert.Contains(t, manifest, `ContentType="application/x-myapp"`)
}

func TestGolden_EmptyTreeFailsCleanly(t *testing.T) {
	cfg := config.Default()
	cfg.Product.Version = "1.0.0.0"
	out := filepath.Join(t.TempDir(), "app.wxs")

	_, err := pipeline.Run(context.Background(), pipeline.Request{
		SourceDir:  t.TempDir(),
		OutputPath: out,
		Config:     cfg,
	})
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
