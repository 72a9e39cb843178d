package ids

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GuidMode selects the component GUID derivation policy.
type GuidMode string

const (
	// GuidModeStable derives GUIDs deterministically from the relative
	// path, so reruns over an unchanged tree reuse identical GUIDs. This
	// is what correct MSI upgrade and patch behavior depends on, and it
	// is the default.
	GuidModeStable GuidMode = "stable"

	// GuidModeFresh mints a new random GUID per run, treating every
	// generation as a new install image.
	GuidModeFresh GuidMode = "fresh"
)

// wixpackNamespace seeds stable GUID derivation. Changing it would change
// every stable GUID ever emitted, so it never changes.
var wixpackNamespace = uuid.MustParse("8e3e2041-6f2b-4f5e-9c36-b51d2a7c35da")

// GuidStore persists path→GUID allocations across runs. Implementations may
// return (uuid.Nil, false, nil) on a miss.
type GuidStore interface {
	Lookup(relPath string) (uuid.UUID, bool, error)
	Store(relPath string, id uuid.UUID) error
}

// GuidSource produces component GUIDs under a fixed policy.
type GuidSource struct {
	mode      GuidMode
	namespace uuid.UUID
	store     GuidStore
}

// ParseGuidMode validates a configured mode string.
func ParseGuidMode(s string) (GuidMode, error) {
	switch GuidMode(strings.ToLower(strings.TrimSpace(s))) {
	case GuidModeStable, "":
		return GuidModeStable, nil
	case GuidModeFresh:
		return GuidModeFresh, nil
	default:
		return "", fmt.Errorf("unknown guid mode %q (want stable or fresh)", s)
	}
}

// NewGuidSource creates a GUID source. The namespace for stable derivation is
// itself derived from the product upgrade code so two products with identical
// file layouts never share component GUIDs. An empty upgrade code falls back
// to the package namespace.
func NewGuidSource(mode GuidMode, upgradeCode string) *GuidSource {
	ns := wixpackNamespace
	if upgradeCode != "" {
		ns = uuid.NewSHA1(wixpackNamespace, []byte(strings.ToUpper(upgradeCode)))
	}
	return &GuidSource{mode: mode, namespace: ns}
}

// WithStore attaches a persistent GUID store. Stored GUIDs win over derived
// ones, which makes even fresh-mode GUIDs stable from the second run on.
func (g *GuidSource) WithStore(store GuidStore) *GuidSource {
	g.store = store
	return g
}

// Mode returns the configured derivation policy.
func (g *GuidSource) Mode() GuidMode {
	return g.mode
}

// ComponentGuid returns the GUID for the component owning relPath, formatted
// uppercase as MSI requires.
func (g *GuidSource) ComponentGuid(relPath string) (string, error) {
	if g.store != nil {
		id, ok, err := g.store.Lookup(relPath)
		if err != nil {
			return "", fmt.Errorf("guid cache lookup for %s: %w", relPath, err)
		}
		if ok {
			return strings.ToUpper(id.String()), nil
		}
	}

	var id uuid.UUID
	switch g.mode {
	case GuidModeFresh:
		id = uuid.New()
	default:
		id = uuid.NewSHA1(g.namespace, []byte(relPath))
	}

	if g.store != nil {
		if err := g.store.Store(relPath, id); err != nil {
			return "", fmt.Errorf("guid cache store for %s: %w", relPath, err)
		}
	}

	return strings.ToUpper(id.String()), nil
}
