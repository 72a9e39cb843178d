// Package ids allocates WiX identifiers and component GUIDs.
//
// Identifiers are derived from the full relative path, not the leaf name, so
// distinct paths rarely collide and an unchanged path keeps its identifier
// across regenerations. Collisions that do survive sanitization are resolved
// with insertion-order numeric suffixes.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/wixpack/internal/errors"
)

// maxIDLen is the WiX/MSI identifier length limit.
const maxIDLen = 72

// maxSuffix bounds the disambiguation loop; beyond this the collision is
// reported instead of resolved.
const maxSuffix = 9999

// Allocator hands out document-unique identifiers. It is not safe for
// concurrent use; the pipeline is single-threaded by design.
type Allocator struct {
	used map[string]struct{}
}

// NewAllocator creates an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{used: make(map[string]struct{})}
}

// Directory allocates an identifier for a directory node.
func (a *Allocator) Directory(relPath string) (string, error) {
	return a.allocate("Dir_", relPath)
}

// File allocates an identifier for a file node.
func (a *Allocator) File(relPath string) (string, error) {
	return a.allocate("File_", relPath)
}

// Component allocates an identifier for the component owning a file.
func (a *Allocator) Component(relPath string) (string, error) {
	return a.allocate("Comp_", relPath)
}

func (a *Allocator) allocate(prefix, relPath string) (string, error) {
	base := Sanitize(relPath)
	if base == "" {
		// Paths that sanitize to nothing still need a deterministic name.
		sum := sha256.Sum256([]byte(relPath))
		base = "id_" + hex.EncodeToString(sum[:4])
	}

	candidate := prefix + base
	if len(candidate) > maxIDLen {
		candidate = candidate[:maxIDLen]
	}

	if _, taken := a.used[candidate]; !taken {
		a.used[candidate] = struct{}{}
		return candidate, nil
	}

	// Disambiguate by insertion order, trimming the base to keep the
	// suffixed identifier within the format limit.
	for n := 1; n <= maxSuffix; n++ {
		suffix := fmt.Sprintf("_%d", n)
		trimmed := prefix + base
		if len(trimmed)+len(suffix) > maxIDLen {
			keep := maxIDLen - len(suffix)
			if keep <= len(prefix) {
				return "", errors.IdentifierCollisionError(relPath, candidate)
			}
			trimmed = trimmed[:keep]
		}
		next := trimmed + suffix
		if _, taken := a.used[next]; !taken {
			a.used[next] = struct{}{}
			return next, nil
		}
	}

	return "", errors.IdentifierCollisionError(relPath, candidate)
}

// Sanitize maps an arbitrary relative path onto the WiX identifier alphabet:
// letters, digits, underscores and periods, never starting with a digit or
// period.
func Sanitize(relPath string) string {
	var b strings.Builder
	b.Grow(len(relPath))
	for _, r := range relPath {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	s = strings.Trim(s, ".")
	if s == "" {
		return ""
	}
	if c := s[0]; (c >= '0' && c <= '9') || c == '.' {
		s = "id_" + s
	}
	return s
}
