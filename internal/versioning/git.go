// Package versioning resolves the product version from the source tree's
// enclosing git repository when the configuration does not pin one.
package versioning

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/wixpack/internal/logfields"
)

// semverTag matches release tags like v1.2.3 or 1.2.3.
var semverTag = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// fallbackVersion is used when the tree is not inside a repository at all.
const fallbackVersion = "0.0.0.0"

// Resolve returns a four-part MSI version for the tree at sourceDir.
//
// A semver tag pointing at HEAD wins; otherwise the version is 0.0.0 with
// the build field left at 0 and the commit recorded only in logs. MSI
// versions are strictly numeric, so the commit hash cannot ride along.
func Resolve(sourceDir string) string {
	repo, err := git.PlainOpenWithOptions(sourceDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("No git repository found for version resolution", logfields.Path(sourceDir), logfields.Error(err))
		return fallbackVersion
	}

	head, err := repo.Head()
	if err != nil {
		slog.Debug("Cannot resolve repository HEAD", logfields.Path(sourceDir), logfields.Error(err))
		return fallbackVersion
	}

	if v, ok := tagAt(repo, head.Hash()); ok {
		slog.Info("Product version resolved from git tag",
			logfields.Path(sourceDir),
			slog.String("version", v))
		return v
	}

	slog.Info("No release tag at HEAD, using fallback version",
		logfields.Path(sourceDir),
		slog.String("commit", head.Hash().String()[:8]))
	return fallbackVersion
}

// tagAt returns the MSI version for a semver tag pointing at hash, if any.
func tagAt(repo *git.Repository, hash plumbing.Hash) (string, bool) {
	tags, err := repo.Tags()
	if err != nil {
		return "", false
	}
	defer tags.Close()

	var found string
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		// Annotated tags point at a tag object, not the commit.
		if obj, err := repo.TagObject(ref.Hash()); err == nil {
			target = obj.Target
		}
		if target != hash {
			return nil
		}

		name := strings.TrimPrefix(ref.Name().String(), "refs/tags/")
		m := semverTag.FindStringSubmatch(name)
		if m == nil {
			return nil
		}
		found = fmt.Sprintf("%s.%s.%s.0", m[1], m[2], m[3])
		return nil
	})

	return found, found != ""
}
