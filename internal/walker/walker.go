// Package walker produces a deterministic snapshot of a build-output tree.
//
// Sibling entries are always sorted lexicographically by name before
// processing. Filesystem iteration order is platform-dependent; sorted
// traversal is what makes regenerated manifests byte-comparable, so it is
// treated as a hard invariant rather than an incidental detail.
package walker

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/wixpack/internal/errors"
	"git.home.luguber.info/inful/wixpack/internal/logfields"
)

// Kind distinguishes file and directory nodes.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node is one entry in the source tree snapshot. RelPath is slash-separated
// and empty for the root. The tree is immutable after Walk returns.
type Node struct {
	RelPath  string
	AbsPath  string
	Kind     Kind
	Children []*Node // directories only, sorted by name
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Kind == KindDirectory
}

// FileCount returns the number of file nodes in the subtree rooted at n.
func (n *Node) FileCount() int {
	if n.Kind == KindFile {
		return 1
	}
	count := 0
	for _, child := range n.Children {
		count += child.FileCount()
	}
	return count
}

// DirCount returns the number of directory nodes in the subtree, including n.
func (n *Node) DirCount() int {
	if n.Kind == KindFile {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += child.DirCount()
	}
	return count
}

// Walk builds the snapshot for the tree rooted at root.
//
// It fails with a not_found error when root does not exist, not_a_directory
// when root is a regular file, and cycle when a symbolic link points back at
// one of its own ancestors. The traversal is read-only.
func Walk(root string) (*Node, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "resolve source root")
	}

	info, err := os.Stat(absRoot)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundError(root)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "stat source root").
			WithContext("path", root)
	}
	if !info.IsDir() {
		return nil, errors.NotADirectoryError(root)
	}

	w := &treeWalker{ancestors: make(map[string]struct{})}
	node, err := w.walkDir(absRoot, "")
	if err != nil {
		return nil, err
	}

	slog.Debug("Source tree walked",
		logfields.Path(absRoot),
		logfields.Files(node.FileCount()),
		logfields.Dirs(node.DirCount()))

	return node, nil
}

type treeWalker struct {
	// ancestors holds the canonical paths of directories on the current
	// descent; re-entering one of them means a symlink cycle.
	ancestors map[string]struct{}
}

func (w *treeWalker) walkDir(absPath, relPath string) (*Node, error) {
	canonical, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "resolve directory").
			WithContext("path", absPath)
	}

	if _, seen := w.ancestors[canonical]; seen {
		pathForError := relPath
		if pathForError == "" {
			pathForError = absPath
		}
		return nil, errors.CycleError(pathForError)
	}
	w.ancestors[canonical] = struct{}{}
	defer delete(w.ancestors, canonical)

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "read directory").
			WithContext("path", absPath)
	}

	// ReadDir already sorts, but the ordering invariant is load-bearing
	// enough to enforce here rather than inherit.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	node := &Node{
		RelPath: relPath,
		AbsPath: absPath,
		Kind:    KindDirectory,
	}

	for _, entry := range entries {
		childAbs := filepath.Join(absPath, entry.Name())
		childRel := path.Join(relPath, entry.Name())
		if relPath == "" {
			childRel = entry.Name()
		}

		// Follow symlinks so linked directories are traversed (and
		// cycle-checked) instead of recorded as opaque files.
		info, err := os.Stat(childAbs)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "stat entry").
				WithContext("path", childAbs)
		}

		if info.IsDir() {
			child, err := w.walkDir(childAbs, childRel)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
			continue
		}

		node.Children = append(node.Children, &Node{
			RelPath: childRel,
			AbsPath: childAbs,
			Kind:    KindFile,
		})
	}

	return node, nil
}
