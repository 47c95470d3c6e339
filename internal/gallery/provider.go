package gallery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"simple-gallery/internal/filesystem"
	"simple-gallery/internal/mediatypes"
)

var (
	// ErrNotFound is returned for names that do not denote a regular file.
	ErrNotFound = errors.New("file not found")

	// ErrOutsideRoot is returned for names that resolve outside the gallery
	// root, directly or through a symlink.
	ErrOutsideRoot = errors.New("path outside gallery root")

	// ErrFoldersDisabled is returned by FlatProvider for names that contain
	// a directory part.
	ErrFoldersDisabled = errors.New("folders are disabled")
)

// Provider maps request file names to originals.
type Provider interface {
	// Root returns the canonical gallery root.
	Root() string
	// Resolve returns the canonical path of the regular file name refers to.
	Resolve(name string) (string, error)
	// List returns the supported image files directly inside the root.
	List() ([]string, error)
}

// New returns a TreeProvider when allowFolders is set and a FlatProvider
// otherwise.
func New(root string, types mediatypes.Table, allowFolders bool) (Provider, error) {
	b, err := newBase(root, types)
	if err != nil {
		return nil, err
	}
	if allowFolders {
		return &TreeProvider{base: b}, nil
	}
	return &FlatProvider{base: b}, nil
}

type base struct {
	root  string
	types mediatypes.Table
}

func newBase(root string, types mediatypes.Table) (base, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return base{}, fmt.Errorf("gallery root %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return base{}, fmt.Errorf("gallery root %s: %w", root, err)
	}
	if len(types) == 0 {
		types = mediatypes.DefaultTable()
	}
	return base{root: resolved, types: types}, nil
}

func (b base) Root() string {
	return b.root
}

// List returns the names of the supported image files in the root, sorted
// case-insensitively.
func (b base) List() ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", b.root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !b.types.IsImageFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}

	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// resolve canonicalises rel relative to the root.
func (b base) resolve(rel string) (string, error) {
	full := filepath.Join(b.root, filepath.FromSlash(rel))

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}

	if !isSubPath(b.root, resolved) {
		return "", fmt.Errorf("%s: %w", rel, ErrOutsideRoot)
	}

	info, err := filesystem.StatWithRetry(resolved, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", rel, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", rel, ErrNotFound)
	}

	return resolved, nil
}

// FlatProvider serves files directly inside the root only.
type FlatProvider struct {
	base
}

// Resolve accepts plain file names only.
func (p *FlatProvider) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%s: %w", name, ErrFoldersDisabled)
	}
	return p.resolve(name)
}

// TreeProvider serves files anywhere below the root.
type TreeProvider struct {
	base
}

// Resolve accepts slash separated paths relative to the root. Leading
// slashes are ignored.
func (p *TreeProvider) Resolve(name string) (string, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" {
		return "", fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return p.resolve(name)
}

func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
