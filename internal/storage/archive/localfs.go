package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// LocalFS keeps objects as files under a root directory. Object paths are
// slash-separated and must stay inside the root.
type LocalFS struct {
	root string
}

// NewLocalFS creates root if needed. An empty root means the working
// directory.
func NewLocalFS(root string) (*LocalFS, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("archive: create root %s: %w", root, err)
	}
	return &LocalFS{root: root}, nil
}

// resolve maps an object path to a file path under root.
func (l *LocalFS) resolve(name string) (string, error) {
	local := filepath.FromSlash(name)
	if name != "" && !filepath.IsLocal(local) {
		return "", fmt.Errorf("archive: path %q escapes %s", name, l.root)
	}
	return filepath.Join(l.root, local), nil
}

// Write replaces the object atomically: readers see the old or the new
// content, never a partial file.
func (l *LocalFS) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("archive: create dir for %s: %w", name, err)
	}
	return replaceFile(target, data)
}

func replaceFile(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("archive: temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("archive: write %s: %w", target, err)
	}
	if err := os.Chmod(name, filePerm); err != nil {
		return fmt.Errorf("archive: chmod %s: %w", target, err)
	}
	return os.Rename(name, target)
}

func (l *LocalFS) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, err
}

// List returns the object paths under prefix in lexical order. Dotfiles
// (in-flight temp files, the run lock) are not objects and are skipped.
func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	start, err := l.resolve(prefix)
	if err != nil {
		return nil, err
	}

	paths := []string{}
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Delete removes the object; a missing object is not an error.
func (l *LocalFS) Delete(ctx context.Context, name string) error {
	target, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalFS) Exists(ctx context.Context, name string) (bool, error) {
	target, err := l.resolve(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(target)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

var _ Storage = (*LocalFS)(nil)
