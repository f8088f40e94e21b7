package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/qrscan/core"
)

var imageExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true}

// DirStore exposes the image files of one directory. The asset id is the
// file name; non-image files and subdirectories are ignored.
type DirStore struct {
	root string
}

var _ core.PhotoLibrary = (*DirStore)(nil)

// NewDirStore creates the directory when missing.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return &DirStore{root: root}, nil
}

// Root returns the backing directory.
func (d *DirStore) Root() string { return d.root }

func (d *DirStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	if !imageExt[strings.ToLower(filepath.Ext(name))] {
		return "", ErrInvalidName
	}
	return filepath.Join(d.root, name), nil
}

// Save writes data to a file called name, replacing an existing one.
func (d *DirStore) Save(name string, data []byte) (core.Asset, error) {
	p, err := d.path(name)
	if err != nil {
		return core.Asset{}, err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return core.Asset{}, fmt.Errorf("write asset: %w", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		return core.Asset{}, fmt.Errorf("stat asset: %w", err)
	}
	return assetFromInfo(fi), nil
}

// Get reads the file or returns ErrNotFound.
func (d *DirStore) Get(id string) ([]byte, error) {
	p, err := d.path(id)
	if err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	return data, nil
}

// List returns the image files, most recently modified first.
func (d *DirStore) List() ([]core.Asset, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	out := make([]core.Asset, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := d.path(e.Name()); err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, assetFromInfo(fi))
	}
	sortRecentFirst(out)
	return out, nil
}

// Delete removes the file or returns ErrNotFound.
func (d *DirStore) Delete(id string) error {
	p, err := d.path(id)
	if err != nil {
		return ErrNotFound
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func assetFromInfo(fi fs.FileInfo) core.Asset {
	return core.Asset{ID: fi.Name(), Name: fi.Name(), Size: fi.Size(), Created: fi.ModTime().UTC()}
}
