// Package storage provides BlobStore implementations.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register codecs for DecodeConfig
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
)

// Local stores blobs on the local filesystem.  Upload assigns each blob a
// uuid-prefixed filename and returns a file:// URL that Fetch understands.
type Local struct {
	rootDir     string
	permissions os.FileMode
}

// NewLocal creates a Local blob store rooted at dir.
func NewLocal(dir string, perm os.FileMode) (*Local, error) {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: mkdir %s: %w", dir, err)
	}
	return &Local{rootDir: dir, permissions: perm}, nil
}

func (l *Local) Upload(ctx context.Context, data []byte, filename string) (core.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "local.upload", err)
	}

	id := uuid.NewString()
	name := id
	if ext := filepath.Ext(filename); ext != "" {
		name += ext
	}
	path := filepath.Join(l.rootDir, name)

	if err := os.WriteFile(path, data, l.permissions); err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "local.upload.write", err)
	}

	ref := core.BlobRef{URL: "file://" + path, ID: id}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		ref.Width = cfg.Width
		ref.Height = cfg.Height
	}
	return ref, nil
}

func (l *Local) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.fetch", err)
	}

	path := strings.TrimPrefix(url, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.New(apperrors.CategoryStorage, "local.fetch", fmt.Errorf("blob not found: %s", url))
		}
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.fetch.read", err)
	}
	return data, nil
}

func (l *Local) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.delete", err)
	}

	matches, err := filepath.Glob(filepath.Join(l.rootDir, id+"*"))
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.delete.glob", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return apperrors.Wrap(apperrors.CategoryStorage, "local.delete", err)
		}
	}
	return nil
}

var _ core.BlobStore = (*Local)(nil)
