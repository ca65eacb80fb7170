package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileArchive writes reports below a local directory.
type FileArchive struct {
	Dir string
}

func NewFileArchive(dir string) *FileArchive { return &FileArchive{Dir: dir} }

func (a *FileArchive) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return fmt.Errorf("file archive: invalid key %q", key)
	}

	path := filepath.Join(a.Dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("file archive: create dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("file archive: write %s: %w", path, err)
	}
	return nil
}
