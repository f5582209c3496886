package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jobportal/internal/common"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("file too large")

// Local keeps uploaded files in one directory under generated names.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: abs}, nil
}

// Save writes at most limit bytes from r to a new file with the given
// extension and returns its path and size. A partial file is removed on error.
func (s *Local) Save(ctx context.Context, r io.Reader, ext string, limit int64) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	path := filepath.Join(s.dir, common.NewUUID().String()+strings.ToLower(ext))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create upload: %w", err)
	}
	written, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil && written > limit {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, written, nil
}

func (s *Local) Open(path string) (*os.File, error) {
	if !s.contains(path) {
		return nil, os.ErrNotExist
	}
	return os.Open(path)
}

// Remove deletes the file. A file that is already gone is not an error.
func (s *Local) Remove(path string) error {
	if !s.contains(path) {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Local) contains(path string) bool {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}
