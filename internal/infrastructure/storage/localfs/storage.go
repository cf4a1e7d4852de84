package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

// Storage keeps bucket/key objects on the local filesystem, one directory
// per bucket. Saves overwrite, which is what keeps redelivered
// notifications idempotent at the artifact level.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, loc domain.ObjectLocation, data io.Reader) error {
	path, err := s.resolve(loc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write object file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, loc domain.ObjectLocation) (io.ReadCloser, error) {
	path, err := s.resolve(loc)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object file: %w", err)
	}
	return f, nil
}

func (s *Storage) resolve(loc domain.ObjectLocation) (string, error) {
	if loc.Bucket == "" || loc.Key == "" {
		return "", fmt.Errorf("incomplete object location: %+v", loc)
	}
	path := filepath.Join(s.basePath, loc.Bucket, filepath.FromSlash(loc.Key))
	// keep keys inside the bucket directory
	root := filepath.Join(s.basePath, loc.Bucket)
	if !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("object key escapes bucket: %q", loc.Key)
	}
	return path, nil
}
