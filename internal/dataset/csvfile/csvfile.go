package csvfile

import (
	"context"
	"fmt"
	"os"

	"github.com/pkthom/japanese-conjugation-search/internal/dataset"
	"github.com/pkthom/japanese-conjugation-search/internal/model"
)

// FileSource loads a conjugation dataset from a local CSV file.
type FileSource struct {
	name string
	path string
}

// New creates a FileSource for the named dataset at the given path.
func New(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

var _ dataset.Source = (*FileSource)(nil)

// Name returns the dataset name.
func (s *FileSource) Name() string { return s.name }

// Path returns the configured file path, for startup checks and logging.
func (s *FileSource) Path() string { return s.path }

// Load reads and parses the CSV file. A missing file propagates
// os.ErrNotExist so optional datasets can be skipped by the caller.
func (s *FileSource) Load(ctx context.Context) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s dataset %s: %w", s.name, s.path, err)
	}
	defer f.Close()

	return dataset.DecodeCSV(f, s.name)
}
