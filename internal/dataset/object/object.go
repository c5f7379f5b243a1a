package object

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"

	"github.com/pkthom/japanese-conjugation-search/internal/dataset"
	"github.com/pkthom/japanese-conjugation-search/internal/model"
	"github.com/pkthom/japanese-conjugation-search/internal/storage"
)

// ObjectSource loads a conjugation dataset from a CSV object in S3-compatible
// storage. The same decode path as local files applies, so datasets uploaded
// through the admin endpoints may use any supported encoding.
type ObjectSource struct {
	name  string
	key   string
	store storage.Storage
}

// New creates an ObjectSource for the named dataset stored under key.
func New(name, key string, store storage.Storage) *ObjectSource {
	return &ObjectSource{name: name, key: key, store: store}
}

var _ dataset.Source = (*ObjectSource)(nil)

// Name returns the dataset name.
func (s *ObjectSource) Name() string { return s.name }

// Key returns the object key, for logging.
func (s *ObjectSource) Key() string { return s.key }

// Load fetches and parses the CSV object. A missing object is reported as
// os.ErrNotExist so optional datasets can be skipped by the caller.
func (s *ObjectSource) Load(ctx context.Context) (*model.Table, error) {
	rc, _, err := s.store.Get(ctx, s.key)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s dataset object %s: %w", s.name, s.key, os.ErrNotExist)
		}
		return nil, fmt.Errorf("fetch %s dataset object %s: %w", s.name, s.key, err)
	}
	defer rc.Close()

	return dataset.DecodeCSV(rc, s.name)
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey"
	}
	return false
}
