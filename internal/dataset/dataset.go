package dataset

import (
	"context"

	"github.com/pkthom/japanese-conjugation-search/internal/model"
)

// Package dataset contains the loaders that produce conjugation tables.
// Implementations live in subpackages (csvfile, object, postgres) inside
// this directory.

// Source loads one conjugation dataset. Implementations must be safe for
// concurrent use; Load may be called repeatedly when the catalog cache
// refreshes.
type Source interface {
	// Name returns the dataset name ("verb", "adjective", ...), used for
	// slug suffixes and log fields.
	Name() string

	// Load reads and parses the dataset. A missing optional dataset should
	// propagate an error wrapping os.ErrNotExist so the caller can decide
	// whether to skip it.
	Load(ctx context.Context) (*model.Table, error)
}
