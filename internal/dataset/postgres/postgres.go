package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pkthom/japanese-conjugation-search/internal/dataset"
	"github.com/pkthom/japanese-conjugation-search/internal/model"
)

// RowSource loads a conjugation dataset from the dataset_headers and
// dataset_rows tables. It uses database/sql with parameterized queries and
// contains no business logic.
type RowSource struct {
	name string
	db   *sql.DB
}

// New creates a RowSource for the named dataset.
func New(name string, db *sql.DB) *RowSource {
	return &RowSource{name: name, db: db}
}

var _ dataset.Source = (*RowSource)(nil)

// Name returns the dataset name.
func (s *RowSource) Name() string { return s.name }

// Load reads headers and rows for the dataset. An absent dataset (no headers
// row) is reported as os.ErrNotExist so optional datasets can be skipped.
func (s *RowSource) Load(ctx context.Context) (*model.Table, error) {
	const qHeaders = `SELECT headers FROM dataset_headers WHERE source = $1`

	var rawHeaders []byte
	if err := s.db.QueryRowContext(ctx, qHeaders, s.name).Scan(&rawHeaders); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s dataset: %w", s.name, os.ErrNotExist)
		}
		return nil, fmt.Errorf("query %s headers: %w", s.name, err)
	}

	var columns []string
	if err := json.Unmarshal(rawHeaders, &columns); err != nil {
		return nil, fmt.Errorf("decode %s headers: %w", s.name, err)
	}

	const qRows = `
		SELECT cells FROM dataset_rows
		WHERE source = $1
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, qRows, s.name)
	if err != nil {
		return nil, fmt.Errorf("query %s rows: %w", s.name, err)
	}
	defer rows.Close()

	var data [][]string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.name, err)
		}
		var cells []string
		if err := json.Unmarshal(raw, &cells); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", s.name, err)
		}
		// Pad ragged rows to the header width, matching the CSV path.
		if len(cells) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, cells)
			cells = padded
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", s.name, err)
	}

	return &model.Table{Source: s.name, Columns: columns, Rows: data}, nil
}
