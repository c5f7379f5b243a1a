package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pkthom/japanese-conjugation-search/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// codec pairs an encoding name with its decoder for error reporting.
type codec struct {
	name string
	enc  encoding.Encoding
}

// Datasets in the wild arrive as UTF-8 (sometimes with a BOM), Shift_JIS or
// CP932 exports from spreadsheet tools, and occasionally Latin-1. Encodings
// are tried in that order; the first that yields valid UTF-8 wins.
var codecs = []codec{
	{"utf-8", unicode.UTF8},
	{"shift_jis", japanese.ShiftJIS},
	{"latin-1", charmap.ISO8859_1},
}

// DecodeCSV parses CSV content of unknown encoding into a Table for the
// given source. The first record is treated as the header row; data rows
// shorter than the header are padded with empty cells.
func DecodeCSV(r io.Reader, source string) (*model.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	text, encName, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s dataset: %w", source, err)
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1 // rows may be ragged
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s dataset (%s): %w", source, encName, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s dataset: no rows", source)
	}

	columns := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(columns))
		copy(row, rec)
		rows = append(rows, row)
	}

	return &model.Table{Source: source, Columns: columns, Rows: rows}, nil
}

// decodeText converts raw bytes to a UTF-8 string, trying each known
// encoding in order. An encoding is rejected when the result is not valid
// UTF-8 or contains replacement runes, which is how the transform package
// surfaces undecodable byte sequences.
func decodeText(raw []byte) (string, string, error) {
	var tried []string
	for _, c := range codecs {
		tried = append(tried, c.name)

		if c.enc == unicode.UTF8 {
			if utf8.Valid(raw) {
				return string(raw), c.name, nil
			}
			continue
		}

		out, _, err := transform.Bytes(c.enc.NewDecoder(), raw)
		if err != nil {
			continue
		}
		if !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return string(out), c.name, nil
	}
	return "", "", fmt.Errorf("no usable encoding (tried %s)", strings.Join(tried, ", "))
}
