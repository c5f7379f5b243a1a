package service

import (
	"fmt"
	"strings"

	gosimple "github.com/gosimple/slug"

	"github.com/pkthom/japanese-conjugation-search/internal/model"
)

// buildSections groups each table's rows into fixed-size sections. The last
// section of a table may be short. Cell text is normalized once here so
// neither search nor rendering has to deal with embedded newlines.
func buildSections(tables []*model.Table, size int) []model.Section {
	var sections []model.Section
	for _, table := range tables {
		for start := 0; start < len(table.Rows); start += size {
			end := start + size
			if end > len(table.Rows) {
				end = len(table.Rows)
			}

			rows := make([][]string, 0, end-start)
			for _, raw := range table.Rows[start:end] {
				row := make([]string, len(raw))
				for i, cell := range raw {
					row[i] = normalizeCell(cell)
				}
				rows = append(rows, row)
			}

			first := rows[0]
			title := ""
			if len(first) > 0 {
				title = first[0]
			}
			subtitle := ""
			if len(first) > 1 {
				subtitle = first[1]
			}

			sections = append(sections, model.Section{
				Title:    title,
				Subtitle: subtitle,
				Slug:     makeSlug(title, table.Source, len(sections)),
				Source:   table.Source,
				Columns:  table.Columns,
				Rows:     rows,
			})
		}
	}
	return sections
}

// makeSlug builds a URL slug from the section title with the dataset name
// appended, so the same word appearing in both the verb and adjective
// datasets gets distinct pages. Titles that transliterate to nothing (pure
// CJK with no ASCII mapping) fall back to an ordinal slug.
func makeSlug(title, source string, ordinal int) string {
	base := gosimple.Make(title)
	if base == "" {
		base = fmt.Sprintf("entry-%d", ordinal)
	}
	return base + "-" + source
}

// normalizeCell collapses every run of whitespace, including newlines from
// multi-line spreadsheet cells, into a single space.
func normalizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
