package model

// Table is one loaded conjugation dataset: the parsed contents of a single
// CSV file (or its database equivalent).
// This is a pure domain model with no storage-specific dependencies or tags.
type Table struct {
	Source  string     `json:"source"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Section is one lexical entry: a fixed-size group of consecutive dataset
// rows that together describe the conjugation of a single verb or adjective.
// Title comes from the first cell of the group's first row, Subtitle from the
// second cell of that row when present. Slug is URL-safe and unique across
// sources because the source name is appended.
type Section struct {
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"`
	Slug     string     `json:"slug"`
	Source   string     `json:"source"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
}

// DisplayRows returns the section rows with the first column dropped, which
// is how detail pages render them (the first column repeats the title).
// Tables with a single column are returned unchanged.
func (s Section) DisplayRows() [][]string {
	if len(s.Columns) <= 1 {
		return s.Rows
	}
	out := make([][]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		if len(row) <= 1 {
			out = append(out, nil)
			continue
		}
		out = append(out, row[1:])
	}
	return out
}

// DisplayColumns returns the column headers matching DisplayRows.
func (s Section) DisplayColumns() []string {
	if len(s.Columns) <= 1 {
		return s.Columns
	}
	return s.Columns[1:]
}
