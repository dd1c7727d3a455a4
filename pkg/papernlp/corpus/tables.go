package corpus

import "sort"

// Table is a figure/table reference carried into the annotation tree.
type Table struct {
	Kind  string `json:"kind"`
	RefID string `json:"ref_id"`
	Text  string `json:"text"`
}

// ExtractTables lists every reference entry of a document, ordered by ref id.
func ExtractTables(doc *RawDocument) []Table {
	keys := make([]string, 0, len(doc.RefEntries))
	for k := range doc.RefEntries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tables := make([]Table, 0, len(keys))
	for _, k := range keys {
		tables = append(tables, Table{Kind: "figref", RefID: k, Text: Clean(doc.RefEntries[k].Text)})
	}
	return tables
}
