package corpus

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan walks root and returns every JSON record with its size, in path order.
func Scan(root string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, File{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Delta holds identifiers of already-processed documents.
type Delta []string

// LoadDelta reads a delta file of the form {"delta list": [...]}.
func LoadDelta(path string) (Delta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read delta %s: %w", path, err)
	}
	var payload struct {
		List []string `json:"delta list"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode delta %s: %w", path, err)
	}
	out := make(Delta, 0, len(payload.List))
	for _, id := range payload.List {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// WriteDelta stores ids in the delta file format.
func WriteDelta(path string, ids []string) error {
	data, err := json.MarshalIndent(map[string][]string{"delta list": ids}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Excludes reports whether any delta entry is contained in the file identifier.
func (d Delta) Excludes(f File) bool {
	id := f.ID()
	for _, entry := range d {
		if strings.Contains(id, entry) {
			return true
		}
	}
	return false
}

// Filter returns the files not excluded by the delta, preserving order.
func (d Delta) Filter(files []File) []File {
	if len(d) == 0 {
		return files
	}
	out := make([]File, 0, len(files))
	for _, f := range files {
		if !d.Excludes(f) {
			out = append(out, f)
		}
	}
	return out
}
