// Package sink persists annotation trees, one JSON file per paper.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/papernlp/pkg/papernlp/assemble"
)

// ErrInvalidPaperID marks a paper id that cannot be used as a file name.
var ErrInvalidPaperID = errors.New("sink: invalid paper id")

// Sink stores whole documents. A document is either fully written or not
// written at all.
type Sink interface {
	Write(ctx context.Context, tree *assemble.Tree) error
}

// FileSink writes <Dir>/<paper_id>.json.
type FileSink struct {
	Dir string
}

// Path returns where paperID is stored.
func (s *FileSink) Path(paperID string) string {
	return filepath.Join(s.Dir, paperID+".json")
}

// Write encodes tree to a temp file in Dir and renames it into place, so
// readers never see a partial document. An existing file is replaced.
func (s *FileSink) Write(ctx context.Context, tree *assemble.Tree) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidatePaperID(tree.PaperID); err != nil {
		return err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode %s: %w", tree.PaperID, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+tree.PaperID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tree.PaperID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tree.PaperID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tree.PaperID, err)
	}
	if err := os.Rename(tmpName, s.Path(tree.PaperID)); err != nil {
		return fmt.Errorf("publish %s: %w", tree.PaperID, err)
	}
	return nil
}

// Read loads a persisted tree.
func Read(path string) (*assemble.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree assemble.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &tree, nil
}

// ValidatePaperID reports ids that cannot name an output file.
func ValidatePaperID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPaperID)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q is not a file name", ErrInvalidPaperID, id)
	}
	return nil
}
