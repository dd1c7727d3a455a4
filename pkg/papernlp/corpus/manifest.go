package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteManifest stores a shard's file list for a worker process.
func WriteManifest(path string, files []File) error {
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a shard's file list.
func ReadManifest(path string) ([]File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var files []File
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return files, nil
}
