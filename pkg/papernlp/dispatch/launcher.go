package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
)

// Launcher runs one shard to completion. A returned error marks the shard
// as crashed.
type Launcher interface {
	Launch(ctx context.Context, runID string, shard Shard) error
}

// ProcessLauncher runs each shard as a child process of the current binary:
//
//	<Executable> worker --manifest <file> --shard <i> --run <id> <Args...>
//
// The child inherits the environment plus Env, so configuration resolves the
// same way as in the parent.
type ProcessLauncher struct {
	Executable string   // defaults to os.Executable()
	Args       []string // extra flags, e.g. --config
	Env        []string // extra KEY=value pairs on top of the inherited environment
	Dir        string   // manifest directory
	Stdout     io.Writer
	Stderr     io.Writer
}

// ManifestPath is where the file list of a shard is written.
func (l *ProcessLauncher) ManifestPath(runID string, index int) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s-shard-%03d.json", runID, index))
}

// Launch implements Launcher.
func (l *ProcessLauncher) Launch(ctx context.Context, runID string, shard Shard) error {
	exe := l.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		exe = self
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	manifest := l.ManifestPath(runID, shard.Index)
	if err := corpus.WriteManifest(manifest, shard.Files); err != nil {
		return err
	}

	args := []string{"worker",
		"--manifest", manifest,
		"--shard", strconv.Itoa(shard.Index),
		"--run", runID,
	}
	cmd := exec.CommandContext(ctx, exe, append(args, l.Args...)...)
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Stdout = writerOr(l.Stdout, os.Stdout)
	cmd.Stderr = writerOr(l.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("shard %d exited with status %d: %w", shard.Index, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("shard %d: %w", shard.Index, err)
	}
	return nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
