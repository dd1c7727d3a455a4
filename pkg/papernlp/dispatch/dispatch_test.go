package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/papernlp/internal/logging"
	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

const gib = 1 << 30

// The test binary doubles as a worker process for ProcessLauncher.
func TestMain(m *testing.M) {
	if os.Getenv("DISPATCH_TEST_WORKER") == "1" {
		os.Exit(fakeWorker(os.Args[1:]))
	}
	os.Exit(m.Run())
}

func fakeWorker(args []string) int {
	if len(args) == 0 || args[0] != "worker" {
		return 2
	}
	for i := 1; i+1 < len(args); i++ {
		if args[i] != "--manifest" {
			continue
		}
		files, err := corpus.ReadManifest(args[i+1])
		if err != nil {
			return 2
		}
		for _, f := range files {
			if strings.Contains(f.Path, "crash") {
				return 3
			}
		}
		return 0
	}
	return 2
}

func files(n int) []corpus.File {
	out := make([]corpus.File, n)
	for i := range out {
		out[i] = corpus.File{Path: fmt.Sprintf("/corpus/p%03d.json", i), Size: int64(1000 - i%7)}
	}
	return out
}

func TestWorkerCount(t *testing.T) {
	tests := []struct {
		name     string
		res      Resources
		budget   uint64
		want     int
		degraded bool
	}{
		{"memory bound", Resources{CPUs: 16, FreeMemory: 10 * gib}, 4 * gib, 2, false},
		{"cpu bound", Resources{CPUs: 2, FreeMemory: 64 * gib}, 4 * gib, 2, false},
		{"below one budget", Resources{CPUs: 8, FreeMemory: 1 * gib}, 4 * gib, 1, true},
		{"no cpus reported", Resources{CPUs: 0, FreeMemory: 64 * gib}, 4 * gib, 1, true},
		{"zero budget", Resources{CPUs: 8, FreeMemory: 64 * gib}, 0, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, degraded := WorkerCount(tt.res, tt.budget)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.degraded, degraded)
		})
	}
}

func TestOrderIsDeterministicPerSeed(t *testing.T) {
	in := files(40)
	shuffled := make([]corpus.File, len(in))
	copy(shuffled, in)
	rand.New(rand.NewSource(99)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	a := Order(in, rand.New(rand.NewSource(7)), 0)
	b := Order(shuffled, rand.New(rand.NewSource(7)), 0)
	assert.Equal(t, a, b, "scan order must not leak into the plan")
	assert.ElementsMatch(t, in, a)
	assert.Equal(t, files(40), in, "input untouched")
}

func TestOrderTruncates(t *testing.T) {
	out := Order(files(10), rand.New(rand.NewSource(1)), 3)
	assert.Len(t, out, 3)
	assert.Len(t, Order(files(2), nil, 5), 2)
}

func TestChunk(t *testing.T) {
	for _, tc := range []struct{ files, workers int }{
		{10, 3}, {10, 1}, {3, 8}, {7, 7}, {100, 6}, {1, 1},
	} {
		t.Run(fmt.Sprintf("%d/%d", tc.files, tc.workers), func(t *testing.T) {
			in := files(tc.files)
			chunks := Chunk(in, tc.workers)

			want := tc.workers
			if tc.files < want {
				want = tc.files
			}
			require.Len(t, chunks, want)

			var joined []corpus.File
			for i, c := range chunks {
				assert.NotEmpty(t, c)
				if i < len(chunks)-1 {
					assert.Len(t, c, tc.files/want)
				}
				joined = append(joined, c...)
			}
			assert.Equal(t, in, joined, "chunks are contiguous and cover every file once")
		})
	}
	assert.Nil(t, Chunk(nil, 4))
}

func TestChunkLastAbsorbsRemainder(t *testing.T) {
	chunks := Chunk(files(10), 3)
	assert.Equal(t, []int{3, 3, 4}, []int{len(chunks[0]), len(chunks[1]), len(chunks[2])})
}

func TestNewPlan(t *testing.T) {
	_, err := NewPlan(files(5), Resources{CPUs: 4, FreeMemory: 8 * gib}, 0, nil, 0)
	assert.ErrorIs(t, err, ErrNoBudget)

	p, err := NewPlan(files(10), Resources{CPUs: 4, FreeMemory: 12 * gib}, 4*gib, rand.New(rand.NewSource(3)), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Workers)
	assert.Len(t, p.Shards, 3)
	assert.Equal(t, 10, p.Files())
	for i, s := range p.Shards {
		assert.Equal(t, i, s.Index)
	}
}

type fakeLauncher struct {
	mu     sync.Mutex
	seen   map[int][]corpus.File
	failOn map[int]bool
}

func (f *fakeLauncher) Launch(_ context.Context, _ string, s Shard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[int][]corpus.File{}
	}
	f.seen[s.Index] = s.Files
	if f.failOn[s.Index] {
		return errors.New("killed")
	}
	return nil
}

func fixed(res Resources) Probe { return func() Resources { return res } }

func TestDispatcherWaitsForAllShards(t *testing.T) {
	ctx := context.Background()
	ledger, err := status.Open(ctx, filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	defer ledger.Close()

	launcher := &fakeLauncher{failOn: map[int]bool{1: true}}
	d := &Dispatcher{
		Launcher: launcher,
		Ledger:   ledger,
		Probe:    fixed(Resources{CPUs: 3, FreeMemory: 64 * gib}),
		Budget:   4 * gib,
		Rand:     rand.New(rand.NewSource(1)),
		RunID:    "run-1",
		Log:      logging.Discard(),
	}
	in := files(9)
	report, err := d.Run(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 3, report.Workers)
	assert.Len(t, launcher.seen, 3, "a failing shard does not stop its siblings")
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Index)

	s, err := ledger.Summary(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, len(launcher.seen[1]), s.Counts[status.ShardCrash])

	run, ok, err := ledger.LatestRun(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, run.Files)
}

func TestDispatcherRejectsZeroBudget(t *testing.T) {
	d := &Dispatcher{Launcher: &fakeLauncher{}, Probe: fixed(Resources{CPUs: 2, FreeMemory: gib}), Log: logging.Discard()}
	_, err := d.Run(context.Background(), files(3))
	assert.ErrorIs(t, err, ErrNoBudget)
}

func TestProcessLauncher(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)
	dir := t.TempDir()
	l := &ProcessLauncher{Executable: self, Dir: dir, Env: []string{"DISPATCH_TEST_WORKER=1"}}

	ok := Shard{Index: 0, Files: []corpus.File{{Path: "/corpus/a.json", Size: 1}}}
	require.NoError(t, l.Launch(context.Background(), "r", ok))
	written, err := corpus.ReadManifest(l.ManifestPath("r", 0))
	require.NoError(t, err)
	assert.Equal(t, ok.Files, written)

	bad := Shard{Index: 1, Files: []corpus.File{{Path: "/corpus/crash.json", Size: 1}}}
	err = l.Launch(context.Background(), "r", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 3")
}
