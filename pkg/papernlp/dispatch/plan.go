// Package dispatch splits the corpus into worker shards sized by the host's
// free memory and CPU count, launches one isolated worker process per shard
// and collects the outcome of each.
package dispatch

import (
	"errors"
	"math/rand"
	"runtime"
	"sort"

	"github.com/pbnjay/memory"

	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
)

// ErrNoBudget is returned when the per-worker memory budget is not positive.
var ErrNoBudget = errors.New("per-worker memory budget must be positive")

// Resources is a snapshot of the host capacity.
type Resources struct {
	CPUs       int
	FreeMemory uint64 // bytes
}

// Probe reports host resources. Tests inject fixed values.
type Probe func() Resources

// SystemResources reads the live CPU count and free memory.
func SystemResources() Resources {
	return Resources{CPUs: runtime.NumCPU(), FreeMemory: memory.FreeMemory()}
}

// WorkerCount is min(CPUs, free/budget), never less than one. degraded
// reports that the floor was applied.
func WorkerCount(res Resources, budget uint64) (n int, degraded bool) {
	if budget == 0 {
		return 1, true
	}
	n = int(res.FreeMemory / budget)
	if res.CPUs < n {
		n = res.CPUs
	}
	if n < 1 {
		return 1, true
	}
	return n, false
}

// Order sorts files by size (path breaks ties), shuffles them with rng and
// keeps at most max of them. max <= 0 keeps everything. The input slice is
// not modified.
func Order(files []corpus.File, rng *rand.Rand, max int) []corpus.File {
	out := make([]corpus.File, len(files))
	copy(out, files)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size < out[j].Size
		}
		return out[i].Path < out[j].Path
	})
	if rng != nil {
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// Chunk splits files into n contiguous chunks of len/n files; the last chunk
// takes the remainder. n shrinks to len(files) when there are fewer files
// than workers, so no chunk is empty.
func Chunk(files []corpus.File, n int) [][]corpus.File {
	if len(files) == 0 || n <= 0 {
		return nil
	}
	if n > len(files) {
		n = len(files)
	}
	size := len(files) / n
	chunks := make([][]corpus.File, n)
	for i := 0; i < n; i++ {
		end := (i + 1) * size
		if i == n-1 {
			end = len(files)
		}
		chunks[i] = files[i*size : end]
	}
	return chunks
}

// Shard is the unit of work handed to one worker process.
type Shard struct {
	Index int
	Files []corpus.File
}

// Plan is the dispatch decision for a corpus.
type Plan struct {
	Resources Resources
	Budget    uint64
	Workers   int
	Degraded  bool
	Shards    []Shard
}

// Files counts the planned documents.
func (p *Plan) Files() int {
	n := 0
	for _, s := range p.Shards {
		n += len(s.Files)
	}
	return n
}

// NewPlan orders the files and splits them across as many workers as the
// resources allow.
func NewPlan(files []corpus.File, res Resources, budget uint64, rng *rand.Rand, max int) (*Plan, error) {
	if budget == 0 {
		return nil, ErrNoBudget
	}
	workers, degraded := WorkerCount(res, budget)
	p := &Plan{Resources: res, Budget: budget, Workers: workers, Degraded: degraded}
	for i, chunk := range Chunk(Order(files, rng, max), workers) {
		p.Shards = append(p.Shards, Shard{Index: i, Files: chunk})
	}
	return p, nil
}
