package workflow

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Context is the determinism source (component J): a seeded random
// stream a workflow's retry backoff draws jitter from, so that
// replaying the same run ID against the same recorded log reproduces
// identical delays. A run's Context is derived once per workflow
// execution from a stable seed (the run ID's SHA-256, matching the
// spec's "seeded deterministically, e.g. via a hash of the run ID");
// Fork derives an independent child stream for a nested workflow
// without disturbing the parent's cursor.
type Context struct {
	mu     sync.Mutex
	rng    *rand.Rand
	log    []int64 // recorded jitter draws, in draw order
	replay bool
	cursor int
}

// seedFromRunID hashes runID into a 64-bit seed, deterministic across
// processes.
func seedFromRunID(runID string) int64 {
	sum := sha256.Sum256([]byte(runID))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// NewRecordContext returns a Context seeded from runID that records
// every jitter draw into its log, retrievable via Log after the run
// for later replay.
func NewRecordContext(runID string) *Context {
	return &Context{rng: rand.New(rand.NewSource(seedFromRunID(runID)))}
}

// NewReplayContext returns a Context that reproduces a previously
// recorded run by replaying its logged draws in order instead of
// consulting the RNG. Drawing past the end of log is a programming
// error (the replayed workflow took a different path than the
// recording) and falls back to the seeded RNG rather than panicking.
func NewReplayContext(runID string, log []int64) *Context {
	return &Context{rng: rand.New(rand.NewSource(seedFromRunID(runID))), log: log, replay: true}
}

// NextJitter draws the next jitter value in [0, n).
func (c *Context) NextJitter(n int64) int64 {
	if n <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replay && c.cursor < len(c.log) {
		v := c.log[c.cursor]
		c.cursor++
		return v % n
	}
	v := c.rng.Int63n(n)
	if !c.replay {
		c.log = append(c.log, v)
	}
	return v
}

// Log returns the recorded draws so far, for persisting alongside a
// run ID to support later replay.
func (c *Context) Log() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.log...)
}

// Fork derives an independent child Context for a nested workflow
// named childID, seeded from the combination of this context's run
// identity and childID so that nested workflows within the same run
// remain reproducible without sharing a single cursor.
func (c *Context) Fork(childID string) *Context {
	c.mu.Lock()
	seed := c.rng.Int63()
	c.mu.Unlock()
	return &Context{rng: rand.New(rand.NewSource(seed ^ seedFromRunID(childID)))}
}
