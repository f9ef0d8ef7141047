// Package ident generates globally unique, lexicographically ordered tokens
// for work items and agents. Tokens embed a high-resolution wall-clock
// reading, the process ID, and a same-tick sequence number, so later tokens
// from one process always sort greater than or equal to earlier ones and
// tokens from different processes never collide.
package ident

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// historySize is the number of recently issued tokens kept for the
// non-collision double check.
const historySize = 128

// defaultGenerator backs the package-level Next so every caller in a
// process shares one monotonic guard and history ring.
var defaultGenerator = New()

// Next returns a new token from the process-wide generator.
func Next() string {
	return defaultGenerator.Next()
}

// Generator produces sortable unique tokens. Safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	pid       int
	lastNanos int64
	lastSeq   uint32
	issued    bool

	// recent is a ring of the last historySize tokens issued.
	recent []string
	next   int

	// now allows tests to inject a clock.
	now func() time.Time
}

// New creates a Generator keyed to the current process.
func New() *Generator {
	return &Generator{
		pid:    os.Getpid(),
		recent: make([]string, 0, historySize),
		now:    time.Now,
	}
}

// Next returns a new token. Tokens are formatted as
// <nanos:16 hex>-<pid:6 hex>-<seq:4 hex> so lexicographic comparison
// matches issue order for a given process. If the wall clock reads the
// same nanosecond twice, the sequence suffix disambiguates; if the clock
// moves backwards (NTP adjustment), the previous reading is reused with a
// bumped sequence so no token ever sorts below its predecessor.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		nanos := g.now().UnixNano()
		var seq uint32
		if g.issued && nanos <= g.lastNanos {
			nanos = g.lastNanos
			seq = g.lastSeq + 1
			if seq == 0 {
				// Sequence wrapped within one reading; advance the
				// reading instead of reusing seq 0.
				nanos++
			}
		}

		token := fmt.Sprintf("%016x-%06x-%04x", nanos, g.pid, seq)
		if g.seen(token) {
			// Should be unreachable given the monotonic guard; treat it
			// as a same-tick collision and try again.
			g.lastNanos = nanos
			g.lastSeq = seq
			g.issued = true
			continue
		}

		g.lastNanos = nanos
		g.lastSeq = seq
		g.issued = true
		g.remember(token)
		return token
	}
}

// seen reports whether token is in the recent-history ring.
func (g *Generator) seen(token string) bool {
	for _, t := range g.recent {
		if t == token {
			return true
		}
	}
	return false
}

// remember records token in the recent-history ring.
func (g *Generator) remember(token string) {
	if len(g.recent) < historySize {
		g.recent = append(g.recent, token)
		return
	}
	g.recent[g.next] = token
	g.next = (g.next + 1) % historySize
}
