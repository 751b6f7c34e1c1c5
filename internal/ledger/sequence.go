package ledger

import (
	"sync/atomic"
	"time"
)

// sequencer hands out monotonically increasing record sequence numbers. Records that share a
// timestamp are ordered by sequence.
type sequencer struct {
	next uint64
}

func newSequencer(seed uint64) *sequencer {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixMicro())
	}
	return &sequencer{next: seed}
}

func (s *sequencer) Next() uint64 {
	return atomic.AddUint64(&s.next, 1)
}

// Observe moves the sequencer past a persisted sequence number.
func (s *sequencer) Observe(seq uint64) {
	for {
		cur := atomic.LoadUint64(&s.next)
		if seq <= cur || atomic.CompareAndSwapUint64(&s.next, cur, seq) {
			return
		}
	}
}
