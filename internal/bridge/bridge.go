// Package bridge decouples build log ingestion from the consumer that owns
// the build summary.
package bridge

import (
	"sync"

	"github.com/tuanbt/buildmon/internal/buildlog"
)

// Bridge is an unbounded, ordered, multi-producer/single-consumer queue of
// build log messages.
//
// Producers never block on Push. The consumer drains whatever is pending
// without blocking and can select on Wait to learn when more may be
// available.
type Bridge struct {
	mu      sync.Mutex
	pending []buildlog.Message
	closed  bool
	err     error
	signal  chan struct{} // buffered, size 1; coalesces wakeups
}

// New creates an empty, open bridge.
func New() *Bridge {
	return &Bridge{
		pending: make([]buildlog.Message, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Push appends msg to the queue. It returns false once the bridge is closed.
// Safe for concurrent use.
func (b *Bridge) Push(msg buildlog.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.pending = append(b.pending, msg)
	b.notify()
	return true
}

// Close ends the supply of messages. err explains why supply ended; nil means
// a clean end of stream. Only the first call takes effect; later calls, and
// their errors, are ignored.
func (b *Bridge) Close(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.err = err
	b.notify()
}

// notify wakes a waiting consumer. Caller must hold b.mu.
func (b *Bridge) notify() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Drain removes and returns every pending message in arrival order without
// blocking. It returns nil when nothing is pending.
func (b *Bridge) Drain() []buildlog.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = make([]buildlog.Message, 0, cap(out))
	return out
}

// Wait returns a channel that receives when messages or closure may be
// available. Always follow a receive with Drain and Closed.
func (b *Bridge) Wait() <-chan struct{} {
	return b.signal
}

// Closed reports whether the bridge is closed and fully drained, along with
// the error passed to Close.
func (b *Bridge) Closed() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed && len(b.pending) == 0, b.err
}

// Len returns the number of pending messages.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
