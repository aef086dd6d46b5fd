package hub

import (
	"errors"
	"sync"

	"github.com/nfrund/chathub/internal/chat"
)

// ErrQueueClosed is returned when delivering to a queue whose client has gone away.
var ErrQueueClosed = errors.New("queue closed")

// Queue is a bounded, per-client outbound buffer. When full, the oldest
// pending message is discarded to make room for the newest one, so a slow
// reader never blocks the hub. Queue is safe for one consumer and any number
// of producers.
type Queue struct {
	mu      sync.Mutex
	buf     []chat.Message
	head    int
	size    int
	closed  bool
	dropped uint64
	onDrop  func(chat.Message)

	// ready holds at most one pending wake-up for the consumer.
	ready chan struct{}
	done  chan struct{}
}

// NewQueue creates a queue holding up to capacity messages. onDrop, if non-nil,
// is called outside the lock for every message discarded by overflow.
func NewQueue(capacity int, onDrop func(chat.Message)) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf:    make([]chat.Message, capacity),
		onDrop: onDrop,
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Deliver enqueues msg. It never blocks.
func (q *Queue) Deliver(msg chat.Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}

	var (
		evicted    chat.Message
		hasEvicted bool
	)
	if q.size == len(q.buf) {
		evicted, hasEvicted = q.buf[q.head], true
		q.buf[q.head] = chat.Message{}
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		q.dropped++
	}
	q.buf[(q.head+q.size)%len(q.buf)] = msg
	q.size++
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}

	if hasEvicted && q.onDrop != nil {
		q.onDrop(evicted)
	}
	return nil
}

// Pop removes and returns the oldest pending message. ok is false when the
// queue is empty or closed.
func (q *Queue) Pop() (msg chat.Message, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.size == 0 {
		return chat.Message{}, false
	}
	msg = q.buf[q.head]
	q.buf[q.head] = chat.Message{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return msg, true
}

// Ready is signalled after a Deliver. A signal may be stale, so consumers
// should drain with Pop until it reports false.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Done is closed once the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Close discards pending messages and rejects further deliveries. It is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for i := range q.buf {
		q.buf[i] = chat.Message{}
	}
	q.size = 0
	close(q.done)
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Dropped returns how many messages overflow has discarded.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
