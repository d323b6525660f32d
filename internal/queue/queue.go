package queue

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrFull reports that the update buffer is at capacity.
var ErrFull = errors.New("update queue is full")

// ErrClosed reports an enqueue attempted after Close.
var ErrClosed = errors.New("update queue is closed")

// Queue is the bounded in-memory buffer between the webhook endpoint and the
// dispatcher. Enqueue never blocks; updates beyond capacity are rejected so a
// slow consumer cannot grow memory without limit.
type Queue struct {
	mu      sync.Mutex
	updates chan tgbotapi.Update
	closed  bool
}

// New builds a queue holding at most size updates.
func New(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{updates: make(chan tgbotapi.Update, size)}
}

// Enqueue buffers one update, returning ErrFull when at capacity and
// ErrClosed once the queue has been shut.
func (q *Queue) Enqueue(u tgbotapi.Update) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.updates <- u:
		return nil
	default:
		return ErrFull
	}
}

// Updates exposes the receive side for the dispatch loop. The channel is
// closed by Close after draining any buffered updates.
func (q *Queue) Updates() <-chan tgbotapi.Update {
	return q.updates
}

// Len reports the number of buffered updates.
func (q *Queue) Len() int {
	return len(q.updates)
}

// Close ends the stream. Safe to call more than once and to race with
// Enqueue, which turns into ErrClosed from then on.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.updates)
}
