package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// ErrQueueFull is returned by TransmitQueue.Add when the bounded channel
// backing the queue has no free slot.
var ErrQueueFull = errors.New("controller: transmit queue is full")

// ErrQueueClosed is returned by either queue once Close has been called.
var ErrQueueClosed = errors.New("controller: queue is closed")

// TransmitQueue is the multi-producer/single-consumer channel between the
// gateway (any number of goroutines enqueueing outbound wire frames) and
// the controller worker (the sole consumer draining it to the transport).
// Entries are already-serialised ESP3 frames (esp3.Build output), not
// Packet values: encoding happens at enqueue time so the send loop is a
// pure byte-level drain. Pushes never block: a full queue drops the frame
// and reports ErrQueueFull rather than stall the producer.
type TransmitQueue struct {
	items  chan []byte
	mu     sync.RWMutex
	closed bool
}

// NewTransmitQueue allocates a TransmitQueue with the given bound.
func NewTransmitQueue(size int) *TransmitQueue {
	return &TransmitQueue{items: make(chan []byte, size)}
}

// Add enqueues frame without blocking. Returns ErrQueueClosed or
// ErrQueueFull if the frame could not be accepted.
func (q *TransmitQueue) Add(frame []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.items <- frame:
		return nil
	default:
		return ErrQueueFull
	}
}

// Items exposes the receive side for the controller's send loop.
func (q *TransmitQueue) Items() <-chan []byte { return q.items }

// Len reports the number of packets currently buffered.
func (q *TransmitQueue) Len() int { return len(q.items) }

// Close shuts the queue down; the send loop sees Items() closed and returns.
func (q *TransmitQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
}

// ReceiveQueue is the single-producer (controller)/single-consumer
// (gateway) channel carrying decoded radio packets. Consumers block with
// an optional context deadline.
type ReceiveQueue struct {
	items  chan *esp3.Packet
	mu     sync.RWMutex
	closed bool
}

// NewReceiveQueue allocates a ReceiveQueue with the given bound.
func NewReceiveQueue(size int) *ReceiveQueue {
	return &ReceiveQueue{items: make(chan *esp3.Packet, size)}
}

// Push enqueues a decoded packet. Drops (reporting ErrQueueFull) rather
// than blocking the controller worker on a slow consumer.
func (q *ReceiveQueue) Push(p *esp3.Packet) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.items <- p:
		return nil
	default:
		return ErrQueueFull
	}
}

// Receive blocks until a packet is available, ctx is done, or the queue is
// closed.
func (q *ReceiveQueue) Receive(ctx context.Context) (*esp3.Packet, error) {
	select {
	case p, ok := <-q.items:
		if !ok {
			return nil, ErrQueueClosed
		}
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of packets currently buffered.
func (q *ReceiveQueue) Len() int { return len(q.items) }

// Close shuts the queue down.
func (q *ReceiveQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
}
