package event

import (
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Queue is an in-memory FIFO event stream. Every published event gets the next sequence number.
type Queue struct {
	mu     sync.Mutex
	events []Event
	seq    uint64
	closed bool
}

var _ Sink = (*Queue)(nil)

func NewQueue() *Queue {
	return &Queue{}
}

// Publish implements Sink. Either all events are appended or none is.
func (q *Queue) Publish(events ...Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New(errors.ErrCodeEventStreamClosed, "event queue is closed")
	}

	for _, e := range events {
		q.seq++
		e.Seq = q.seq
		q.events = append(q.events, e)
	}

	return nil
}

// Next removes and returns the oldest event.
func (q *Queue) Next() optional.Option[Event] {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return optional.None[Event]()
	}

	e := q.events[0]
	q.events[0] = Event{}
	q.events = q.events[1:]

	return optional.Some(e)
}

// Drain removes and returns every queued event, oldest first.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.events
	q.events = nil

	return drained
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.events)
}

// Published returns the number of events published since creation.
func (q *Queue) Published() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.seq
}

// Close stops accepting events. Queued events can still be read.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
}
