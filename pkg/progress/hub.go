package progress

import (
	"sync"
)

// Publisher is the write side a worker uses to report progress for its operation.
type Publisher interface {
	Publish(phase Phase, fraction float64, stage string)
	PublishSample(sample Sample, stage string)
}

// Hub fans in progress from many workers into one stream read by a single consumer.
// Each worker writes only to its own Stream; the consumer applies events serially.
type Hub struct {
	out    chan Event
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewHub creates a hub whose consumer channel holds up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{out: make(chan Event, buffer)}
}

// Open returns a private stream for one operation. The stream must be closed by its worker.
// Open panics if called after Close.
func (h *Hub) Open(operationID string) *Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		panic("progress: Open on closed Hub")
	}

	s := &Stream{id: operationID, ch: make(chan Event, 16)}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for ev := range s.ch {
			h.out <- ev
		}
	}()
	return s
}

// Events is the single-consumer read side. It is closed by Close once every stream is closed.
func (h *Hub) Events() <-chan Event {
	return h.out
}

// Close waits for all open streams to close, then closes Events.
// The consumer must keep draining Events while Close runs.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.wg.Wait()
	close(h.out)
}

// Stream is a worker-owned progress channel for one operation.
type Stream struct {
	id     string
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// ID returns the operation ID the stream was opened for.
func (s *Stream) ID() string {
	return s.id
}

// Publish sends an event. Intermediate events are dropped when the stream
// buffer is full; terminal events always wait for room.
func (s *Stream) Publish(phase Phase, fraction float64, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	ev := newEvent(s.id, phase, fraction, stage)
	if phase.Terminal() {
		s.ch <- ev
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// PublishSample normalizes a raw sample and publishes it. Unusable samples are dropped.
func (s *Stream) PublishSample(sample Sample, stage string) {
	phase, fraction, ok := Normalize(sample)
	if !ok {
		return
	}
	s.Publish(phase, fraction, stage)
}

// Close ends the stream. Further publishes are ignored.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Phase, float64, string) {}
func (discard) PublishSample(Sample, string)   {}

// Drain consumes events until the channel closes, driving one Reporter per
// operation created by newReporter. It returns the last event seen per operation.
func Drain(events <-chan Event, newReporter func(operationID string) Reporter) map[string]Event {
	const scale = 1000

	reporters := make(map[string]Reporter)
	last := make(map[string]Event)
	for ev := range events {
		last[ev.OperationID] = ev

		r, ok := reporters[ev.OperationID]
		if !ok {
			r = newReporter(ev.OperationID)
			r.Start(scale)
			reporters[ev.OperationID] = r
		}

		switch ev.Phase {
		case PhaseFinished:
			r.Complete()
		case PhaseFailed:
			r.Fail(ev.Stage)
		default:
			r.Update(int64(ev.Fraction*scale), string(ev.Phase), ev.Stage)
		}
	}
	return last
}
