package tasks

import "sync"

// Reporter is an unbounded, ordered event queue. Publish never blocks the aggregator; a pump
// goroutine hands events to Events() at the consumer's pace.
type Reporter struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []ProgressEvent
	closed bool
	out    chan ProgressEvent
}

// NewReporter starts the pump goroutine. Consumers should read Events until it is closed.
func NewReporter() *Reporter {
	r := &Reporter{out: make(chan ProgressEvent, 16)}
	r.cond = sync.NewCond(&r.mu)
	go r.pump()
	return r
}

// Publish enqueues e. Events published after Close are dropped.
func (r *Reporter) Publish(e ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.queue = append(r.queue, e)
	r.cond.Signal()
}

// Close closes Events once every queued event has been delivered.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Signal()
}

// Events is the receive side of the stream.
func (r *Reporter) Events() <-chan ProgressEvent {
	return r.out
}

func (r *Reporter) pump() {
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.queue) == 0 {
			r.mu.Unlock()
			close(r.out)
			return
		}
		e := r.queue[0]
		r.queue[0] = ProgressEvent{}
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.out <- e
	}
}
