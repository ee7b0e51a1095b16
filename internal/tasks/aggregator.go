package tasks

import (
	"slices"

	"github.com/desertthunder/local2stream/internal/models"
)

// workResult is what a worker submits for one dequeued track. Skipped tracks were interrupted by a
// stop and are neither counted nor reported.
type workResult struct {
	result  models.TrackResult
	skipped bool
}

// aggregator is the single writer of a job's counters. It buffers results that complete out of
// order and releases them by index so events never go backwards.
type aggregator struct {
	job     *Job
	next    int
	pending map[int]workResult
}

func newAggregator(job *Job) *aggregator {
	return &aggregator{job: job, pending: make(map[int]workResult)}
}

// consume reads results until the channel is closed.
func (a *aggregator) consume(results <-chan workResult) {
	for wr := range results {
		a.pending[wr.result.Index] = wr
		a.flush()
	}
	a.drain()
}

// flush releases every result contiguous with next.
func (a *aggregator) flush() {
	for {
		wr, ok := a.pending[a.next]
		if !ok {
			return
		}
		delete(a.pending, a.next)
		a.next++
		a.emit(wr)
	}
}

// drain releases whatever is left after the workers exit. Gaps come from tracks never dequeued.
func (a *aggregator) drain() {
	indexes := make([]int, 0, len(a.pending))
	for i := range a.pending {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)
	for _, i := range indexes {
		a.emit(a.pending[i])
		delete(a.pending, i)
	}
}

func (a *aggregator) emit(wr workResult) {
	if wr.skipped {
		return
	}
	counters, status := a.job.record(wr.result)
	a.job.reporter.Publish(trackEvent(wr.result, len(a.job.tracks), counters, status))
}
