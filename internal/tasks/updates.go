package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/local2stream/internal/models"
)

// EventKind distinguishes per-track events from the final one.
type EventKind int

const (
	EventTrack EventKind = iota
	EventTerminal
)

func (k EventKind) String() string {
	if k == EventTerminal {
		return "terminal"
	}
	return "track"
}

// ProgressEvent is one immutable notification emitted by a job's aggregator.
//
// Track events arrive in increasing Index order. The terminal event carries Index == Total,
// the final counters and status, and the job error for failed runs.
type ProgressEvent struct {
	Kind     EventKind
	Index    int
	Total    int
	Track    models.LocalTrack
	Decision models.MatchDecision
	Outcome  models.Outcome
	Err      error
	Counters models.Counters
	Status   models.JobStatus
	Time     time.Time
}

// Message renders the event as a single log line.
func (e ProgressEvent) Message() string {
	if e.Kind == EventTerminal {
		c := e.Counters
		msg := fmt.Sprintf("transfer %s: %d matched, %d unmatched, %d errored of %d", e.Status, c.Matched, c.Unmatched, c.Errored, c.Total)
		if e.Err != nil {
			msg += fmt.Sprintf(" (%v)", e.Err)
		}
		return msg
	}

	prefix := fmt.Sprintf("[%d/%d] %s", e.Index+1, e.Total, e.Track.Label())
	switch e.Outcome {
	case models.OutcomeMatched:
		return fmt.Sprintf("%s: %s", prefix, e.Decision)
	case models.OutcomeErrored:
		return fmt.Sprintf("%s: error: %v", prefix, e.Err)
	default:
		return fmt.Sprintf("%s: %s", prefix, e.Decision.Reason)
	}
}

func trackEvent(r models.TrackResult, total int, counters models.Counters, status models.JobStatus) ProgressEvent {
	return ProgressEvent{
		Kind:     EventTrack,
		Index:    r.Index,
		Total:    total,
		Track:    r.Track,
		Decision: r.Decision,
		Outcome:  r.Outcome,
		Err:      r.Err,
		Counters: counters,
		Status:   status,
		Time:     time.Now(),
	}
}

func terminalEvent(total int, counters models.Counters, status models.JobStatus, err error) ProgressEvent {
	return ProgressEvent{
		Kind:     EventTerminal,
		Index:    total,
		Total:    total,
		Err:      err,
		Counters: counters,
		Status:   status,
		Time:     time.Now(),
	}
}
