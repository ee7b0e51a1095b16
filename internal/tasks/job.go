package tasks

import (
	"sync"
	"time"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

// Job is one running transfer. Counters and results are only written by the job's aggregator;
// everything exported here is safe to call from any goroutine.
type Job struct {
	ID         string
	PlaylistID string
	Catalog    string

	tracks   []models.LocalTrack
	ctl      *Control
	reporter *Reporter
	done     chan struct{}

	mu         sync.Mutex
	status     models.JobStatus
	counters   models.Counters
	results    []models.TrackResult
	err        error
	startedAt  time.Time
	finishedAt time.Time
	summary    *Summary
}

func newJob(catalog, playlistID string, tracks []models.LocalTrack) *Job {
	return &Job{
		ID:         shared.GenerateID(),
		PlaylistID: playlistID,
		Catalog:    catalog,
		tracks:     tracks,
		ctl:        NewControl(),
		reporter:   NewReporter(),
		done:       make(chan struct{}),
		status:     models.StatusPending,
		counters:   models.Counters{Total: len(tracks)},
		results:    make([]models.TrackResult, 0, len(tracks)),
	}
}

// Events streams progress in track order, ending with one terminal event. The channel is closed
// after the terminal event has been delivered. It must be read to the end; an abandoned stream
// keeps its pump goroutine blocked.
func (j *Job) Events() <-chan ProgressEvent {
	return j.reporter.Events()
}

// Done is closed when the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its summary.
func (j *Job) Wait() *Summary {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.summary
}

// Pause holds workers before their next track. In-flight tracks finish first.
func (j *Job) Pause() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != models.StatusRunning || !j.ctl.Pause() {
		return false
	}
	j.status = models.StatusPaused
	return true
}

// Resume releases a paused job.
func (j *Job) Resume() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != models.StatusPaused || !j.ctl.Resume() {
		return false
	}
	j.status = models.StatusRunning
	return true
}

// Cancel stops dequeuing. Tracks already being processed finish; retries waiting out a backoff
// are abandoned.
func (j *Job) Cancel() bool {
	return j.ctl.Stop(shared.ErrCancelled)
}

// Status returns the current lifecycle state.
func (j *Job) Status() models.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Snapshot returns a copy of the job's state so far.
func (j *Job) Snapshot() Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.summarize()
}

// fail records the first job-level error and stops the workers.
func (j *Job) fail(err error) {
	j.mu.Lock()
	if j.err == nil {
		j.err = err
	}
	j.mu.Unlock()
	j.ctl.Stop(err)
}

func (j *Job) start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = models.StatusRunning
	j.startedAt = time.Now()
}

// record folds r into the counters and returns the values to publish. Aggregator only.
func (j *Job) record(r models.TrackResult) (models.Counters, models.JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.counters.Add(r)
	j.results = append(j.results, r)
	return j.counters, j.status
}

// finish settles the terminal status; a cancelled job carries its stop reason as the error. Aggregator only.
func (j *Job) finish() *Summary {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch {
	case j.err != nil:
		j.status = models.StatusFailed
	case j.ctl.Err() != nil:
		j.status = models.StatusCancelled
		j.err = j.ctl.Err()
	default:
		j.status = models.StatusCompleted
	}
	j.finishedAt = time.Now()

	s := j.summarize()
	j.summary = &s
	return j.summary
}

func (j *Job) summarize() Summary {
	return Summary{
		JobID:      j.ID,
		PlaylistID: j.PlaylistID,
		Catalog:    j.Catalog,
		Status:     j.status,
		Counters:   j.counters,
		Results:    append([]models.TrackResult(nil), j.results...),
		Err:        j.err,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
	}
}

// Summary is the caller-facing result of a transfer.
type Summary struct {
	JobID      string
	PlaylistID string
	Catalog    string
	Status     models.JobStatus
	Counters   models.Counters
	Results    []models.TrackResult // in track order
	Err        error                // set when Status is failed
	StartedAt  time.Time
	FinishedAt time.Time
}

// MatchPercentage is the share of all tracks that were matched.
func (s *Summary) MatchPercentage() float64 {
	return shared.Percent(s.Counters.Matched, s.Counters.Total)
}

// Duration is the wall time of the run, or zero if it never finished.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Unmatched returns the tracks for which no candidate was accepted.
func (s *Summary) Unmatched() []models.TrackResult {
	return s.filter(models.OutcomeUnmatched)
}

// Errored returns the tracks that failed after exhausting retries.
func (s *Summary) Errored() []models.TrackResult {
	return s.filter(models.OutcomeErrored)
}

func (s *Summary) filter(o models.Outcome) []models.TrackResult {
	var out []models.TrackResult
	for _, r := range s.Results {
		if r.Outcome == o {
			out = append(out, r)
		}
	}
	return out
}

// Record converts the summary into a history entry.
func (s *Summary) Record(libraryPath string) *models.JobRecord {
	rec := &models.JobRecord{
		JobID:       s.JobID,
		Catalog:     s.Catalog,
		PlaylistID:  s.PlaylistID,
		LibraryPath: libraryPath,
		Status:      s.Status,
		Counters:    s.Counters,
	}
	if s.Err != nil {
		rec.ErrorMessage = s.Err.Error()
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		rec.StartedAt = &started
	}
	if !s.FinishedAt.IsZero() {
		completed := s.FinishedAt
		rec.CompletedAt = &completed
	}
	return rec
}
