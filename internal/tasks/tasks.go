package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/local2stream/internal/matching"
	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/services"
	"github.com/desertthunder/local2stream/internal/shared"
)

// Options configures a [TransferEngine].
type Options struct {
	MaxConcurrency    int           // worker count, also the cap on in-flight catalog calls
	MaxRetries        int           // retries per catalog call after the first attempt
	RetryBackoff      time.Duration // first backoff interval
	MaxBackoff        time.Duration // backoff cap
	RequestsPerSecond float64       // shared request budget; 0 disables
	Matching          matching.Config
	DryRun            bool // match only, never mutate the playlist
	Logger            *log.Logger
}

// DefaultOptions returns the values of the example config.
func DefaultOptions() Options {
	return Options{
		MaxConcurrency:    4,
		MaxRetries:        3,
		RetryBackoff:      500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		RequestsPerSecond: 10,
		Matching:          matching.DefaultConfig(),
	}
}

// NewOptions builds engine options from loaded configuration.
func NewOptions(config *shared.Config, logger *log.Logger) Options {
	t := config.Transfer
	return Options{
		MaxConcurrency:    t.MaxConcurrency,
		MaxRetries:        t.MaxRetries,
		RetryBackoff:      t.RetryBackoff(),
		MaxBackoff:        t.MaxBackoff(),
		RequestsPerSecond: t.RequestsPerSecond,
		Matching:          matching.NewConfig(config.Matching),
		DryRun:            t.DryRun,
		Logger:            logger,
	}
}

func (o Options) validate() error {
	switch {
	case o.MaxConcurrency < 1:
		return fmt.Errorf("%w: max concurrency must be at least 1", shared.ErrInvalidArgument)
	case o.MaxRetries < 0:
		return fmt.Errorf("%w: max retries must not be negative", shared.ErrInvalidArgument)
	case o.RetryBackoff < 0 || o.MaxBackoff < 0:
		return fmt.Errorf("%w: backoff must not be negative", shared.ErrInvalidArgument)
	case o.RequestsPerSecond < 0:
		return fmt.Errorf("%w: requests per second must not be negative", shared.ErrInvalidArgument)
	}
	return nil
}

// TransferEngine matches local tracks against a catalog and appends the matches to a playlist.
//
// One engine may run several jobs; they share its request budget.
type TransferEngine struct {
	catalog services.Catalog
	opts    Options
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewTransferEngine creates an engine over catalog.
func NewTransferEngine(catalog services.Catalog, opts Options) *TransferEngine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &TransferEngine{catalog: catalog, opts: opts, limiter: limiter, logger: logger}
}

// Options returns the engine's configuration.
func (e *TransferEngine) Options() Options {
	return e.opts
}

func (e *TransferEngine) policy(logger *log.Logger) RetryPolicy {
	return RetryPolicy{
		MaxRetries: e.opts.MaxRetries,
		Base:       e.opts.RetryBackoff,
		Max:        e.opts.MaxBackoff,
		Limiter:    e.limiter,
		Logger:     logger,
	}
}

// Start validates its input and launches a job in the background.
//
// Invalid input is reported before any work begins. Once started, failures surface through the job's
// status and terminal event. Cancelling ctx cancels the job. Callers must drain [Job.Events] (or use
// [TransferEngine.Run]); the event pump exits only once the stream has been read to its end.
func (e *TransferEngine) Start(ctx context.Context, tracks []models.LocalTrack, playlistID string) (*Job, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if len(tracks) == 0 {
		return nil, shared.ErrNoTracks
	}
	if playlistID == "" && !e.opts.DryRun {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if err := e.opts.validate(); err != nil {
		return nil, err
	}

	job := newJob(e.catalog.Name(), playlistID, slices.Clone(tracks))
	job.start()

	logger := shared.WithLogger(e.logger, "job", job.ID)
	logger.Info("starting transfer", "tracks", len(tracks), "catalog", job.Catalog, "playlist", playlistID,
		"workers", min(e.opts.MaxConcurrency, len(tracks)), "dry_run", e.opts.DryRun)

	go e.run(ctx, job, logger)
	return job, nil
}

// Run starts a job and blocks until it finishes, logging each event at debug level.
// The returned error is the job error of a failed run.
func (e *TransferEngine) Run(ctx context.Context, tracks []models.LocalTrack, playlistID string) (*Summary, error) {
	job, err := e.Start(ctx, tracks, playlistID)
	if err != nil {
		return nil, err
	}
	for ev := range job.Events() {
		e.logger.Debug(ev.Message())
	}
	summary := job.Wait()
	return summary, summary.Err
}

// EnsurePlaylist returns playlistID, or creates a playlist called name when it is empty.
// Dry runs never create anything.
func (e *TransferEngine) EnsurePlaylist(ctx context.Context, playlistID, name string, trackCount int) (string, error) {
	if playlistID != "" || e.opts.DryRun {
		return playlistID, nil
	}
	if name == "" {
		return "", fmt.Errorf("%w: playlist id or name", shared.ErrMissingArgument)
	}
	if e.catalog == nil {
		return "", fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	var id string
	_, err := e.policy(e.logger).Do(ctx, nil, "create_playlist", func(ctx context.Context) error {
		var err error
		id, err = e.catalog.CreatePlaylist(ctx, name, PlaylistDescription(trackCount, time.Now()))
		return err
	})
	if err != nil {
		return "", err
	}
	e.logger.Info("created playlist", "name", name, "id", id)
	return id, nil
}

// PlaylistDescription is the description given to playlists created by a transfer.
func PlaylistDescription(trackCount int, now time.Time) string {
	return fmt.Sprintf("Auto-generated by local2stream - %d files processed on %s", trackCount, now.Format("2006-01-02"))
}

// run owns the job from its first dequeue to its terminal event.
func (e *TransferEngine) run(ctx context.Context, job *Job, logger *log.Logger) {
	policy := e.policy(logger)

	queue := make(chan int, len(job.tracks))
	for i := range job.tracks {
		queue <- i
	}
	close(queue)

	results := make(chan workResult, len(job.tracks))
	var wg sync.WaitGroup
	for range min(e.opts.MaxConcurrency, len(job.tracks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, job, policy, queue, results)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			job.ctl.Stop(shared.ErrCancelled)
		case <-watchDone:
		}
	}()

	newAggregator(job).consume(results)
	close(watchDone)

	summary := job.finish()
	c := summary.Counters
	switch summary.Status {
	case models.StatusFailed:
		logger.Error("transfer failed", "err", summary.Err, "attempted", c.Attempted, "total", c.Total)
	default:
		logger.Info("transfer finished", "status", summary.Status, "matched", c.Matched, "unmatched", c.Unmatched,
			"errored", c.Errored, "total", c.Total, "duration", summary.Duration())
	}

	job.reporter.Publish(terminalEvent(c.Total, c, summary.Status, summary.Err))
	job.reporter.Close()
	close(job.done)
}

// worker checks the control token before and after taking a track so a pause or stop never
// starts new work. The queue is filled and closed up front, so an empty queue means there is
// nothing left to pause for and the worker exits instead of waiting.
func (e *TransferEngine) worker(ctx context.Context, job *Job, policy RetryPolicy, queue <-chan int, results chan<- workResult) {
	for {
		if len(queue) == 0 {
			return
		}
		if err := job.ctl.Wait(ctx); err != nil {
			return
		}
		idx, ok := <-queue
		if !ok {
			return
		}
		if err := job.ctl.Wait(ctx); err != nil {
			results <- workResult{result: models.TrackResult{Index: idx, Track: job.tracks[idx]}, skipped: true}
			return
		}
		results <- e.process(ctx, job, policy, idx)
	}
}

// process matches one track and, on a match, appends it to the playlist.
func (e *TransferEngine) process(ctx context.Context, job *Job, policy RetryPolicy, idx int) workResult {
	track := job.tracks[idx]
	tc := &trackCatalog{catalog: e.catalog, policy: policy, ctl: job.ctl}
	matcher := matching.NewMatcher(tc, e.opts.Matching, policy.Logger)

	decision, err := matcher.Match(ctx, track)
	if err == nil && decision.IsMatched() && !e.opts.DryRun {
		err = tc.add(ctx, job.PlaylistID, *decision.Candidate)
	}

	r := models.TrackResult{Index: idx, Track: track, Decision: decision, Attempts: tc.attempts}
	switch {
	case err == nil && decision.IsMatched():
		r.Outcome = models.OutcomeMatched
	case err == nil:
		r.Outcome = models.OutcomeUnmatched
	case errors.Is(err, errInterrupted) || (ctx.Err() != nil && isContextErr(err)):
		policy.Logger.Debug("track interrupted", "index", idx, "track", track.Label())
		return workResult{result: r, skipped: true}
	case shared.IsRetryable(err):
		r.Outcome = models.OutcomeErrored
		r.Err = err
	default:
		r.Outcome = models.OutcomeErrored
		r.Err = err
		policy.Logger.Error("aborting transfer", "index", idx, "track", track.Label(), "err", err)
		job.fail(err)
	}

	policy.Logger.Debug("track processed", "index", idx, "track", track.Label(), "outcome", r.Outcome, "attempts", r.Attempts)
	return workResult{result: r}
}

// trackCatalog routes one track's catalog calls through the retry policy and counts attempts.
// It is owned by a single worker.
type trackCatalog struct {
	catalog  services.Catalog
	policy   RetryPolicy
	ctl      *Control
	attempts int
}

func (c *trackCatalog) Search(ctx context.Context, q models.Query, limit int) ([]models.CandidateTrack, error) {
	var candidates []models.CandidateTrack
	n, err := c.policy.Do(ctx, c.ctl, "search", func(ctx context.Context) error {
		var err error
		candidates, err = c.catalog.Search(ctx, q, limit)
		return err
	})
	c.attempts += n
	return candidates, err
}

func (c *trackCatalog) add(ctx context.Context, playlistID string, candidate models.CandidateTrack) error {
	n, err := c.policy.Do(ctx, c.ctl, "add_track", func(ctx context.Context) error {
		return c.catalog.AddTrack(ctx, playlistID, candidate)
	})
	c.attempts += n
	return err
}
