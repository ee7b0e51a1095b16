// package models defines the data model for the local library transfer engine
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// LocalTrack is the structured metadata of one local audio file. Path is its identity.
//
// Empty strings mean the field was absent from both tags and filename.
type LocalTrack struct {
	Path     string `json:"path"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"` // seconds
}

// Label renders the track for logs and reports.
func (t LocalTrack) Label() string {
	switch {
	case t.Title != "" && t.Artist != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	case t.Artist != "":
		return t.Artist
	default:
		return t.Path
	}
}

// CandidateTrack is one result of a catalog search.
type CandidateTrack struct {
	ID         string `json:"id"`
	URI        string `json:"uri,omitempty"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	Popularity int    `json:"popularity"` // higher is more popular
	Rank       int    `json:"rank"`       // 0-based position in the search results
	Duration   int    `json:"duration,omitempty"`
}

// Query is a catalog search request. Empty fields are left out of the search.
type Query struct {
	Title  string
	Artist string
}

func (q Query) String() string {
	return strings.TrimSpace(q.Title + " " + q.Artist)
}

// Tier is the strength of an accepted match.
type Tier int

const (
	TierNone Tier = iota
	TierArtistOnly
	TierTitleOnly
	TierFuzzy
	TierExact
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierFuzzy:
		return "fuzzy"
	case TierTitleOnly:
		return "title_only"
	case TierArtistOnly:
		return "artist_only"
	default:
		return ""
	}
}

// ParseTier is the inverse of [Tier.String].
func ParseTier(s string) Tier {
	for _, t := range []Tier{TierExact, TierFuzzy, TierTitleOnly, TierArtistOnly} {
		if t.String() == s {
			return t
		}
	}
	return TierNone
}

// MatchDecision is the matcher's verdict for one LocalTrack.
// Either Candidate is set with a Tier, or Reason explains why nothing was accepted.
type MatchDecision struct {
	Candidate  *CandidateTrack `json:"candidate,omitempty"`
	Tier       Tier            `json:"-"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason,omitempty"`
}

// Matched builds an accepted decision.
func Matched(c CandidateTrack, tier Tier, confidence float64) MatchDecision {
	return MatchDecision{Candidate: &c, Tier: tier, Confidence: confidence}
}

// Unmatched builds a rejected decision.
func Unmatched(reason string) MatchDecision {
	return MatchDecision{Reason: reason}
}

// IsMatched reports whether a candidate was accepted.
func (d MatchDecision) IsMatched() bool {
	return d.Candidate != nil
}

func (d MatchDecision) String() string {
	if !d.IsMatched() {
		return fmt.Sprintf("unmatched (%s)", d.Reason)
	}
	return fmt.Sprintf("%s %.2f -> %s - %s", d.Tier, d.Confidence, d.Candidate.Artist, d.Candidate.Title)
}

// Outcome is the final state of one track in a transfer.
type Outcome string

const (
	OutcomeMatched   Outcome = "matched"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeErrored   Outcome = "errored"
)

// TrackResult is what a worker hands to the aggregator. Immutable once submitted.
type TrackResult struct {
	Index    int           `json:"index"`
	Track    LocalTrack    `json:"track"`
	Decision MatchDecision `json:"decision"`
	Outcome  Outcome       `json:"outcome"`
	Err      error         `json:"-"`
	Attempts int           `json:"attempts"`
}

// Error returns the error message or an empty string.
func (r TrackResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Counters are the running totals of a transfer.
type Counters struct {
	Total      int `json:"total"`
	Attempted  int `json:"attempted"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	Errored    int `json:"errored"`
	Exact      int `json:"exact"`
	Fuzzy      int `json:"fuzzy"`
	TitleOnly  int `json:"title_only"`
	ArtistOnly int `json:"artist_only"`
}

// Add folds one result into the counters.
func (c *Counters) Add(r TrackResult) {
	c.Attempted++
	switch r.Outcome {
	case OutcomeMatched:
		c.Matched++
		switch r.Decision.Tier {
		case TierExact:
			c.Exact++
		case TierFuzzy:
			c.Fuzzy++
		case TierTitleOnly:
			c.TitleOnly++
		case TierArtistOnly:
			c.ArtistOnly++
		}
	case OutcomeUnmatched:
		c.Unmatched++
	case OutcomeErrored:
		c.Errored++
	}
}

// Covers reports whether every counter in c is at least the one in prev.
func (c Counters) Covers(prev Counters) bool {
	return c.Attempted >= prev.Attempted && c.Matched >= prev.Matched &&
		c.Unmatched >= prev.Unmatched && c.Errored >= prev.Errored
}

// JobStatus is the lifecycle state of a transfer.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusPaused    JobStatus = "paused"
	StatusCancelled JobStatus = "cancelled"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusFailed
}

// JobRecord is the persisted history entry for one transfer run.
type JobRecord struct {
	JobID        string     `json:"id"`
	Sequence     int        `json:"sequence"`
	Catalog      string     `json:"catalog"`
	PlaylistID   string     `json:"playlist_id"`
	LibraryPath  string     `json:"library_path"`
	Status       JobStatus  `json:"status"`
	Counters     Counters   `json:"counters"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Created      time.Time  `json:"created_at"`
	Updated      time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

func (j *JobRecord) ID() string           { return j.JobID }
func (j *JobRecord) CreatedAt() time.Time { return j.Created }
func (j *JobRecord) UpdatedAt() time.Time { return j.Updated }

// Validate checks required fields and counter consistency.
func (j *JobRecord) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("job id is required")
	}
	if j.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if j.Status == "" {
		return fmt.Errorf("status is required")
	}
	c := j.Counters
	if c.Matched+c.Unmatched+c.Errored != c.Attempted {
		return fmt.Errorf("counters out of balance: %d+%d+%d != %d", c.Matched, c.Unmatched, c.Errored, c.Attempted)
	}
	if c.Attempted > c.Total {
		return fmt.Errorf("attempted %d exceeds total %d", c.Attempted, c.Total)
	}
	return nil
}

// TrackRecord is one persisted per-track row of a job.
type TrackRecord struct {
	JobID           string  `json:"job_id"`
	Position        int     `json:"position"`
	Path            string  `json:"path"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	Outcome         Outcome `json:"outcome"`
	Tier            string  `json:"tier,omitempty"`
	Confidence      float64 `json:"confidence"`
	CandidateID     string  `json:"candidate_id,omitempty"`
	CandidateTitle  string  `json:"candidate_title,omitempty"`
	CandidateArtist string  `json:"candidate_artist,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	Attempts        int     `json:"attempts"`
}

// NewTrackRecord flattens a result for storage.
func NewTrackRecord(jobID string, r TrackResult) TrackRecord {
	rec := TrackRecord{
		JobID:      jobID,
		Position:   r.Index,
		Path:       r.Track.Path,
		Title:      r.Track.Title,
		Artist:     r.Track.Artist,
		Album:      r.Track.Album,
		Outcome:    r.Outcome,
		Tier:       r.Decision.Tier.String(),
		Confidence: r.Decision.Confidence,
		Reason:     r.Decision.Reason,
		Attempts:   r.Attempts,
	}
	if c := r.Decision.Candidate; c != nil {
		rec.CandidateID = c.ID
		rec.CandidateTitle = c.Title
		rec.CandidateArtist = c.Artist
	}
	if r.Err != nil {
		rec.Reason = r.Err.Error()
	}
	return rec
}
