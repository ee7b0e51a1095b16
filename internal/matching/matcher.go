package matching

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

const (
	ReasonNoMetadata     = "no searchable metadata"
	ReasonBelowThreshold = "no candidate above threshold"
)

// Searcher issues one catalog query. Errors are returned to the caller unchanged.
type Searcher interface {
	Search(ctx context.Context, q models.Query, limit int) ([]models.CandidateTrack, error)
}

// Thresholds are the acceptance floors for each stage.
type Thresholds struct {
	Fuzzy       float64 // minimum weighted score for a Fuzzy match
	TitleOnly   float64 // minimum title similarity for a TitleOnly match
	ArtistOnly  float64 // minimum title similarity for an ArtistOnly match when a local title exists
	ArtistFloor float64 // minimum artist similarity for an ArtistOnly match
}

// Config bundles scoring, thresholds and the per-query result limit.
type Config struct {
	Scorer      Scorer
	Thresholds  Thresholds
	SearchLimit int
}

// DefaultConfig mirrors the [matching] section of the example config.
func DefaultConfig() Config {
	return Config{
		Scorer:      DefaultScorer(),
		Thresholds:  Thresholds{Fuzzy: 0.80, TitleOnly: 0.60, ArtistOnly: 0.45, ArtistFloor: 0.80},
		SearchLimit: 20,
	}
}

// NewConfig converts loaded configuration into matcher settings.
func NewConfig(m shared.MatchingConfig) Config {
	return Config{
		Scorer: Scorer{TitleWeight: m.TitleWeight, ArtistWeight: m.ArtistWeight, TieEpsilon: m.TieEpsilon},
		Thresholds: Thresholds{
			Fuzzy:       m.FuzzyThreshold,
			TitleOnly:   m.TitleOnlyThreshold,
			ArtistOnly:  m.ArtistOnlyThreshold,
			ArtistFloor: m.ArtistFloor,
		},
		SearchLimit: m.SearchLimit,
	}
}

// Matcher runs the staged matching policy for one local track at a time.
// It holds no per-track state and is safe for concurrent use.
type Matcher struct {
	searcher Searcher
	config   Config
	logger   *log.Logger
}

// NewMatcher creates a [Matcher]. A nil logger discards output.
func NewMatcher(searcher Searcher, config Config, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if config.SearchLimit <= 0 {
		config.SearchLimit = DefaultConfig().SearchLimit
	}
	return &Matcher{searcher: searcher, config: config, logger: logger}
}

// Match returns exactly one decision for track, trying the Exact, Fuzzy, TitleOnly and ArtistOnly
// stages in order and stopping at the first acceptance.
//
// Queries carry the track's own title and artist; normalized forms are only used to compare
// candidates. A failed catalog query aborts matching and the error is returned as-is so the caller
// can decide whether to retry; an empty result set is not an error.
func (m *Matcher) Match(ctx context.Context, track models.LocalTrack) (models.MatchDecision, error) {
	k := newKey(track)
	if k.title == "" && k.artist == "" {
		return models.Unmatched(ReasonNoMetadata), nil
	}
	title, artist := strings.TrimSpace(track.Title), strings.TrimSpace(track.Artist)

	if k.title != "" && k.artist != "" {
		candidates, err := m.search(ctx, models.Query{Title: title, Artist: artist})
		if err != nil {
			return models.MatchDecision{}, err
		}
		if d, ok := m.exact(k, candidates); ok {
			return d, nil
		}
		if d, ok := m.fuzzy(k, candidates); ok {
			return d, nil
		}
	}

	if k.title != "" {
		candidates, err := m.search(ctx, models.Query{Title: title})
		if err != nil {
			return models.MatchDecision{}, err
		}
		if d, ok := m.titleOnly(k, candidates); ok {
			return d, nil
		}
	}

	if k.artist != "" {
		candidates, err := m.search(ctx, models.Query{Artist: artist})
		if err != nil {
			return models.MatchDecision{}, err
		}
		if d, ok := m.artistOnly(k, candidates); ok {
			return d, nil
		}
	}

	return models.Unmatched(ReasonBelowThreshold), nil
}

func (m *Matcher) search(ctx context.Context, q models.Query) ([]models.CandidateTrack, error) {
	candidates, err := m.searcher.Search(ctx, q, m.config.SearchLimit)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("catalog search", "query", q.String(), "results", len(candidates))
	return candidates, nil
}

func (m *Matcher) exact(k key, candidates []models.CandidateTrack) (models.MatchDecision, bool) {
	want := k.title + "|" + k.artist
	var entries []Scored
	for _, c := range candidates {
		if NormalizeTrackKey(c.Title, c.Artist) == want {
			entries = append(entries, Scored{Candidate: c, Score: 1, Album: k.albumSimilarity(c)})
		}
	}
	best, ok := m.config.Scorer.Best(entries, 1)
	if !ok {
		return models.MatchDecision{}, false
	}
	return models.Matched(best.Candidate, models.TierExact, 1), true
}

func (m *Matcher) fuzzy(k key, candidates []models.CandidateTrack) (models.MatchDecision, bool) {
	entries := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, Scored{Candidate: c, Score: m.config.Scorer.score(k, c), Album: k.albumSimilarity(c)})
	}
	best, ok := m.config.Scorer.Best(entries, m.config.Thresholds.Fuzzy)
	if !ok {
		return models.MatchDecision{}, false
	}
	return models.Matched(best.Candidate, models.TierFuzzy, best.Score), true
}

func (m *Matcher) titleOnly(k key, candidates []models.CandidateTrack) (models.MatchDecision, bool) {
	entries := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, Scored{Candidate: c, Score: Similarity(k.title, Normalize(c.Title)), Album: k.albumSimilarity(c)})
	}
	best, ok := m.config.Scorer.Best(entries, m.config.Thresholds.TitleOnly)
	if !ok {
		return models.MatchDecision{}, false
	}
	return models.Matched(best.Candidate, models.TierTitleOnly, best.Score), true
}

// artistOnly picks the most popular candidate by the right artist. When the local track has a
// title, the candidate title must still clear the ArtistOnly floor.
func (m *Matcher) artistOnly(k key, candidates []models.CandidateTrack) (models.MatchDecision, bool) {
	t := m.config.Thresholds
	var (
		best  models.CandidateTrack
		found bool
	)
	for _, c := range candidates {
		if Similarity(k.artist, Normalize(c.Artist)) < t.ArtistFloor {
			continue
		}
		if k.title != "" && Similarity(k.title, Normalize(c.Title)) < t.ArtistOnly {
			continue
		}
		if !found || c.Popularity > best.Popularity || (c.Popularity == best.Popularity && c.Rank < best.Rank) {
			best, found = c, true
		}
	}
	if !found {
		return models.MatchDecision{}, false
	}
	return models.Matched(best, models.TierArtistOnly, m.config.Scorer.score(k, best)), true
}
