package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
	tu "github.com/desertthunder/local2stream/internal/testing"
)

// The defaults are part of the documented behaviour: a Fuzzy match needs a weighted score of 0.80
// (title 0.7, artist 0.3), TitleOnly a title similarity of 0.60 and ArtistOnly an artist similarity
// of 0.80 plus a title similarity of 0.45 when the local title is known.
func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	expected := Thresholds{Fuzzy: 0.80, TitleOnly: 0.60, ArtistOnly: 0.45, ArtistFloor: 0.80}
	if c.Thresholds != expected {
		t.Errorf("unexpected thresholds %+v", c.Thresholds)
	}
	if c.Scorer != (Scorer{TitleWeight: 0.7, ArtistWeight: 0.3, TieEpsilon: 0.01}) {
		t.Errorf("unexpected scorer %+v", c.Scorer)
	}
	if c.SearchLimit != 20 {
		t.Errorf("expected search limit 20, got %d", c.SearchLimit)
	}

	if fromFile := NewConfig(shared.DefaultConfig().Matching); fromFile != c {
		t.Errorf("config file defaults %+v differ from matcher defaults %+v", fromFile, c)
	}
}

func TestMatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Exact beats more popular fuzzy candidates", func(t *testing.T) {
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Title: "Imagine", Artist: "John Lennon"}: {
				{ID: "cover", Title: "Imagine", Artist: "John Lennon Tribute", Popularity: 90, Rank: 0},
				{ID: "orig", Title: "Imagine - Remastered 2010", Artist: "John Lennon", Popularity: 50, Rank: 1},
			},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/a.mp3", Title: "Imagine", Artist: "John Lennon"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Tier != models.TierExact || d.Candidate.ID != "orig" || d.Confidence != 1 {
			t.Errorf("expected exact match on orig, got %v", d)
		}
		if catalog.Searches() != 1 {
			t.Errorf("expected a single query, got %d", catalog.Searches())
		}
	})

	t.Run("Fuzzy", func(t *testing.T) {
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Title: "Bohemian Rhapsody", Artist: "Queen"}: {
				{ID: "far", Title: "Radio Ga Ga", Artist: "Queen"},
				{ID: "near", Title: "Bohemian Rhapsodie", Artist: "Queen"},
			},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/b.mp3", Title: "Bohemian Rhapsody", Artist: "Queen"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Tier != models.TierFuzzy || d.Candidate.ID != "near" {
			t.Errorf("expected fuzzy match on near, got %v", d)
		}
		if d.Confidence < 0.80 {
			t.Errorf("fuzzy confidence %v below threshold", d.Confidence)
		}
		if catalog.Searches() != 1 {
			t.Errorf("fuzzy stage should reuse the exact query, got %d searches", catalog.Searches())
		}
	})

	t.Run("Fuzzy decisions respect threshold", func(t *testing.T) {
		local := models.LocalTrack{Path: "/c.mp3", Title: "Wonderwall", Artist: "Oasis"}
		candidates := []models.CandidateTrack{
			{ID: "1", Title: "Wonderwal", Artist: "Oasis"},
			{ID: "2", Title: "Wonder Wall", Artist: "Oasys"},
			{ID: "3", Title: "Wanderwall", Artist: "Oasis Tribute"},
			{ID: "4", Title: "Champagne Supernova", Artist: "Oasis"},
		}

		for _, threshold := range []float64{0.5, 0.75, 0.8, 0.9, 0.95, 0.99} {
			config := DefaultConfig()
			config.Thresholds.Fuzzy = threshold
			catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
				{Title: "Wonderwall", Artist: "Oasis"}: candidates,
			})

			d, err := NewMatcher(catalog, config, nil).Match(ctx, local)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Tier == models.TierFuzzy && d.Confidence < threshold {
				t.Errorf("threshold %v: fuzzy decision with score %v", threshold, d.Confidence)
			}
		}
	})

	t.Run("TitleOnly when artist missing", func(t *testing.T) {
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Title: "Clair de Lune"}: {
				{ID: "deb", Title: "Clair de Lune", Artist: "Claude Debussy"},
			},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/d.flac", Title: "Clair de Lune"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Tier != models.TierTitleOnly || d.Candidate.ID != "deb" {
			t.Errorf("expected title-only match, got %v", d)
		}

		queries := catalog.Queries()
		if len(queries) != 1 || queries[0] != (models.Query{Title: "Clair de Lune"}) {
			t.Errorf("expected a single title query, got %v", queries)
		}
	})

	t.Run("TitleOnly after fuzzy rejects", func(t *testing.T) {
		cover := models.CandidateTrack{ID: "cover", Title: "Yesterday", Artist: "Boyz II Men"}
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Title: "Yesterday", Artist: "The Beatles"}: {cover},
			{Title: "Yesterday"}:                        {cover},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/e.mp3", Title: "Yesterday", Artist: "The Beatles"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Tier != models.TierTitleOnly {
			t.Errorf("expected title-only match, got %v", d)
		}
		if catalog.Searches() != 2 {
			t.Errorf("expected 2 searches, got %d", catalog.Searches())
		}
	})

	t.Run("ArtistOnly picks most popular by that artist", func(t *testing.T) {
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Artist: "Radiohead"}: {
				{ID: "creep", Title: "Creep", Artist: "Radiohead", Popularity: 80, Rank: 0},
				{ID: "karma", Title: "Karma Police", Artist: "Radiohead", Popularity: 85, Rank: 1},
				{ID: "tribute", Title: "Creep", Artist: "Radiohead Tribute Band", Popularity: 99, Rank: 2},
			},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/f.mp3", Artist: "Radiohead"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Tier != models.TierArtistOnly || d.Candidate.ID != "karma" {
			t.Errorf("expected artist-only match on karma, got %v", d)
		}
		if catalog.Searches() != 1 {
			t.Errorf("expected only the artist query, got %d", catalog.Searches())
		}
	})

	t.Run("ArtistOnly requires a loose title match when title known", func(t *testing.T) {
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Artist: "Radiohead"}: {
				{ID: "creep", Title: "Creep", Artist: "Radiohead", Popularity: 99},
				{ID: "pa", Title: "Paranoid Android", Artist: "Radiohead", Popularity: 50},
			},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/g.mp3", Title: "Paranoid Androidz", Artist: "Radiohead"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Tier != models.TierArtistOnly || d.Candidate.ID != "pa" {
			t.Errorf("expected artist-only match on pa, got %v", d)
		}
		if catalog.Searches() != 3 {
			t.Errorf("expected three stage queries, got %d", catalog.Searches())
		}
	})

	t.Run("Queries use the track's own terms", func(t *testing.T) {
		catalog := tu.NewMockCatalog(nil)
		m := NewMatcher(catalog, DefaultConfig(), nil)

		track := models.LocalTrack{Path: "/l.flac", Title: "  Imagine (Remastered 2010) ", Artist: "Björk feat. X"}
		if _, err := m.Match(ctx, track); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []models.Query{
			{Title: "Imagine (Remastered 2010)", Artist: "Björk feat. X"},
			{Title: "Imagine (Remastered 2010)"},
			{Artist: "Björk feat. X"},
		}
		queries := catalog.Queries()
		if len(queries) != len(expected) {
			t.Fatalf("expected %d queries, got %v", len(expected), queries)
		}
		for i, q := range expected {
			if queries[i] != q {
				t.Errorf("query %d = %+v, want %+v", i, queries[i], q)
			}
		}
	})

	t.Run("Exact compares normalized forms of the raw query results", func(t *testing.T) {
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Title: "Imagine (Remastered 2010)", Artist: "John Lennon"}: {
				{ID: "orig", Title: "Imagine - Remastered 2010", Artist: "John Lennon"},
			},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/m.mp3", Title: "Imagine (Remastered 2010)", Artist: "John Lennon"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Tier != models.TierExact || d.Candidate.ID != "orig" {
			t.Errorf("expected exact match on orig, got %v", d)
		}
	})

	t.Run("Unmatched when nothing clears a threshold", func(t *testing.T) {
		catalog := tu.NewMockCatalog(nil)
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/h.mp3", Title: "xyz123"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.IsMatched() || d.Reason != ReasonBelowThreshold {
			t.Errorf("expected unmatched, got %v", d)
		}
	})

	t.Run("No searchable metadata", func(t *testing.T) {
		catalog := tu.NewMockCatalog(nil)
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/i.mp3", Title: "  (  ) "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Reason != ReasonNoMetadata {
			t.Errorf("expected no-metadata reason, got %v", d)
		}
		if catalog.Searches() != 0 {
			t.Errorf("expected no searches, got %d", catalog.Searches())
		}
	})

	t.Run("Album breaks ties between exact candidates", func(t *testing.T) {
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Title: "Intro", Artist: "The xx"}: {
				{ID: "coexist", Title: "Intro", Artist: "The xx", Album: "Coexist", Popularity: 90},
				{ID: "xx", Title: "Intro", Artist: "The xx", Album: "xx", Popularity: 10},
			},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		d, err := m.Match(ctx, models.LocalTrack{Path: "/j.mp3", Title: "Intro", Artist: "The xx", Album: "xx"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Candidate == nil || d.Candidate.ID != "xx" {
			t.Errorf("expected album tie-break to pick xx, got %v", d)
		}
	})

	t.Run("Query errors propagate unchanged", func(t *testing.T) {
		tests := []struct {
			name     string
			failOn   int
			kind     shared.ErrorKind
			sentinel error
		}{
			{"network on first query", 1, shared.KindNetwork, shared.ErrNetwork},
			{"rate limit on title query", 2, shared.KindRateLimited, shared.ErrRateLimited},
			{"auth on artist query", 3, shared.KindAuth, shared.ErrAuthFailed},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				catalog := tu.NewMockCatalog(nil)
				catalog.SearchFunc = func(_ context.Context, _ models.Query, call int) ([]models.CandidateTrack, error) {
					if call == tt.failOn {
						return nil, shared.NewCatalogError(tt.kind, "search", errors.New("boom"))
					}
					return nil, nil
				}
				m := NewMatcher(catalog, DefaultConfig(), nil)

				d, err := m.Match(ctx, models.LocalTrack{Path: "/k.mp3", Title: "Song", Artist: "Band"})
				if !errors.Is(err, tt.sentinel) {
					t.Fatalf("expected %v, got %v", tt.sentinel, err)
				}
				if d.IsMatched() || d.Reason != "" {
					t.Errorf("failed match should not produce a decision, got %v", d)
				}
			})
		}
	})

	t.Run("Exactly one decision per track", func(t *testing.T) {
		tracks := []models.LocalTrack{
			{Path: "/1.mp3", Title: "Imagine", Artist: "John Lennon"},
			{Path: "/2.mp3", Title: "xyz123"},
			{Path: "/3.mp3", Artist: "Nobody Known"},
			{Path: "/4.mp3"},
		}
		catalog := tu.NewMockCatalog(map[models.Query][]models.CandidateTrack{
			{Title: "Imagine", Artist: "John Lennon"}: {{ID: "orig", Title: "Imagine", Artist: "John Lennon"}},
		})
		m := NewMatcher(catalog, DefaultConfig(), nil)

		for _, track := range tracks {
			d, err := m.Match(ctx, track)
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", track.Path, err)
			}
			if d.IsMatched() == (d.Reason != "") {
				t.Errorf("%s: decision must be either matched or carry a reason, got %+v", track.Path, d)
			}
		}
	})
}
