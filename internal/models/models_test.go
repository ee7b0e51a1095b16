package models

import (
	"errors"
	"testing"
)

func TestCounters(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		var c Counters
		c.Total = 4
		c.Add(TrackResult{Outcome: OutcomeMatched, Decision: Matched(CandidateTrack{ID: "1"}, TierExact, 1)})
		c.Add(TrackResult{Outcome: OutcomeMatched, Decision: Matched(CandidateTrack{ID: "2"}, TierArtistOnly, 0.5)})
		c.Add(TrackResult{Outcome: OutcomeUnmatched, Decision: Unmatched("no candidate above threshold")})
		c.Add(TrackResult{Outcome: OutcomeErrored, Err: errors.New("timeout")})

		expected := Counters{Total: 4, Attempted: 4, Matched: 2, Unmatched: 1, Errored: 1, Exact: 1, ArtistOnly: 1}
		if c != expected {
			t.Errorf("got %+v, want %+v", c, expected)
		}
	})

	t.Run("Covers", func(t *testing.T) {
		prev := Counters{Attempted: 2, Matched: 1, Unmatched: 1}
		next := prev
		next.Add(TrackResult{Outcome: OutcomeErrored})

		if !next.Covers(prev) {
			t.Error("later counters should cover earlier ones")
		}
		if prev.Covers(next) {
			t.Error("earlier counters should not cover later ones")
		}
	})
}

func TestMatchDecision(t *testing.T) {
	d := Matched(CandidateTrack{ID: "abc", Title: "Imagine", Artist: "John Lennon"}, TierExact, 1)
	if !d.IsMatched() {
		t.Fatal("expected matched decision")
	}
	if d.String() != "exact 1.00 -> John Lennon - Imagine" {
		t.Errorf("unexpected string %q", d.String())
	}

	u := Unmatched("no searchable metadata")
	if u.IsMatched() || u.Tier != TierNone {
		t.Error("unmatched decision should carry no candidate or tier")
	}
}

func TestTier(t *testing.T) {
	for _, tier := range []Tier{TierExact, TierFuzzy, TierTitleOnly, TierArtistOnly} {
		if got := ParseTier(tier.String()); got != tier {
			t.Errorf("ParseTier(%q) = %v", tier.String(), got)
		}
	}
	if ParseTier("bogus") != TierNone {
		t.Error("unknown names should parse to TierNone")
	}
	if !(TierExact > TierFuzzy && TierFuzzy > TierTitleOnly && TierTitleOnly > TierArtistOnly) {
		t.Error("tiers should be ordered by strength")
	}
}

func TestJobRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  JobRecord
		wantErr bool
	}{
		{"valid", JobRecord{JobID: "j", Catalog: "spotify", Status: StatusCompleted, Counters: Counters{Total: 2, Attempted: 2, Matched: 1, Unmatched: 1}}, false},
		{"missing id", JobRecord{Catalog: "spotify", Status: StatusRunning}, true},
		{"missing catalog", JobRecord{JobID: "j", Status: StatusRunning}, true},
		{"unbalanced", JobRecord{JobID: "j", Catalog: "spotify", Status: StatusFailed, Counters: Counters{Total: 2, Attempted: 2, Matched: 1}}, true},
		{"attempted beyond total", JobRecord{JobID: "j", Catalog: "spotify", Status: StatusFailed, Counters: Counters{Total: 1, Attempted: 2, Matched: 2}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("Terminal", func(t *testing.T) {
		if StatusRunning.Terminal() || StatusPaused.Terminal() || StatusPending.Terminal() {
			t.Error("active statuses should not be terminal")
		}
		if !StatusCancelled.Terminal() || !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
			t.Error("final statuses should be terminal")
		}
	})

	t.Run("NewTrackRecord", func(t *testing.T) {
		r := TrackResult{
			Index:    3,
			Track:    LocalTrack{Path: "/a.mp3", Title: "Imagine", Artist: "John Lennon"},
			Decision: Matched(CandidateTrack{ID: "sp1", Title: "Imagine", Artist: "John Lennon"}, TierFuzzy, 0.9),
			Outcome:  OutcomeMatched,
			Attempts: 2,
		}
		rec := NewTrackRecord("job", r)
		if rec.Position != 3 || rec.CandidateID != "sp1" || rec.Tier != "fuzzy" || rec.Attempts != 2 {
			t.Errorf("unexpected record %+v", rec)
		}

		errored := NewTrackRecord("job", TrackResult{Outcome: OutcomeErrored, Err: errors.New("rate limited")})
		if errored.Reason != "rate limited" {
			t.Errorf("expected error message as reason, got %q", errored.Reason)
		}
	})
}

func TestLocalTrackLabel(t *testing.T) {
	tests := []struct {
		track    LocalTrack
		expected string
	}{
		{LocalTrack{Path: "/x.mp3", Title: "Imagine", Artist: "John Lennon"}, "John Lennon - Imagine"},
		{LocalTrack{Path: "/x.mp3", Title: "xyz123"}, "xyz123"},
		{LocalTrack{Path: "/x.mp3", Artist: "Björk"}, "Björk"},
		{LocalTrack{Path: "/x.mp3"}, "/x.mp3"},
	}
	for _, tt := range tests {
		if got := tt.track.Label(); got != tt.expected {
			t.Errorf("Label() = %q, want %q", got, tt.expected)
		}
	}
}
