package matching

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/desertthunder/local2stream/internal/models"
)

// Similarity compares two normalized strings and returns a value in [0,1].
//
// It is the ratio of the longest common subsequence to the combined length, taking the better
// of the spaced and space-stripped forms so "jay z" and "jayz" compare equal.
// Two empty strings are identical; one empty side scores 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	best := ratio(a, b)
	ca, cb := strings.ReplaceAll(a, " ", ""), strings.ReplaceAll(b, " ", "")
	if ca != a || cb != b {
		best = math.Max(best, ratio(ca, cb))
	}
	return best
}

func ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(edlib.LCS(a, b)) / float64(total)
}

// Scorer weighs title similarity against artist similarity.
type Scorer struct {
	TitleWeight  float64
	ArtistWeight float64
	TieEpsilon   float64 // scores closer than this fall through to the album tie-break
}

// DefaultScorer returns the 0.7/0.3 title/artist weighting.
func DefaultScorer() Scorer {
	return Scorer{TitleWeight: 0.7, ArtistWeight: 0.3, TieEpsilon: 0.01}
}

// Score compares a local track with a candidate. Inputs are normalized first.
func (s Scorer) Score(local models.LocalTrack, c models.CandidateTrack) float64 {
	return s.score(newKey(local), c)
}

// TitleScore compares titles only.
func (s Scorer) TitleScore(local models.LocalTrack, c models.CandidateTrack) float64 {
	return Similarity(Normalize(local.Title), Normalize(c.Title))
}

func (s Scorer) score(k key, c models.CandidateTrack) float64 {
	if k.title == "" && k.artist == "" {
		return 0
	}
	total := s.TitleWeight + s.ArtistWeight
	if total <= 0 {
		return 0
	}
	st := Similarity(k.title, Normalize(c.Title))
	sa := Similarity(k.artist, Normalize(c.Artist))
	return (s.TitleWeight*st + s.ArtistWeight*sa) / total
}

// Scored is a candidate with the values the tie-break needs.
type Scored struct {
	Candidate models.CandidateTrack
	Score     float64
	Album     float64 // album similarity, only consulted on ties
}

// Better reports whether a should be preferred over b: higher score beyond epsilon,
// then closer album, then higher popularity, then earlier catalog rank.
func (s Scorer) Better(a, b Scored) bool {
	if d := a.Score - b.Score; math.Abs(d) > s.TieEpsilon {
		return d > 0
	}
	if a.Album != b.Album {
		return a.Album > b.Album
	}
	if a.Candidate.Popularity != b.Candidate.Popularity {
		return a.Candidate.Popularity > b.Candidate.Popularity
	}
	return a.Candidate.Rank < b.Candidate.Rank
}

// Best returns the preferred entry among those scoring at least threshold.
func (s Scorer) Best(entries []Scored, threshold float64) (Scored, bool) {
	var (
		best  Scored
		found bool
	)
	for _, e := range entries {
		if e.Score < threshold {
			continue
		}
		if !found || s.Better(e, best) {
			best, found = e, true
		}
	}
	return best, found
}

// key holds the normalized fields of a local track.
type key struct {
	title, artist, album string
}

func newKey(t models.LocalTrack) key {
	return key{title: Normalize(t.Title), artist: Normalize(t.Artist), album: Normalize(t.Album)}
}

func (k key) albumSimilarity(c models.CandidateTrack) float64 {
	if k.album == "" {
		return 0
	}
	return Similarity(k.album, Normalize(c.Album))
}
