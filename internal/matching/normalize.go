package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketed = regexp.MustCompile(`[\(\[\{][^\(\)\[\]\{\}]*[\)\]\}]`)
	qualifier = regexp.MustCompile(`\s[-–—]\s[^-–—]*\b(remix|remaster|remastered|live|mix|edit|version|mono|stereo|demo|acoustic|radio)\b.*$`)

	// letters that NFD does not decompose
	ligatures = strings.NewReplacer("ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "đ", "d", "ł", "l", "&", " and ")

	featuring = map[string]bool{"feat": true, "ft": true, "featuring": true}
)

// Normalize canonicalizes a title, artist or album for comparison.
//
// The result contains only lowercase letters, digits and single spaces. Normalize is idempotent.
func Normalize(s string) string {
	s = fold(strings.ToLower(s))
	if strings.TrimSpace(s) == "" {
		return ""
	}

	stripped := stripQualifiers(s)
	if out := clean(stripped); out != "" {
		return out
	}
	// everything was a qualifier, e.g. "(Intro)"
	return clean(s)
}

// NormalizeTrackKey builds a comparison key from a title and artist.
func NormalizeTrackKey(title, artist string) string {
	return Normalize(title) + "|" + Normalize(artist)
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return ligatures.Replace(out)
}

func stripQualifiers(s string) string {
	// nested brackets unwrap from the inside out
	for {
		next := bracketed.ReplaceAllString(s, " ")
		if next == s {
			break
		}
		s = next
	}
	return qualifier.ReplaceAllString(s, "")
}

// clean keeps letters and digits, drops apostrophes so contractions stay one word,
// breaks words on everything else and cuts a trailing featured-artist credit.
func clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’' || r == '‘' || r == '`' || r == '´':
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if i > 0 && featuring[w] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}
