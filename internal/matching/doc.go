// Package matching decides which remote catalog track, if any, corresponds to a local file.
//
// [Normalize] canonicalizes metadata, [Similarity] and [Scorer] compare normalized strings,
// and [Matcher] runs the staged policy:
//
//   - Exact: normalized title and artist both equal (confidence 1.0)
//   - Fuzzy: best weighted title/artist score at or above Thresholds.Fuzzy
//   - TitleOnly: title-only query, best title similarity at or above Thresholds.TitleOnly
//   - ArtistOnly: artist-only query, most popular candidate by a matching artist
//
// Exact and Fuzzy share one query; the others issue their own. The first stage to accept wins.
package matching
