// package formatter renders transfer summaries as reports (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/desertthunder/local2stream/internal/tasks"
)

// Format is a report output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or common alias ("md", "text").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, name)
	}
}

// FormatFromPath guesses the format from the file extension, defaulting to plain text.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatText
}

// tierRow is one line of the per-tier breakdown.
type tierRow struct {
	Label string
	Count int
}

func tierRows(c models.Counters) []tierRow {
	return []tierRow{
		{"Exact matches", c.Exact},
		{"Fuzzy matches", c.Fuzzy},
		{"Title only matches", c.TitleOnly},
		{"Artist fallback matches", c.ArtistOnly},
		{"Not found", c.Unmatched},
		{"Errored", c.Errored},
	}
}

type reportJSON struct {
	JobID       string               `json:"job_id"`
	Catalog     string               `json:"catalog"`
	PlaylistID  string               `json:"playlist_id,omitempty"`
	Status      models.JobStatus     `json:"status"`
	Error       string               `json:"error,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Counters    models.Counters      `json:"counters"`
	SuccessRate float64              `json:"success_rate"`
	Tracks      []models.TrackRecord `json:"tracks"`
}

// ExportToJSON renders the full summary, one entry per processed track.
func ExportToJSON(s *tasks.Summary) ([]byte, error) {
	report := reportJSON{
		JobID:       s.JobID,
		Catalog:     s.Catalog,
		PlaylistID:  s.PlaylistID,
		Status:      s.Status,
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
		Counters:    s.Counters,
		SuccessRate: s.MatchPercentage(),
		Tracks:      trackRecords(s),
	}
	if s.Err != nil {
		report.Error = s.Err.Error()
	}
	return shared.MarshalJSON(report, true)
}

// ExportToCSV renders one row per processed track with columns: Position, Path, Title, Artist, Album,
// Outcome, Tier, Confidence, Candidate ID, Candidate Title, Candidate Artist, Reason, Attempts
func ExportToCSV(s *tasks.Summary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"Position", "Path", "Title", "Artist", "Album", "Outcome", "Tier", "Confidence",
		"Candidate ID", "Candidate Title", "Candidate Artist", "Reason", "Attempts",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range trackRecords(s) {
		record := []string{
			strconv.Itoa(r.Position + 1),
			r.Path,
			r.Title,
			r.Artist,
			r.Album,
			string(r.Outcome),
			r.Tier,
			strconv.FormatFloat(r.Confidence, 'f', 3, 64),
			r.CandidateID,
			r.CandidateTitle,
			r.CandidateArtist,
			r.Reason,
			strconv.Itoa(r.Attempts),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the tier breakdown followed by the unmatched and errored tracks
func ExportToMarkdown(s *tasks.Summary) ([]byte, error) {
	var buf bytes.Buffer
	c := s.Counters

	buf.WriteString(fmt.Sprintf("# Transfer to %s\n\n", s.Catalog))
	buf.WriteString(fmt.Sprintf("**Job**: %s\n", s.JobID))
	if s.PlaylistID != "" {
		buf.WriteString(fmt.Sprintf("**Playlist**: %s\n", s.PlaylistID))
	}
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", s.Status))
	if s.Err != nil {
		buf.WriteString(fmt.Sprintf("**Error**: %v\n", s.Err))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d of %d processed\n\n", c.Attempted, c.Total))

	buf.WriteString("## Summary\n\n")
	buf.WriteString("| Outcome | Tracks |\n|---|---|\n")
	for _, row := range tierRows(c) {
		buf.WriteString(fmt.Sprintf("| %s | %d |\n", row.Label, row.Count))
	}
	buf.WriteString(fmt.Sprintf("\n**Success rate**: %.1f%%\n", s.MatchPercentage()))

	if unmatched := s.Unmatched(); len(unmatched) > 0 {
		buf.WriteString("\n## Not Found\n\n")
		for _, r := range unmatched {
			buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", r.Index+1, r.Track.Label(), r.Decision.Reason))
		}
	}

	if errored := s.Errored(); len(errored) > 0 {
		buf.WriteString("\n## Errors\n\n")
		for _, r := range errored {
			buf.WriteString(fmt.Sprintf("%d. %s: %s\n", r.Index+1, r.Track.Label(), r.Error()))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders the plain summary printed at the end of a transfer
func ExportToText(s *tasks.Summary) ([]byte, error) {
	var buf bytes.Buffer
	c := s.Counters

	buf.WriteString("==== SUMMARY ====\n")
	buf.WriteString(fmt.Sprintf("Status: %s\n", s.Status))
	if s.Err != nil {
		buf.WriteString(fmt.Sprintf("Error: %v\n", s.Err))
	}
	buf.WriteString(fmt.Sprintf("Total files: %d\n", c.Total))
	if c.Attempted != c.Total {
		buf.WriteString(fmt.Sprintf("Processed: %d\n", c.Attempted))
	}
	for _, row := range tierRows(c) {
		buf.WriteString(fmt.Sprintf("%s: %d\n", row.Label, row.Count))
	}
	buf.WriteString(fmt.Sprintf("Success rate: %.1f%%\n", s.MatchPercentage()))
	if d := s.Duration(); d > 0 {
		buf.WriteString(fmt.Sprintf("Duration: %s\n", d.Round(time.Millisecond)))
	}

	if unmatched := s.Unmatched(); len(unmatched) > 0 {
		buf.WriteString("\nNot found:\n")
		for _, r := range unmatched {
			buf.WriteString(fmt.Sprintf("  - %s (%s)\n", r.Track.Label(), r.Decision.Reason))
		}
	}

	if errored := s.Errored(); len(errored) > 0 {
		buf.WriteString("\nErrors:\n")
		for _, r := range errored {
			buf.WriteString(fmt.Sprintf("  - %s: %s\n", r.Track.Label(), r.Error()))
		}
	}

	return buf.Bytes(), nil
}

// Export renders s in the given format.
func Export(s *tasks.Summary, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(s)
	case FormatCSV:
		return ExportToCSV(s)
	case FormatMarkdown:
		return ExportToMarkdown(s)
	case FormatText:
		return ExportToText(s)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport exports s to path, creating parent directories as needed.
//
// Defaults to l2s_report_{job id}.{format} when path is empty. Returns the path written.
func WriteReport(s *tasks.Summary, format Format, path string) (string, error) {
	if path == "" {
		ext := string(format)
		if format == FormatMarkdown {
			ext = "md"
		}
		path = fmt.Sprintf("l2s_report_%s.%s", s.JobID, ext)
	}

	data, err := Export(s, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

func trackRecords(s *tasks.Summary) []models.TrackRecord {
	records := make([]models.TrackRecord, 0, len(s.Results))
	for _, r := range s.Results {
		records = append(records, models.NewTrackRecord(s.JobID, r))
	}
	return records
}
