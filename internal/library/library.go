// package library scans a local music directory into [models.LocalTrack] values.
package library

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

// DefaultExtensions are the audio formats picked up when none are configured.
var DefaultExtensions = []string{".mp3", ".flac", ".m4a", ".mp4", ".wav", ".ogg"}

// Scanner walks a directory and extracts track metadata.
//
// MP3 files are read from their ID3v2 tags; FLAC, MP4/M4A and OGG from their Vorbis comments or
// iTunes atoms. Files without tags, and every tag field that is missing, fall back to an
// "Artist - Title" file name.
type Scanner struct {
	extensions []string
	logger     *log.Logger
}

// NewScanner creates a [Scanner] for the given extensions. Extensions are matched case-insensitively
// and may be given with or without the leading dot.
func NewScanner(extensions []string, logger *log.Logger) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return &Scanner{extensions: exts, logger: logger}
}

// Supported reports whether path has one of the scanner's extensions.
func (s *Scanner) Supported(path string) bool {
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(path)))
}

// Scan returns one track per supported file under root, sorted by path.
//
// Unreadable tags never abort the scan; the track is built from its file name instead.
func (s *Scanner) Scan(ctx context.Context, root string) ([]models.LocalTrack, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrInvalidInput, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && s.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(paths)
	tracks := make([]models.LocalTrack, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tracks = append(tracks, s.Read(path))
	}

	s.logger.Info("scanned library", "root", root, "tracks", len(tracks))
	return tracks, nil
}

// Read extracts metadata for a single file. It never fails.
func (s *Scanner) Read(path string) models.LocalTrack {
	fallback := FromFilename(path)

	var (
		track models.LocalTrack
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		track, err = readID3(path)
	default:
		track, err = readTags(path)
	}
	if err != nil {
		s.logger.Debug("falling back to file name", "path", path, "err", err)
		return fallback
	}

	if track.Title == "" {
		track.Title = fallback.Title
	}
	if track.Artist == "" {
		track.Artist = fallback.Artist
	}
	return track
}

func readID3(path string) (models.LocalTrack, error) {
	id3, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return models.LocalTrack{}, err
	}
	defer id3.Close()

	track := models.LocalTrack{
		Path:   path,
		Title:  strings.TrimSpace(id3.Title()),
		Artist: strings.TrimSpace(id3.Artist()),
		Album:  strings.TrimSpace(id3.Album()),
	}
	// TLEN holds the length in milliseconds.
	if ms, err := strconv.Atoi(strings.TrimSpace(id3.GetTextFrame("TLEN").Text)); err == nil && ms > 0 {
		track.Duration = ms / 1000
	}
	return track, nil
}

// readTags reads FLAC, MP4 and OGG metadata. Formats without a tag reader, such as WAV, return
// an error so the caller falls back to the file name.
func readTags(path string) (models.LocalTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.LocalTrack{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return models.LocalTrack{}, err
	}

	artist := strings.TrimSpace(m.Artist())
	if artist == "" {
		artist = strings.TrimSpace(m.AlbumArtist())
	}
	return models.LocalTrack{
		Path:   path,
		Title:  strings.TrimSpace(m.Title()),
		Artist: artist,
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}

// FromFilename parses "Artist - Title" out of the file's base name. Without a separator the whole
// name is the title.
func FromFilename(path string) models.LocalTrack {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	track := models.LocalTrack{Path: path, Title: strings.TrimSpace(name)}
	if artist, title, ok := strings.Cut(name, " - "); ok {
		track.Artist = strings.TrimSpace(artist)
		track.Title = strings.TrimSpace(title)
	}
	return track
}
