// package services defines interface Catalog for searching and mutating remote music catalogs
//
// Spotify, YouTube (via proxy)
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

const defaultTimeout = 30 * time.Second

// Catalog is a remote music service that can be searched and whose playlists can be extended.
//
// Errors are [*shared.CatalogError] values; use [shared.IsRetryable] to classify them.
type Catalog interface {
	// Name returns the name of the service (e.g., "Spotify", "YouTube Music")
	Name() string

	// Search returns up to limit candidates for q in catalog rank order.
	// No results is an empty slice, not an error.
	Search(ctx context.Context, q models.Query, limit int) ([]models.CandidateTrack, error)

	// AddTrack appends candidate to the playlist.
	AddTrack(ctx context.Context, playlistID string, candidate models.CandidateTrack) error

	// CreatePlaylist creates a private playlist and returns its ID.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)
}

// Playlist represents a music playlist from any service
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// NewCatalog builds the catalog selected by config.Catalog.Service.
func NewCatalog(ctx context.Context, config *shared.Config, logger *log.Logger) (Catalog, error) {
	switch config.Catalog.Service {
	case "spotify":
		return NewSpotifyService(ctx, config.Credentials.Spotify, logger)
	case "youtube":
		yt := NewYouTubeService(config.Credentials.YouTube.ProxyURL, nil)
		if config.Credentials.YouTube.AuthFile != "" {
			if err := yt.Authenticate(ctx, map[string]string{"auth_file": config.Credentials.YouTube.AuthFile}); err != nil {
				return nil, err
			}
		}
		return yt, nil
	default:
		return nil, fmt.Errorf("%w: unknown catalog %q", shared.ErrInvalidConfig, config.Catalog.Service)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
