// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyMaxLimit = 50
)

var spotifyScopes = []string{"playlist-modify-private", "playlist-modify-public", "user-read-private"}

// SpotifyOAuthConfig returns the authorization code flow settings for creds.
func SpotifyOAuthConfig(creds shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Endpoint:     endpoints.Spotify,
		Scopes:       spotifyScopes,
	}
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyService implements [Catalog] for the Spotify Web API.
//
// Requests are authorized by an [oauth2] client over a static, pre-obtained access token.
type SpotifyService struct {
	api    *apiClient
	logger *log.Logger

	mu     sync.Mutex
	userID string
}

// NewSpotifyService creates a Spotify catalog from configured credentials.
func NewSpotifyService(ctx context.Context, creds shared.SpotifyConfig, logger *log.Logger) (*SpotifyService, error) {
	if strings.TrimSpace(creds.AccessToken) == "" && strings.TrimSpace(creds.RefreshToken) == "" {
		return nil, fmt.Errorf("%w: spotify access_token is required (run 'l2s setup spotify')", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.TokenExpiry,
	}
	source := oauth2.StaticTokenSource(token)
	if creds.RefreshToken != "" && creds.ClientID != "" {
		source = SpotifyOAuthConfig(creds).TokenSource(ctx, token)
	}
	client := oauth2.NewClient(ctx, source)
	client.Timeout = defaultTimeout

	return &SpotifyService{
		api:    newAPIClient(spotifyBaseURL, client),
		logger: logger,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Search calls GET /search with field filters for the non-empty query terms.
func (s *SpotifyService) Search(ctx context.Context, q models.Query, limit int) ([]models.CandidateTrack, error) {
	terms := spotifyQuery(q)
	if terms == "" {
		return nil, shared.NewCatalogError(shared.KindInvalidRequest, "search", shared.ErrMissingArgument)
	}
	limit = max(1, min(limit, spotifyMaxLimit))

	params := url.Values{}
	params.Set("q", terms)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(limit))

	var response spotifySearchResponse
	if err := s.api.do(ctx, "search", http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateTrack, 0, len(response.Tracks.Items))
	for i, item := range response.Tracks.Items {
		candidates = append(candidates, item.candidate(i))
	}
	s.logger.Debug("spotify search", "q", terms, "results", len(candidates))
	return candidates, nil
}

func spotifyQuery(q models.Query) string {
	var parts []string
	if q.Title != "" {
		parts = append(parts, fmt.Sprintf("track:%q", q.Title))
	}
	if q.Artist != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", q.Artist))
	}
	return strings.Join(parts, " ")
}

func (t SpotifyTrack) candidate(rank int) models.CandidateTrack {
	c := models.CandidateTrack{
		ID:         t.ID,
		URI:        t.URI,
		Title:      t.Name,
		Album:      t.Album.Name,
		Popularity: t.Popularity,
		Rank:       rank,
		Duration:   t.DurationMS / 1000,
	}
	if len(t.Artists) > 0 {
		c.Artist = t.Artists[0].Name
	}
	if c.URI == "" && c.ID != "" {
		c.URI = "spotify:track:" + c.ID
	}
	return c
}

// AddTrack calls POST /playlists/{id}/tracks with the candidate URI.
func (s *SpotifyService) AddTrack(ctx context.Context, playlistID string, candidate models.CandidateTrack) error {
	uri := candidate.URI
	if uri == "" {
		uri = "spotify:track:" + candidate.ID
	}

	body := map[string][]string{"uris": {uri}}
	var response struct {
		SnapshotID string `json:"snapshot_id"`
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.api.do(ctx, "add_track", http.MethodPost, endpoint, body, &response)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.api.do(ctx, "profile", http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePlaylist creates a private playlist owned by the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return "", err
	}

	body := map[string]any{"name": name, "description": description, "public": false}
	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.api.do(ctx, "create_playlist", http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}
	s.logger.Info("created spotify playlist", "id", created.ID, "name", name)
	return created.ID, nil
}

// GetPlaylist retrieves a playlist by ID, mapping 404 to [shared.ErrPlaylistNotFound].
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	var sp SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s?fields=id,name,description,public,tracks.total", url.PathEscape(playlistID))
	if err := s.api.do(ctx, "get_playlist", http.MethodGet, endpoint, nil, &sp); err != nil {
		return nil, notFound(err, playlistID)
	}
	return &Playlist{ID: sp.ID, Name: sp.Name, Description: sp.Description, TrackCount: sp.Tracks.Total, Public: sp.Public}, nil
}

func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	s.userID = user.ID
	return s.userID, nil
}

func notFound(err error, playlistID string) error {
	var ce *shared.CatalogError
	if errors.As(err, &ce) && ce.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return err
}
