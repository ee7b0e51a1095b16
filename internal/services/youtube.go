// YouTube Music API [Catalog] implementation
//
// Communicates with the FastAPI proxy server (music/) running on port 8080.
// The proxy wraps ytmusicapi Python library for YouTube Music operations.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music search responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
}

func (t YouTubeTrack) candidate(rank, total int) models.CandidateTrack {
	c := models.CandidateTrack{
		ID:       t.VideoID,
		URI:      "https://music.youtube.com/watch?v=" + t.VideoID,
		Title:    t.Title,
		Rank:     rank,
		Duration: t.DurationSec,
		// ytmusicapi exposes no popularity, so earlier results rank as more popular
		Popularity: total - rank,
	}
	if len(t.Artists) > 0 {
		c.Artist = t.Artists[0].Name
	}
	if t.Album != nil {
		c.Album = t.Album.Name
	}
	return c
}

// YouTubeService implements [Catalog] for YouTube Music via proxy.
type YouTubeService struct {
	api *apiClient
}

// NewYouTubeService creates a new YouTube Music service instance. A nil client uses a 30s timeout.
func NewYouTubeService(baseURL string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = newHTTPClient()
	}
	return &YouTubeService{api: newAPIClient(baseURL, client)}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json or oauth.json.
// The path is sent to the proxy in the X-Auth-File header.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file in credentials", shared.ErrMissingCredentials)
	}

	y.api.headers["X-Auth-File"] = authFile
	return nil
}

// Search calls GET /api/search?q={title} {artist}&filter=songs on the proxy.
func (y *YouTubeService) Search(ctx context.Context, q models.Query, limit int) ([]models.CandidateTrack, error) {
	terms := q.String()
	if terms == "" {
		return nil, shared.NewCatalogError(shared.KindInvalidRequest, "search", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("q", terms)
	params.Set("filter", "songs")
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}

	var results []YouTubeTrack
	if err := y.api.do(ctx, "search", http.MethodGet, "/api/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]models.CandidateTrack, 0, len(results))
	for i, r := range results {
		if r.VideoID == "" {
			continue
		}
		candidates = append(candidates, r.candidate(i, len(results)))
	}
	return candidates, nil
}

// AddTrack calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddTrack(ctx context.Context, playlistID string, candidate models.CandidateTrack) error {
	body := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: []string{candidate.ID}}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return y.api.do(ctx, "add_track", http.MethodPost, endpoint, body, nil)
}

// CreatePlaylist calls POST /api/playlists on the proxy and returns the new playlist ID.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	body := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{Title: name, Description: description, PrivacyStatus: "PRIVATE"}

	var created struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.api.do(ctx, "create_playlist", http.MethodPost, "/api/playlists", body, &created); err != nil {
		return "", err
	}
	if created.PlaylistID == "" {
		return "", shared.NewCatalogError(shared.KindInvalidRequest, "create_playlist", fmt.Errorf("proxy returned no playlist id"))
	}
	return created.PlaylistID, nil
}

// GetPlaylist calls GET /api/playlists/{id} on the proxy, mapping 404 to [shared.ErrPlaylistNotFound].
func (y *YouTubeService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	var ytPlaylist struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Privacy     string `json:"privacy"`
		TrackCount  int    `json:"trackCount"`
	}

	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))
	if err := y.api.do(ctx, "get_playlist", http.MethodGet, endpoint, nil, &ytPlaylist); err != nil {
		return nil, notFound(err, playlistID)
	}

	return &Playlist{
		ID:          ytPlaylist.ID,
		Name:        ytPlaylist.Title,
		Description: ytPlaylist.Description,
		TrackCount:  ytPlaylist.TrackCount,
		Public:      ytPlaylist.Privacy == "PUBLIC",
	}, nil
}
