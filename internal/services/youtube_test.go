package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

func TestYouTubeService(t *testing.T) {
	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService("", nil); svc == nil {
				t.Fatal("expected service to be created")
			} else if svc.api.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.api.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000"
			if svc := NewYouTubeService(customURL+"/", nil); svc.api.baseURL != customURL {
				t.Errorf("expected baseURL to be %s, got %s", customURL, svc.api.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService("", nil); svc.Name() != "YouTube Music" {
			t.Errorf("expected name to be 'YouTube Music', got %s", svc.Name())
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		svc := NewYouTubeService("", nil)
		ctx := context.Background()

		t.Run("authenticates with auth_file", func(t *testing.T) {
			credentials := map[string]string{"auth_file": "/path/to/browser.json"}
			if err := svc.Authenticate(ctx, credentials); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.api.headers["X-Auth-File"] != credentials["auth_file"] {
				t.Errorf("expected auth header to be %s, got %s", credentials["auth_file"], svc.api.headers["X-Auth-File"])
			}
		})

		t.Run("fails without auth_file", func(t *testing.T) {
			err := svc.Authenticate(ctx, map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		mockResults := []map[string]any{
			{
				"videoId":          "v1",
				"title":            "Imagine (Remastered 2010)",
				"artists":          []map[string]string{{"name": "John Lennon", "id": "a1"}},
				"album":            map[string]string{"name": "Imagine", "id": "al1"},
				"duration":         "3:03",
				"duration_seconds": 183,
			},
			{"videoId": "", "title": "broken row"},
			{"videoId": "v2", "title": "Imagine", "artists": []map[string]string{{"name": "A Perfect Circle"}}},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/search" {
				t.Errorf("expected path /api/search, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("q") != "imagine john lennon" || r.URL.Query().Get("filter") != "songs" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			if r.Header.Get("X-Auth-File") != "/path/to/auth.json" {
				t.Errorf("expected X-Auth-File header")
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(mockResults)
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, nil)
		svc.Authenticate(context.Background(), map[string]string{"auth_file": "/path/to/auth.json"})

		candidates, err := svc.Search(context.Background(), models.Query{Title: "imagine", Artist: "john lennon"}, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("expected rows without a video id to be skipped, got %d", len(candidates))
		}

		first := candidates[0]
		if first.ID != "v1" || first.Artist != "John Lennon" || first.Album != "Imagine" || first.Duration != 183 {
			t.Errorf("unexpected candidate %+v", first)
		}
		if first.Popularity <= candidates[1].Popularity {
			t.Error("earlier results should be more popular")
		}
		if candidates[1].Rank != 2 {
			t.Errorf("expected rank to keep proxy position, got %d", candidates[1].Rank)
		}
	})

	t.Run("Search truncates to limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"videoId":"a","title":"x"},{"videoId":"b","title":"x"},{"videoId":"c","title":"x"}]`))
		}))
		defer server.Close()

		candidates, err := NewYouTubeService(server.URL, nil).Search(context.Background(), models.Query{Artist: "x"}, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(candidates) != 2 {
			t.Errorf("expected 2 candidates, got %d", len(candidates))
		}
	})

	t.Run("Search proxy unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"ytmusicapi not ready"}`))
		}))
		defer server.Close()

		_, err := NewYouTubeService(server.URL, nil).Search(context.Background(), models.Query{Title: "x"}, 5)
		if !shared.IsRetryable(err) {
			t.Errorf("expected retryable error, got %v", err)
		}
	})

	t.Run("AddTrack", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/playlists/PL123/items" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body struct {
				VideoIDs []string `json:"video_ids"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.VideoIDs) != 1 || body.VideoIDs[0] != "v1" {
				t.Errorf("unexpected video ids %v", body.VideoIDs)
			}
			w.Write([]byte(`{"status":"STATUS_SUCCEEDED"}`))
		}))
		defer server.Close()

		if err := NewYouTubeService(server.URL, nil).AddTrack(context.Background(), "PL123", models.CandidateTrack{ID: "v1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["title"] != "Local" || body["privacy_status"] != "PRIVATE" {
				t.Errorf("unexpected body %v", body)
			}
			w.Write([]byte(`{"playlist_id":"PLnew"}`))
		}))
		defer server.Close()

		id, err := NewYouTubeService(server.URL, nil).CreatePlaylist(context.Background(), "Local", "desc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id != "PLnew" {
			t.Errorf("expected PLnew, got %s", id)
		}
	})

	t.Run("CreatePlaylist without id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		if _, err := NewYouTubeService(server.URL, nil).CreatePlaylist(context.Background(), "Local", ""); err == nil {
			t.Error("expected error when proxy omits playlist id")
		}
	})

	t.Run("GetPlaylist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/playlists/gone" {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"detail":"Playlist not found"}`))
				return
			}
			w.Write([]byte(`{"id":"PL1","title":"Road Trip","privacy":"PUBLIC","trackCount":3}`))
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, nil)
		playlist, err := svc.GetPlaylist(context.Background(), "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.Name != "Road Trip" || !playlist.Public || playlist.TrackCount != 3 {
			t.Errorf("unexpected playlist %+v", playlist)
		}

		if _, err := svc.GetPlaylist(context.Background(), "gone"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}
