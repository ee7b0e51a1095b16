package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newRecord(status models.JobStatus) *models.JobRecord {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &models.JobRecord{
		Catalog:     "Spotify",
		PlaylistID:  "PL1",
		LibraryPath: "/music",
		Status:      status,
		Counters:    models.Counters{Total: 3, Attempted: 2, Matched: 1, Unmatched: 1},
		StartedAt:   &started,
	}
}

func TestJobRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewJobRepository(db)
		job := newRecord(models.StatusRunning)

		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
		if job.ID() == "" {
			t.Error("job ID should be set after creation")
		}
		if job.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", job.Sequence)
		}
		if job.CreatedAt().IsZero() || job.UpdatedAt().IsZero() {
			t.Error("timestamps should be set after creation")
		}
	})

	t.Run("Create keeps a given ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewJobRepository(db)
		job := newRecord(models.StatusCompleted)
		job.JobID = "job-from-engine"

		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
		if _, err := repo.Get("job-from-engine"); err != nil {
			t.Errorf("failed to get job by given ID: %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewJobRepository(db)
		job := newRecord(models.StatusFailed)
		job.ErrorMessage = "search: auth (status 401)"

		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		retrieved, err := repo.Get(job.ID())
		if err != nil {
			t.Fatalf("failed to get job: %v", err)
		}

		if retrieved.Catalog != "Spotify" || retrieved.PlaylistID != "PL1" || retrieved.LibraryPath != "/music" {
			t.Errorf("unexpected job %+v", retrieved)
		}
		if retrieved.Status != models.StatusFailed {
			t.Errorf("expected status failed, got %s", retrieved.Status)
		}
		if retrieved.Counters.Matched != 1 || retrieved.Counters.Unmatched != 1 || retrieved.Counters.Total != 3 {
			t.Errorf("unexpected counters %+v", retrieved.Counters)
		}
		if retrieved.ErrorMessage != job.ErrorMessage {
			t.Errorf("expected error message %q, got %q", job.ErrorMessage, retrieved.ErrorMessage)
		}
		if retrieved.StartedAt == nil || !retrieved.StartedAt.Equal(*job.StartedAt) {
			t.Errorf("expected started at %v, got %v", job.StartedAt, retrieved.StartedAt)
		}
		if retrieved.CompletedAt != nil {
			t.Errorf("expected no completion time, got %v", retrieved.CompletedAt)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewJobRepository(db)
		job := newRecord(models.StatusRunning)
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		completed := time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC)
		job.Status = models.StatusCompleted
		job.Counters = models.Counters{Total: 3, Attempted: 3, Matched: 2, Unmatched: 1}
		job.CompletedAt = &completed

		if err := repo.Update(job); err != nil {
			t.Fatalf("failed to update job: %v", err)
		}

		retrieved, err := repo.Get(job.ID())
		if err != nil {
			t.Fatalf("failed to get job: %v", err)
		}
		if retrieved.Status != models.StatusCompleted || retrieved.Counters.Matched != 2 {
			t.Errorf("update not persisted: %+v", retrieved)
		}
		if retrieved.CompletedAt == nil || !retrieved.CompletedAt.Equal(completed) {
			t.Errorf("expected completed at %v, got %v", completed, retrieved.CompletedAt)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewJobRepository(db)
		job := newRecord(models.StatusCompleted)
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		if err := repo.Delete(job.ID()); err != nil {
			t.Fatalf("failed to delete job: %v", err)
		}

		if _, err := repo.Get(job.ID()); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected ErrJobNotFound for deleted job, got %v", err)
		}
		if err := repo.Delete(job.ID()); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewJobRepository(db)
		for _, status := range []models.JobStatus{models.StatusCompleted, models.StatusFailed, models.StatusCompleted} {
			if err := repo.Create(newRecord(status)); err != nil {
				t.Fatalf("failed to create job: %v", err)
			}
		}
		youtube := newRecord(models.StatusCancelled)
		youtube.Catalog = "YouTube Music"
		if err := repo.Create(youtube); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list jobs: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("expected 4 jobs, got %d", len(all))
		}
		if all[0].Sequence != 4 || all[3].Sequence != 1 {
			t.Errorf("expected newest first, got sequences %d..%d", all[0].Sequence, all[3].Sequence)
		}

		completed, err := repo.List(map[string]any{"status": string(models.StatusCompleted)})
		if err != nil {
			t.Fatalf("failed to list jobs: %v", err)
		}
		if len(completed) != 2 {
			t.Errorf("expected 2 completed jobs, got %d", len(completed))
		}

		byCatalog, _ := repo.List(map[string]any{"catalog": "YouTube Music"})
		if len(byCatalog) != 1 || byCatalog[0].ID() != youtube.ID() {
			t.Errorf("expected the youtube job, got %v", byCatalog)
		}

		limited, _ := repo.List(map[string]any{"limit": 2})
		if len(limited) != 2 {
			t.Errorf("expected 2 jobs with limit, got %d", len(limited))
		}
	})

	t.Run("Tracks", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewJobRepository(db)
		job := newRecord(models.StatusCompleted)
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		candidate := models.CandidateTrack{ID: "sp1", Title: "Imagine", Artist: "John Lennon"}
		results := []models.TrackResult{
			{Index: 0, Track: models.LocalTrack{Path: "/music/a.mp3", Title: "Imagine", Artist: "John Lennon"},
				Decision: models.Matched(candidate, models.TierExact, 1), Outcome: models.OutcomeMatched, Attempts: 2},
			{Index: 1, Track: models.LocalTrack{Path: "/music/b.mp3", Title: "xyz123"},
				Decision: models.Unmatched("no candidate above threshold"), Outcome: models.OutcomeUnmatched, Attempts: 1},
		}
		records := make([]models.TrackRecord, len(results))
		for i, r := range results {
			records[i] = models.NewTrackRecord(job.ID(), r)
		}

		if err := repo.SaveTracks(job.ID(), records); err != nil {
			t.Fatalf("failed to save tracks: %v", err)
		}
		// Saving again replaces the rows.
		if err := repo.SaveTracks(job.ID(), records); err != nil {
			t.Fatalf("failed to re-save tracks: %v", err)
		}

		tracks, err := repo.ListTracks(job.ID(), "")
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].CandidateID != "sp1" || tracks[0].Tier != "exact" || tracks[0].Attempts != 2 {
			t.Errorf("unexpected matched row %+v", tracks[0])
		}

		unmatched, err := repo.ListTracks(job.ID(), models.OutcomeUnmatched)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(unmatched) != 1 || unmatched[0].Reason != "no candidate above threshold" {
			t.Errorf("unexpected unmatched rows %+v", unmatched)
		}
	})
}

func TestJobRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			job := newRecord(models.StatusCompleted)
			job.Catalog = ""
			if err := NewJobRepository(db).Create(job); err == nil {
				t.Fatal("expected validation error for empty catalog")
			}
		})

		t.Run("UnbalancedCounters", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			job := newRecord(models.StatusCompleted)
			job.Counters.Matched = 5
			if err := NewJobRepository(db).Create(job); err == nil {
				t.Fatal("expected validation error for unbalanced counters")
			}
		})

		t.Run("DuplicateID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewJobRepository(db)
			first := newRecord(models.StatusCompleted)
			first.JobID = "same"
			if err := repo.Create(first); err != nil {
				t.Fatalf("failed to create first job: %v", err)
			}
			second := newRecord(models.StatusCompleted)
			second.JobID = "same"
			if err := repo.Create(second); err == nil {
				t.Fatal("expected error when creating job with duplicate ID")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewJobRepository(db).Get("nonexistent-id"); !errors.Is(err, shared.ErrJobNotFound) {
			t.Fatalf("expected ErrJobNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		job := newRecord(models.StatusCompleted)
		job.JobID = "missing"
		if err := NewJobRepository(db).Update(job); !errors.Is(err, shared.ErrJobNotFound) {
			t.Fatalf("expected ErrJobNotFound, got %v", err)
		}
	})

	t.Run("SaveTracks unknown job", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		records := []models.TrackRecord{{JobID: "missing", Path: "/a.mp3", Outcome: models.OutcomeUnmatched}}
		if err := NewJobRepository(db).SaveTracks("missing", records); err == nil {
			t.Fatal("expected foreign key error for unknown job")
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	seq1, err := NextSequence(db, "jobs")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}

	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	seq2, err := NextSequence(db, "jobs")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}
