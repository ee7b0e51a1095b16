package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
)

const jobColumns = `
	id, sequence, catalog, playlist_id, library_path, status,
	tracks_total, tracks_attempted, tracks_matched, tracks_unmatched, tracks_errored,
	error_message, started_at, completed_at, created_at, updated_at, deleted_at
`

// JobRepository implements models.Repository[*models.JobRecord] for transfer history.
//
// Handles job CRUD operations with soft delete support plus the per-track rows of each job.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a job record, assigning a sequence and, when missing, an ID.
func (r *JobRepository) Create(job *models.JobRecord) error {
	if job.JobID == "" {
		job.JobID = shared.GenerateID()
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now()
	if job.Created.IsZero() {
		job.Created = now
	}
	job.Updated = now
	job.Sequence = sequence

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	c := job.Counters
	_, err = r.db.Exec(query,
		job.JobID,
		sequence,
		job.Catalog,
		job.PlaylistID,
		job.LibraryPath,
		string(job.Status),
		c.Total, c.Attempted, c.Matched, c.Unmatched, c.Errored,
		nullString(job.ErrorMessage),
		job.StartedAt,
		job.CompletedAt,
		job.Created,
		job.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID, excluding soft-deleted jobs
func (r *JobRepository) Get(id string) (*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ? AND deleted_at IS NULL`

	job, err := scanJob(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return job, err
}

// Update modifies an existing job's status, counters and timestamps
func (r *JobRepository) Update(job *models.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.Updated = now

	query := `
		UPDATE jobs
		SET playlist_id = ?, status = ?, tracks_total = ?, tracks_attempted = ?,
			tracks_matched = ?, tracks_unmatched = ?, tracks_errored = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	c := job.Counters
	result, err := r.db.Exec(query,
		job.PlaylistID,
		string(job.Status),
		c.Total, c.Attempted, c.Matched, c.Unmatched, c.Errored,
		nullString(job.ErrorMessage),
		job.StartedAt,
		job.CompletedAt,
		now,
		job.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	return expectAffected(result, job.JobID)
}

// Delete soft-deletes a job by ID
func (r *JobRepository) Delete(id string) error {
	query := `UPDATE jobs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves jobs matching criteria, newest first, excluding soft-deleted jobs.
//
// Supported criteria: "status", "catalog" and "playlist_id" (strings) and "limit" (int).
func (r *JobRepository) List(criteria map[string]any) ([]*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE deleted_at IS NULL`
	args := []any{}

	for _, column := range []string{"status", "catalog", "playlist_id"} {
		if value, ok := criteria[column].(string); ok && value != "" {
			query += " AND " + column + " = ?"
			args = append(args, value)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// SaveTracks replaces the per-track rows of a job in a single transaction.
func (r *JobRepository) SaveTracks(jobID string, tracks []models.TrackRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM job_tracks WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("failed to clear job tracks: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO job_tracks (
			job_id, position, path, title, artist, album, outcome, tier, confidence,
			candidate_id, candidate_title, candidate_artist, reason, attempts
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		_, err := stmt.Exec(
			jobID, t.Position, t.Path, t.Title, t.Artist, t.Album, string(t.Outcome), t.Tier, t.Confidence,
			t.CandidateID, t.CandidateTitle, t.CandidateArtist, t.Reason, t.Attempts,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track %d: %w", t.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracks: %w", err)
	}
	return nil
}

// ListTracks returns a job's per-track rows in track order. An outcome filters the rows when non-empty.
func (r *JobRepository) ListTracks(jobID string, outcome models.Outcome) ([]models.TrackRecord, error) {
	query := `
		SELECT
			job_id, position, path, title, artist, album, outcome, tier, confidence,
			candidate_id, candidate_title, candidate_artist, reason, attempts
		FROM job_tracks
		WHERE job_id = ?
	`
	args := []any{jobID}
	if outcome != "" {
		query += " AND outcome = ?"
		args = append(args, string(outcome))
	}
	query += " ORDER BY position"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.TrackRecord
	for rows.Next() {
		var (
			t       models.TrackRecord
			outcome string
		)
		err := rows.Scan(
			&t.JobID, &t.Position, &t.Path, &t.Title, &t.Artist, &t.Album, &outcome, &t.Tier, &t.Confidence,
			&t.CandidateID, &t.CandidateTitle, &t.CandidateArtist, &t.Reason, &t.Attempts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job track: %w", err)
		}
		t.Outcome = models.Outcome(outcome)
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanJob scans a [sql.Row] or the current row of [sql.Rows] into a [models.JobRecord]
func scanJob(row scanner) (*models.JobRecord, error) {
	var (
		job          models.JobRecord
		status       string
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		deletedAt    sql.NullTime
	)

	c := &job.Counters
	err := row.Scan(
		&job.JobID, &job.Sequence, &job.Catalog, &job.PlaylistID, &job.LibraryPath, &status,
		&c.Total, &c.Attempted, &c.Matched, &c.Unmatched, &c.Errored,
		&errorMessage, &startedAt, &completedAt, &job.Created, &job.Updated, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Status = models.JobStatus(status)
	if errorMessage.Valid {
		job.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		job.DeletedAt = &deletedAt.Time
	}

	return &job, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrJobNotFound, id)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
