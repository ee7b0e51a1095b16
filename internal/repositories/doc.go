// Package repositories implements SQLite persistence for transfer history.
//
// [JobRepository] implements models.Repository[*models.JobRecord] and additionally stores the per-track
// outcomes of each job in the job_tracks table. Deleted jobs are soft deleted via deleted_at and excluded
// from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (e.g., job #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
