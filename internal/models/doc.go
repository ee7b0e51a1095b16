// Package models defines domain entities and persistence interfaces for the local library transfer engine.
//
// The package contains two categories of types:
//
// 1. Value types passed through the matching and transfer pipeline
//   - [LocalTrack] : Metadata read from one local audio file
//   - [CandidateTrack] : One result of a remote catalog search
//   - [MatchDecision] : Matched candidate with a [Tier], or an unmatched reason
//   - [TrackResult] : A worker's final, immutable verdict for one track
//   - [Counters] : Running totals owned by the transfer aggregator
//
// 2. Persistent Entities: Database-backed run history
//   - [JobRecord] : One transfer run with status, counters and timestamps
//   - [TrackRecord] : Per-track outcome rows belonging to a job
//
// Persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
