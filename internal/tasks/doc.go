// Package tasks orchestrates bulk transfers of local tracks to a catalog playlist with real-time progress reporting.
//
// # Core Operations
//
// [TransferEngine] drives one [Job] per call to [TransferEngine.Start]:
//
//  1. A fixed pool of workers pulls track indexes from a pre-filled queue
//     - Each worker runs a [matching.Matcher] for its track
//     - Matched tracks are appended to the playlist (skipped in dry runs)
//     - Unmatched tracks are recorded without any mutation call
//
//  2. Every catalog call goes through one [RetryPolicy]
//     - Retryable errors back off exponentially and honour Retry-After hints
//     - Exhausted retries mark the track errored, the job continues
//     - Non-retryable errors fail the job and stop dequeuing
//
//  3. Workers hand immutable results to a single aggregator
//     - Only the aggregator touches counters and results
//     - Results are released in track order
//
// # Progress Reporting
//
// [Job.Events] is an ordered stream of [ProgressEvent] values ending with one terminal event.
// The [Reporter] behind it never blocks the aggregator, so a slow consumer cannot stall a transfer.
//
// # Control
//
// [Job.Pause], [Job.Resume] and [Job.Cancel] act through a [Control] token that workers check before and
// after each dequeue. Backoff sleeps wake up as soon as the token is stopped.
package tasks
