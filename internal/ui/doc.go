// Package ui implements an interactive terminal monitor for transfers using bubbletea's Elm architecture.
//
// The TUI walks through a short workflow:
//  1. [TrackListView] : Browse the scanned local tracks
//  2. [ConfirmView] : Confirm the transfer
//  3. [TransferView] : Watch live progress, pause/resume (p) or cancel (c)
//  4. [ResultView] : Review counts per tier and the tracks that were not found
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress arrives as [tasks.ProgressEvent] values read one at a time from the job's event stream, so the UI never
// touches job state directly.
package ui
