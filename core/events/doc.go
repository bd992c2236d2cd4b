// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - ObservationScheduled: a field was assigned a start time
//   - ChunkPlanned: a window or sub-window was closed
//   - NightPlanned: every window of a nite was processed
//   - SurveyExhausted: no reachable field remains
package events
