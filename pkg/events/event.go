package events

import "time"

const SummaryCompletedType = "SUMMARY_COMPLETED"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SUMMARY_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// SummaryCompleted describes one finished summary. The summary text itself
// is not part of the payload.
type SummaryCompleted struct {
	RequestId  string
	SummaryId  string
	VideoId    string
	VideoUrl   string
	Strategy   string
	ChunkCount int
	Omitted    []int
	Cached     bool
	Streamed   bool
	DurationMs int64
	OccurredAt time.Time
}

func (e SummaryCompleted) EventType() string {
	return SummaryCompletedType
}

func (e SummaryCompleted) Payload() map[string]interface{} {
	omitted := e.Omitted
	if omitted == nil {
		omitted = []int{}
	}
	return map[string]interface{}{
		"request_id":  e.RequestId,
		"summary_id":  e.SummaryId,
		"video_id":    e.VideoId,
		"video_url":   e.VideoUrl,
		"strategy":    e.Strategy,
		"chunk_count": e.ChunkCount,
		"omitted":     omitted,
		"cached":      e.Cached,
		"streamed":    e.Streamed,
		"duration_ms": e.DurationMs,
	}
}

func (e SummaryCompleted) Timestamp() time.Time {
	return e.OccurredAt
}
