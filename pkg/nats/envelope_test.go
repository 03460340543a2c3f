package nats

import (
	"testing"
	"time"

	"video-summary-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := encodeEvent(events.SummaryCompleted{
		RequestId:  "req-1",
		VideoId:    "qaPMdcCqtWk",
		Strategy:   "map_reduce",
		ChunkCount: 3,
		Omitted:    []int{2},
		OccurredAt: at,
	})
	require.NoError(t, err)

	evt, err := decodeEvent(Subject(events.SummaryCompletedType), data)
	require.NoError(t, err)

	assert.Equal(t, events.SummaryCompletedType, evt.EventType())
	assert.True(t, at.Equal(evt.Timestamp()))
	assert.Equal(t, "qaPMdcCqtWk", evt.Payload()["video_id"])
	// JSON numbers decode as float64
	assert.Equal(t, float64(3), evt.Payload()["chunk_count"])
	assert.Equal(t, []interface{}{float64(2)}, evt.Payload()["omitted"])
}

func TestDecodeEventFallsBackToSubject(t *testing.T) {
	evt, err := decodeEvent("summaries.SUMMARY_COMPLETED", []byte(`{"data":{"video_id":"x"}}`))
	require.NoError(t, err)

	assert.Equal(t, "SUMMARY_COMPLETED", evt.EventType())
	assert.False(t, evt.Timestamp().IsZero())
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := decodeEvent("summaries.X", []byte("nope"))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "summaries.SUMMARY_COMPLETED", Subject(events.SummaryCompletedType))
}
