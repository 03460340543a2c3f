package entity

import (
	"time"

	"github.com/google/uuid"
)

// Summary is a finished summary as cached and announced on the event bus.
type Summary struct {
	Id         uuid.UUID `json:"id"`
	VideoUrl   string    `json:"video_url"`
	VideoId    string    `json:"video_id"`
	Strategy   string    `json:"strategy"`
	Text       string    `json:"text"`
	ChunkCount int       `json:"chunk_count"`
	Omitted    []int     `json:"omitted,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
