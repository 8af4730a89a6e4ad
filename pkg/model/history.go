package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

// HistoryItem records one successful identification. Image holds the encoded
// photo (data URI or raw base64) and Timestamp is epoch milliseconds.
type HistoryItem struct {
	ID        HistoryID `json:"id" yaml:"id"`
	Plant     CareInfo  `json:"plant" yaml:"plant"`
	Image     string    `json:"image" yaml:"-"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
}

// Time returns Timestamp as time.Time
func (h *HistoryItem) Time() time.Time {
	return time.UnixMilli(h.Timestamp)
}
