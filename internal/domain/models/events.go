package models

import "time"

// SyncCompletedEvent is published by the connector layer after a data sync.
// The engine reacts by refreshing cached analyses for the touched brands.
type SyncCompletedEvent struct {
	Brands      []string  `json:"brands"`
	Source      string    `json:"source"`
	CompletedAt time.Time `json:"completed_at"`
}
