package models

import "time"

// SyncState holds the incremental cursor of a sync worker. Cursor is the
// newest remote updated_at seen, independent of local writes.
type SyncState struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Cursor    time.Time `gorm:"not null" json:"cursor"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
