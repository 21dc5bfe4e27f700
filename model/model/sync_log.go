package model

import (
	"time"
)

// SyncLogEntry append-only audit row for per-record and per-run sync outcomes.
// Rows are never mutated after insert. Writes are best effort and must not
// block or fail the pipeline.
type SyncLogEntry struct {
	ID       uint64 `gorm:"primary_key:true" json:"id"`
	SyncType string `gorm:"not null" json:"sync_type"`
	Status   string `gorm:"not null" json:"status"`
	// Correlation to the CRM record, empty for run level entries.
	ExternalDealID string    `gorm:"default:null" json:"external_deal_id"`
	ProjectID      uint64    `gorm:"default:null" json:"project_id"`
	ClientID       uint64    `gorm:"default:null" json:"client_id"`
	Message        string    `gorm:"type:text" json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	SyncTypeImport    = "import"
	SyncTypeUpdate    = "update"
	SyncTypeManual    = "manual"
	SyncTypeScheduled = "scheduled"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
	SyncStatusPartial = "partial"
)
