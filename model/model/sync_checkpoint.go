package model

import (
	"time"
)

// SyncCheckpoint singleton watermark for the CRM reconciliation pipeline.
// Exactly one row exists per deployment, created lazily on the first run.
// LastSuccessfulSync advances only when a run completes, including partial
// runs, never when the fetch phase itself fails.
type SyncCheckpoint struct {
	ID                 uint64    `gorm:"primary_key:true" json:"id"`
	LastSuccessfulSync time.Time `json:"last_successful_sync"`
	RecordsProcessed   uint64    `gorm:"default:0" json:"records_processed"`
	ProjectsCreated    uint64    `gorm:"default:0" json:"projects_created"`
	ProjectsUpdated    uint64    `gorm:"default:0" json:"projects_updated"`
	ClientsCreated     uint64    `gorm:"default:0" json:"clients_created"`
	FailedImports      uint64    `gorm:"default:0" json:"failed_imports"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SyncCheckpointID primary key of the singleton row.
const SyncCheckpointID uint64 = 1
