package model

import (
	"time"
)

// Client destination entity for a CRM company. At most one client exists
// per non-empty external_company_id, enforced by a unique index.
type Client struct {
	ID   uint64 `gorm:"primary_key:true" json:"id"`
	Name string `gorm:"not null" json:"name"`
	// A unique index created on external_company_id.
	ExternalCompanyID string    `gorm:"default:null" json:"external_company_id"`
	Domain            string    `gorm:"default:null" json:"domain"`
	Industry          string    `gorm:"default:null" json:"industry"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Client resolution outcomes for the reconciler's find-or-create. Kept as an
// explicit tag so callers and tests can assert on which path was taken.
const (
	ClientResolutionFound      = "found"
	ClientResolutionBackfilled = "backfilled"
	ClientResolutionCreated    = "created"
)

// ClientResolution tagged result of resolving a CRM company to a client.
type ClientResolution struct {
	Outcome string
	Client  *Client
}
