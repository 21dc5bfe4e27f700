package model

import (
	"time"
)

type Person struct {
	ID        uint64    `gorm:"primary_key:true" json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	// An index created on lower(email).
	Email       string    `gorm:"not null" json:"email"`
	Designation string    `json:"designation"`
	Status      string    `gorm:"default:'active'" json:"status"`
	JoinedAt    time.Time `json:"joined_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	PersonStatusActive = "active"
	PersonStatusLeft   = "left"

	DesignationPartner = "partner"
)

// PersonPractice practice membership of a person. Exactly one row per person
// is expected with is_primary set; reconciliation fails for the record otherwise.
type PersonPractice struct {
	ID        uint64    `gorm:"primary_key:true" json:"id"`
	PersonID  uint64    `gorm:"not null" json:"person_id"`
	Practice  string    `gorm:"not null" json:"practice"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}
