package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	U "consultly/util"
)

// Project destination entity for a CRM deal. At most one project exists per
// non-empty external_deal_id, enforced by a unique index. The pipeline creates
// and updates projects, it never deletes them.
type Project struct {
	ID uint64 `gorm:"primary_key:true" json:"id"`
	// A unique index created on code.
	Code     string `gorm:"not null" json:"code"`
	Name     string `gorm:"not null" json:"name"`
	ClientID uint64 `gorm:"not null" json:"client_id"`
	// Value owner. Person attributed ownership and margin responsibility.
	OwnerID         uint64 `gorm:"not null" json:"owner_id"`
	Practice        string `json:"practice"`
	Status          string `gorm:"not null" json:"status"`
	CommercialModel string `json:"commercial_model"`
	// Contract value in minor currency units.
	AmountInCents int64 `gorm:"default:0" json:"amount_in_cents"`
	// A unique index created on external_deal_id.
	ExternalDealID string `gorm:"default:null" json:"external_deal_id"`
	// Operator authored. Never overwritten by sync updates.
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Closed set of project statuses. Unrecognized CRM stages map to prospect.
const (
	ProjectStatusProspect  = "PROSPECT"
	ProjectStatusProposal  = "PROPOSAL"
	ProjectStatusActive    = "ACTIVE"
	ProjectStatusCompleted = "COMPLETED"
	ProjectStatusLost      = "LOST"
)

var projectStatuses = map[string]bool{
	ProjectStatusProspect:  true,
	ProjectStatusProposal:  true,
	ProjectStatusActive:    true,
	ProjectStatusCompleted: true,
	ProjectStatusLost:      true,
}

// IsValidProjectStatus reports whether the status is part of the closed set.
func IsValidProjectStatus(status string) bool {
	return projectStatuses[status]
}

const (
	CommercialModelRevenueShare = "revenue_share"
	CommercialModelFixedFee     = "fixed_fee"
	CommercialModelInternal     = "internal"
)

// RevenueShareCutoffInCents deals at or above this contract value run on the
// revenue share model. 100,000 in major currency units.
const RevenueShareCutoffInCents int64 = 100000 * 100

// CommercialModelForAmount three way threshold on the contract value.
func CommercialModelForAmount(amountInCents int64) string {
	if amountInCents >= RevenueShareCutoffInCents {
		return CommercialModelRevenueShare
	}
	if amountInCents > 0 {
		return CommercialModelFixedFee
	}
	return CommercialModelInternal
}

const projectCodePrefixLen = 3
const projectCodePrefixFiller = 'X'

// GetProjectCodePrefix derives the 3 letter code prefix from a client name.
// Non-letters are stripped, the first three letters uppercased and right
// padded with X when the name is shorter.
func GetProjectCodePrefix(clientName string) string {
	letters := []rune(strings.ToUpper(U.LettersOnly(clientName)))
	if len(letters) > projectCodePrefixLen {
		letters = letters[:projectCodePrefixLen]
	}

	for len(letters) < projectCodePrefixLen {
		letters = append(letters, projectCodePrefixFiller)
	}
	return string(letters)
}

// FormatProjectCode builds a project code as PREFIX + year + zero padded sequence.
func FormatProjectCode(prefix string, year int, sequence int) string {
	return fmt.Sprintf("%s%d-%03d", prefix, year, sequence)
}

// NextProjectCodeSequence returns the sequence number to assign for the given
// prefix and year, one greater than the highest existing code. highestCode is
// the first code of a descending lexicographic scan for the prefix+year, empty
// when no project with the prefix exists yet.
func NextProjectCodeSequence(highestCode, prefix string, year int) int {
	codePrefix := fmt.Sprintf("%s%d-", prefix, year)
	if !strings.HasPrefix(highestCode, codePrefix) {
		return 1
	}

	sequence, err := strconv.Atoi(strings.TrimPrefix(highestCode, codePrefix))
	if err != nil || sequence < 1 {
		return 1
	}
	return sequence + 1
}
