package postgres

import (
	"net/http"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"

	C "consultly/config"
	"consultly/model/model"
)

// GetPersonByEmail case-insensitive exact match on email.
func (store *Postgres) GetPersonByEmail(email string) (*model.Person, int) {
	if email == "" {
		return nil, http.StatusBadRequest
	}

	var person model.Person

	db := C.GetServices().Db
	if err := db.Where("LOWER(email) = LOWER(?)", email).First(&person).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}

		log.WithField("email", email).WithError(err).Error("Failed to get person by email.")
		return nil, http.StatusInternalServerError
	}

	return &person, http.StatusFound
}

// GetDefaultProjectOwner returns the longest tenured active partner, the
// fallback value owner when a CRM record carries no resolvable owner.
func (store *Postgres) GetDefaultProjectOwner() (*model.Person, int) {
	var person model.Person

	db := C.GetServices().Db
	err := db.Where("designation = ? AND status = ?",
		model.DesignationPartner, model.PersonStatusActive).
		Order("joined_at ASC").First(&person).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}

		log.WithError(err).Error("Failed to get default project owner.")
		return nil, http.StatusInternalServerError
	}

	return &person, http.StatusFound
}

func (store *Postgres) GetPrimaryPracticesByPersonID(personID uint64) ([]model.PersonPractice, int) {
	if personID == 0 {
		return nil, http.StatusBadRequest
	}

	var practices []model.PersonPractice

	db := C.GetServices().Db
	err := db.Where("person_id = ? AND is_primary = ?", personID, true).
		Find(&practices).Error
	if err != nil {
		log.WithField("person_id", personID).WithError(err).
			Error("Failed to get primary practices for person.")
		return nil, http.StatusInternalServerError
	}

	if len(practices) == 0 {
		return nil, http.StatusNotFound
	}

	return practices, http.StatusFound
}
