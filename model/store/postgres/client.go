package postgres

import (
	"net/http"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"

	C "consultly/config"
	"consultly/model/model"
	U "consultly/util"
)

func (store *Postgres) CreateClient(client *model.Client) (*model.Client, int) {
	logCtx := log.WithField("client_name", client.Name)

	if client.Name == "" {
		logCtx.Error("Invalid client on create. Name is empty.")
		return nil, http.StatusBadRequest
	}

	db := C.GetServices().Db
	if err := db.Create(client).Error; err != nil {
		if U.IsDuplicateRecordError(err) {
			return nil, http.StatusConflict
		}

		logCtx.WithError(err).Error("Failed to create client.")
		return nil, http.StatusInternalServerError
	}

	return client, http.StatusCreated
}

func (store *Postgres) GetClientByID(id uint64) (*model.Client, int) {
	var client model.Client

	db := C.GetServices().Db
	if err := db.Where("id = ?", id).First(&client).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}

		log.WithField("client_id", id).WithError(err).Error("Failed to get client by id.")
		return nil, http.StatusInternalServerError
	}

	return &client, http.StatusFound
}

func (store *Postgres) GetClientByExternalCompanyID(externalCompanyID string) (*model.Client, int) {
	if externalCompanyID == "" {
		return nil, http.StatusBadRequest
	}

	var client model.Client

	db := C.GetServices().Db
	if err := db.Where("external_company_id = ?", externalCompanyID).
		First(&client).Error; err != nil {

		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}

		log.WithField("external_company_id", externalCompanyID).WithError(err).
			Error("Failed to get client by external company id.")
		return nil, http.StatusInternalServerError
	}

	return &client, http.StatusFound
}

// GetClientByName case-insensitive exact match on the client name.
func (store *Postgres) GetClientByName(name string) (*model.Client, int) {
	if name == "" {
		return nil, http.StatusBadRequest
	}

	var client model.Client

	db := C.GetServices().Db
	if err := db.Where("LOWER(name) = LOWER(?)", name).First(&client).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}

		log.WithField("name", name).WithError(err).Error("Failed to get client by name.")
		return nil, http.StatusInternalServerError
	}

	return &client, http.StatusFound
}

func (store *Postgres) GetClients() ([]model.Client, int) {
	var clients []model.Client

	db := C.GetServices().Db
	if err := db.Order("name").Find(&clients).Error; err != nil {
		log.WithError(err).Error("Failed to get clients.")
		return nil, http.StatusInternalServerError
	}

	return clients, http.StatusFound
}

// UpdateClientExternalCompanyID backfills the CRM company id onto a client
// matched by name, so future runs match on the id directly.
func (store *Postgres) UpdateClientExternalCompanyID(clientID uint64, externalCompanyID string) int {
	if clientID == 0 || externalCompanyID == "" {
		return http.StatusBadRequest
	}

	db := C.GetServices().Db
	err := db.Model(&model.Client{}).Where("id = ?", clientID).
		Update("external_company_id", externalCompanyID).Error
	if err != nil {
		if U.IsDuplicateRecordError(err) {
			return http.StatusConflict
		}

		log.WithField("client_id", clientID).WithError(err).
			Error("Failed to update client external company id.")
		return http.StatusInternalServerError
	}

	return http.StatusAccepted
}
