package postgres

import (
	"net/http"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"

	C "consultly/config"
	"consultly/model/model"
)

// GetOrCreateSyncCheckpoint returns the singleton checkpoint row, creating it
// lazily on the first run with a zero watermark.
func (store *Postgres) GetOrCreateSyncCheckpoint() (*model.SyncCheckpoint, int) {
	var checkpoint model.SyncCheckpoint

	db := C.GetServices().Db
	err := db.Where("id = ?", model.SyncCheckpointID).First(&checkpoint).Error
	if err == nil {
		return &checkpoint, http.StatusFound
	}

	if !gorm.IsRecordNotFoundError(err) {
		log.WithError(err).Error("Failed to get sync checkpoint.")
		return nil, http.StatusInternalServerError
	}

	checkpoint = model.SyncCheckpoint{ID: model.SyncCheckpointID}
	if err := db.Create(&checkpoint).Error; err != nil {
		log.WithError(err).Error("Failed to create sync checkpoint.")
		return nil, http.StatusInternalServerError
	}

	return &checkpoint, http.StatusCreated
}

func (store *Postgres) UpdateSyncCheckpoint(checkpoint *model.SyncCheckpoint) int {
	if checkpoint == nil || checkpoint.ID != model.SyncCheckpointID {
		return http.StatusBadRequest
	}

	db := C.GetServices().Db
	if err := db.Save(checkpoint).Error; err != nil {
		log.WithError(err).Error("Failed to update sync checkpoint.")
		return http.StatusInternalServerError
	}

	return http.StatusAccepted
}
