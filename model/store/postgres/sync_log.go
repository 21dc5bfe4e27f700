package postgres

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	C "consultly/config"
	"consultly/model/model"
)

func (store *Postgres) CreateSyncLogEntry(entry *model.SyncLogEntry) int {
	if entry.SyncType == "" || entry.Status == "" {
		return http.StatusBadRequest
	}

	db := C.GetServices().Db
	if err := db.Create(entry).Error; err != nil {
		log.WithField("external_deal_id", entry.ExternalDealID).WithError(err).
			Error("Failed to create sync log entry.")
		return http.StatusInternalServerError
	}

	return http.StatusCreated
}

func (store *Postgres) GetSyncLogEntries(limit int, status string) ([]model.SyncLogEntry, int) {
	if limit <= 0 {
		limit = 10
	}

	var entries []model.SyncLogEntry

	db := C.GetServices().Db.Order("created_at DESC").Limit(limit)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Find(&entries).Error; err != nil {
		log.WithError(err).Error("Failed to get sync log entries.")
		return nil, http.StatusInternalServerError
	}

	return entries, http.StatusFound
}
