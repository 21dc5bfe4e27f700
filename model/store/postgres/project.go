package postgres

import (
	"net/http"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"

	C "consultly/config"
	"consultly/model/model"
	U "consultly/util"
)

func (store *Postgres) CreateProject(project *model.Project) (*model.Project, int) {
	logCtx := log.WithField("project_name", project.Name).
		WithField("external_deal_id", project.ExternalDealID)

	if project.Name == "" || project.Code == "" || project.ClientID == 0 {
		logCtx.Error("Invalid project on create.")
		return nil, http.StatusBadRequest
	}

	db := C.GetServices().Db
	if err := db.Create(project).Error; err != nil {
		if U.IsDuplicateRecordError(err) {
			return nil, http.StatusConflict
		}

		logCtx.WithError(err).Error("Failed to create project.")
		return nil, http.StatusInternalServerError
	}

	return project, http.StatusCreated
}

// UpdateProject updates only the given fields. Sync updates must not touch
// operator authored columns like notes.
func (store *Postgres) UpdateProject(projectID uint64, fields map[string]interface{}) int {
	if projectID == 0 || len(fields) == 0 {
		return http.StatusBadRequest
	}

	db := C.GetServices().Db
	err := db.Model(&model.Project{}).Where("id = ?", projectID).
		Updates(fields).Error
	if err != nil {
		log.WithField("project_id", projectID).WithError(err).
			Error("Failed to update project.")
		return http.StatusInternalServerError
	}

	return http.StatusAccepted
}

func (store *Postgres) GetProjectByID(id uint64) (*model.Project, int) {
	var project model.Project

	db := C.GetServices().Db
	if err := db.Where("id = ?", id).First(&project).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}

		log.WithField("project_id", id).WithError(err).Error("Failed to get project by id.")
		return nil, http.StatusInternalServerError
	}

	return &project, http.StatusFound
}

func (store *Postgres) GetProjectByExternalDealID(externalDealID string) (*model.Project, int) {
	if externalDealID == "" {
		return nil, http.StatusBadRequest
	}

	var project model.Project

	db := C.GetServices().Db
	if err := db.Where("external_deal_id = ?", externalDealID).
		First(&project).Error; err != nil {

		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}

		log.WithField("external_deal_id", externalDealID).WithError(err).
			Error("Failed to get project by external deal id.")
		return nil, http.StatusInternalServerError
	}

	return &project, http.StatusFound
}

func (store *Postgres) GetProjects() ([]model.Project, int) {
	var projects []model.Project

	db := C.GetServices().Db
	if err := db.Order("code").Find(&projects).Error; err != nil {
		log.WithError(err).Error("Failed to get projects.")
		return nil, http.StatusInternalServerError
	}

	return projects, http.StatusFound
}

// GetHighestProjectCodeByPrefix descending lexicographic scan for the highest
// assigned code with the given prefix. Empty string when none exists.
func (store *Postgres) GetHighestProjectCodeByPrefix(codePrefix string) (string, int) {
	if codePrefix == "" {
		return "", http.StatusBadRequest
	}

	var project model.Project

	db := C.GetServices().Db
	err := db.Where("code LIKE ?", codePrefix+"%").
		Order("code DESC").First(&project).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return "", http.StatusNotFound
		}

		log.WithField("code_prefix", codePrefix).WithError(err).
			Error("Failed to get highest project code by prefix.")
		return "", http.StatusInternalServerError
	}

	return project.Code, http.StatusFound
}
