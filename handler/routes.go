package handler

import (
	"github.com/gin-gonic/gin"

	C "consultly/config"
	log "github.com/sirupsen/logrus"
)

func InitRoutes(r *gin.Engine, syncAdmin *SyncAdminHandler) {
	if C.IsDevelopment() {
		log.Info("Running in development.")
	}

	r.POST("/sync/trigger", syncAdmin.TriggerSyncHandler)
	r.GET("/sync/status", syncAdmin.GetSyncStatusHandler)
	r.GET("/sync/logs", syncAdmin.GetSyncLogsHandler)
	r.GET("/sync/health", syncAdmin.GetSyncHealthHandler)
	r.GET("/sync/pipelines", syncAdmin.GetPipelinesHandler)

	r.GET("/clients", GetClientsHandler)
	r.GET("/clients/:client_id", GetClientHandler)
	r.GET("/projects", GetProjectsHandler)
	r.GET("/projects/:project_id", GetProjectHandler)
}
