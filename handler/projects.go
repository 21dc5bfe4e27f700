package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"consultly/model/store"
)

func GetProjectsHandler(c *gin.Context) {
	projects, errCode := store.GetStore().GetProjects()
	if errCode != http.StatusFound {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get projects."})
		return
	}

	c.JSON(http.StatusOK, projects)
}

func GetProjectHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Params.ByName("project_id"), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid project id."})
		return
	}

	project, errCode := store.GetStore().GetProjectByID(id)
	if errCode == http.StatusNotFound {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Project not found."})
		return
	}
	if errCode != http.StatusFound {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get project."})
		return
	}

	c.JSON(http.StatusOK, project)
}
