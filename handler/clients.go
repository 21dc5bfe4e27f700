package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"consultly/model/store"
)

func GetClientsHandler(c *gin.Context) {
	clients, errCode := store.GetStore().GetClients()
	if errCode != http.StatusFound {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get clients."})
		return
	}

	c.JSON(http.StatusOK, clients)
}

func GetClientHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Params.ByName("client_id"), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid client id."})
		return
	}

	client, errCode := store.GetStore().GetClientByID(id)
	if errCode == http.StatusNotFound {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Client not found."})
		return
	}
	if errCode != http.StatusFound {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get client."})
		return
	}

	c.JSON(http.StatusOK, client)
}
