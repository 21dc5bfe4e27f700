package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	C "consultly/config"
	IntHubspot "consultly/integration/hubspot"
	"consultly/model/store"
	"consultly/queue"
)

const pipelinesCacheKey = "crm:pipelines"
const pipelinesCacheExpiry = 5 * time.Minute

const maxSyncLogsLimit = 500

// SyncAdminHandler administrative surface over the crm sync pipeline. Thin
// pass-through, the pipeline itself owns all semantics.
type SyncAdminHandler struct {
	Queue  *queue.Client
	Source *IntHubspot.Client
}

// TriggerSyncPayload response of the manual trigger. Enqueue failures are
// reported with success false and status 200, not a 5xx.
type TriggerSyncPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"job_id,omitempty"`
}

func (h *SyncAdminHandler) TriggerSyncHandler(c *gin.Context) {
	jobID, err := h.Queue.EnqueueManualSync()
	if err != nil {
		log.WithError(err).Error("Failed to enqueue manual sync job.")
		c.JSON(http.StatusOK, TriggerSyncPayload{
			Success: false,
			Message: "Failed to enqueue sync job. Check queue connectivity.",
		})
		return
	}

	c.JSON(http.StatusOK, TriggerSyncPayload{
		Success: true,
		Message: "Sync job enqueued.",
		JobID:   jobID,
	})
}

func (h *SyncAdminHandler) GetSyncStatusHandler(c *gin.Context) {
	checkpoint, errCode := store.GetStore().GetOrCreateSyncCheckpoint()
	if errCode != http.StatusFound && errCode != http.StatusCreated {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get sync checkpoint."})
		return
	}

	entries, errCode := store.GetStore().GetSyncLogEntries(10, "")
	if errCode != http.StatusFound {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get sync log entries."})
		return
	}

	counts, err := h.Queue.GetCounts()
	if err != nil {
		log.WithError(err).Error("Failed to get queue counts for sync status.")
		counts = &queue.Counts{}
	}

	c.JSON(http.StatusOK, gin.H{
		"checkpoint":  checkpoint,
		"recent_logs": entries,
		"queue":       counts,
	})
}

func (h *SyncAdminHandler) GetSyncLogsHandler(c *gin.Context) {
	limit := 50
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit."})
			return
		}
		limit = parsed
	}
	if limit > maxSyncLogsLimit {
		limit = maxSyncLogsLimit
	}

	entries, errCode := store.GetStore().GetSyncLogEntries(limit, c.Query("status"))
	if errCode != http.StatusFound {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get sync log entries."})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *SyncAdminHandler) GetSyncHealthHandler(c *gin.Context) {
	if !h.Queue.IsHealthy() {
		c.JSON(http.StatusOK, gin.H{"status": "unhealthy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetPipelinesHandler discovery helper listing the source's pipelines and
// stages to aid configuration. Responses are cached briefly in redis, the
// source's pipeline set changes rarely.
func (h *SyncAdminHandler) GetPipelinesHandler(c *gin.Context) {
	redisClient := C.GetServices().Redis
	if redisClient != nil {
		if cached, err := redisClient.Get(pipelinesCacheKey).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
	}

	pipelines, err := h.Source.GetPipelines()
	if err != nil {
		log.WithError(err).Error("Failed to get pipelines from crm.")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Failed to get pipelines from the source."})
		return
	}

	if redisClient != nil {
		if encoded, err := json.Marshal(pipelines); err == nil {
			if err := redisClient.Set(pipelinesCacheKey, encoded, pipelinesCacheExpiry).Err(); err != nil {
				log.WithError(err).Warn("Failed to cache pipelines response.")
			}
		}
	}

	c.JSON(http.StatusOK, pipelines)
}
