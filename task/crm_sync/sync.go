package crm_sync

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	IntHubspot "consultly/integration/hubspot"
	"consultly/model"
	M "consultly/model/model"
	U "consultly/util"
)

// Source operations the pipeline consumes from the CRM adapter.
type Source interface {
	FetchChangedDeals(since time.Time) ([]IntHubspot.Deal, error)
	GetCompany(companyID string) (*IntHubspot.Company, error)
	GetOwner(ownerID string) (*IntHubspot.Owner, error)
	GetAssociatedCompanyID(dealID string) (string, error)
	GetAssociatedOwnerID(deal *IntHubspot.Deal) string
}

// RecordFailure one failed record in a run, surfaced on the run result and in
// the audit log.
type RecordFailure struct {
	ExternalDealID string `json:"external_deal_id"`
	Name           string `json:"name"`
	Error          string `json:"error"`
}

// RunResult aggregate summary of one sync run. Returned to the caller, never
// swallowed.
type RunResult struct {
	Status           string          `json:"status"`
	RecordsProcessed int             `json:"records_processed"`
	ProjectsCreated  int             `json:"projects_created"`
	ProjectsUpdated  int             `json:"projects_updated"`
	ClientsCreated   int             `json:"clients_created"`
	FailedImports    int             `json:"failed_imports"`
	Failures         []RecordFailure `json:"failures"`
}

// Orchestrator drives one sync run: read checkpoint, fetch changed records,
// reconcile each with isolated error handling, advance checkpoint, audit.
type Orchestrator struct {
	store      model.Model
	source     Source
	reconciler *Reconciler
}

func NewOrchestrator(store model.Model, source Source, stageMap map[string]string) *Orchestrator {
	return &Orchestrator{
		store:      store,
		source:     source,
		reconciler: NewReconciler(store, stageMap),
	}
}

// writeSyncLog audit writes are best effort. A failed write is reported to the
// operator log and never blocks the pipeline.
func (o *Orchestrator) writeSyncLog(entry *M.SyncLogEntry) {
	if errCode := o.store.CreateSyncLogEntry(entry); errCode != http.StatusCreated {
		log.WithField("external_deal_id", entry.ExternalDealID).
			Error("Failed to write sync log entry. Continuing.")
	}
}

// processRecord runs one deal through validate, association resolution,
// reconciliation and the store write. Every failure, panics included, is
// returned as an error and handled at this boundary by the caller.
func (o *Orchestrator) processRecord(deal *IntHubspot.Deal) (result *ReconcileResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic while processing record: %v", r)
		}
	}()

	if valid, validationErrors := o.reconciler.Validate(deal); !valid {
		return nil, fmt.Errorf("validation failed: %v", validationErrors)
	}

	companyID, err := o.source.GetAssociatedCompanyID(deal.ID)
	if err != nil {
		return nil, err
	}
	if companyID == "" {
		return nil, errors.New("deal has no associated company, cannot reconcile")
	}

	company, err := o.source.GetCompany(companyID)
	if err != nil {
		return nil, err
	}

	// Owner lookup degrades to nil on a denied scope, the reconciler then
	// falls back to the default owner.
	var owner *IntHubspot.Owner
	if ownerID := o.source.GetAssociatedOwnerID(deal); ownerID != "" {
		owner, err = o.source.GetOwner(ownerID)
		if err != nil {
			return nil, err
		}
	}

	var existing *M.Project
	existing, errCode := o.store.GetProjectByExternalDealID(deal.ID)
	if errCode == http.StatusInternalServerError {
		return nil, errors.New("failed to look up project by external deal id")
	}
	if errCode == http.StatusNotFound {
		existing = nil
	}

	result, err = o.reconciler.Reconcile(deal, company, owner, existing)
	if err != nil {
		return nil, err
	}

	if result.IsUpdate() {
		if errCode := o.store.UpdateProject(result.Existing.ID, result.UpdateFields); errCode != http.StatusAccepted {
			return nil, errors.New("failed to update project")
		}
		return result, nil
	}

	created, errCode := o.store.CreateProject(result.Project)
	if errCode == http.StatusConflict {
		// Concurrent run won the code or deal id race. Recoverable, the
		// record is re-applied on the next upstream touch.
		return nil, errors.New("project create conflicted on code or external deal id")
	}
	if errCode != http.StatusCreated {
		return nil, errors.New("failed to create project")
	}

	result.Project = created
	return result, nil
}

// Run executes one sync run. syncType is manual or scheduled and tags the run
// summary audit entry. The returned error is non-nil only for a run-level
// fetch failure, which the job queue retries with backoff.
func (o *Orchestrator) Run(syncType string) (*RunResult, error) {
	runStartedAt := U.TimeNowZ()
	logCtx := log.WithField("sync_type", syncType)

	result := &RunResult{Failures: make([]RecordFailure, 0)}

	checkpoint, errCode := o.store.GetOrCreateSyncCheckpoint()
	if errCode != http.StatusFound && errCode != http.StatusCreated {
		err := errors.New("failed to read sync checkpoint")
		result.Status = M.SyncStatusFailed
		o.writeSyncLog(&M.SyncLogEntry{
			SyncType: syncType, Status: M.SyncStatusFailed, Message: err.Error()})
		return result, err
	}

	// Fetching. A failure here aborts the whole run before any record is
	// touched and leaves the checkpoint untouched.
	deals, err := o.source.FetchChangedDeals(checkpoint.LastSuccessfulSync)
	if err != nil {
		logCtx.WithError(err).Error("Fetch phase failed. Aborting run without advancing checkpoint.")
		result.Status = M.SyncStatusFailed
		o.writeSyncLog(&M.SyncLogEntry{
			SyncType: syncType, Status: M.SyncStatusFailed, Message: err.Error()})
		return result, err
	}

	// Processing. Records are handled sequentially, each inside its own
	// error boundary. One bad record never aborts the batch.
	for i := range deals {
		deal := &deals[i]
		result.RecordsProcessed++

		recordResult, err := o.processRecord(deal)
		if err != nil {
			result.FailedImports++
			result.Failures = append(result.Failures, RecordFailure{
				ExternalDealID: deal.ID,
				Name:           deal.Property(IntHubspot.PropertyDealName),
				Error:          err.Error(),
			})
			log.WithField("deal_id", deal.ID).WithError(err).
				Error("Failed to process crm record. Continuing with next record.")

			// A record failing against an existing project is a failed
			// update, not a failed import.
			failureType := M.SyncTypeImport
			if _, errCode := o.store.GetProjectByExternalDealID(deal.ID); errCode == http.StatusFound {
				failureType = M.SyncTypeUpdate
			}
			o.writeSyncLog(&M.SyncLogEntry{
				SyncType:       failureType,
				Status:         M.SyncStatusFailed,
				ExternalDealID: deal.ID,
				Message:        err.Error(),
			})
			continue
		}

		entry := &M.SyncLogEntry{
			Status:         M.SyncStatusSuccess,
			ExternalDealID: deal.ID,
			ClientID:       recordResult.Client.Client.ID,
		}
		if recordResult.IsUpdate() {
			result.ProjectsUpdated++
			entry.SyncType = M.SyncTypeUpdate
			entry.ProjectID = recordResult.Existing.ID
		} else {
			result.ProjectsCreated++
			entry.SyncType = M.SyncTypeImport
			entry.ProjectID = recordResult.Project.ID
		}
		if recordResult.Client.Outcome == M.ClientResolutionCreated {
			result.ClientsCreated++
		}
		o.writeSyncLog(entry)
	}

	// Finalizing. A partial run still advances the watermark, failed records
	// are only retried when re-touched upstream.
	if result.FailedImports == 0 {
		result.Status = M.SyncStatusSuccess
	} else {
		result.Status = M.SyncStatusPartial
	}

	checkpoint.LastSuccessfulSync = runStartedAt
	checkpoint.RecordsProcessed += uint64(result.RecordsProcessed)
	checkpoint.ProjectsCreated += uint64(result.ProjectsCreated)
	checkpoint.ProjectsUpdated += uint64(result.ProjectsUpdated)
	checkpoint.ClientsCreated += uint64(result.ClientsCreated)
	checkpoint.FailedImports += uint64(result.FailedImports)
	if errCode := o.store.UpdateSyncCheckpoint(checkpoint); errCode != http.StatusAccepted {
		logCtx.Error("Failed to advance sync checkpoint after run.")
	}

	o.writeSyncLog(&M.SyncLogEntry{
		SyncType: syncType,
		Status:   result.Status,
		Message: fmt.Sprintf("processed=%d created=%d updated=%d clients_created=%d failed=%d",
			result.RecordsProcessed, result.ProjectsCreated, result.ProjectsUpdated,
			result.ClientsCreated, result.FailedImports),
	})

	logCtx.WithFields(log.Fields{
		"status":    result.Status,
		"processed": result.RecordsProcessed,
		"created":   result.ProjectsCreated,
		"updated":   result.ProjectsUpdated,
		"failed":    result.FailedImports,
	}).Info("Completed crm sync run.")

	return result, nil
}
