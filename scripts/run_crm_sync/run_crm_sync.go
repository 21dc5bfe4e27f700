package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/jinzhu/now"
	log "github.com/sirupsen/logrus"

	C "consultly/config"
	IntHubspot "consultly/integration/hubspot"
	M "consultly/model/model"
	"consultly/model/store"
	"consultly/task/crm_sync"
	U "consultly/util"
)

// One-shot sync run, for operators and cron. Bypasses the job queue and runs
// the pipeline directly against the configured source.
func main() {
	env := flag.String("env", "development", "")

	dbHost := flag.String("db_host", "localhost", "")
	dbPort := flag.Int("db_port", 5432, "")
	dbUser := flag.String("db_user", "consultly", "")
	dbName := flag.String("db_name", "consultly", "")

	crmPipelineID := flag.String("crm_pipeline_id", "", "")
	crmStageMap := flag.String("crm_stage_map", "", "")
	crmPageSize := flag.Int("crm_page_size", 100, "")

	// Forced re-import window. Rewinds the checkpoint before the run so
	// already synced records are re-applied, safe because reconciliation
	// is idempotent.
	resyncWindow := flag.String("resync_window", "",
		"Rewind checkpoint to the beginning of the current day|week|month before running.")

	flag.Parse()

	if *env != "development" && *env != "staging" && *env != "production" {
		panic(fmt.Errorf("env [ %s ] not recognised", *env))
	}

	secrets, err := C.LoadSecrets()
	if err != nil {
		panic(err)
	}

	stageMap, err := C.ParseStageMap(*crmStageMap)
	if err != nil {
		panic(err)
	}

	config := &C.Configuration{
		AppName: "crm_sync_job",
		Env:     *env,
		DBInfo: C.DBConf{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Name:     *dbName,
			Password: secrets.DBPassword,
		},
		Sync: C.SyncConf{
			PipelineID: *crmPipelineID,
			StageMap:   stageMap,
			PageSize:   *crmPageSize,
			MaxRetries: 0,
		},
	}

	C.InitConf(config)

	if err := C.ValidateSyncConf(&config.Sync); err != nil {
		log.WithError(err).Fatal("Invalid sync configuration.")
	}

	if err := C.InitDB(config.DBInfo); err != nil {
		log.WithError(err).Fatal("Failed to initialize DB.")
	}
	db := C.GetServices().Db
	defer db.Close()

	source, err := IntHubspot.NewClient(secrets.CRMAccessToken,
		config.Sync.PipelineID, config.Sync.PageSize)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize crm source client.")
	}

	if *resyncWindow != "" {
		if err := rewindCheckpoint(*resyncWindow); err != nil {
			log.WithError(err).Fatal("Failed to rewind checkpoint.")
		}
	}

	orchestrator := crm_sync.NewOrchestrator(store.GetStore(), source, config.Sync.StageMap)
	result, err := orchestrator.Run(M.SyncTypeManual)
	if err != nil {
		log.WithError(err).Fatal("Sync run failed at the fetch phase.")
	}

	log.WithFields(log.Fields{
		"status":    result.Status,
		"processed": result.RecordsProcessed,
		"created":   result.ProjectsCreated,
		"updated":   result.ProjectsUpdated,
		"failed":    result.FailedImports,
	}).Info("Sync run finished.")

	for _, failure := range result.Failures {
		log.WithFields(log.Fields{"deal_id": failure.ExternalDealID,
			"name": failure.Name}).Error(failure.Error)
	}
}

func rewindCheckpoint(window string) error {
	checkpoint, errCode := store.GetStore().GetOrCreateSyncCheckpoint()
	if errCode != http.StatusFound && errCode != http.StatusCreated {
		return fmt.Errorf("failed to get sync checkpoint, code %d", errCode)
	}

	n := now.New(U.TimeNowZ())
	switch window {
	case "day":
		checkpoint.LastSuccessfulSync = n.BeginningOfDay()
	case "week":
		checkpoint.LastSuccessfulSync = n.BeginningOfWeek()
	case "month":
		checkpoint.LastSuccessfulSync = n.BeginningOfMonth()
	default:
		return fmt.Errorf("unknown resync window %q", window)
	}

	if errCode := store.GetStore().UpdateSyncCheckpoint(checkpoint); errCode != http.StatusAccepted {
		return fmt.Errorf("failed to update sync checkpoint, code %d", errCode)
	}

	log.WithField("since", checkpoint.LastSuccessfulSync).Info("Rewound sync checkpoint.")
	return nil
}
