package model

import (
	"consultly/model/model"
)

// Model - Interface of all methods to be implemented by the stores.
type Model interface {
	// client
	CreateClient(client *model.Client) (*model.Client, int)
	GetClientByID(id uint64) (*model.Client, int)
	GetClientByExternalCompanyID(externalCompanyID string) (*model.Client, int)
	GetClientByName(name string) (*model.Client, int)
	GetClients() ([]model.Client, int)
	UpdateClientExternalCompanyID(clientID uint64, externalCompanyID string) int

	// person
	GetPersonByEmail(email string) (*model.Person, int)
	GetDefaultProjectOwner() (*model.Person, int)
	GetPrimaryPracticesByPersonID(personID uint64) ([]model.PersonPractice, int)

	// project
	CreateProject(project *model.Project) (*model.Project, int)
	UpdateProject(projectID uint64, fields map[string]interface{}) int
	GetProjectByID(id uint64) (*model.Project, int)
	GetProjectByExternalDealID(externalDealID string) (*model.Project, int)
	GetProjects() ([]model.Project, int)
	GetHighestProjectCodeByPrefix(codePrefix string) (string, int)

	// sync_checkpoint
	GetOrCreateSyncCheckpoint() (*model.SyncCheckpoint, int)
	UpdateSyncCheckpoint(checkpoint *model.SyncCheckpoint) int

	// sync_log
	CreateSyncLogEntry(entry *model.SyncLogEntry) int
	GetSyncLogEntries(limit int, status string) ([]model.SyncLogEntry, int)
}
