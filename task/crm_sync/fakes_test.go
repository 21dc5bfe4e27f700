package crm_sync

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	IntHubspot "consultly/integration/hubspot"
	M "consultly/model/model"
	U "consultly/util"
)

// fakeStore in-memory model.Model for pipeline tests.
type fakeStore struct {
	clients    map[uint64]*M.Client
	persons    []M.Person
	practices  map[uint64][]M.PersonPractice
	projects   map[uint64]*M.Project
	checkpoint *M.SyncCheckpoint
	logs       []M.SyncLogEntry
	nextID     uint64

	failBackfill bool
	failSyncLog  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:   make(map[uint64]*M.Client),
		practices: make(map[uint64][]M.PersonPractice),
		projects:  make(map[uint64]*M.Project),
	}
}

func (s *fakeStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addPerson(email, designation string, joinedAt time.Time, primaryPractices ...string) M.Person {
	person := M.Person{ID: s.id(), Email: email, Designation: designation,
		Status: M.PersonStatusActive, JoinedAt: joinedAt}
	s.persons = append(s.persons, person)
	for _, practice := range primaryPractices {
		s.practices[person.ID] = append(s.practices[person.ID],
			M.PersonPractice{ID: s.id(), PersonID: person.ID, Practice: practice, IsPrimary: true})
	}
	return person
}

func (s *fakeStore) CreateClient(client *M.Client) (*M.Client, int) {
	for _, existing := range s.clients {
		if client.ExternalCompanyID != "" &&
			existing.ExternalCompanyID == client.ExternalCompanyID {
			return nil, http.StatusConflict
		}
	}

	stored := *client
	stored.ID = s.id()
	s.clients[stored.ID] = &stored
	created := stored
	return &created, http.StatusCreated
}

func (s *fakeStore) GetClientByID(id uint64) (*M.Client, int) {
	if client, exists := s.clients[id]; exists {
		found := *client
		return &found, http.StatusFound
	}
	return nil, http.StatusNotFound
}

func (s *fakeStore) GetClientByExternalCompanyID(externalCompanyID string) (*M.Client, int) {
	for _, client := range s.clients {
		if client.ExternalCompanyID == externalCompanyID {
			found := *client
			return &found, http.StatusFound
		}
	}
	return nil, http.StatusNotFound
}

func (s *fakeStore) GetClientByName(name string) (*M.Client, int) {
	for _, client := range s.clients {
		if U.EqualsIgnoreCase(client.Name, name) {
			found := *client
			return &found, http.StatusFound
		}
	}
	return nil, http.StatusNotFound
}

func (s *fakeStore) GetClients() ([]M.Client, int) {
	clients := make([]M.Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, *client)
	}
	return clients, http.StatusFound
}

func (s *fakeStore) UpdateClientExternalCompanyID(clientID uint64, externalCompanyID string) int {
	if s.failBackfill {
		return http.StatusInternalServerError
	}

	client, exists := s.clients[clientID]
	if !exists {
		return http.StatusNotFound
	}
	client.ExternalCompanyID = externalCompanyID
	return http.StatusAccepted
}

func (s *fakeStore) GetPersonByEmail(email string) (*M.Person, int) {
	for i := range s.persons {
		if U.EqualsIgnoreCase(s.persons[i].Email, email) {
			person := s.persons[i]
			return &person, http.StatusFound
		}
	}
	return nil, http.StatusNotFound
}

func (s *fakeStore) GetDefaultProjectOwner() (*M.Person, int) {
	partners := make([]M.Person, 0)
	for i := range s.persons {
		if s.persons[i].Designation == M.DesignationPartner &&
			s.persons[i].Status == M.PersonStatusActive {
			partners = append(partners, s.persons[i])
		}
	}
	if len(partners) == 0 {
		return nil, http.StatusNotFound
	}

	sort.Slice(partners, func(i, j int) bool {
		return partners[i].JoinedAt.Before(partners[j].JoinedAt)
	})
	return &partners[0], http.StatusFound
}

func (s *fakeStore) GetPrimaryPracticesByPersonID(personID uint64) ([]M.PersonPractice, int) {
	practices := s.practices[personID]
	if len(practices) == 0 {
		return nil, http.StatusNotFound
	}
	return practices, http.StatusFound
}

func (s *fakeStore) CreateProject(project *M.Project) (*M.Project, int) {
	for _, existing := range s.projects {
		if existing.Code == project.Code {
			return nil, http.StatusConflict
		}
		if project.ExternalDealID != "" &&
			existing.ExternalDealID == project.ExternalDealID {
			return nil, http.StatusConflict
		}
	}

	stored := *project
	stored.ID = s.id()
	s.projects[stored.ID] = &stored
	created := stored
	return &created, http.StatusCreated
}

func (s *fakeStore) UpdateProject(projectID uint64, fields map[string]interface{}) int {
	project, exists := s.projects[projectID]
	if !exists {
		return http.StatusNotFound
	}

	for column, value := range fields {
		switch column {
		case "name":
			project.Name = value.(string)
		case "client_id":
			project.ClientID = value.(uint64)
		case "owner_id":
			project.OwnerID = value.(uint64)
		case "practice":
			project.Practice = value.(string)
		case "status":
			project.Status = value.(string)
		case "commercial_model":
			project.CommercialModel = value.(string)
		case "amount_in_cents":
			project.AmountInCents = value.(int64)
		}
	}
	return http.StatusAccepted
}

func (s *fakeStore) GetProjectByID(id uint64) (*M.Project, int) {
	if project, exists := s.projects[id]; exists {
		found := *project
		return &found, http.StatusFound
	}
	return nil, http.StatusNotFound
}

func (s *fakeStore) GetProjectByExternalDealID(externalDealID string) (*M.Project, int) {
	for _, project := range s.projects {
		if project.ExternalDealID == externalDealID {
			found := *project
			return &found, http.StatusFound
		}
	}
	return nil, http.StatusNotFound
}

func (s *fakeStore) GetProjects() ([]M.Project, int) {
	projects := make([]M.Project, 0, len(s.projects))
	for _, project := range s.projects {
		projects = append(projects, *project)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Code < projects[j].Code })
	return projects, http.StatusFound
}

func (s *fakeStore) GetHighestProjectCodeByPrefix(codePrefix string) (string, int) {
	highest := ""
	for _, project := range s.projects {
		if strings.HasPrefix(project.Code, codePrefix) && project.Code > highest {
			highest = project.Code
		}
	}
	if highest == "" {
		return "", http.StatusNotFound
	}
	return highest, http.StatusFound
}

func (s *fakeStore) GetOrCreateSyncCheckpoint() (*M.SyncCheckpoint, int) {
	if s.checkpoint == nil {
		s.checkpoint = &M.SyncCheckpoint{ID: M.SyncCheckpointID}
		checkpoint := *s.checkpoint
		return &checkpoint, http.StatusCreated
	}
	checkpoint := *s.checkpoint
	return &checkpoint, http.StatusFound
}

func (s *fakeStore) UpdateSyncCheckpoint(checkpoint *M.SyncCheckpoint) int {
	stored := *checkpoint
	s.checkpoint = &stored
	return http.StatusAccepted
}

func (s *fakeStore) CreateSyncLogEntry(entry *M.SyncLogEntry) int {
	if s.failSyncLog {
		return http.StatusInternalServerError
	}

	stored := *entry
	stored.ID = s.id()
	s.logs = append(s.logs, stored)
	return http.StatusCreated
}

func (s *fakeStore) GetSyncLogEntries(limit int, status string) ([]M.SyncLogEntry, int) {
	entries := make([]M.SyncLogEntry, 0)
	for i := len(s.logs) - 1; i >= 0 && len(entries) < limit; i-- {
		if status == "" || s.logs[i].Status == status {
			entries = append(entries, s.logs[i])
		}
	}
	return entries, http.StatusFound
}

func (s *fakeStore) logsWithStatus(status string) []M.SyncLogEntry {
	entries := make([]M.SyncLogEntry, 0)
	for i := range s.logs {
		if s.logs[i].Status == status {
			entries = append(entries, s.logs[i])
		}
	}
	return entries
}

// fakeSource in-memory Source. Deals carry a last modified time so the
// watermark filtering of the real adapter can be reproduced.
type fakeSource struct {
	deals        []IntHubspot.Deal
	lastModified map[string]time.Time
	companies    map[string]*IntHubspot.Company
	owners       map[string]*IntHubspot.Owner
	dealCompany  map[string]string

	fetchErr    error
	deniedOwner bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		lastModified: make(map[string]time.Time),
		companies:    make(map[string]*IntHubspot.Company),
		owners:       make(map[string]*IntHubspot.Owner),
		dealCompany:  make(map[string]string),
	}
}

func (s *fakeSource) addDeal(deal IntHubspot.Deal, modifiedAt time.Time, companyID string) {
	s.deals = append(s.deals, deal)
	s.lastModified[deal.ID] = modifiedAt
	if companyID != "" {
		s.dealCompany[deal.ID] = companyID
	}
}

func (s *fakeSource) FetchChangedDeals(since time.Time) ([]IntHubspot.Deal, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}

	changed := make([]IntHubspot.Deal, 0)
	for i := range s.deals {
		if !s.lastModified[s.deals[i].ID].Before(since) {
			changed = append(changed, s.deals[i])
		}
	}
	return changed, nil
}

func (s *fakeSource) GetCompany(companyID string) (*IntHubspot.Company, error) {
	company, exists := s.companies[companyID]
	if !exists {
		return nil, errors.New("company not found")
	}
	return company, nil
}

func (s *fakeSource) GetOwner(ownerID string) (*IntHubspot.Owner, error) {
	if s.deniedOwner {
		return nil, nil
	}
	owner, exists := s.owners[ownerID]
	if !exists {
		return nil, errors.New("owner not found")
	}
	return owner, nil
}

func (s *fakeSource) GetAssociatedCompanyID(dealID string) (string, error) {
	return s.dealCompany[dealID], nil
}

func (s *fakeSource) GetAssociatedOwnerID(deal *IntHubspot.Deal) string {
	return deal.Property(IntHubspot.PropertyOwnerID)
}
