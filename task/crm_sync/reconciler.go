package crm_sync

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	IntHubspot "consultly/integration/hubspot"
	"consultly/model"
	M "consultly/model/model"
	U "consultly/util"
)

// Reconciler maps one CRM deal plus its resolved associations to the domain
// project fields to create or update. Pure with respect to its inputs except
// for the client find-or-create, which writes to the store and is not rolled
// back if a later step fails.
type Reconciler struct {
	store    model.Model
	stageMap map[string]string
}

func NewReconciler(store model.Model, stageMap map[string]string) *Reconciler {
	return &Reconciler{store: store, stageMap: stageMap}
}

// ReconcileResult the computed write model for one deal.
type ReconcileResult struct {
	// Project assembled for create. Nil when updating.
	Project *M.Project
	// UpdateFields set for an existing project. Operator authored fields
	// like notes are deliberately absent.
	UpdateFields map[string]interface{}
	Existing     *M.Project
	Client       M.ClientResolution
}

func (r *ReconcileResult) IsUpdate() bool {
	return r.Existing != nil
}

// Validate required-field presence check, run before reconciliation is
// attempted. A failing validation short-circuits the record.
func (r *Reconciler) Validate(deal *IntHubspot.Deal) (bool, []string) {
	errs := make([]string, 0)

	if deal.Property(IntHubspot.PropertyDealName) == "" {
		errs = append(errs, "name is missing")
	}
	if deal.Property(IntHubspot.PropertyPipeline) == "" {
		errs = append(errs, "pipeline is missing")
	}
	if deal.Property(IntHubspot.PropertyDealStage) == "" {
		errs = append(errs, "stage is missing")
	}

	return len(errs) == 0, errs
}

// resolveValueOwner looks up the domain person for the CRM owner's email and
// falls back to the longest tenured active partner. No resolvable owner is
// fatal for the record, ownership cannot be attributed.
func (r *Reconciler) resolveValueOwner(deal *IntHubspot.Deal, owner *IntHubspot.Owner) (*M.Person, error) {
	logCtx := log.WithField("deal_id", deal.ID)

	if owner != nil && owner.Email != "" {
		person, errCode := r.store.GetPersonByEmail(owner.Email)
		if errCode == http.StatusFound {
			return person, nil
		}
		if errCode == http.StatusInternalServerError {
			return nil, errors.New("failed to look up person by owner email")
		}

		logCtx.WithField("owner_email", owner.Email).
			Warn("No person with crm owner email. Falling back to default owner.")
	}

	person, errCode := r.store.GetDefaultProjectOwner()
	if errCode == http.StatusFound {
		return person, nil
	}
	if errCode == http.StatusInternalServerError {
		return nil, errors.New("failed to look up default project owner")
	}

	return nil, errors.New("no resolvable value owner and no default partner configured")
}

// resolvePrimaryPractice the owner must carry exactly one primary practice,
// attribution is meaningless without it.
func (r *Reconciler) resolvePrimaryPractice(person *M.Person) (string, error) {
	practices, errCode := r.store.GetPrimaryPracticesByPersonID(person.ID)
	if errCode == http.StatusInternalServerError {
		return "", errors.New("failed to look up primary practice")
	}
	if errCode == http.StatusNotFound || len(practices) == 0 {
		return "", fmt.Errorf("person %d has no primary practice", person.ID)
	}
	if len(practices) > 1 {
		return "", fmt.Errorf("person %d has more than one primary practice", person.ID)
	}

	return practices[0].Practice, nil
}

// ParseAmountToCents parses the CRM's string amount to minor currency units,
// rounding to the nearest unit. Grouping separators are tolerated. Non-numeric
// or absent input yields zero and is reported through the second return, never
// an error.
func ParseAmountToCents(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}

	normalized := strings.ReplaceAll(trimmed, ",", "")
	normalized = strings.ReplaceAll(normalized, " ", "")

	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}

	return int64(math.Round(amount * 100)), true
}

// resolveStatus maps the CRM stage identifier to a domain status. Unrecognized
// stages default to prospect with a warning, never an error.
func (r *Reconciler) resolveStatus(deal *IntHubspot.Deal) string {
	stage := deal.Property(IntHubspot.PropertyDealStage)
	if status, exists := r.stageMap[stage]; exists {
		return status
	}

	log.WithField("deal_id", deal.ID).WithField("stage", stage).
		Warn("Unrecognized crm stage. Defaulting project status to prospect.")
	return M.ProjectStatusProspect
}

// resolveClient find-or-create for the deal's owning company. Match order:
// external company id, then case-insensitive name with an id backfill, then
// create. The only point where the reconciler writes to the store directly.
func (r *Reconciler) resolveClient(company *IntHubspot.Company) (M.ClientResolution, error) {
	logCtx := log.WithField("company_id", company.ID)

	client, errCode := r.store.GetClientByExternalCompanyID(company.ID)
	if errCode == http.StatusFound {
		return M.ClientResolution{Outcome: M.ClientResolutionFound, Client: client}, nil
	}
	if errCode == http.StatusInternalServerError {
		return M.ClientResolution{}, errors.New("failed to look up client by external company id")
	}

	name := company.Property("name")
	if name != "" {
		client, errCode = r.store.GetClientByName(name)
		if errCode == http.StatusFound {
			if errCode := r.store.UpdateClientExternalCompanyID(client.ID, company.ID); errCode != http.StatusAccepted {
				logCtx.WithField("client_id", client.ID).
					Error("Failed to backfill external company id on client.")
				return M.ClientResolution{Outcome: M.ClientResolutionFound, Client: client}, nil
			}
			client.ExternalCompanyID = company.ID
			return M.ClientResolution{Outcome: M.ClientResolutionBackfilled, Client: client}, nil
		}
		if errCode == http.StatusInternalServerError {
			return M.ClientResolution{}, errors.New("failed to look up client by name")
		}
	}

	if name == "" {
		name = "Company " + company.ID
	}

	created, errCode := r.store.CreateClient(&M.Client{
		Name:              name,
		ExternalCompanyID: company.ID,
		Domain:            company.Property("domain"),
		Industry:          company.Property("industry"),
	})
	if errCode != http.StatusCreated {
		return M.ClientResolution{}, errors.New("failed to create client for crm company")
	}

	logCtx.WithField("client_id", created.ID).Info("Created client from crm company.")
	return M.ClientResolution{Outcome: M.ClientResolutionCreated, Client: created}, nil
}

// assignProjectCode keeps the code of an existing project. For a create it
// derives prefix+year and assigns one past the highest existing sequence.
// Concurrent reconciliations for the same new prefix and year can race here,
// the unique index on code turns that into a record-level conflict.
func (r *Reconciler) assignProjectCode(existing *M.Project, clientName string) (string, error) {
	if existing != nil {
		return existing.Code, nil
	}

	prefix := M.GetProjectCodePrefix(clientName)
	year := U.TimeNowZ().Year()
	codePrefix := fmt.Sprintf("%s%d-", prefix, year)

	highest, errCode := r.store.GetHighestProjectCodeByPrefix(codePrefix)
	if errCode == http.StatusInternalServerError {
		return "", errors.New("failed to scan existing project codes")
	}

	sequence := M.NextProjectCodeSequence(highest, prefix, year)
	return M.FormatProjectCode(prefix, year, sequence), nil
}

// Reconcile computes the write model for one deal. company must be resolved,
// owner may be nil. existing is the project previously created for this deal
// id, nil on first sight.
func (r *Reconciler) Reconcile(deal *IntHubspot.Deal, company *IntHubspot.Company,
	owner *IntHubspot.Owner, existing *M.Project) (*ReconcileResult, error) {

	logCtx := log.WithField("deal_id", deal.ID)

	person, err := r.resolveValueOwner(deal, owner)
	if err != nil {
		return nil, err
	}

	practice, err := r.resolvePrimaryPractice(person)
	if err != nil {
		return nil, err
	}

	rawAmount := deal.Property(IntHubspot.PropertyAmount)
	amountInCents, parsed := ParseAmountToCents(rawAmount)
	if !parsed && rawAmount != "" {
		logCtx.WithField("amount", rawAmount).
			Warn("Unparseable deal amount. Defaulting to zero.")
	}

	commercialModel := M.CommercialModelForAmount(amountInCents)

	clientResolution, err := r.resolveClient(company)
	if err != nil {
		return nil, err
	}
	client := clientResolution.Client

	code, err := r.assignProjectCode(existing, client.Name)
	if err != nil {
		return nil, err
	}

	status := r.resolveStatus(deal)
	name := deal.Property(IntHubspot.PropertyDealName)

	result := &ReconcileResult{Existing: existing, Client: clientResolution}
	if existing == nil {
		result.Project = &M.Project{
			Code:            code,
			Name:            name,
			ClientID:        client.ID,
			OwnerID:         person.ID,
			Practice:        practice,
			Status:          status,
			CommercialModel: commercialModel,
			AmountInCents:   amountInCents,
			ExternalDealID:  deal.ID,
		}
		return result, nil
	}

	result.UpdateFields = map[string]interface{}{
		"name":             name,
		"client_id":        client.ID,
		"owner_id":         person.ID,
		"practice":         practice,
		"status":           status,
		"commercial_model": commercialModel,
		"amount_in_cents":  amountInCents,
	}
	return result, nil
}
