package crm_sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	IntHubspot "consultly/integration/hubspot"
	M "consultly/model/model"
)

func TestValidateRequiredFields(t *testing.T) {
	reconciler := NewReconciler(newFakeStore(), testStageMap)

	deal := newDeal("d1", "Some Deal", "execution", "100", "")
	valid, errs := reconciler.Validate(&deal)
	assert.True(t, valid)
	assert.Empty(t, errs)

	deal = newDeal("d2", "", "execution", "100", "")
	valid, errs = reconciler.Validate(&deal)
	assert.False(t, valid)
	assert.Contains(t, errs, "name is missing")

	deal = IntHubspot.Deal{ID: "d3", Properties: map[string]string{}}
	valid, errs = reconciler.Validate(&deal)
	assert.False(t, valid)
	assert.Len(t, errs, 3)
}

func TestParseAmountToCents(t *testing.T) {
	for _, tc := range []struct {
		raw    string
		cents  int64
		parsed bool
	}{
		{"150000.00", 15000000, true},
		{"1,250.50", 125050, true},
		{"  99.999 ", 10000, true},
		{"0", 0, true},
		{"", 0, false},
		{"TBD", 0, false},
	} {
		cents, parsed := ParseAmountToCents(tc.raw)
		assert.Equal(t, tc.cents, cents, tc.raw)
		assert.Equal(t, tc.parsed, parsed, tc.raw)
	}
}

func TestReconcileExecutionStageRevenueShare(t *testing.T) {
	store := newFakeStore()
	store.addPerson("jane@consultly.test", "principal", time.Now().AddDate(-3, 0, 0), "Strategy")
	reconciler := NewReconciler(store, testStageMap)

	deal := newDeal("d1", "Acme Transformation", "execution", "150000.00", "o1")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "Acme Corp"}}
	owner := &IntHubspot.Owner{ID: "o1", Email: "JANE@consultly.test"}

	result, err := reconciler.Reconcile(&deal, company, owner, nil)
	assert.Nil(t, err)
	assert.False(t, result.IsUpdate())
	assert.Equal(t, M.ProjectStatusActive, result.Project.Status)
	assert.Equal(t, M.CommercialModelRevenueShare, result.Project.CommercialModel)
	assert.Equal(t, int64(15000000), result.Project.AmountInCents)
	assert.Equal(t, "Strategy", result.Project.Practice)
	assert.Equal(t, M.ClientResolutionCreated, result.Client.Outcome)
}

func TestReconcileUnknownStageDefaultsToProspect(t *testing.T) {
	store := newFakeStore()
	store.addPerson("jane@consultly.test", "principal", time.Now().AddDate(-3, 0, 0), "Strategy")
	reconciler := NewReconciler(store, testStageMap)

	deal := newDeal("d1", "Acme Deal", "some_new_stage", "500", "")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "Acme Corp"}}
	owner := &IntHubspot.Owner{ID: "o1", Email: "jane@consultly.test"}

	result, err := reconciler.Reconcile(&deal, company, owner, nil)
	assert.Nil(t, err)
	assert.Equal(t, M.ProjectStatusProspect, result.Project.Status)
	assert.Equal(t, M.CommercialModelFixedFee, result.Project.CommercialModel)
}

func TestReconcileUnparseableAmountDefaultsToInternal(t *testing.T) {
	store := newFakeStore()
	store.addPerson("jane@consultly.test", "principal", time.Now().AddDate(-3, 0, 0), "Strategy")
	reconciler := NewReconciler(store, testStageMap)

	deal := newDeal("d1", "Acme Deal", "execution", "ask finance", "")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "Acme Corp"}}
	owner := &IntHubspot.Owner{ID: "o1", Email: "jane@consultly.test"}

	result, err := reconciler.Reconcile(&deal, company, owner, nil)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), result.Project.AmountInCents)
	assert.Equal(t, M.CommercialModelInternal, result.Project.CommercialModel)
}

func TestReconcileClientBackfillByName(t *testing.T) {
	store := newFakeStore()
	store.addPerson("jane@consultly.test", "principal", time.Now().AddDate(-3, 0, 0), "Strategy")
	existingClient, _ := store.CreateClient(&M.Client{Name: "Acme Corp"})
	reconciler := NewReconciler(store, testStageMap)

	deal := newDeal("d1", "Acme Deal", "execution", "500", "")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "ACME CORP"}}
	owner := &IntHubspot.Owner{ID: "o1", Email: "jane@consultly.test"}

	result, err := reconciler.Reconcile(&deal, company, owner, nil)
	assert.Nil(t, err)
	assert.Equal(t, M.ClientResolutionBackfilled, result.Client.Outcome)
	assert.Equal(t, existingClient.ID, result.Client.Client.ID)

	stored, _ := store.GetClientByID(existingClient.ID)
	assert.Equal(t, "c1", stored.ExternalCompanyID)
}

func TestReconcileBackfillFailureReportsFound(t *testing.T) {
	store := newFakeStore()
	store.addPerson("jane@consultly.test", "principal", time.Now().AddDate(-3, 0, 0), "Strategy")
	existingClient, _ := store.CreateClient(&M.Client{Name: "Acme Corp"})
	store.failBackfill = true
	reconciler := NewReconciler(store, testStageMap)

	deal := newDeal("d1", "Acme Deal", "execution", "500", "")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "Acme Corp"}}
	owner := &IntHubspot.Owner{ID: "o1", Email: "jane@consultly.test"}

	result, err := reconciler.Reconcile(&deal, company, owner, nil)
	assert.Nil(t, err)
	// The id was never written, the resolution must not claim a backfill.
	assert.Equal(t, M.ClientResolutionFound, result.Client.Outcome)
	assert.Equal(t, existingClient.ID, result.Client.Client.ID)

	stored, _ := store.GetClientByID(existingClient.ID)
	assert.Equal(t, "", stored.ExternalCompanyID)
}

func TestReconcileOwnerFallbackToDefaultPartner(t *testing.T) {
	store := newFakeStore()
	// Two partners, the longest tenured one is the default.
	store.addPerson("newer@consultly.test", M.DesignationPartner, time.Now().AddDate(-2, 0, 0), "Digital")
	senior := store.addPerson("senior@consultly.test", M.DesignationPartner, time.Now().AddDate(-15, 0, 0), "Operations")
	reconciler := NewReconciler(store, testStageMap)

	deal := newDeal("d1", "Unowned Deal", "execution", "500", "")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "Acme Corp"}}

	result, err := reconciler.Reconcile(&deal, company, nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, senior.ID, result.Project.OwnerID)
	assert.Equal(t, "Operations", result.Project.Practice)
}

func TestReconcileNoPrimaryPracticeIsFatal(t *testing.T) {
	store := newFakeStore()
	store.addPerson("jane@consultly.test", "principal", time.Now().AddDate(-3, 0, 0))
	reconciler := NewReconciler(store, testStageMap)

	deal := newDeal("d1", "Acme Deal", "execution", "500", "")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "Acme Corp"}}
	owner := &IntHubspot.Owner{ID: "o1", Email: "jane@consultly.test"}

	_, err := reconciler.Reconcile(&deal, company, owner, nil)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "primary practice")
}

func TestReconcileUpdatePreservesCodeAndNotes(t *testing.T) {
	store := newFakeStore()
	store.addPerson("jane@consultly.test", "principal", time.Now().AddDate(-3, 0, 0), "Strategy")
	reconciler := NewReconciler(store, testStageMap)

	existing := &M.Project{ID: 42, Code: "ACM2025-004", Name: "Old Name",
		Notes: "operator notes", ExternalDealID: "d1"}

	deal := newDeal("d1", "New Name", "closedwon", "2500", "")
	company := &IntHubspot.Company{ID: "c1", Properties: map[string]string{"name": "Acme Corp"}}
	owner := &IntHubspot.Owner{ID: "o1", Email: "jane@consultly.test"}

	result, err := reconciler.Reconcile(&deal, company, owner, existing)
	assert.Nil(t, err)
	assert.True(t, result.IsUpdate())
	assert.Nil(t, result.Project)
	assert.Equal(t, "New Name", result.UpdateFields["name"])
	assert.Equal(t, M.ProjectStatusCompleted, result.UpdateFields["status"])
	// Operator authored fields are never part of a sync update.
	assert.NotContains(t, result.UpdateFields, "notes")
	assert.NotContains(t, result.UpdateFields, "code")
}
