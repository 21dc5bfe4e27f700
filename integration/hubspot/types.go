package hubspot

// CRM property names requested on deal search.
const (
	PropertyDealName         = "dealname"
	PropertyDealStage        = "dealstage"
	PropertyPipeline         = "pipeline"
	PropertyAmount           = "amount"
	PropertyOwnerID          = "hubspot_owner_id"
	PropertyLastModifiedDate = "hs_lastmodifieddate"
	PropertyCreateDate       = "createdate"
)

var dealProperties = []string{
	PropertyDealName,
	PropertyDealStage,
	PropertyPipeline,
	PropertyAmount,
	PropertyOwnerID,
	PropertyLastModifiedDate,
	PropertyCreateDate,
}

// Deal immutable snapshot of a CRM deal. Lives only for the duration of one
// reconciliation, never persisted.
type Deal struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// Property returns the named property value, empty string when absent.
func (d *Deal) Property(name string) string {
	if d.Properties == nil {
		return ""
	}
	return d.Properties[name]
}

type Company struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

func (c *Company) Property(name string) string {
	if c.Properties == nil {
		return ""
	}
	return c.Properties[name]
}

type Owner struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type PipelineStage struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Pipeline struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Stages []PipelineStage `json:"stages"`
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchFilterGroup struct {
	Filters []searchFilter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []searchFilterGroup `json:"filterGroups"`
	Properties   []string            `json:"properties"`
	Limit        int                 `json:"limit"`
	After        string              `json:"after,omitempty"`
}

type pagingNext struct {
	After string `json:"after"`
}

type paging struct {
	Next *pagingNext `json:"next"`
}

type searchResponse struct {
	Total   int64   `json:"total"`
	Results []Deal  `json:"results"`
	Paging  *paging `json:"paging"`
}

type associationEdge struct {
	ToObjectID int64  `json:"toObjectId"`
	Type       string `json:"type,omitempty"`
}

type associationsResponse struct {
	Results []associationEdge `json:"results"`
}

type pipelinesResponse struct {
	Results []Pipeline `json:"results"`
}
