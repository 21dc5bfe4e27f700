package hubspot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	U "consultly/util"
)

const (
	defaultAPIHost  = "https://api.hubapi.com"
	defaultPageSize = 100

	dealSearchPath    = "/crm/v3/objects/deals/search"
	companyPath       = "/crm/v3/objects/companies/"
	ownerPath         = "/crm/v3/owners/"
	dealPipelinesPath = "/crm/v3/pipelines/deals"
	associationsPath  = "/crm/v4/objects/deals/%s/associations/companies"
)

// Client talks to the CRM query api. Knows pagination and filtering only, no
// domain knowledge.
type Client struct {
	httpClient *http.Client
	apiHost    string
	token      string
	pipelineID string
	pageSize   int

	// One-time warning latch for the missing owners scope.
	ownerScopeWarned bool
}

// NewClient validates the source configuration eagerly. A missing token or
// pipeline id fails startup, not the first run.
func NewClient(token, pipelineID string, pageSize int) (*Client, error) {
	if token == "" {
		return nil, errors.New("missing crm access token")
	}
	if pipelineID == "" {
		return nil, errors.New("missing crm pipeline id")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		apiHost:    defaultAPIHost,
		token:      token,
		pipelineID: pipelineID,
		pageSize:   pageSize,
	}, nil
}

// SetAPIHost overrides the api host. Used by tests.
func (c *Client) SetAPIHost(host string) {
	c.apiHost = host
}

func (c *Client) do(method, url string, payload interface{}, result interface{}) (int, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return 0, errors.Wrap(err, "failed to encode request payload")
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "crm request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("crm responded with status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, errors.Wrap(err, "failed to decode crm response")
		}
	}

	return resp.StatusCode, nil
}

// FetchChangedDeals returns deals of the configured pipeline last modified at
// or after since, following the opaque continuation cursor until the source
// reports no further pages. Filtering is server side.
func (c *Client) FetchChangedDeals(since time.Time) ([]Deal, error) {
	logCtx := log.WithField("since", since)

	deals := make([]Deal, 0)
	after := ""
	for {
		request := searchRequest{
			FilterGroups: []searchFilterGroup{
				{
					Filters: []searchFilter{
						{
							PropertyName: PropertyLastModifiedDate,
							Operator:     "GTE",
							Value:        strconv.FormatInt(U.UnixMilli(since), 10),
						},
						{
							PropertyName: PropertyPipeline,
							Operator:     "EQ",
							Value:        c.pipelineID,
						},
					},
				},
			},
			Properties: dealProperties,
			Limit:      c.pageSize,
			After:      after,
		}

		var response searchResponse
		_, err := c.do(http.MethodPost, c.apiHost+dealSearchPath, &request, &response)
		if err != nil {
			return nil, errors.Wrap(err, "deal search failed")
		}

		deals = append(deals, response.Results...)

		if response.Paging == nil || response.Paging.Next == nil ||
			response.Paging.Next.After == "" {
			break
		}
		after = response.Paging.Next.After
	}

	logCtx.WithField("count", len(deals)).Info("Fetched changed deals from crm.")
	return deals, nil
}

// GetCompany fails loudly, the caller decides what a missing company means.
func (c *Client) GetCompany(companyID string) (*Company, error) {
	if companyID == "" {
		return nil, errors.New("missing company id")
	}

	url := c.apiHost + companyPath + companyID + "?properties=name,domain,industry"

	var company Company
	if _, err := c.do(http.MethodGet, url, nil, &company); err != nil {
		return nil, errors.Wrap(err, "failed to get company from crm")
	}

	return &company, nil
}

// GetOwner returns nil without error when the source denies access because the
// integration is missing the owners scope. That is an expected degradation,
// warned once, not a fault. Every other failure propagates.
func (c *Client) GetOwner(ownerID string) (*Owner, error) {
	if ownerID == "" {
		return nil, errors.New("missing owner id")
	}

	var owner Owner
	status, err := c.do(http.MethodGet, c.apiHost+ownerPath+ownerID, nil, &owner)
	if err != nil {
		if status == http.StatusForbidden {
			if !c.ownerScopeWarned {
				c.ownerScopeWarned = true
				log.Warn("CRM denied owner lookup, owners scope missing on token. " +
					"Falling back to default owner for all records.")
			}
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get owner from crm")
	}

	return &owner, nil
}

// GetAssociatedCompanyID returns the primary associated company of a deal,
// empty string when the deal has no company association.
func (c *Client) GetAssociatedCompanyID(dealID string) (string, error) {
	if dealID == "" {
		return "", errors.New("missing deal id")
	}

	url := c.apiHost + fmt.Sprintf(associationsPath, dealID)

	var response associationsResponse
	if _, err := c.do(http.MethodGet, url, nil, &response); err != nil {
		return "", errors.Wrap(err, "failed to get deal associations from crm")
	}

	if len(response.Results) == 0 {
		return "", nil
	}

	return strconv.FormatInt(response.Results[0].ToObjectID, 10), nil
}

// GetAssociatedOwnerID returns the owner reference carried on the deal, empty
// string when the deal is unowned.
func (c *Client) GetAssociatedOwnerID(deal *Deal) string {
	return deal.Property(PropertyOwnerID)
}

// GetPipelines lists the source's deal pipelines and stages. Discovery helper
// for configuration, not part of the sync algorithm.
func (c *Client) GetPipelines() ([]Pipeline, error) {
	var response pipelinesResponse
	if _, err := c.do(http.MethodGet, c.apiHost+dealPipelinesPath, nil, &response); err != nil {
		return nil, errors.Wrap(err, "failed to get pipelines from crm")
	}

	return response.Results, nil
}
