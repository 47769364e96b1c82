package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Record is one row of the backing table. Fields is keyed by field name, or
// by field id when the client requests returnFieldsByFieldId.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ListResponse is one page of records. A non-empty Offset means more pages
// exist; it is an opaque token passed back verbatim to fetch the next page.
type ListResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// ListParams are the per-request query options. Zero values are omitted from
// the request.
type ListParams struct {
	PageSize        int
	Offset          string
	FilterByFormula string
	SortField       string
	SortDirection   string
}

// HTTPError is returned when Airtable answers with a 4xx/5xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("airtable request failed with status %d", e.StatusCode)
}

// Client talks to a single Airtable base/table with a fixed bearer token.
type Client struct {
	BaseID           string
	Table            string
	Token            string
	Fields           []string // optional explicit field selection, empty = all
	ReturnFieldsByID bool

	// BaseURL overrides the Airtable endpoint, used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseID, table, token string) *Client {
	return &Client{
		BaseID:     baseID,
		Table:      table,
		Token:      token,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// List fetches one page of records. Errors with a response status are
// reported as *HTTPError; transport failures are wrapped as-is. No retries.
func (c *Client) List(ctx context.Context, p ListParams) (*ListResponse, error) {
	q := url.Values{}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Offset != "" {
		q.Set("offset", p.Offset)
	}
	if p.FilterByFormula != "" {
		q.Set("filterByFormula", p.FilterByFormula)
	}
	if p.SortField != "" && p.SortDirection != "" {
		q.Set("sort[0][field]", p.SortField)
		q.Set("sort[0][direction]", p.SortDirection)
	}
	if c.ReturnFieldsByID {
		q.Set("returnFieldsByFieldId", "true")
	}
	for _, f := range c.Fields {
		q.Add("fields[]", f)
	}

	u := c.BaseURL + "/" + c.BaseID + "/" + url.PathEscape(c.Table) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: string(body)}
	}

	var out ListResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
