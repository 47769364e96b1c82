package airtable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("appBase", "Plants Table", "secret-token")
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestListBuildsRequest(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"records":[],"offset":""}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.Fields = []string{"fldA", "fldB"}
	c.ReturnFieldsByID = true

	_, err := c.List(context.Background(), ListParams{
		PageSize:        12,
		Offset:          "itr123/rec456",
		FilterByFormula: "AND(OR(SEARCH('cedar', LOWER({Plant Name (English)}))))",
		SortField:       "Plant Name (Latin)",
		SortDirection:   "desc",
	})
	assert.NoError(t, err)

	assert.Equal(t, "/appBase/Plants%20Table", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "12", gotQuery.Get("pageSize"))
	assert.Equal(t, "itr123/rec456", gotQuery.Get("offset"))
	assert.Equal(t, "AND(OR(SEARCH('cedar', LOWER({Plant Name (English)}))))", gotQuery.Get("filterByFormula"))
	assert.Equal(t, "Plant Name (Latin)", gotQuery.Get("sort[0][field]"))
	assert.Equal(t, "desc", gotQuery.Get("sort[0][direction]"))
	assert.Equal(t, "true", gotQuery.Get("returnFieldsByFieldId"))
	assert.Equal(t, []string{"fldA", "fldB"}, gotQuery["fields[]"])
}

func TestListOmitsEmptyParams(t *testing.T) {
	var gotQuery url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).List(context.Background(), ListParams{PageSize: 1})
	assert.NoError(t, err)

	assert.NotContains(t, gotQuery, "offset")
	assert.NotContains(t, gotQuery, "filterByFormula")
	assert.NotContains(t, gotQuery, "sort[0][field]")
	assert.NotContains(t, gotQuery, "returnFieldsByFieldId")
	assert.NotContains(t, gotQuery, "fields[]")
}

func TestListOmitsSortWithoutDirection(t *testing.T) {
	var gotQuery url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).List(context.Background(), ListParams{PageSize: 1, SortField: "Plant Name (English)"})
	assert.NoError(t, err)
	assert.NotContains(t, gotQuery, "sort[0][field]")
}

func TestListDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"records": [
				{"id": "rec1", "fields": {"fldA": "cedar"}},
				{"id": "rec2"}
			],
			"offset": "next-token"
		}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).List(context.Background(), ListParams{PageSize: 2})
	assert.NoError(t, err)

	assert.Len(t, resp.Records, 2)
	assert.Equal(t, "rec1", resp.Records[0].ID)
	assert.Equal(t, "cedar", resp.Records[0].Fields["fldA"])
	assert.Nil(t, resp.Records[1].Fields)
	assert.Equal(t, "next-token", resp.Offset)
}

func TestListHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"type":"INVALID_FILTER_BY_FORMULA"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).List(context.Background(), ListParams{PageSize: 1})

	var httpErr *HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "INVALID_FILTER_BY_FORMULA")
}

func TestListTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := newTestClient(srv).List(context.Background(), ListParams{PageSize: 1})
	assert.Error(t, err)

	var httpErr *HTTPError
	assert.NotErrorAs(t, err, &httpErr)
}
