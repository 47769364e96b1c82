package plants

import (
	"context"
	"strings"

	"github.com/squiala/plants-api/pkg/airtable"
)

const (
	minPageSize  = 1
	maxPageSize  = 100
	maxSearchLen = 100
)

// Fetcher is the one backing-store operation the query layer needs.
// *airtable.Client satisfies it.
type Fetcher interface {
	List(ctx context.Context, p airtable.ListParams) (*airtable.ListResponse, error)
}

// SortSpec is a resolved backing-store sort.
type SortSpec struct {
	Field     string
	Direction string
}

var sortTable = map[string]SortSpec{
	"name_asc":     {fieldNameEN, "asc"},
	"name_desc":    {fieldNameEN, "desc"},
	"latin_asc":    {fieldNameLatin, "asc"},
	"latin_desc":   {fieldNameLatin, "desc"},
	"halq_asc":     {fieldNameHalq, "asc"},
	"halq_desc":    {fieldNameHalq, "desc"},
	"updated_asc":  {fieldUpdatedAt, "asc"},
	"updated_desc": {fieldUpdatedAt, "desc"},
}

// ResolveSort maps a user-facing sort key to an Airtable sort. Unknown keys
// silently fall back to name_asc.
func ResolveSort(key string) SortSpec {
	if s, ok := sortTable[key]; ok {
		return s
	}
	return sortTable["name_asc"]
}

// Query is the sanitized archive request.
type Query struct {
	Search   string
	Uses     []string
	Origin   []string
	Niche    []string
	Sort     string
	PageSize int
	Cursor   string
}

// Card is the subset of a record the archive grid renders.
type Card struct {
	ID           string `json:"id"`
	NameEN       string `json:"name_en"`
	NameLatin    string `json:"name_latin"`
	NameHalq     string `json:"name_halq"`
	FeatureImage string `json:"feature_image"`
	Soundbite    string `json:"soundbite"`
}

// Page is the result of one archive query.
type Page struct {
	Plants     []Card `json:"plants"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Count      int    `json:"count"`
}

// Service runs archive queries against the backing store.
type Service struct {
	fetcher Fetcher
	mapper  *Mapper
}

func NewService(f Fetcher, m *Mapper) *Service {
	return &Service{fetcher: f, mapper: m}
}

func clampPageSize(n int) int {
	if n < minPageSize {
		return minPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func normalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(truncate(s, maxSearchLen)))
}

// normalizeTerms trims and lower-cases filter terms, dropping empties, in
// input order.
func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FetchPage runs one archive query: sanitize inputs, build the filter
// formula, fetch a page and map it to cards. The cursor is an opaque token
// owned by the backing store and is passed through untouched. Fetch errors
// propagate unchanged; individual records without fields are skipped.
func (s *Service) FetchPage(ctx context.Context, q Query) (*Page, error) {
	sort := ResolveSort(q.Sort)
	formula := BuildFormula(
		normalizeSearch(q.Search),
		normalizeTerms(q.Uses),
		normalizeTerms(q.Origin),
		normalizeTerms(q.Niche),
	)

	resp, err := s.fetcher.List(ctx, airtable.ListParams{
		PageSize:        clampPageSize(q.PageSize),
		Offset:          q.Cursor,
		FilterByFormula: formula,
		SortField:       sort.Field,
		SortDirection:   sort.Direction,
	})
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(resp.Records))
	for _, rec := range resp.Records {
		if rec.Fields == nil {
			continue
		}
		mapped := s.mapper.Map(rec.Fields)
		cards = append(cards, Card{
			ID:           rec.ID,
			NameEN:       stringValue(mapped[KeyNameEN]),
			NameLatin:    stringValue(mapped[KeyNameLatin]),
			NameHalq:     stringValue(mapped[KeyNameHalq]),
			FeatureImage: FirstURL(NormalizeAttachments(mapped[KeyFeatureImage])),
			Soundbite:    FirstURL(NormalizeAttachments(mapped[KeySoundbite])),
		})
	}

	return &Page{
		Plants:     cards,
		NextCursor: resp.Offset,
		HasMore:    resp.Offset != "",
		Count:      len(cards),
	}, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
