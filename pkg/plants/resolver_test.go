package plants

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/squiala/plants-api/pkg/airtable"
)

func singleRecordResponse() *airtable.ListResponse {
	return &airtable.ListResponse{
		Records: []airtable.Record{
			{
				ID: "rec1",
				Fields: map[string]any{
					"fldName": "Western Redcedar",
					"fldImage": []any{
						map[string]any{"url": "https://x/a.jpg", "filename": "a.jpg"},
						map[string]any{"url": "https://x/b.jpg"},
					},
				},
			},
		},
	}
}

func newTestResolver(f *fakeFetcher) *Resolver {
	return NewResolver(f, NewMapper(testFieldMap()), time.Minute)
}

func TestGetByIDEmptyID(t *testing.T) {
	f := &fakeFetcher{}
	_, err := newTestResolver(f).GetByID(context.Background(), "", AttachmentURL)
	assert.ErrorIs(t, err, ErrInvalidInput)
	// No fetch may be attempted.
	assert.Equal(t, 0, f.calls)
}

func TestGetByIDQueriesByRecordID(t *testing.T) {
	f := &fakeFetcher{resp: singleRecordResponse()}
	_, err := newTestResolver(f).GetByID(context.Background(), "rec1", AttachmentURL)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.params.PageSize)
	assert.Equal(t, "RECORD_ID() = 'rec1'", f.params.FilterByFormula)
}

func TestGetByIDNotFound(t *testing.T) {
	f := &fakeFetcher{resp: &airtable.ListResponse{}}
	_, err := newTestResolver(f).GetByID(context.Background(), "recMissing", AttachmentURL)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDInvalidRecord(t *testing.T) {
	f := &fakeFetcher{resp: &airtable.ListResponse{
		Records: []airtable.Record{{ID: "rec1"}},
	}}
	_, err := newTestResolver(f).GetByID(context.Background(), "rec1", AttachmentURL)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestGetByIDURLMode(t *testing.T) {
	f := &fakeFetcher{resp: singleRecordResponse()}
	fields, err := newTestResolver(f).GetByID(context.Background(), "rec1", AttachmentURL)
	assert.NoError(t, err)

	assert.Equal(t, "rec1", fields[KeyID])
	assert.Equal(t, "Western Redcedar", fields[KeyNameEN])
	// First attachment URL only; empty attachment fields become nil.
	assert.Equal(t, "https://x/a.jpg", fields[KeyFeatureImage])
	assert.Nil(t, fields[KeySoundbite])
}

func TestGetByIDObjectMode(t *testing.T) {
	f := &fakeFetcher{resp: singleRecordResponse()}
	fields, err := newTestResolver(f).GetByID(context.Background(), "rec1", AttachmentObject)
	assert.NoError(t, err)

	atts, ok := fields[KeyFeatureImage].([]Attachment)
	assert.True(t, ok)
	assert.Len(t, atts, 2)
	assert.Equal(t, "a.jpg", atts[0].Filename)

	empty, ok := fields[KeySoundbite].([]Attachment)
	assert.True(t, ok)
	assert.Empty(t, empty)
}

// mapCache is a ResultCache over a plain map.
type mapCache struct {
	entries map[string][]byte
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.entries[key] = value
	c.sets++
	return nil
}

func TestCachedGetPopulatesAndHits(t *testing.T) {
	f := &fakeFetcher{resp: singleRecordResponse()}
	r := newTestResolver(f)
	c := newMapCache()

	first, err := r.CachedGet(context.Background(), c, "rec1", AttachmentURL)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, 1, c.sets)
	assert.Contains(t, c.entries, "rec1|url")

	second, err := r.CachedGet(context.Background(), c, "rec1", AttachmentURL)
	assert.NoError(t, err)
	// Served from cache, no second fetch.
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, first[KeyNameEN], second[KeyNameEN])
	assert.Equal(t, "https://x/a.jpg", second[KeyFeatureImage])
}

func TestCachedGetDoesNotCacheErrors(t *testing.T) {
	f := &fakeFetcher{resp: &airtable.ListResponse{}}
	r := newTestResolver(f)
	c := newMapCache()

	_, err := r.CachedGet(context.Background(), c, "recMissing", AttachmentURL)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, c.sets)
	assert.Empty(t, c.entries)

	_, err = r.CachedGet(context.Background(), c, "recMissing", AttachmentURL)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, f.calls)
}

func TestCachedGetModesAreSeparate(t *testing.T) {
	f := &fakeFetcher{resp: singleRecordResponse()}
	r := newTestResolver(f)
	c := newMapCache()

	_, err := r.CachedGet(context.Background(), c, "rec1", AttachmentURL)
	assert.NoError(t, err)
	_, err = r.CachedGet(context.Background(), c, "rec1", AttachmentObject)
	assert.NoError(t, err)

	assert.Contains(t, c.entries, "rec1|url")
	assert.Contains(t, c.entries, "rec1|object")
	assert.Equal(t, 2, f.calls)
}
