package plants

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/squiala/plants-api/pkg/airtable"
)

// AttachmentMode controls how the two attachment-bearing fields come back
// from a single-record lookup.
type AttachmentMode string

const (
	// AttachmentURL replaces the field with the first attachment URL, or
	// nil when there is none.
	AttachmentURL AttachmentMode = "url"
	// AttachmentObject replaces the field with the full normalized
	// attachment list.
	AttachmentObject AttachmentMode = "object"
)

// attachmentKeys are the well-known attachment-bearing fields rewritten by
// the resolver.
var attachmentKeys = []string{KeyFeatureImage, KeySoundbite}

// ResultCache is the slice of the cache collaborator the resolver consults.
// Any error from Get counts as a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Resolver fetches and maps exactly one record by id. Concurrent lookups for
// the same id/mode pair are collapsed into a single upstream request.
type Resolver struct {
	fetcher Fetcher
	mapper  *Mapper
	ttl     time.Duration
	group   singleflight.Group
}

func NewResolver(f Fetcher, m *Mapper, ttl time.Duration) *Resolver {
	return &Resolver{fetcher: f, mapper: m, ttl: ttl}
}

// CacheKey is the cache key for a lookup: id + "|" + mode.
func CacheKey(id string, mode AttachmentMode) string {
	return id + "|" + string(mode)
}

// GetByID fetches one record and maps it for display. The record id is
// always present under the "id" key of the result.
func (r *Resolver) GetByID(ctx context.Context, id string, mode AttachmentMode) (Fields, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	v, err, _ := r.group.Do(CacheKey(id, mode), func() (any, error) {
		return r.lookup(ctx, id, mode)
	})
	if err != nil {
		return nil, err
	}
	return v.(Fields), nil
}

// CachedGet is GetByID behind a cache tier. Successful results are stored
// with the resolver's TTL; errors are never cached.
func (r *Resolver) CachedGet(ctx context.Context, c ResultCache, id string, mode AttachmentMode) (Fields, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if c == nil {
		return r.GetByID(ctx, id, mode)
	}

	key := CacheKey(id, mode)
	if raw, err := c.Get(ctx, key); err == nil {
		var fields Fields
		if err := json.Unmarshal(raw, &fields); err == nil {
			return fields, nil
		}
		// Unreadable entry, fall through to a fresh lookup.
	}

	fields, err := r.GetByID(ctx, id, mode)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(fields); err == nil {
		if err := c.Set(ctx, key, raw, r.ttl); err != nil {
			slog.Warn("failed to cache record", "id", id, "error", err)
		}
	}
	return fields, nil
}

func (r *Resolver) lookup(ctx context.Context, id string, mode AttachmentMode) (Fields, error) {
	resp, err := r.fetcher.List(ctx, airtable.ListParams{
		PageSize:        1,
		FilterByFormula: recordIDFormula(id),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, ErrNotFound
	}

	rec := resp.Records[0]
	if rec.Fields == nil {
		return nil, ErrInvalidRecord
	}

	fields := r.mapper.Map(rec.Fields)
	fields[KeyID] = rec.ID

	for _, key := range attachmentKeys {
		atts := NormalizeAttachments(fields[key])
		if mode == AttachmentObject {
			fields[key] = atts
			continue
		}
		if url := FirstURL(atts); url != "" {
			fields[key] = url
		} else {
			fields[key] = nil
		}
	}
	return fields, nil
}
