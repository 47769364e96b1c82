package routing

import (
	"context"
	"errors"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/squiala/plants-api/pkg/airtable"
	"github.com/squiala/plants-api/pkg/cache"
	"github.com/squiala/plants-api/pkg/plants"
	"github.com/squiala/plants-api/pkg/render"
)

// archiveFragmentPath is the base of the pagination links the archive
// fragment emits.
const archiveFragmentPath = "/v1/fragments/archive"

// Deps are the collaborators the route handlers need.
type Deps struct {
	Service  *plants.Service
	Resolver *plants.Resolver
	Cache    cache.Cache
}

type PlainOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type PageOutput struct {
	Body plants.Page
}

type PlantOutput struct {
	Body plants.Fields
}

type PurgeOutput struct {
	Body struct {
		Purged bool `json:"purged"`
	}
}

type ListPlantsInput struct {
	Search   string   `query:"search" doc:"Free-text search across the plant name fields"`
	Uses     []string `query:"uses" doc:"Filter by use, repeatable"`
	Origin   []string `query:"origin" doc:"Filter by origin, repeatable"`
	Niche    []string `query:"niche" doc:"Filter by niche/zone, repeatable"`
	Sort     string   `query:"sort" default:"name_asc" doc:"Sort key: name_asc, name_desc, latin_asc, latin_desc, halq_asc, halq_desc, updated_asc, updated_desc. Unknown keys fall back to name_asc"`
	PageSize int      `query:"pageSize" default:"12" doc:"Number of cards per page, clamped to 1-100"`
	Cursor   string   `query:"cursor" doc:"Opaque pagination cursor from a previous page"`
}

type GetPlantInput struct {
	ID          string `path:"id" doc:"Airtable record id"`
	Attachments string `query:"attachments" default:"url" doc:"Attachment shape: url (first attachment URL) or object (full list)"`
}

type ArchiveFragmentInput struct {
	Search   string   `query:"search" doc:"Free-text search across the plant name fields"`
	Uses     []string `query:"uses" doc:"Filter by use, repeatable"`
	Origin   []string `query:"origin" doc:"Filter by origin, repeatable"`
	Niche    []string `query:"niche" doc:"Filter by niche/zone, repeatable"`
	Sort     string   `query:"sort" default:"name_asc" doc:"Sort key"`
	PageSize int      `query:"pageSize" default:"12" doc:"Number of cards per page, clamped to 1-100"`
	Trail    string   `query:"trail" doc:"Comma-joined cursor trail; omit for page 1"`
}

type FieldFragmentInput struct {
	ID     string `query:"id" required:"true" doc:"Airtable record id"`
	Field  string `query:"field" required:"true" doc:"Display key of the field to render"`
	Format string `query:"format" default:"auto" doc:"Widget format: text, image, audio, or auto"`
}

type PurgeInput struct {
	Body struct {
		ID string `json:"id" required:"true" doc:"Record id whose cached entries should be dropped"`
	}
}

// attachmentMode validates the attachments query value, defaulting to url.
func attachmentMode(s string) plants.AttachmentMode {
	if s == string(plants.AttachmentObject) {
		return plants.AttachmentObject
	}
	return plants.AttachmentURL
}

// mapResolverError converts resolver sentinel errors to HTTP errors.
func mapResolverError(err error) error {
	var httpErr *airtable.HTTPError
	switch {
	case errors.Is(err, plants.ErrInvalidInput):
		return huma.Error422UnprocessableEntity("record id is required")
	case errors.Is(err, plants.ErrNotFound):
		return huma.Error404NotFound("plant not found")
	case errors.Is(err, plants.ErrInvalidRecord):
		return huma.Error502BadGateway("plant record is malformed")
	case errors.As(err, &httpErr):
		return huma.Error502BadGateway("backing store request failed", err)
	default:
		return huma.Error500InternalServerError("failed to load plant", err)
	}
}

func Setup(api huma.API, deps *Deps) {
	api.UseMiddleware(authMiddleware(api))

	huma.Register(api, huma.Operation{
		OperationID: "HealthCheck",
		Method:      "GET",
		Path:        "/healthz",
		Summary:     "Health check",
		Description: "Check if the API is running",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*PlainOutput, error) {
		return &PlainOutput{
			ContentType: "text/plain",
			Body:        []byte("OK"),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ListPlants",
		Method:      "GET",
		Path:        "/v1/plants",
		Summary:     "List plants",
		Description: "Fetch one page of plant cards matching the given filters",
		Tags:        []string{"Plants"},
	}, func(ctx context.Context, input *ListPlantsInput) (*PageOutput, error) {
		page, err := deps.Service.FetchPage(ctx, plants.Query{
			Search:   input.Search,
			Uses:     input.Uses,
			Origin:   input.Origin,
			Niche:    input.Niche,
			Sort:     input.Sort,
			PageSize: input.PageSize,
			Cursor:   input.Cursor,
		})
		if err != nil {
			return nil, huma.Error502BadGateway("failed to fetch plants", err)
		}
		return &PageOutput{Body: *page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetPlant",
		Method:      "GET",
		Path:        "/v1/plants/{id}",
		Summary:     "Get a plant",
		Description: "Fetch a single plant record by id",
		Tags:        []string{"Plants"},
	}, func(ctx context.Context, input *GetPlantInput) (*PlantOutput, error) {
		rc := cache.NewRequest(deps.Cache)
		fields, err := deps.Resolver.CachedGet(ctx, rc, input.ID, attachmentMode(input.Attachments))
		if err != nil {
			return nil, mapResolverError(err)
		}
		return &PlantOutput{Body: fields}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetArchiveFragment",
		Method:      "GET",
		Path:        archiveFragmentPath,
		Summary:     "Archive grid fragment",
		Description: "Render the plant card grid with trail-based pagination links as an HTML fragment",
		Tags:        []string{"Fragments"},
	}, func(ctx context.Context, input *ArchiveFragmentInput) (*PlainOutput, error) {
		trail := plants.DecodeTrail(input.Trail)

		page, err := deps.Service.FetchPage(ctx, plants.Query{
			Search:   input.Search,
			Uses:     input.Uses,
			Origin:   input.Origin,
			Niche:    input.Niche,
			Sort:     input.Sort,
			PageSize: input.PageSize,
			Cursor:   trail.Current(),
		})
		if err != nil {
			// Grid errors are shown to the end user, not hidden.
			return &PlainOutput{
				ContentType: "text/html; charset=utf-8",
				Body:        []byte(render.ArchiveError(err.Error())),
			}, nil
		}

		prev, next := render.NavLinks(archiveFragmentPath, fragmentParams(input), trail, page)
		html, err := render.Archive(page, prev, next)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to render archive", err)
		}
		return &PlainOutput{
			ContentType: "text/html; charset=utf-8",
			Body:        []byte(html),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetFieldFragment",
		Method:      "GET",
		Path:        "/v1/fragments/field",
		Summary:     "Field widget fragment",
		Description: "Render a single field of one plant as an HTML fragment; renders empty on lookup failure",
		Tags:        []string{"Fragments"},
	}, func(ctx context.Context, input *FieldFragmentInput) (*PlainOutput, error) {
		out := &PlainOutput{ContentType: "text/html; charset=utf-8", Body: []byte{}}

		rc := cache.NewRequest(deps.Cache)
		fields, err := deps.Resolver.CachedGet(ctx, rc, input.ID, plants.AttachmentObject)
		if err != nil {
			// Field widgets degrade to empty output.
			return out, nil
		}
		out.Body = []byte(render.Field(input.Field, fields[input.Field], input.Format))
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "PurgeCache",
		Method:      "POST",
		Path:        "/v1/cache/purge",
		Summary:     "Purge cached record",
		Description: "Drop the cached entries for one record",
		Tags:        []string{"Cache"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *PurgeInput) (*PurgeOutput, error) {
		if deps.Cache != nil {
			for _, mode := range []plants.AttachmentMode{plants.AttachmentURL, plants.AttachmentObject} {
				if err := deps.Cache.Delete(ctx, plants.CacheKey(input.Body.ID, mode)); err != nil {
					return nil, huma.Error500InternalServerError("failed to purge cache", err)
				}
			}
		}
		resp := &PurgeOutput{}
		resp.Body.Purged = true
		return resp, nil
	})
}

// fragmentParams rebuilds the filter query string carried on pagination
// links. Pagination tokens are never included here.
func fragmentParams(input *ArchiveFragmentInput) url.Values {
	params := url.Values{}
	if input.Search != "" {
		params.Set("search", input.Search)
	}
	for _, u := range input.Uses {
		params.Add("uses", u)
	}
	for _, o := range input.Origin {
		params.Add("origin", o)
	}
	for _, n := range input.Niche {
		params.Add("niche", n)
	}
	if input.Sort != "" {
		params.Set("sort", input.Sort)
	}
	return params
}
