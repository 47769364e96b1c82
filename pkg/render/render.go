// Package render produces the HTML fragments embedded by the content site:
// the archive grid with trail-based pagination, and single-field widgets.
package render

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/squiala/plants-api/pkg/plants"
)

var archiveTmpl = template.Must(template.New("archive").Parse(`{{if .Plants}}<div class="plants-archive">
{{range .Plants}}<div class="plant-card">
{{if .FeatureImage}}<div class="plant-image"><img src="{{.FeatureImage}}" alt="{{.NameEN}}"></div>
{{else}}<div class="plant-image-placeholder">No Image</div>
{{end}}<div class="plant-names">
{{if .NameEN}}<h3>{{.NameEN}}</h3>
{{end}}{{if .NameLatin}}<p class="plant-name-latin">{{.NameLatin}}</p>
{{end}}{{if .NameHalq}}<p class="plant-name-halq">{{.NameHalq}}</p>
{{end}}</div>
{{if .Soundbite}}<div class="plant-soundbite"><audio controls><source src="{{.Soundbite}}" type="audio/mpeg">Your browser does not support the audio element.</audio></div>
{{end}}</div>
{{end}}</div>
<div class="plants-pagination">
{{if .PrevURL}}<a class="plants-prev" href="{{.PrevURL}}">&larr; Previous</a>
{{end}}{{if .NextURL}}<a class="plants-next" href="{{.NextURL}}">Next &rarr;</a>
{{end}}</div>
{{else}}<div class="plants-no-results">No plants found matching your criteria.</div>
{{end}}`))

var errorTmpl = template.Must(template.New("error").Parse(
	`<div class="plants-error">Error loading plants: {{.}}</div>`))

var (
	imageTmpl = template.Must(template.New("image").Parse(
		`<img class="plant-field-image" src="{{.}}" alt="">`))
	audioTmpl = template.Must(template.New("audio").Parse(
		`<audio class="plant-field-audio" controls><source src="{{.}}" type="audio/mpeg"></audio>`))
	textTmpl = template.Must(template.New("text").Parse(
		`<span class="plant-field">{{.}}</span>`))
)

type archiveData struct {
	Plants  []plants.Card
	PrevURL string
	NextURL string
}

// NavLinks builds the previous/next link URLs for an archive page. base is
// the page path; params carries the current filters and must not contain
// cursor or trail entries. Page 1 links omit the trail parameter entirely.
func NavLinks(base string, params url.Values, trail plants.Trail, page *plants.Page) (prev, next string) {
	if trail.HasPrevious() {
		prev = pageURL(base, params, trail.Previous().Encode())
	}
	if page.HasMore {
		next = pageURL(base, params, trail.Next(page.NextCursor).Encode())
	}
	return prev, next
}

func pageURL(base string, params url.Values, encodedTrail string) string {
	q := url.Values{}
	for k, vs := range params {
		if k == "cursor" || k == "trail" {
			continue
		}
		q[k] = vs
	}
	if encodedTrail != "" {
		q.Set("trail", encodedTrail)
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

// Archive renders the grid fragment for one page, with pagination links.
func Archive(page *plants.Page, prevURL, nextURL string) (string, error) {
	var b strings.Builder
	err := archiveTmpl.Execute(&b, archiveData{
		Plants:  page.Plants,
		PrevURL: prevURL,
		NextURL: nextURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render archive: %w", err)
	}
	return b.String(), nil
}

// ArchiveError renders the visible error block shown in place of the grid.
func ArchiveError(msg string) string {
	var b strings.Builder
	if err := errorTmpl.Execute(&b, msg); err != nil {
		return ""
	}
	return b.String()
}

// Field renders a single-field widget. format is text, image, audio, or auto;
// auto picks by display-key convention (image for *_image keys, audio for
// soundbite_* keys, text otherwise). Unknown or missing values render as an
// empty string rather than an error.
func Field(key string, value any, format string) string {
	if format == "" || format == "auto" {
		format = guessFormat(key)
	}

	switch format {
	case "image":
		return renderInline(imageTmpl, fieldURL(value))
	case "audio":
		return renderInline(audioTmpl, fieldURL(value))
	default:
		return renderInline(textTmpl, fieldText(value))
	}
}

func guessFormat(key string) string {
	switch {
	case strings.HasSuffix(key, "_image"):
		return "image"
	case strings.HasPrefix(key, "soundbite"):
		return "audio"
	default:
		return "text"
	}
}

// fieldURL extracts a single display URL from a resolved field value, which
// may be a plain URL string or a normalized attachment list.
func fieldURL(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []plants.Attachment:
		return plants.FirstURL(v)
	default:
		return plants.FirstURL(plants.NormalizeAttachments(value))
	}
}

func fieldText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func renderInline(t *template.Template, data string) string {
	if data == "" {
		return ""
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}
