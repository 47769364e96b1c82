package plants

// FieldMap maps Airtable field identifiers to the stable display keys the
// rest of the service works with, e.g. "fldAbc123" -> "name_en". It is
// loaded once from configuration and shared read-only.
type FieldMap map[string]string

// Fields is one record keyed by display key.
type Fields map[string]any

// Display keys the card and widget paths rely on.
const (
	KeyID           = "id"
	KeyNameEN       = "name_en"
	KeyNameLatin    = "name_latin"
	KeyNameHalq     = "name_halq"
	KeyFeatureImage = "feature_image"
	KeySoundbite    = "soundbite_halq"
)

// Mapper projects raw Airtable fields onto display keys.
type Mapper struct {
	fieldMap FieldMap
}

func NewMapper(fm FieldMap) *Mapper {
	return &Mapper{fieldMap: fm}
}

// Map projects raw fields through the field map. The output is a strict
// projection: every mapped key is present, nil when the record lacks the
// field, and raw keys without a mapping are dropped.
func (m *Mapper) Map(raw map[string]any) Fields {
	out := make(Fields, len(m.fieldMap))
	for storeKey, displayKey := range m.fieldMap {
		if v, ok := raw[storeKey]; ok {
			out[displayKey] = v
		} else {
			out[displayKey] = nil
		}
	}
	return out
}

// Attachment is a normalized file reference from an attachment-typed field.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// NormalizeAttachments coerces an attachment field value into a flat list.
// Airtable returns a list of objects, but a bare object with a top-level url
// string counts as a single attachment. Entries without a non-empty url are
// dropped; anything else yields an empty list.
func NormalizeAttachments(v any) []Attachment {
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case map[string]any:
		items = []any{val}
	default:
		return []Attachment{}
	}

	out := make([]Attachment, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		url, _ := obj["url"].(string)
		if url == "" {
			continue
		}
		att := Attachment{URL: url}
		att.Filename, _ = obj["filename"].(string)
		att.Type, _ = obj["type"].(string)
		if size, ok := obj["size"].(float64); ok {
			att.Size = int64(size)
		}
		out = append(out, att)
	}
	return out
}

// FirstURL returns the display URL for single-valued contexts such as card
// thumbnails: only the first attachment is ever shown there.
func FirstURL(atts []Attachment) string {
	if len(atts) == 0 {
		return ""
	}
	return atts[0].URL
}
