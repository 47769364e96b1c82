package plants

import (
	"fmt"
	"strings"
)

// Airtable field names the archive filters run against.
const (
	fieldNameEN    = "Plant Name (English)"
	fieldNameHalq  = "Plant Name (Halq'eméylem) and Meaning"
	fieldNameLatin = "Plant Name (Latin)"
	fieldUpdatedAt = "Updated At"
	fieldUses      = "Uses (Food, medicine, other uses)"
	fieldOrigin    = "Indigenous or Introduced/Niche or Zone"
	fieldNiche     = "Niche/Zone and Ecology"
)

// searchFields are the name fields a free-text search spans, in the order
// predicates are emitted.
var searchFields = []string{fieldNameEN, fieldNameHalq, fieldNameLatin}

// escapeQuotes escapes single quotes for use inside an Airtable string
// literal. Must run after case-folding, never before.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// searchPredicate emits a case-insensitive substring match of term against an
// Airtable field. The term must already be escaped.
func searchPredicate(term, field string) string {
	return fmt.Sprintf("SEARCH('%s', LOWER({%s}))", term, field)
}

func orGroup(terms []string, field string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = searchPredicate(escapeQuotes(t), field)
	}
	return "OR(" + strings.Join(parts, ",") + ")"
}

// BuildFormula combines the archive filters into an Airtable filterByFormula
// expression: one OR group per non-empty category, joined with an outer AND.
// An empty result means no filtering. Terms are used in input order and are
// expected to be trimmed, lower-cased and non-empty already.
func BuildFormula(search string, uses, origin, niche []string) string {
	var groups []string

	if search != "" {
		esc := escapeQuotes(search)
		parts := make([]string, len(searchFields))
		for i, f := range searchFields {
			parts[i] = searchPredicate(esc, f)
		}
		groups = append(groups, "OR("+strings.Join(parts, ",")+")")
	}

	for _, cat := range []struct {
		terms []string
		field string
	}{
		{uses, fieldUses},
		{origin, fieldOrigin},
		{niche, fieldNiche},
	} {
		if len(cat.terms) > 0 {
			groups = append(groups, orGroup(cat.terms, cat.field))
		}
	}

	if len(groups) == 0 {
		return ""
	}
	return "AND(" + strings.Join(groups, ",") + ")"
}

// recordIDFormula selects exactly one record by its Airtable record id.
func recordIDFormula(id string) string {
	return fmt.Sprintf("RECORD_ID() = '%s'", escapeQuotes(id))
}
