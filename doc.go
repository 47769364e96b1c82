// Package plantsapi proxies a plants dataset held in Airtable for a content
// site: it translates simple filter/sort/pagination parameters into Airtable
// filter formulas, walks opaque-cursor pagination with a client-visible
// cursor trail, and serves normalized records as JSON or as ready-to-embed
// HTML fragments.
package plantsapi

import _ "embed"

//go:embed README.md
var Readme string
