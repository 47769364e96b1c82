package plants

import "strings"

// Trail is the ordered list of pagination cursors the client has walked
// through, carried on navigation links so "Previous" works without any
// server-side session state. The conceptual entry for page 1 is the empty
// cursor; it is represented by the single-element sentinel Trail{""} and is
// never serialized.
type Trail []string

// DecodeTrail parses a comma-joined trail parameter. Empty elements are
// dropped; an empty or absent parameter yields the page-1 sentinel.
func DecodeTrail(s string) Trail {
	var t Trail
	for _, c := range strings.Split(s, ",") {
		if c != "" {
			t = append(t, c)
		}
	}
	if len(t) == 0 {
		return Trail{""}
	}
	return t
}

// Encode serializes the trail for a navigation link. The page-1 sentinel
// encodes to ""; callers must then omit the trail parameter entirely rather
// than emit a dangling trail= token.
func (t Trail) Encode() string {
	parts := make([]string, 0, len(t))
	for _, c := range t {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, ",")
}

// Current returns the cursor to fetch the current page with.
func (t Trail) Current() string {
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

// HasPrevious reports whether backward navigation is possible.
func (t Trail) HasPrevious() bool {
	return len(t) > 1
}

// Previous returns the trail with the last cursor removed. Only meaningful
// when HasPrevious reports true.
func (t Trail) Previous() Trail {
	if len(t) <= 1 {
		return Trail{""}
	}
	return t[:len(t)-1]
}

// Next returns a new trail extended with the cursor of the following page.
func (t Trail) Next(cursor string) Trail {
	next := make(Trail, len(t), len(t)+1)
	copy(next, t)
	return append(next, cursor)
}
