package models

import (
	"fmt"
	"strings"
)

// Trace is the ordered, append-only list of strategy tags recorded during a
// scrape ("FindSection:AnchorID", "Scraped:MainView:3", ...). It exists for
// post-hoc diagnosis only; control flow never reads it back.
type Trace []string

// Add appends a tag.
func (t *Trace) Add(tag string) {
	*t = append(*t, tag)
}

// Addf appends a formatted tag.
func (t *Trace) Addf(format string, args ...any) {
	*t = append(*t, fmt.Sprintf(format, args...))
}

// Join renders the trace as the single pipe-separated string exposed in the
// response's debug field.
func (t Trace) Join() string {
	return strings.Join(t, " | ")
}

// Contains reports whether any tag includes the given substring. Used by
// tests; production code never branches on the trace.
func (t Trace) Contains(sub string) bool {
	for _, tag := range t {
		if strings.Contains(tag, sub) {
			return true
		}
	}
	return false
}
