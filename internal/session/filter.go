package session

import (
	"strings"
	"time"
	"unicode"
)

type MessageType string

const (
	MessageTypeAll      MessageType = "all"
	MessageTypeWithAI   MessageType = "with-ai"
	MessageTypeUserOnly MessageType = "user-only"
)

// DateRange bounds are inclusive on both ends.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FilterOptions compose conjunctively: a session must pass every filter
// that is set. A whitespace-only Query counts as no query.
type FilterOptions struct {
	Query       string      `json:"query,omitempty"`
	DateRange   *DateRange  `json:"date_range,omitempty"`
	PrivacyMode string      `json:"privacy_mode,omitempty"`
	MessageType MessageType `json:"message_type,omitempty"`
}

// MatchRange is a half-open [Start, End) character-offset range into the
// original title string.
type MatchRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (o FilterOptions) query() string { return strings.TrimSpace(o.Query) }

func (o FilterOptions) empty() bool {
	return o.query() == "" &&
		o.DateRange == nil &&
		o.PrivacyMode == "" &&
		(o.MessageType == "" || o.MessageType == MessageTypeAll)
}

// FilterSessions returns the sessions passing every active filter, plus
// title match ranges keyed by session id when a text query is active.
//
// With no active filter the input slice is returned as-is and the range
// map is nil, so the common render path allocates nothing.
func FilterSessions(sessions []Session, opts FilterOptions) ([]Session, map[string][]MatchRange) {
	if opts.empty() {
		return sessions, nil
	}

	query := opts.query()
	var out []Session
	var ranges map[string][]MatchRange

	for _, s := range sessions {
		if query != "" && !matchesQuery(s, query) {
			continue
		}
		if opts.DateRange != nil {
			if s.UpdatedAt.Before(opts.DateRange.Start) || s.UpdatedAt.After(opts.DateRange.End) {
				continue
			}
		}
		if opts.PrivacyMode != "" && s.PrivacyMode != opts.PrivacyMode {
			continue
		}
		switch opts.MessageType {
		case MessageTypeWithAI:
			if !s.HasAssistantMessage() {
				continue
			}
		case MessageTypeUserOnly:
			if s.HasAssistantMessage() {
				continue
			}
		}

		out = append(out, s)
		if query != "" {
			if m := TitleMatchRanges(s.Title, query); len(m) > 0 {
				if ranges == nil {
					ranges = make(map[string][]MatchRange)
				}
				ranges[s.ID] = m
			}
		}
	}
	return out, ranges
}

// matchesQuery is case-insensitive substring search against the title or
// any message's content.
func matchesQuery(s Session, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(s.Title), q) {
		return true
	}
	for _, m := range s.Messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			return true
		}
	}
	return false
}

// TitleMatchRanges finds non-overlapping case-insensitive occurrences of
// term in title. After a hit at i the scan resumes at i+len(term), so
// "aa" in "aaa" yields one range, not two. Offsets are rune offsets into
// the original title.
func TitleMatchRanges(title, term string) []MatchRange {
	t := lowerRunes(title)
	q := lowerRunes(term)
	if len(q) == 0 || len(q) > len(t) {
		return nil
	}

	var out []MatchRange
	for i := 0; i+len(q) <= len(t); {
		if runesEqual(t[i:i+len(q)], q) {
			out = append(out, MatchRange{Start: i, End: i + len(q)})
			i += len(q)
			continue
		}
		i++
	}
	return out
}

// lowerRunes lowercases rune-by-rune so offsets stay aligned with the
// original string (strings.ToLower may change rune counts for some
// scripts).
func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CountActiveFilters tallies the filters a UI badge would show. It is
// independent of the filtering itself.
func CountActiveFilters(opts FilterOptions) int {
	n := 0
	if opts.query() != "" {
		n++
	}
	if opts.DateRange != nil {
		n++
	}
	if opts.PrivacyMode != "" {
		n++
	}
	if opts.MessageType != "" && opts.MessageType != MessageTypeAll {
		n++
	}
	return n
}
