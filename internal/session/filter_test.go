package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkSession(id, title string, msgs ...Message) Session {
	now := time.Now()
	return Session{ID: id, Title: title, Messages: msgs, CreatedAt: now, UpdatedAt: now}
}

func TestFilterSessionsFastPath(t *testing.T) {
	sessions := []Session{
		mkSession("a", "First"),
		mkSession("b", "Second"),
	}

	out, ranges := FilterSessions(sessions, FilterOptions{})
	require.Len(t, out, 2)
	assert.Nil(t, ranges)
	// same backing array, not a copy
	assert.Same(t, &sessions[0], &out[0])

	// messageType "all" alone is still the fast path
	out, _ = FilterSessions(sessions, FilterOptions{MessageType: MessageTypeAll})
	assert.Same(t, &sessions[0], &out[0])

	// whitespace-only query means no query
	out, ranges = FilterSessions(sessions, FilterOptions{Query: "   "})
	assert.Same(t, &sessions[0], &out[0])
	assert.Nil(t, ranges)
}

func TestFilterSessionsTitleQuery(t *testing.T) {
	sessions := []Session{
		mkSession("a", "Hello World"),
		mkSession("b", "Weather notes"),
	}

	out, ranges := FilterSessions(sessions, FilterOptions{Query: "hello"})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, []MatchRange{{Start: 0, End: 5}}, ranges["a"])
}

func TestFilterSessionsMessageContentQuery(t *testing.T) {
	sessions := []Session{
		mkSession("a", "Untitled", Message{Role: RoleUser, Content: "tell me about GOPHERS"}),
		mkSession("b", "Untitled"),
	}

	// matches via message content; no title ranges since the title
	// doesn't contain the term
	out, ranges := FilterSessions(sessions, FilterOptions{Query: "gophers"})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
	assert.Empty(t, ranges["a"])
}

func TestTitleMatchRangesNonOverlapping(t *testing.T) {
	// "aa" in "aaaa" is exactly two ranges, not three
	assert.Equal(t,
		[]MatchRange{{Start: 0, End: 2}, {Start: 2, End: 4}},
		TitleMatchRanges("aaaa", "aa"))

	// "aa" in "aaa" is one range
	assert.Equal(t,
		[]MatchRange{{Start: 0, End: 2}},
		TitleMatchRanges("aaa", "aa"))

	// case-insensitive, offsets into the original string
	assert.Equal(t,
		[]MatchRange{{Start: 6, End: 11}},
		TitleMatchRanges("Intro World", "world"))

	assert.Nil(t, TitleMatchRanges("short", "longer than title"))
	assert.Nil(t, TitleMatchRanges("anything", ""))
}

func TestFilterSessionsDateRangeInclusive(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s1 := mkSession("a", "one")
	s1.UpdatedAt = base
	s2 := mkSession("b", "two")
	s2.UpdatedAt = base.Add(48 * time.Hour)

	opts := FilterOptions{DateRange: &DateRange{Start: base, End: base.Add(24 * time.Hour)}}
	out, _ := FilterSessions([]Session{s1, s2}, opts)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)

	// both bounds inclusive
	opts = FilterOptions{DateRange: &DateRange{Start: base, End: base}}
	out, _ = FilterSessions([]Session{s1, s2}, opts)
	require.Len(t, out, 1)
}

func TestFilterSessionsMessageType(t *testing.T) {
	withAI := mkSession("a", "assisted",
		Message{Role: RoleUser, Content: "hi"},
		Message{Role: RoleAssistant, Content: "hello"})
	userOnly := mkSession("b", "draft",
		Message{Role: RoleUser, Content: "note to self"})
	empty := mkSession("c", "empty")

	sessions := []Session{withAI, userOnly, empty}

	out, _ := FilterSessions(sessions, FilterOptions{MessageType: MessageTypeWithAI})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)

	out, _ = FilterSessions(sessions, FilterOptions{MessageType: MessageTypeUserOnly})
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestFilterSessionsConjunction(t *testing.T) {
	match := mkSession("a", "Gopher chat",
		Message{Role: RoleAssistant, Content: "hi"})
	wrongType := mkSession("b", "Gopher drafts")

	out, _ := FilterSessions([]Session{match, wrongType}, FilterOptions{
		Query:       "gopher",
		MessageType: MessageTypeWithAI,
	})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestCountActiveFilters(t *testing.T) {
	assert.Equal(t, 0, CountActiveFilters(FilterOptions{}))
	assert.Equal(t, 0, CountActiveFilters(FilterOptions{Query: "  ", MessageType: MessageTypeAll}))
	assert.Equal(t, 4, CountActiveFilters(FilterOptions{
		Query:       "x",
		DateRange:   &DateRange{},
		PrivacyMode: "local-only",
		MessageType: MessageTypeWithAI,
	}))
}
