package domain

import (
	"slices"
	"time"
)

// DefaultTitle is the title given to briefings created without one
const DefaultTitle = "Untitled Briefing"

// Source is a classified URL-bearing item
type Source struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Domain  string `json:"domain"`
	IsValid bool   `json:"isValid"`
}

// Note is a plain-text item that did not look like a URL
type Note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Briefing is a named collection of sources and notes
type Briefing struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Sources   []Source  `json:"sources"`
	Notes     []Note    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppState holds every briefing and the currently selected one
type AppState struct {
	Briefings        []Briefing `json:"briefings"`
	ActiveBriefingID *string    `json:"activeBriefingId"`
}

// Clone returns a deep copy of the briefing
func (b Briefing) Clone() Briefing {
	b.Sources = cloneOrEmpty(b.Sources)
	b.Notes = cloneOrEmpty(b.Notes)
	return b
}

// Clone returns a deep copy of the state
func (s AppState) Clone() AppState {
	out := AppState{Briefings: make([]Briefing, len(s.Briefings))}
	for i, b := range s.Briefings {
		out.Briefings[i] = b.Clone()
	}
	if s.ActiveBriefingID != nil {
		id := *s.ActiveBriefingID
		out.ActiveBriefingID = &id
	}
	return out
}

// ActiveID returns the active briefing id, or "" when none is selected
func (s AppState) ActiveID() string {
	if s.ActiveBriefingID == nil {
		return ""
	}
	return *s.ActiveBriefingID
}

// Index returns the position of the briefing with the given id, or -1
func (s AppState) Index(id string) int {
	return slices.IndexFunc(s.Briefings, func(b Briefing) bool { return b.ID == id })
}

// Active returns the active briefing, if the active id references one
func (s AppState) Active() (Briefing, bool) {
	if s.ActiveBriefingID == nil {
		return Briefing{}, false
	}
	i := s.Index(*s.ActiveBriefingID)
	if i < 0 {
		return Briefing{}, false
	}
	return s.Briefings[i], true
}

// ByRecency returns the briefings ordered by UpdatedAt, most recent first
func (s AppState) ByRecency() []Briefing {
	out := slices.Clone(s.Briefings)
	slices.SortStableFunc(out, func(a, b Briefing) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// StringPtr returns a pointer to id
func StringPtr(id string) *string {
	return &id
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
