// Package briefing holds the briefing state container: a pure reducer over
// domain.AppState and a Store that applies it, persists and notifies.
package briefing

import (
	"slices"
	"strings"

	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/ident"
)

// Action is a named state transition
type Action interface {
	apply(s domain.AppState, p ident.Provider) domain.AppState
}

// Reduce applies a to state and returns the new state. state is not modified.
func Reduce(state domain.AppState, a Action, p ident.Provider) domain.AppState {
	return a.apply(state, p)
}

// SelectBriefing makes ID the active briefing. The id is not checked.
type SelectBriefing struct {
	ID string
}

func (a SelectBriefing) apply(s domain.AppState, _ ident.Provider) domain.AppState {
	s.ActiveBriefingID = domain.StringPtr(a.ID)
	return s
}

// CreateBriefing appends an empty briefing and makes it active
type CreateBriefing struct {
	Title string
}

func (a CreateBriefing) apply(s domain.AppState, p ident.Provider) domain.AppState {
	title := a.Title
	if title == "" {
		title = domain.DefaultTitle
	}
	now := p.Now()
	b := domain.Briefing{
		ID:        p.NewID(),
		Title:     title,
		Sources:   []domain.Source{},
		Notes:     []domain.Note{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return domain.AppState{
		Briefings:        append(slices.Clip(s.Briefings), b),
		ActiveBriefingID: domain.StringPtr(b.ID),
	}
}

// DeleteBriefing removes a briefing. When it was active, the first
// remaining briefing becomes active, or none.
type DeleteBriefing struct {
	ID string
}

func (a DeleteBriefing) apply(s domain.AppState, _ ident.Provider) domain.AppState {
	remaining := make([]domain.Briefing, 0, len(s.Briefings))
	for _, b := range s.Briefings {
		if b.ID != a.ID {
			remaining = append(remaining, b)
		}
	}

	active := s.ActiveBriefingID
	if active != nil && *active == a.ID {
		active = nil
		if len(remaining) > 0 {
			active = domain.StringPtr(remaining[0].ID)
		}
	}
	return domain.AppState{Briefings: remaining, ActiveBriefingID: active}
}

// SetTitle renames the active briefing
type SetTitle struct {
	Title string
}

func (a SetTitle) apply(s domain.AppState, p ident.Provider) domain.AppState {
	return updateActive(s, p, func(b *domain.Briefing) bool {
		b.Title = a.Title
		return true
	})
}

// AddItems appends sources and notes to the active briefing
type AddItems struct {
	Sources []domain.Source
	Notes   []domain.Note
}

func (a AddItems) apply(s domain.AppState, p ident.Provider) domain.AppState {
	return updateActive(s, p, func(b *domain.Briefing) bool {
		b.Sources = append(b.Sources, a.Sources...)
		b.Notes = append(b.Notes, a.Notes...)
		return true
	})
}

// SourcePatch lists the source fields to overwrite; nil fields are kept
type SourcePatch struct {
	URL     *string `json:"url,omitempty"`
	Title   *string `json:"title,omitempty"`
	Domain  *string `json:"domain,omitempty"`
	IsValid *bool   `json:"isValid,omitempty"`
}

func (p SourcePatch) merge(src domain.Source) domain.Source {
	if p.URL != nil {
		src.URL = *p.URL
	}
	if p.Title != nil {
		src.Title = *p.Title
	}
	if p.Domain != nil {
		src.Domain = *p.Domain
	}
	if p.IsValid != nil {
		src.IsValid = *p.IsValid
	}
	return src
}

// UpdateSource merges Patch into a source of the active briefing
type UpdateSource struct {
	ID    string
	Patch SourcePatch
}

func (a UpdateSource) apply(s domain.AppState, p ident.Provider) domain.AppState {
	return updateActive(s, p, func(b *domain.Briefing) bool {
		i := slices.IndexFunc(b.Sources, func(src domain.Source) bool { return src.ID == a.ID })
		if i < 0 {
			return false
		}
		b.Sources[i] = a.Patch.merge(b.Sources[i])
		return true
	})
}

// DeleteSource removes a source from the active briefing
type DeleteSource struct {
	ID string
}

func (a DeleteSource) apply(s domain.AppState, p ident.Provider) domain.AppState {
	return updateActive(s, p, func(b *domain.Briefing) bool {
		n := len(b.Sources)
		b.Sources = slices.DeleteFunc(b.Sources, func(src domain.Source) bool { return src.ID == a.ID })
		return len(b.Sources) != n
	})
}

// UpdateNote replaces the text of a note. Blank text deletes the note.
type UpdateNote struct {
	ID   string
	Text string
}

func (a UpdateNote) apply(s domain.AppState, p ident.Provider) domain.AppState {
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return DeleteNote{ID: a.ID}.apply(s, p)
	}
	return updateActive(s, p, func(b *domain.Briefing) bool {
		i := slices.IndexFunc(b.Notes, func(n domain.Note) bool { return n.ID == a.ID })
		if i < 0 {
			return false
		}
		b.Notes[i].Text = text
		return true
	})
}

// DeleteNote removes a note from the active briefing
type DeleteNote struct {
	ID string
}

func (a DeleteNote) apply(s domain.AppState, p ident.Provider) domain.AppState {
	return updateActive(s, p, func(b *domain.Briefing) bool {
		n := len(b.Notes)
		b.Notes = slices.DeleteFunc(b.Notes, func(note domain.Note) bool { return note.ID == a.ID })
		return len(b.Notes) != n
	})
}

// ClearBriefing empties the active briefing
type ClearBriefing struct{}

func (ClearBriefing) apply(s domain.AppState, p ident.Provider) domain.AppState {
	return updateActive(s, p, func(b *domain.Briefing) bool {
		b.Sources = []domain.Source{}
		b.Notes = []domain.Note{}
		return true
	})
}

// ImportSharedBriefing adds a briefing received through a share link.
// Re-importing an id that already exists only selects it.
type ImportSharedBriefing struct {
	Briefing domain.Briefing
}

func (a ImportSharedBriefing) apply(s domain.AppState, _ ident.Provider) domain.AppState {
	if s.Index(a.Briefing.ID) >= 0 {
		s.ActiveBriefingID = domain.StringPtr(a.Briefing.ID)
		return s
	}
	return domain.AppState{
		Briefings:        append(slices.Clip(s.Briefings), a.Briefing.Clone()),
		ActiveBriefingID: domain.StringPtr(a.Briefing.ID),
	}
}

// updateActive runs fn on a copy of the active briefing. fn reports whether
// it changed anything; only then is the copy stored and UpdatedAt bumped.
func updateActive(s domain.AppState, p ident.Provider, fn func(b *domain.Briefing) bool) domain.AppState {
	if s.ActiveBriefingID == nil {
		return s
	}
	i := s.Index(*s.ActiveBriefingID)
	if i < 0 {
		return s
	}

	b := s.Briefings[i].Clone()
	if !fn(&b) {
		return s
	}
	b.UpdatedAt = p.Now()

	briefings := slices.Clone(s.Briefings)
	briefings[i] = b
	s.Briefings = briefings
	return s
}
