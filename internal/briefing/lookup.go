package briefing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/linkloom/internal/domain"
)

var (
	// ErrNotFound is returned when no id matches a prefix
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when several ids match a prefix
	ErrAmbiguous = errors.New("ambiguous id prefix")
)

// FindBriefing resolves an id or id prefix to a briefing id
func (s *Store) FindBriefing(prefix string) (string, error) {
	state := s.State()
	ids := make([]string, len(state.Briefings))
	for i, b := range state.Briefings {
		ids[i] = b.ID
	}
	return matchPrefix("briefing", prefix, ids)
}

// FindSource resolves an id prefix to a source id of the active briefing
func (s *Store) FindSource(prefix string) (string, error) {
	b, _ := s.Active()
	ids := make([]string, len(b.Sources))
	for i, src := range b.Sources {
		ids[i] = src.ID
	}
	return matchPrefix("source", prefix, ids)
}

// FindNote resolves an id prefix to a note id of the active briefing
func (s *Store) FindNote(prefix string) (string, error) {
	b, _ := s.Active()
	ids := make([]string, len(b.Notes))
	for i, n := range b.Notes {
		ids[i] = n.ID
	}
	return matchPrefix("note", prefix, ids)
}

// SourceByID returns a source of the active briefing
func (s *Store) SourceByID(id string) (domain.Source, bool) {
	b, _ := s.Active()
	for _, src := range b.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return domain.Source{}, false
}

func matchPrefix(kind, prefix string, ids []string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%s %q: %w", kind, prefix, ErrNotFound)
	}

	var matches []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, prefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s %q matches %d ids: %w", kind, prefix, len(matches), ErrAmbiguous)
	}
}
