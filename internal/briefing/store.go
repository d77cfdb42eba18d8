package briefing

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/ident"
	"github.com/pbaille/linkloom/internal/logger"
)

// DefaultKey is the key the state blob is stored under
const DefaultKey = "linkloom:v2"

// FirstTitle names the briefing created when nothing has been saved yet
const FirstTitle = "My First Briefing"

// KV is the persistence the Store writes through to
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Store owns the application state. Every change goes through Dispatch.
type Store struct {
	// dispatchMu orders dispatches end to end, notification included
	dispatchMu sync.Mutex

	mu    sync.Mutex
	state domain.AppState

	kv  KV
	key string
	ids ident.Provider
	log logger.Logger

	subMu  sync.Mutex
	subs   map[int]func(domain.AppState)
	nextID int
}

// Option configures a Store
type Option func(*Store)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithProvider sets the id and clock source
func WithProvider(p ident.Provider) Option {
	return func(s *Store) { s.ids = p }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open creates a Store and restores the state saved in kv. A saved blob that
// does not decode is removed and the Store starts empty.
func Open(kv KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:   kv,
		key:  DefaultKey,
		ids:  ident.System{},
		log:  logger.NewNop(),
		subs: make(map[int]func(domain.AppState)),
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := s.load()
	if err != nil {
		return nil, err
	}
	s.state = state
	return s, nil
}

func (s *Store) load() (domain.AppState, error) {
	empty := domain.AppState{Briefings: []domain.Briefing{}}

	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return empty, fmt.Errorf("load state: %w", err)
	}
	if !ok || raw == "" {
		return empty, nil
	}

	var state domain.AppState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.log.Warn("discarding unreadable saved state",
			logger.String("key", s.key), logger.Error(err))
		if err := s.kv.Remove(s.key); err != nil {
			return empty, fmt.Errorf("remove state: %w", err)
		}
		return empty, nil
	}

	return state.Clone(), nil
}

// Init prepares the state for a session. A shared briefing, when given, is
// imported and selected. Otherwise an empty store gets a first briefing and a
// missing or dangling active id falls back to the first briefing.
func (s *Store) Init(shared *domain.Briefing) error {
	state := s.State()

	switch {
	case shared != nil:
		_, err := s.Dispatch(ImportSharedBriefing{Briefing: *shared})
		return err
	case len(state.Briefings) == 0:
		_, err := s.Dispatch(CreateBriefing{Title: FirstTitle})
		return err
	default:
		if _, ok := state.Active(); !ok {
			_, err := s.Dispatch(SelectBriefing{ID: state.Briefings[0].ID})
			return err
		}
	}
	return nil
}

// Dispatch applies a, writes the new state through to the KV store and
// notifies subscribers. The in-memory state is updated even when the write
// fails; the error is returned. Subscribers receive states in the order the
// actions were applied and must not call Dispatch themselves.
func (s *Store) Dispatch(a Action) (domain.AppState, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a, s.ids)
	snapshot := s.state.Clone()
	err := s.persist(snapshot)
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot.Clone(), err
}

func (s *Store) persist(state domain.AppState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		s.log.Error("persist state failed", logger.String("key", s.key), logger.Error(err))
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Subscribe registers fn to receive every new state. The returned func
// unregisters it.
func (s *Store) Subscribe(fn func(domain.AppState)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(state domain.AppState) {
	s.subMu.Lock()
	fns := make([]func(domain.AppState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state.Clone())
	}
}

// State returns a copy of the current state
func (s *Store) State() domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Active returns a copy of the active briefing
func (s *Store) Active() (domain.Briefing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.Active()
	if !ok {
		return domain.Briefing{}, false
	}
	return b.Clone(), true
}

// Select makes id the active briefing
func (s *Store) Select(id string) error {
	_, err := s.Dispatch(SelectBriefing{ID: id})
	return err
}

// Create adds a new briefing, makes it active and returns it
func (s *Store) Create(title string) (domain.Briefing, error) {
	state, err := s.Dispatch(CreateBriefing{Title: title})
	b, _ := state.Active()
	return b, err
}

// Delete removes the briefing with the given id
func (s *Store) Delete(id string) error {
	_, err := s.Dispatch(DeleteBriefing{ID: id})
	return err
}

// SetTitle renames the active briefing
func (s *Store) SetTitle(title string) error {
	_, err := s.Dispatch(SetTitle{Title: title})
	return err
}

// AddItems appends sources and notes to the active briefing
func (s *Store) AddItems(sources []domain.Source, notes []domain.Note) error {
	_, err := s.Dispatch(AddItems{Sources: sources, Notes: notes})
	return err
}

// UpdateSource merges patch into the source with the given id
func (s *Store) UpdateSource(id string, patch SourcePatch) error {
	_, err := s.Dispatch(UpdateSource{ID: id, Patch: patch})
	return err
}

// DeleteSource removes a source from the active briefing
func (s *Store) DeleteSource(id string) error {
	_, err := s.Dispatch(DeleteSource{ID: id})
	return err
}

// UpdateNote replaces a note's text; blank text deletes the note
func (s *Store) UpdateNote(id, text string) error {
	_, err := s.Dispatch(UpdateNote{ID: id, Text: text})
	return err
}

// DeleteNote removes a note from the active briefing
func (s *Store) DeleteNote(id string) error {
	_, err := s.Dispatch(DeleteNote{ID: id})
	return err
}

// Clear empties the active briefing
func (s *Store) Clear() error {
	_, err := s.Dispatch(ClearBriefing{})
	return err
}

// Import adds a shared briefing, or selects it when already present
func (s *Store) Import(b domain.Briefing) error {
	_, err := s.Dispatch(ImportSharedBriefing{Briefing: b})
	return err
}

// CommitSourceTitle saves an edited source title. A blank title falls back
// to the source's domain.
func (s *Store) CommitSourceTitle(id, text string) error {
	title := strings.TrimSpace(text)
	if title == "" {
		b, ok := s.Active()
		if !ok {
			return nil
		}
		for _, src := range b.Sources {
			if src.ID == id {
				title = src.Domain
				break
			}
		}
	}
	return s.UpdateSource(id, SourcePatch{Title: &title})
}

// CommitNote saves an edited note. A blank note is deleted.
func (s *Store) CommitNote(id, text string) error {
	if strings.TrimSpace(text) == "" {
		return s.DeleteNote(id)
	}
	return s.UpdateNote(id, text)
}
