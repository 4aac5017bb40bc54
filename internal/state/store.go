// Package state owns the in-memory AppState. All writes go through
// Store.Update, which commits a mutated copy atomically and then notifies
// subscribers in registration order.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "filex/internal/errors"
	"filex/internal/logging"
)

// Mutation transforms a draft of the state. Returning an error discards the
// draft; a nil Event commits without notifying.
type Mutation func(s *AppState) (Event, error)

// Store is the concurrency-safe holder of AppState
type Store struct {
	mu    sync.RWMutex
	state AppState

	subMu   sync.Mutex
	subs    []*Subscription
	nextSub uint64

	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used to stamp LastSaved
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for dropped channel events
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

// NewStore creates a Store holding the default state
func NewStore(opts ...Option) *Store {
	s := newStore(opts)
	s.state = DefaultAppState(s.now())
	return s
}

// NewStoreWithState creates a Store from a restored snapshot. Tab activation
// is normalized so that ActiveTabID and the Active flags agree.
func NewStoreWithState(initial AppState, opts ...Option) *Store {
	s := newStore(opts)
	st := initial.Clone()
	normalize(&st)
	s.state = st
	return s
}

func newStore(opts []Option) *Store {
	s := &Store{
		now:    func() time.Time { return time.Now().UTC() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetState returns a deep copy of the current state
func (s *Store) GetState() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ActiveTab returns a copy of the active tab
func (s *Store) ActiveTab() (TabState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveTab()
}

// Tab returns a copy of the tab with id
func (s *Store) Tab(id string) (TabState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tab(id)
}

// Update applies fn to a copy of the state and commits the copy only when fn
// succeeds. Subscribers are notified after the lock is released.
func (s *Store) Update(fn Mutation) error {
	ev, err := s.apply(fn)
	if err != nil {
		return err
	}
	if ev != nil {
		s.notify(ev)
	}
	return nil
}

func (s *Store) apply(fn Mutation) (ev Event, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.Clone()
	defer func() {
		if r := recover(); r != nil {
			ev = nil
			err = apperrors.NewInternalError("update_state", fmt.Sprintf("mutation panicked: %v", r), nil)
		}
	}()

	ev, err = fn(&draft)
	if err != nil {
		return nil, err
	}
	draft.LastSaved = s.now()
	s.state = draft
	return ev, nil
}

// SetWindowState replaces the window geometry
func (s *Store) SetWindowState(w WindowState) error {
	return s.Update(func(st *AppState) (Event, error) {
		st.Window = w.clone()
		return WindowChanged{Window: w.clone()}, nil
	})
}

// AddTab appends tab and makes it the only active tab.
// A tab without an ID is given a fresh one.
func (s *Store) AddTab(tab TabState) error {
	if tab.ID == "" {
		tab.ID = uuid.NewString()
	}
	return s.Update(func(st *AppState) (Event, error) {
		if st.tabIndex(tab.ID) >= 0 {
			return nil, apperrors.NewInternalError("add_tab", "duplicate tab id: "+tab.ID, nil)
		}
		for i := range st.Tabs {
			st.Tabs[i].Active = false
		}
		tab.Active = true
		st.Tabs = append(st.Tabs, tab)
		id := tab.ID
		st.ActiveTabID = &id
		return TabAdded{Tab: tab}, nil
	})
}

// RemoveTab deletes a tab. If it was active, the tab before it (or the new
// first tab) becomes active; an emptied list leaves no active tab.
func (s *Store) RemoveTab(id string) error {
	return s.Update(func(st *AppState) (Event, error) {
		idx := st.tabIndex(id)
		if idx < 0 {
			return nil, apperrors.NewNotFoundError("remove_tab", id, "tab not found")
		}
		st.Tabs = append(st.Tabs[:idx], st.Tabs[idx+1:]...)

		if st.ActiveTabID != nil && *st.ActiveTabID == id {
			st.ActiveTabID = nil
			if len(st.Tabs) > 0 {
				next := max(idx-1, 0)
				st.Tabs[next].Active = true
				newID := st.Tabs[next].ID
				st.ActiveTabID = &newID
			}
		}

		ev := TabRemoved{TabID: id}
		if st.ActiveTabID != nil {
			newID := *st.ActiveTabID
			ev.NewActiveID = &newID
		}
		return ev, nil
	})
}

// SetActiveTab makes id the only active tab
func (s *Store) SetActiveTab(id string) error {
	return s.Update(func(st *AppState) (Event, error) {
		idx := st.tabIndex(id)
		if idx < 0 {
			return nil, apperrors.NewNotFoundError("set_active_tab", id, "tab not found")
		}
		for i := range st.Tabs {
			st.Tabs[i].Active = i == idx
		}
		activeID := id
		st.ActiveTabID = &activeID
		return ActiveTabChanged{TabID: id}, nil
	})
}

// SetTabPath records the directory a tab is showing
func (s *Store) SetTabPath(id, path string) error {
	return s.Update(func(st *AppState) (Event, error) {
		idx := st.tabIndex(id)
		if idx < 0 {
			return nil, apperrors.NewNotFoundError("set_tab_path", id, "tab not found")
		}
		if st.Tabs[idx].CurrentPath == path {
			return nil, nil
		}
		st.Tabs[idx].CurrentPath = path
		return TabPathChanged{TabID: id, Path: path}, nil
	})
}

// RenameTab changes a tab's display name
func (s *Store) RenameTab(id, name string) error {
	return s.Update(func(st *AppState) (Event, error) {
		idx := st.tabIndex(id)
		if idx < 0 {
			return nil, apperrors.NewNotFoundError("rename_tab", id, "tab not found")
		}
		st.Tabs[idx].Name = name
		return TabRenamed{TabID: id, Name: name}, nil
	})
}

// SetUiState replaces the UI flags
func (s *Store) SetUiState(ui UiState) error {
	return s.Update(func(st *AppState) (Event, error) {
		st.UI = ui.clone()
		return UiStateChanged{UI: ui.clone()}, nil
	})
}

// AddPane appends a pane; a pane without an ID is given a fresh one
func (s *Store) AddPane(p PaneState) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.Update(func(st *AppState) (Event, error) {
		if st.paneIndex(p.ID) >= 0 {
			return nil, apperrors.NewInternalError("add_pane", "duplicate pane id: "+p.ID, nil)
		}
		st.Panes = append(st.Panes, p.clone())
		return PaneAdded{Pane: p.clone()}, nil
	})
}

// RemovePane deletes a pane by id
func (s *Store) RemovePane(id string) error {
	return s.Update(func(st *AppState) (Event, error) {
		idx := st.paneIndex(id)
		if idx < 0 {
			return nil, apperrors.NewNotFoundError("remove_pane", id, "pane not found")
		}
		st.Panes = append(st.Panes[:idx], st.Panes[idx+1:]...)
		return PaneRemoved{PaneID: id}, nil
	})
}

// SetPaneVisible shows or hides a pane
func (s *Store) SetPaneVisible(id string, visible bool) error {
	return s.Update(func(st *AppState) (Event, error) {
		idx := st.paneIndex(id)
		if idx < 0 {
			return nil, apperrors.NewNotFoundError("set_pane_visible", id, "pane not found")
		}
		if st.Panes[idx].Visible == visible {
			return nil, nil
		}
		st.Panes[idx].Visible = visible
		return PaneUpdated{Pane: st.Panes[idx].clone()}, nil
	})
}
