// Package session wires configuration, persistence, the state store and
// per-tab navigation into one application session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"filex/internal/config"
	"filex/internal/constants"
	apperrors "filex/internal/errors"
	"filex/internal/fileinfo"
	"filex/internal/jobs"
	"filex/internal/logging"
	"filex/internal/metrics"
	"filex/internal/navigation"
	"filex/internal/persistence"
	"filex/internal/sortfilter"
	"filex/internal/state"
	"filex/internal/watcher"
)

// Deps are the session's replaceable collaborators. Zero values select the
// local filesystem, the system opener and a logger built from config.
type Deps struct {
	Fs          afero.Fs
	Opener      func(path string) error
	Resolver    navigation.Resolver
	Logger      *zap.Logger
	Clock       func() time.Time
	InitialPath string // first tab when the restored session has none

	WatchInterval time.Duration // zero means watcher.DefaultInterval
	Metrics       *metrics.Metrics
}

// Session owns the store and everything that reads or writes it.
type Session struct {
	cfg      *config.Config
	logger   *zap.Logger
	now      func() time.Time
	metrics  *metrics.Metrics
	reader   fileinfo.DirectoryReader
	resolver navigation.Resolver

	persist *persistence.Manager
	store   *state.Store
	jobs    *jobs.Manager
	sub     *state.Subscription

	mu          sync.Mutex
	controllers map[string]*navigation.Controller
	watchers    map[string]*watcher.DirectoryWatcher
	watchEvery  time.Duration
	sortCfg     sortfilter.SortConfig
	filter      sortfilter.FilterCriteria

	dirty     atomic.Bool
	stopSave  chan struct{}
	saverDone chan struct{}
	closeOnce sync.Once
}

// Open restores the saved session, or starts a fresh one when nothing has
// been saved yet.
func Open(cfg *config.Config, deps Deps) (*Session, error) {
	if cfg == nil {
		return nil, apperrors.NewInternalError("open_session", "nil config", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewInternalError("open_session", "invalid config", err)
	}

	logger := deps.Logger
	if logger == nil {
		l, err := logging.New(cfg.LoggingConfig())
		if err != nil {
			return nil, apperrors.NewInternalError("open_session", "cannot build logger", err)
		}
		logger = l
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	mt := deps.Metrics
	if mt == nil {
		mt = metrics.New()
	}

	local := fileinfo.LocalFS{Fs: deps.Fs, Opener: deps.Opener}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = &navigation.Navigator{Reader: local, System: local}
	}

	pOpts := []persistence.Option{
		persistence.WithClock(now),
		persistence.WithLogger(logger),
		persistence.WithMetrics(mt),
	}
	if deps.Fs != nil {
		pOpts = append(pOpts, persistence.WithFs(deps.Fs))
	}
	persist, err := persistence.NewManager(cfg.PersistenceConfig(), pOpts...)
	if err != nil {
		return nil, err
	}

	initial, source, err := restore(persist, now, logger)
	if err != nil {
		return nil, err
	}
	mt.RecordRestore(source)

	s := &Session{
		cfg:         cfg,
		logger:      logger,
		now:         now,
		metrics:     mt,
		reader:      local,
		resolver:    resolver,
		persist:     persist,
		store:       state.NewStoreWithState(initial, state.WithClock(now), state.WithLogger(logger)),
		jobs:        jobs.NewManager(jobs.WithLogger(logger), jobs.WithClock(now)),
		controllers: make(map[string]*navigation.Controller),
		watchers:    make(map[string]*watcher.DirectoryWatcher),
		watchEvery:  deps.WatchInterval,
		sortCfg:     cfg.SortConfig(),
		filter:      cfg.FilterCriteria(),
	}
	s.sub = s.store.Subscribe(s.onEvent)
	mt.SetTabsOpen(len(initial.Tabs))

	if len(initial.Tabs) == 0 && deps.InitialPath != "" {
		if _, err := s.OpenTab(deps.InitialPath); err != nil {
			logger.Warn("cannot open initial tab", zap.String("path", deps.InitialPath), zap.Error(err))
		}
	}

	pc := persist.Config()
	if pc.AutoSaveEnabled && pc.AutoSaveInterval > 0 {
		s.startAutoSave(pc.AutoSaveInterval)
	}

	logger.Info("session opened",
		zap.String("state_dir", persist.StateDir()),
		zap.Int("tabs", len(initial.Tabs)),
		zap.String("restored_from", source))
	return s, nil
}

// restore loads app_state.json. A corrupt file falls back to the newest
// backup; a missing file, or a corrupt file without a usable backup,
// yields the default state. Activation flags are repaired by the store.
func restore(persist *persistence.Manager, now func() time.Time, logger *zap.Logger) (state.AppState, string, error) {
	var st state.AppState
	err := persist.LoadAppState(&st)
	if err == nil {
		if id, dup := duplicateTabID(st); dup {
			err = apperrors.NewSerializationError("restore_session", constants.AppStateKey, "duplicate tab id "+id, nil)
		}
	}
	switch {
	case err == nil:
		return st, metrics.RestoreFile, nil
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Debug("no saved session, starting fresh")
		return state.DefaultAppState(now()), metrics.RestoreDefault, nil
	case !errors.Is(err, apperrors.ErrSerialization):
		return state.AppState{}, "", err
	}

	logger.Warn("saved session is unreadable, trying backups", zap.Error(err))
	var backup state.AppState
	if berr := persist.RestoreFromBackup(constants.AppStateKey, &backup); berr != nil {
		logger.Warn("no usable backup, starting fresh", zap.Error(berr))
		return state.DefaultAppState(now()), metrics.RestoreDefault, nil
	}
	if id, dup := duplicateTabID(backup); dup {
		logger.Warn("backup has duplicate tab id, starting fresh", zap.String("tab", id))
		return state.DefaultAppState(now()), metrics.RestoreDefault, nil
	}
	return backup, metrics.RestoreBackup, nil
}

func duplicateTabID(st state.AppState) (string, bool) {
	seen := make(map[string]struct{}, len(st.Tabs))
	for _, t := range st.Tabs {
		if _, ok := seen[t.ID]; ok {
			return t.ID, true
		}
		seen[t.ID] = struct{}{}
	}
	return "", false
}

// Config returns the configuration the session was opened with
func (s *Session) Config() *config.Config { return s.cfg }

// Store returns the session's state store
func (s *Session) Store() *state.Store { return s.store }

// Persistence returns the state file manager
func (s *Session) Persistence() *persistence.Manager { return s.persist }

// Jobs returns the background save queue
func (s *Session) Jobs() *jobs.Manager { return s.jobs }

// Metrics returns the session's metrics collector
func (s *Session) Metrics() *metrics.Metrics { return s.metrics }

// Logger returns the session logger
func (s *Session) Logger() *zap.Logger { return s.logger }

// OpenTab validates path and adds an active tab rooted there.
func (s *Session) OpenTab(path string) (state.TabState, error) {
	if err := s.resolver.ValidateNavigation(path); err != nil {
		return state.TabState{}, err
	}
	tab := state.NewTab(path)
	tab.CreatedAt = s.now().UTC()
	if err := s.store.AddTab(tab); err != nil {
		return state.TabState{}, err
	}
	tab.Active = true
	return tab, nil
}

// CloseTab removes the tab and discards its controller.
func (s *Session) CloseTab(id string) error {
	if err := s.store.RemoveTab(id); err != nil {
		return err
	}
	s.dropTab(id)
	return nil
}

// Controller returns the navigation controller of a tab, creating it on
// first use. Successful moves are recorded as the tab's current path.
func (s *Session) Controller(tabID string) (*navigation.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[tabID]; ok {
		return c, nil
	}
	tab, ok := s.store.Tab(tabID)
	if !ok {
		return nil, apperrors.NewNotFoundError("tab_controller", tabID, "tab not found")
	}
	c := navigation.NewController(tab.CurrentPath, s.cfg.NavigationConfig(), s.resolver)
	c.OnPathChange(navigation.BindToStore(s.store, tabID, s.logger))
	c.OnError(func(msg string) {
		s.logger.Info("navigation error", zap.String("tab", tabID), zap.String("error", msg))
	})
	s.controllers[tabID] = c
	return c, nil
}

// WatchTab polls the tab's current directory and reports changes to
// onChange. The watcher follows the tab as it navigates and stops when the
// tab is closed. Watching a tab again replaces its previous watcher.
func (s *Session) WatchTab(tabID string, onChange func(watcher.Changes)) (*watcher.DirectoryWatcher, error) {
	if _, ok := s.store.Tab(tabID); !ok {
		return nil, apperrors.NewNotFoundError("watch_tab", tabID, "tab not found")
	}
	path := func() string {
		tab, ok := s.store.Tab(tabID)
		if !ok {
			return ""
		}
		return tab.CurrentPath
	}
	w := watcher.NewDirectoryWatcher(s.reader, path, onChange,
		watcher.WithInterval(s.watchEvery),
		watcher.WithLogger(s.logger))

	s.mu.Lock()
	prev := s.watchers[tabID]
	s.watchers[tabID] = w
	s.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
	w.Start()
	return w, nil
}

// SetSort replaces the ordering applied by Entries
func (s *Session) SetSort(cfg sortfilter.SortConfig) {
	s.mu.Lock()
	s.sortCfg = cfg
	s.mu.Unlock()
}

// SetFilter replaces the filter applied by Entries
func (s *Session) SetFilter(f sortfilter.FilterCriteria) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

// Entries lists the tab's current directory, sorted and filtered.
func (s *Session) Entries(tabID string) ([]fileinfo.Entry, error) {
	tab, ok := s.store.Tab(tabID)
	if !ok {
		return nil, apperrors.NewNotFoundError("tab_entries", tabID, "tab not found")
	}
	entries, err := s.reader.ListDirectory(tab.CurrentPath)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	sortCfg, filter := s.sortCfg, s.filter
	s.mu.Unlock()
	return sortfilter.Process(entries, sortCfg, filter), nil
}

// Save writes the current state synchronously.
func (s *Session) Save() error {
	s.dirty.Store(false)
	if err := s.persist.SaveAppState(s.store.GetState()); err != nil {
		s.dirty.Store(true)
		return err
	}
	return nil
}

// SaveAsync queues a save on the background queue. The state is captured
// when the job runs.
func (s *Session) SaveAsync() (*jobs.Job, error) {
	return s.jobs.Enqueue("save app state", func(context.Context) error {
		err := s.Save()
		if err != nil {
			s.logger.Warn("background save failed", zap.Error(err))
		}
		return err
	})
}

// Close stops auto-save, drains the save queue and writes the final state.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stopSave != nil {
			close(s.stopSave)
			<-s.saverDone
		}
		s.sub.Unsubscribe()
		s.mu.Lock()
		watchers := s.watchers
		s.watchers = make(map[string]*watcher.DirectoryWatcher)
		s.mu.Unlock()
		for _, w := range watchers {
			w.Stop()
		}
		s.jobs.Close()
		err = s.Save()
		snap := s.metrics.Snapshot()
		s.logger.Info("session closed",
			zap.Error(err),
			zap.Int64("saves", snap.Saves),
			zap.Int64("save_failures", snap.SaveFailures),
			zap.Int64("backups_created", snap.BackupsCreated))
		_ = s.logger.Sync()
	})
	return err
}

func (s *Session) onEvent(ev state.Event) {
	s.dirty.Store(true)
	s.metrics.RecordEvent(eventName(ev))
	switch ev.(type) {
	case state.TabAdded, state.TabRemoved:
		s.metrics.SetTabsOpen(len(s.store.GetState().Tabs))
	}
	if removed, ok := ev.(state.TabRemoved); ok {
		s.dropTab(removed.TabID)
	}
}

// eventName returns the bare type name of ev, e.g. "TabAdded"
func eventName(ev state.Event) string {
	name := fmt.Sprintf("%T", ev)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// dropTab discards the controller and watcher of a removed tab
func (s *Session) dropTab(id string) {
	s.mu.Lock()
	delete(s.controllers, id)
	w := s.watchers[id]
	delete(s.watchers, id)
	s.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

func (s *Session) startAutoSave(interval time.Duration) {
	s.stopSave = make(chan struct{})
	s.saverDone = make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(s.saverDone)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !s.dirty.Load() || s.jobs.Pending() > 0 {
					continue
				}
				if _, err := s.SaveAsync(); err != nil {
					s.logger.Debug("auto-save skipped", zap.Error(err))
				}
			case <-s.stopSave:
				return
			}
		}
	}()
}
