// Package persistence stores values as pretty-printed JSON files, one file
// per key, inside a managed state directory. Overwriting a key first copies
// the previous file to a timestamped backup; old backups are pruned.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"filex/internal/constants"
	apperrors "filex/internal/errors"
	"filex/internal/logging"
	"filex/internal/metrics"
	"filex/internal/sortfilter"
)

// Config controls where and how state is stored
type Config struct {
	StateDir string `json:"state_dir"`
	// AutoSaveInterval is advisory; nothing in this package schedules saves
	AutoSaveInterval time.Duration `json:"auto_save_interval"`
	AutoSaveEnabled  bool          `json:"auto_save_enabled"`
	MaxBackups       int           `json:"max_backups"`
}

// DefaultConfig keeps 5 backups in the platform config directory
func DefaultConfig() Config {
	return Config{
		StateDir:         DefaultStateDir(),
		AutoSaveInterval: constants.DefaultAutoSaveInterval,
		AutoSaveEnabled:  constants.DefaultAutoSaveEnabled,
		MaxBackups:       constants.DefaultMaxBackups,
	}
}

// DefaultStateDir returns <user config dir>/filex/state, or ./state when the
// config dir cannot be determined.
func DefaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", constants.StateDirName)
	}
	return filepath.Join(dir, constants.ApplicationName, constants.StateDirName)
}

// Manager reads and writes keyed state files
type Manager struct {
	cfg    Config
	fs     afero.Fs
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Manager
type Option func(*Manager)

// WithFs replaces the OS filesystem
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithClock overrides the clock used for backup names and times
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMetrics records saves, backups and pruning
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// NewManager validates cfg and creates the state directory
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.MaxBackups < 0 {
		return nil, apperrors.NewInternalError("new_persistence_manager",
			fmt.Sprintf("max backups must be non-negative, got %d", cfg.MaxBackups), nil)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir()
	}

	m := &Manager{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.ensureDir(); err != nil {
		return nil, err
	}
	return m, nil
}

// Config returns the manager configuration
func (m *Manager) Config() Config {
	return m.cfg
}

// StateDir returns the managed directory
func (m *Manager) StateDir() string {
	return m.cfg.StateDir
}

// Save serializes v and writes it under key. An existing file is backed up
// first; if the backup fails the live file is left untouched.
func (m *Manager) Save(key string, v any) error {
	start := time.Now()
	err := m.save(key, v)
	m.metrics.RecordSave(key, time.Since(start), err)
	return err
}

func (m *Manager) save(key string, v any) error {
	path, stem, err := m.resolveKey("save_state", key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.NewSerializationError("save_state", path, "cannot encode state", err)
	}

	if err := m.ensureDir(); err != nil {
		return err
	}

	exists, err := afero.Exists(m.fs, path)
	if err != nil {
		return apperrors.NewIOError("save_state", path, "cannot stat state file", err)
	}
	if exists {
		if err := m.createBackup(path, stem); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, constants.StateFilePerm); err != nil {
		_ = m.fs.Remove(tmp)
		return apperrors.NewIOError("save_state", tmp, "cannot write state file", err)
	}
	if err := m.fs.Rename(tmp, path); err != nil {
		_ = m.fs.Remove(tmp)
		return apperrors.NewIOError("save_state", path, "cannot replace state file", err)
	}

	m.pruneBackups(key, stem)
	return nil
}

// Load decodes the file stored under key into v
func (m *Manager) Load(key string, v any) error {
	path, _, err := m.resolveKey("load_state", key)
	if err != nil {
		return err
	}
	return m.readJSON("load_state", path, v)
}

// LoadAs decodes the file stored under key into a new T
func LoadAs[T any](m *Manager, key string) (T, error) {
	var v T
	err := m.Load(key, &v)
	return v, err
}

// RestoreFromBackup decodes the newest backup of key into v
func (m *Manager) RestoreFromBackup(key string, v any) error {
	backups, err := m.ListBackups(key)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return apperrors.NewNotFoundError("restore_from_backup", key, "no backup files found")
	}
	return m.readJSON("restore_from_backup", backups[0], v)
}

// ListBackups returns the backup files of key, newest first
func (m *Manager) ListBackups(key string) ([]string, error) {
	_, stem, err := m.resolveKey("list_backups", key)
	if err != nil {
		return nil, err
	}

	infos, err := m.readDir("list_backups")
	if err != nil {
		return nil, err
	}

	prefix := stem + constants.BackupInfix
	type backup struct {
		path string
		name string
		mod  time.Time
	}
	var found []backup
	for _, fi := range infos {
		if !fi.Mode().IsRegular() || !strings.HasPrefix(fi.Name(), prefix) || !strings.HasSuffix(fi.Name(), constants.StateFileExt) {
			continue
		}
		found = append(found, backup{
			path: filepath.Join(m.cfg.StateDir, fi.Name()),
			name: strings.TrimSuffix(fi.Name(), constants.StateFileExt),
			mod:  fi.ModTime(),
		})
	}

	// newest first; same-second collisions fall back to the name suffix
	slices.SortStableFunc(found, func(a, b backup) int {
		if c := b.mod.Compare(a.mod); c != 0 {
			return c
		}
		return sortfilter.CompareNatural(b.name, a.name)
	})

	out := make([]string, len(found))
	for i, b := range found {
		out[i] = b.path
	}
	return out, nil
}

// ListStateFiles returns the sorted names of live *.json keys. Backup files
// are not included.
func (m *Manager) ListStateFiles() ([]string, error) {
	infos, err := m.readDir("list_state_files")
	if err != nil {
		return nil, err
	}
	files := []string{}
	for _, fi := range infos {
		name := fi.Name()
		if !fi.Mode().IsRegular() || !strings.HasSuffix(name, constants.StateFileExt) || isBackupName(name) {
			continue
		}
		files = append(files, name)
	}
	slices.Sort(files)
	return files, nil
}

// StateExists reports whether a file is stored under key
func (m *Manager) StateExists(key string) bool {
	path, _, err := m.resolveKey("state_exists", key)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(m.fs, path)
	return err == nil && ok
}

// DeleteState removes the file stored under key. Missing keys are not an
// error and backups are kept.
func (m *Manager) DeleteState(key string) error {
	path, _, err := m.resolveKey("delete_state", key)
	if err != nil {
		return err
	}
	if err := m.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.NewIOError("delete_state", path, "cannot remove state file", err)
	}
	return nil
}

// resolveKey checks that key is a plain file name and returns its full path
// and stem.
func (m *Manager) resolveKey(op, key string) (path, stem string, err error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return "", "", apperrors.NewInvalidPathError(op, key, "state key must be a plain file name", nil)
	}
	stem = strings.TrimSuffix(key, filepath.Ext(key))
	if stem == "" {
		return "", "", apperrors.NewInternalError(op, "state key has an empty file stem: "+key, nil)
	}
	return filepath.Join(m.cfg.StateDir, key), stem, nil
}

func (m *Manager) ensureDir() error {
	if err := m.fs.MkdirAll(m.cfg.StateDir, constants.StateDirPerm); err != nil {
		return apperrors.NewIOError("ensure_state_dir", m.cfg.StateDir, "cannot create state directory", err)
	}
	return nil
}

func (m *Manager) readDir(op string) ([]os.FileInfo, error) {
	exists, err := afero.DirExists(m.fs, m.cfg.StateDir)
	if err != nil {
		return nil, apperrors.NewIOError(op, m.cfg.StateDir, "cannot stat state directory", err)
	}
	if !exists {
		return nil, nil
	}
	infos, err := afero.ReadDir(m.fs, m.cfg.StateDir)
	if err != nil {
		return nil, apperrors.NewIOError(op, m.cfg.StateDir, "cannot read state directory", err)
	}
	return infos, nil
}

func (m *Manager) readJSON(op, path string, v any) error {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFoundError(op, path, "state file does not exist")
		}
		return apperrors.NewIOError(op, path, "cannot read state file", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewSerializationError(op, path, "cannot decode state", err)
	}
	return nil
}

func isBackupName(name string) bool {
	return strings.Contains(name, constants.BackupInfix)
}
