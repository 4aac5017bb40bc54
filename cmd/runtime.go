// Package cmd implements the filex command line.
package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"filex/internal/config"
	"filex/internal/fileinfo"
	"filex/internal/persistence"
	"filex/internal/session"
)

// Runtime is shared by all commands. Load fills it before a command runs.
type Runtime struct {
	ConfigPath string // empty means the OS default location
	Debug      bool

	Manager *config.Manager
	Config  *config.Config
	Logger  *zap.Logger
	FS      fileinfo.LocalFS
}

// Load reads the configuration and builds the logger
func (r *Runtime) Load() error {
	if r.ConfigPath != "" {
		r.Manager = config.NewManagerWithPath(r.ConfigPath)
	} else {
		r.Manager = config.NewManager()
	}

	cfg, err := r.Manager.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	r.Config = cfg

	logCfg := cfg.LoggingConfig()
	if r.Debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	logger, err := newLogger(logCfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	r.Logger = logger
	r.Logger.Debug("configuration loaded", zap.String("path", r.Manager.Path()))
	return nil
}

// Persistence opens the state directory named by the configuration
func (r *Runtime) Persistence() (*persistence.Manager, error) {
	return persistence.NewManager(r.Config.PersistenceConfig(),
		persistence.WithLogger(r.Logger))
}

// OpenSession restores the saved session. One-shot commands save on Close,
// so periodic saving is turned off.
func (r *Runtime) OpenSession() (*session.Session, error) {
	cfg := *r.Config
	cfg.Persistence.AutoSaveEnabled = false
	return session.Open(&cfg, session.Deps{
		Fs:     r.FS.Fs,
		Opener: r.FS.Opener,
		Logger: r.Logger,
	})
}

// Close flushes the logger
func (r *Runtime) Close() {
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
}
