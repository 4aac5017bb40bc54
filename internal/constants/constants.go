package constants

import "time"

// Application constants
const (
	ApplicationName  = "filex"
	ApplicationTitle = "File Explorer"
	EnvPrefix        = "FILEX"
)

// Window defaults
const (
	DefaultWindowWidth  = 1200
	DefaultWindowHeight = 800
	DefaultTheme        = "default"
	DefaultTabName      = "New Tab"
)

// Navigation constants
const (
	MaxNavigationHistory = 50
	RootPath             = "/"
)

// State persistence constants
const (
	StateDirName            = "state"
	StateFileExt            = ".json"
	BackupInfix             = ".backup."
	BackupTimestampLayout   = "20060102_150405"
	DefaultAutoSaveInterval = 30 * time.Second
	DefaultAutoSaveEnabled  = true
	DefaultMaxBackups       = 5
	StateFilePerm           = 0644
	StateDirPerm            = 0755
)

// Well-known state keys
const (
	AppStateKey     = "app_state.json"
	WindowStateKey  = "window_state.json"
	SessionStateKey = "session_state.json"
)

// Configuration constants
const (
	ConfigFileName          = "config.json"
	DefaultSortBy           = "name"
	DefaultSortOrder        = "asc"
	DefaultDirectoriesFirst = true
	DefaultShowHiddenFiles  = false
	DefaultLogLevel         = "info"
)

// Background save queue
const (
	JobHistoryMax = 100
)
