// Package navigation tracks the directory a view is showing together with its
// back/forward history. It performs no I/O itself; path checks and opening
// files go through a Resolver.
package navigation

import (
	"sync"

	"filex/internal/constants"
	apperrors "filex/internal/errors"
	"filex/internal/fileinfo"
)

// Config toggles navigation features
type Config struct {
	EnableDoubleClick      bool `json:"enable_double_click"`
	EnableParentNavigation bool `json:"enable_parent_navigation"`
	EnableHistory          bool `json:"enable_history"`
	MaxHistory             int  `json:"max_history"`
}

// DefaultConfig enables everything with a 50 entry back history
func DefaultConfig() Config {
	return Config{
		EnableDoubleClick:      true,
		EnableParentNavigation: true,
		EnableHistory:          true,
		MaxHistory:             constants.MaxNavigationHistory,
	}
}

// State is a snapshot of a controller
type State struct {
	CurrentPath    string
	BackHistory    []string
	ForwardHistory []string
	LastError      string
}

// Controller is the navigation cursor of one view. It is safe for
// concurrent use; callbacks run without the internal lock held.
type Controller struct {
	mu       sync.Mutex
	state    State
	config   Config
	resolver Resolver

	onPathChange func(path string)
	onError      func(msg string)
}

// NewController starts at initialPath with empty history
func NewController(initialPath string, cfg Config, resolver Resolver) *Controller {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = constants.MaxNavigationHistory
	}
	return &Controller{
		state:    State{CurrentPath: initialPath},
		config:   cfg,
		resolver: resolver,
	}
}

// OnPathChange sets the callback fired after every successful move
func (c *Controller) OnPathChange(fn func(path string)) {
	c.mu.Lock()
	c.onPathChange = fn
	c.mu.Unlock()
}

// OnError sets the callback fired when HandleDoubleClick fails
func (c *Controller) OnError(fn func(msg string)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// CurrentPath returns the directory being shown
func (c *Controller) CurrentPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentPath
}

// State returns a copy of the navigation state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.BackHistory = append([]string(nil), c.state.BackHistory...)
	s.ForwardHistory = append([]string(nil), c.state.ForwardHistory...)
	return s
}

// NavigateTo moves to path after validating it. Moving to a different path
// records the current one in the back history and clears forward history.
func (c *Controller) NavigateTo(path string) error {
	if err := c.resolver.ValidateNavigation(path); err != nil {
		return err
	}

	c.mu.Lock()
	if c.config.EnableHistory && c.state.CurrentPath != path {
		c.state.BackHistory = append(c.state.BackHistory, c.state.CurrentPath)
		if over := len(c.state.BackHistory) - c.config.MaxHistory; over > 0 {
			c.state.BackHistory = append([]string(nil), c.state.BackHistory[over:]...)
		}
		c.state.ForwardHistory = nil
	}
	c.state.CurrentPath = path
	c.state.LastError = ""
	cb := c.onPathChange
	c.mu.Unlock()

	if cb != nil {
		cb(path)
	}
	return nil
}

// NavigateUp moves to the parent of the current directory
func (c *Controller) NavigateUp() error {
	if !c.config.EnableParentNavigation {
		return apperrors.NewNavigationError("navigate_up", "", "parent navigation is disabled")
	}
	current := c.CurrentPath()
	parent, ok := c.resolver.ParentDirectory(current)
	if !ok {
		return apperrors.NewNavigationError("navigate_up", current, "no parent directory")
	}
	return c.NavigateTo(parent)
}

// GoBack returns to the previous directory. History entries are replayed
// without revalidation.
func (c *Controller) GoBack() error {
	return c.traverse("go_back", true)
}

// GoForward re-enters a directory left with GoBack
func (c *Controller) GoForward() error {
	return c.traverse("go_forward", false)
}

func (c *Controller) traverse(op string, back bool) error {
	if !c.config.EnableHistory {
		return apperrors.NewNavigationError(op, "", "history navigation is disabled")
	}

	c.mu.Lock()
	from, to := &c.state.ForwardHistory, &c.state.BackHistory
	if back {
		from, to = &c.state.BackHistory, &c.state.ForwardHistory
	}
	if len(*from) == 0 {
		c.mu.Unlock()
		return apperrors.NewNavigationError(op, "", "no history")
	}
	target := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = append(*to, c.state.CurrentPath)
	c.state.CurrentPath = target
	cb := c.onPathChange
	c.mu.Unlock()

	if cb != nil {
		cb(target)
	}
	return nil
}

// HandleDoubleClick enters directories and opens everything else. Failures
// are stored as the last error and reported to the error callback.
func (c *Controller) HandleDoubleClick(entry fileinfo.Entry) {
	if !c.config.EnableDoubleClick {
		return
	}

	var err error
	var prefix string
	if entry.IsDir() {
		prefix = "cannot enter directory: "
		err = c.NavigateTo(entry.Path)
	} else {
		prefix = "cannot open item: "
		err = c.resolver.OpenItem(entry.Path)
	}
	if err != nil {
		c.recordError(prefix + err.Error())
	}
}

func (c *Controller) recordError(msg string) {
	c.mu.Lock()
	c.state.LastError = msg
	cb := c.onError
	c.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
}

// LastError returns the most recent double-click failure, or ""
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.LastError
}

// ClearError forgets the last error
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.state.LastError = ""
	c.mu.Unlock()
}

func (c *Controller) CanGoBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.EnableHistory && len(c.state.BackHistory) > 0
}

func (c *Controller) CanGoForward() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.EnableHistory && len(c.state.ForwardHistory) > 0
}

// CanGoUp reports whether NavigateUp has a parent to move to
func (c *Controller) CanGoUp() bool {
	if !c.config.EnableParentNavigation {
		return false
	}
	_, ok := c.resolver.ParentDirectory(c.CurrentPath())
	return ok
}
