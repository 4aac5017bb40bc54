package state

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"filex/internal/constants"
	"filex/internal/fileinfo"
)

// WindowState holds the main window geometry
type WindowState struct {
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Maximized bool     `json:"maximized"`
	Minimized bool     `json:"minimized"`
}

// DefaultWindowState returns an unplaced 1200x800 window
func DefaultWindowState() WindowState {
	return WindowState{
		Width:  constants.DefaultWindowWidth,
		Height: constants.DefaultWindowHeight,
	}
}

func (w WindowState) clone() WindowState {
	w.X = cloneFloat(w.X)
	w.Y = cloneFloat(w.Y)
	return w
}

// TabState is one browsing tab
type TabState struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CurrentPath string    `json:"current_path"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTab creates an inactive tab rooted at path, named after its last segment
func NewTab(path string) TabState {
	name := fileinfo.BaseName(path)
	if name == "" {
		name = constants.DefaultTabName
	}
	return TabState{
		ID:          uuid.NewString(),
		Name:        name,
		CurrentPath: path,
		CreatedAt:   time.Now().UTC(),
	}
}

// PaneType is the content kind of a pane
type PaneType string

const (
	PaneFileList   PaneType = "file_list"
	PanePreview    PaneType = "preview"
	PaneProperties PaneType = "properties"
	PaneLog        PaneType = "log"
)

// PanePosition is where a pane is docked
type PanePosition string

const (
	PositionLeft   PanePosition = "left"
	PositionRight  PanePosition = "right"
	PositionTop    PanePosition = "top"
	PositionBottom PanePosition = "bottom"
	PositionCenter PanePosition = "center"
)

// PaneSize dimensions are all optional; Flex is a layout weight
type PaneSize struct {
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Flex   *float64 `json:"flex"`
}

// PaneState is one docked pane
type PaneState struct {
	ID       string       `json:"id"`
	Type     PaneType     `json:"pane_type"`
	Position PanePosition `json:"position"`
	Size     PaneSize     `json:"size"`
	Visible  bool         `json:"visible"`
}

// NewPane creates a visible pane with flex weight 1
func NewPane(t PaneType, pos PanePosition) PaneState {
	flex := 1.0
	return PaneState{
		ID:       uuid.NewString(),
		Type:     t,
		Position: pos,
		Size:     PaneSize{Flex: &flex},
		Visible:  true,
	}
}

func (p PaneState) clone() PaneState {
	p.Size = PaneSize{
		Width:  cloneFloat(p.Size.Width),
		Height: cloneFloat(p.Size.Height),
		Flex:   cloneFloat(p.Size.Flex),
	}
	return p
}

// UiState holds chrome visibility and theme settings
type UiState struct {
	SidebarVisible   bool              `json:"sidebar_visible"`
	StatusbarVisible bool              `json:"statusbar_visible"`
	ToolbarVisible   bool              `json:"toolbar_visible"`
	Theme            string            `json:"theme"`
	CustomProperties map[string]string `json:"custom_properties"`
}

// DefaultUiState shows every bar with the default theme
func DefaultUiState() UiState {
	return UiState{
		SidebarVisible:   true,
		StatusbarVisible: true,
		ToolbarVisible:   true,
		Theme:            constants.DefaultTheme,
		CustomProperties: map[string]string{},
	}
}

func (u UiState) clone() UiState {
	if u.CustomProperties != nil {
		u.CustomProperties = maps.Clone(u.CustomProperties)
	}
	return u
}

// AppState is the whole session: window, tabs, panes and UI flags
type AppState struct {
	Window      WindowState `json:"window"`
	Tabs        []TabState  `json:"tabs"`
	Panes       []PaneState `json:"panes"`
	UI          UiState     `json:"ui"`
	ActiveTabID *string     `json:"active_tab_id"`
	LastSaved   time.Time   `json:"last_saved"`
}

// DefaultAppState returns an empty session stamped with now
func DefaultAppState(now time.Time) AppState {
	return AppState{
		Window:    DefaultWindowState(),
		Tabs:      []TabState{},
		Panes:     []PaneState{},
		UI:        DefaultUiState(),
		LastSaved: now,
	}
}

// Clone returns a deep copy sharing no memory with s
func (s AppState) Clone() AppState {
	out := s
	out.Window = s.Window.clone()
	out.Tabs = append([]TabState{}, s.Tabs...)
	out.Panes = make([]PaneState, len(s.Panes))
	for i, p := range s.Panes {
		out.Panes[i] = p.clone()
	}
	out.UI = s.UI.clone()
	if s.ActiveTabID != nil {
		id := *s.ActiveTabID
		out.ActiveTabID = &id
	}
	return out
}

// ActiveTab returns the tab referenced by ActiveTabID
func (s *AppState) ActiveTab() (TabState, bool) {
	if s.ActiveTabID == nil {
		return TabState{}, false
	}
	return s.Tab(*s.ActiveTabID)
}

// Tab looks up a tab by id
func (s *AppState) Tab(id string) (TabState, bool) {
	if i := s.tabIndex(id); i >= 0 {
		return s.Tabs[i], true
	}
	return TabState{}, false
}

func (s *AppState) tabIndex(id string) int {
	for i := range s.Tabs {
		if s.Tabs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *AppState) paneIndex(id string) int {
	for i := range s.Panes {
		if s.Panes[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
