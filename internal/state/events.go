package state

// Event describes one committed state change
type Event interface {
	stateEvent()
}

type WindowChanged struct {
	Window WindowState
}

type TabAdded struct {
	Tab TabState
}

// TabRemoved carries the tab that became active as a result, if any
type TabRemoved struct {
	TabID       string
	NewActiveID *string
}

type ActiveTabChanged struct {
	TabID string
}

type TabPathChanged struct {
	TabID string
	Path  string
}

type TabRenamed struct {
	TabID string
	Name  string
}

type PaneAdded struct {
	Pane PaneState
}

type PaneRemoved struct {
	PaneID string
}

type PaneUpdated struct {
	Pane PaneState
}

type UiStateChanged struct {
	UI UiState
}

func (WindowChanged) stateEvent()    {}
func (TabAdded) stateEvent()         {}
func (TabRemoved) stateEvent()       {}
func (ActiveTabChanged) stateEvent() {}
func (TabPathChanged) stateEvent()   {}
func (TabRenamed) stateEvent()       {}
func (PaneAdded) stateEvent()        {}
func (PaneRemoved) stateEvent()      {}
func (PaneUpdated) stateEvent()      {}
func (UiStateChanged) stateEvent()   {}
