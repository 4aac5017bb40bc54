package persistence

import "filex/internal/constants"

// SaveAppState stores v under app_state.json
func (m *Manager) SaveAppState(v any) error {
	return m.Save(constants.AppStateKey, v)
}

// LoadAppState reads app_state.json into v
func (m *Manager) LoadAppState(v any) error {
	return m.Load(constants.AppStateKey, v)
}

func (m *Manager) AppStateExists() bool {
	return m.StateExists(constants.AppStateKey)
}

// SaveWindowState stores v under window_state.json
func (m *Manager) SaveWindowState(v any) error {
	return m.Save(constants.WindowStateKey, v)
}

func (m *Manager) LoadWindowState(v any) error {
	return m.Load(constants.WindowStateKey, v)
}

// SaveSessionState stores v under session_state.json
func (m *Manager) SaveSessionState(v any) error {
	return m.Save(constants.SessionStateKey, v)
}

func (m *Manager) LoadSessionState(v any) error {
	return m.Load(constants.SessionStateKey, v)
}
