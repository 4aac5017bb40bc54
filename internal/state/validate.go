package state

import (
	apperrors "filex/internal/errors"
)

// Validate checks the tab activation invariant: at most one active tab, and
// ActiveTabID is set exactly when one tab is active and names it.
func (s *AppState) Validate() error {
	seen := make(map[string]struct{}, len(s.Tabs))
	active := -1
	for i, t := range s.Tabs {
		if _, dup := seen[t.ID]; dup {
			return apperrors.NewInternalError("validate_state", "duplicate tab id: "+t.ID, nil)
		}
		seen[t.ID] = struct{}{}
		if !t.Active {
			continue
		}
		if active >= 0 {
			return apperrors.NewInternalError("validate_state", "more than one active tab", nil)
		}
		active = i
	}

	switch {
	case active < 0 && s.ActiveTabID != nil:
		return apperrors.NewInternalError("validate_state", "active tab id set but no tab is active", nil)
	case active >= 0 && s.ActiveTabID == nil:
		return apperrors.NewInternalError("validate_state", "tab is active but active tab id is unset", nil)
	case active >= 0 && s.Tabs[active].ID != *s.ActiveTabID:
		return apperrors.NewInternalError("validate_state", "active tab id does not match the active tab", nil)
	}
	return nil
}

// normalize repairs activation in a restored snapshot. ActiveTabID wins when
// it names an existing tab, then the first tab flagged active.
func normalize(s *AppState) {
	if s.Tabs == nil {
		s.Tabs = []TabState{}
	}
	if s.Panes == nil {
		s.Panes = []PaneState{}
	}
	if s.UI.CustomProperties == nil {
		s.UI.CustomProperties = map[string]string{}
	}

	target := -1
	if s.ActiveTabID != nil {
		target = s.tabIndex(*s.ActiveTabID)
	}
	if target < 0 {
		for i, t := range s.Tabs {
			if t.Active {
				target = i
				break
			}
		}
	}

	for i := range s.Tabs {
		s.Tabs[i].Active = i == target
	}
	if target < 0 {
		s.ActiveTabID = nil
		return
	}
	id := s.Tabs[target].ID
	s.ActiveTabID = &id
}
