package sortfilter

import (
	"strings"

	apperrors "filex/internal/errors"
)

// Criterion selects the key entries are ordered by
type Criterion int

const (
	ByName Criterion = iota
	BySize
	ByModified
	ByType
)

// String returns the config spelling of the criterion
func (c Criterion) String() string {
	switch c {
	case BySize:
		return "size"
	case ByModified:
		return "modified"
	case ByType:
		return "type"
	default:
		return "name"
	}
}

// ParseCriterion converts a config value ("name", "size", "modified", "type")
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "":
		return ByName, nil
	case "size":
		return BySize, nil
	case "modified", "date":
		return ByModified, nil
	case "type", "extension":
		return ByType, nil
	}
	return ByName, apperrors.NewInternalError("parse_sort_criterion", "unknown sort criterion: "+s, nil)
}

// Direction of the criterion ordering
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns "asc" or "desc"
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection converts "asc"/"desc" config values
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, apperrors.NewInternalError("parse_sort_direction", "unknown sort direction: "+s, nil)
}

// SortConfig describes how entries are ordered
type SortConfig struct {
	Criterion    Criterion `json:"criterion"`
	Direction    Direction `json:"direction"`
	FoldersFirst bool      `json:"folders_first"`
}

// DefaultSortConfig sorts by name, ascending, folders first
func DefaultSortConfig() SortConfig {
	return SortConfig{Criterion: ByName, Direction: Ascending, FoldersFirst: true}
}

// ToggleDirection returns the config with the direction flipped
func (c SortConfig) ToggleDirection() SortConfig {
	if c.Direction == Ascending {
		c.Direction = Descending
	} else {
		c.Direction = Ascending
	}
	return c
}

// WithCriterion selects criterion; choosing the current criterion again
// toggles the direction, a new criterion starts ascending.
func (c SortConfig) WithCriterion(criterion Criterion) SortConfig {
	if c.Criterion == criterion {
		return c.ToggleDirection()
	}
	c.Criterion = criterion
	c.Direction = Ascending
	return c
}

// FilterCriteria is a conjunction of independent predicates.
// Nil (or empty string) fields are inactive.
type FilterCriteria struct {
	ShowHidden      bool    `json:"show_hidden"`
	NameFilter      *string `json:"name_filter,omitempty"`
	ExtensionFilter *string `json:"extension_filter,omitempty"`
	MinSize         *uint64 `json:"min_size,omitempty"`
	MaxSize         *uint64 `json:"max_size,omitempty"`
	// Pattern is a glob (doublestar syntax) matched against file names
	Pattern *string `json:"pattern,omitempty"`
}

// HasActiveFilters reports whether any predicate would narrow the listing
// or show-hidden is switched on.
func (f FilterCriteria) HasActiveFilters() bool {
	return f.ShowHidden ||
		nonEmpty(f.NameFilter) ||
		nonEmpty(f.ExtensionFilter) ||
		nonEmpty(f.Pattern) ||
		f.MinSize != nil ||
		f.MaxSize != nil
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// String returns a pointer to s for optional filter fields
func String(s string) *string { return &s }

// Uint64 returns a pointer to v for optional size bounds
func Uint64(v uint64) *uint64 { return &v }
