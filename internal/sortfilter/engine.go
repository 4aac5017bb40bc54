// Package sortfilter orders and filters directory listings.
// It holds no state: Process is re-run whenever entries or settings change.
package sortfilter

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"

	"filex/internal/fileinfo"
)

// keyed carries the folded sort keys of an entry so they are computed once
type keyed struct {
	entry fileinfo.Entry
	name  string
	ext   string
}

// Process filters entries and returns them sorted according to cfg.
// The input slice is not modified.
func Process(entries []fileinfo.Entry, cfg SortConfig, filter FilterCriteria) []fileinfo.Entry {
	fold := cases.Fold()
	m := newMatcher(filter, fold)

	items := make([]keyed, 0, len(entries))
	for _, e := range entries {
		k := keyed{
			entry: e,
			name:  fold.String(e.Name),
			ext:   fold.String(fileinfo.Extension(e.Name)),
		}
		if !m.accept(k) {
			continue
		}
		items = append(items, k)
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return compareKeyed(a, b, cfg)
	})

	out := make([]fileinfo.Entry, len(items))
	for i, k := range items {
		out[i] = k.entry
	}
	return out
}

func compareKeyed(a, b keyed, cfg SortConfig) int {
	if cfg.FoldersFirst {
		aDir, bDir := a.entry.IsDir(), b.entry.IsDir()
		switch {
		case aDir && !bDir:
			return -1
		case !aDir && bDir:
			return 1
		}
	}

	var result int
	switch cfg.Criterion {
	case BySize:
		result = cmp.Compare(a.entry.Size, b.entry.Size)
	case ByModified:
		result = compareModified(a.entry, b.entry)
	case ByType:
		result = strings.Compare(a.ext, b.ext)
	default:
		result = compareNaturalFolded(a.name, b.name)
	}

	if cfg.Direction == Descending {
		return -result
	}
	return result
}

// compareModified orders entries without a timestamp first
func compareModified(a, b fileinfo.Entry) int {
	switch {
	case !a.HasModified() && !b.HasModified():
		return 0
	case !a.HasModified():
		return -1
	case !b.HasModified():
		return 1
	}
	return a.Modified.Compare(b.Modified)
}

type matcher struct {
	showHidden bool
	name       string
	ext        string
	pattern    string
	minSize    *uint64
	maxSize    *uint64
}

func newMatcher(f FilterCriteria, fold cases.Caser) matcher {
	m := matcher{
		showHidden: f.ShowHidden,
		minSize:    f.MinSize,
		maxSize:    f.MaxSize,
	}
	if nonEmpty(f.NameFilter) {
		m.name = fold.String(*f.NameFilter)
	}
	if nonEmpty(f.ExtensionFilter) {
		m.ext = fold.String(strings.TrimPrefix(*f.ExtensionFilter, "."))
	}
	// an unparsable glob is ignored rather than hiding everything
	if nonEmpty(f.Pattern) && doublestar.ValidatePattern(*f.Pattern) {
		m.pattern = fold.String(*f.Pattern)
	}
	return m
}

func (m matcher) accept(k keyed) bool {
	e := k.entry
	if !m.showHidden && fileinfo.IsHidden(e.Name) {
		return false
	}
	if m.name != "" && !strings.Contains(k.name, m.name) {
		return false
	}
	if m.ext != "" && (k.ext == "" || k.ext != m.ext) {
		return false
	}
	if m.pattern != "" && !e.IsDir() {
		if ok, err := doublestar.Match(m.pattern, k.name); err != nil || !ok {
			return false
		}
	}
	if e.Type == fileinfo.FileTypeFile {
		if m.minSize != nil && e.Size < *m.minSize {
			return false
		}
		if m.maxSize != nil && e.Size > *m.maxSize {
			return false
		}
	}
	return true
}
