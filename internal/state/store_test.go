package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "filex/internal/errors"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(WithClock(clock.Now)), clock
}

func tab(id, path string) TabState {
	return TabState{ID: id, Name: id, CurrentPath: path}
}

func TestNewStoreDefaults(t *testing.T) {
	s, _ := newTestStore()
	st := s.GetState()

	assert.Equal(t, 1200.0, st.Window.Width)
	assert.Equal(t, 800.0, st.Window.Height)
	assert.Nil(t, st.Window.X)
	assert.Empty(t, st.Tabs)
	assert.Empty(t, st.Panes)
	assert.Nil(t, st.ActiveTabID)
	assert.True(t, st.UI.SidebarVisible)
	assert.Equal(t, "default", st.UI.Theme)
	assert.False(t, st.LastSaved.IsZero())
}

func TestAddTabActivatesNewTab(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("t1", "/a")))
	require.NoError(t, s.AddTab(tab("t2", "/b")))

	st := s.GetState()
	require.Len(t, st.Tabs, 2)
	assert.False(t, st.Tabs[0].Active)
	assert.True(t, st.Tabs[1].Active)
	require.NotNil(t, st.ActiveTabID)
	assert.Equal(t, "t2", *st.ActiveTabID)
	assert.NoError(t, st.Validate())
}

func TestAddTabAssignsIDAndRejectsDuplicates(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(TabState{Name: "anon"}))
	st := s.GetState()
	require.Len(t, st.Tabs, 1)
	assert.NotEmpty(t, st.Tabs[0].ID)

	err := s.AddTab(TabState{ID: st.Tabs[0].ID})
	assert.True(t, errors.Is(err, apperrors.ErrInternal))
	assert.Len(t, s.GetState().Tabs, 1)
}

func TestRemoveTabScenario(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("T1", "/a")))
	require.NoError(t, s.AddTab(tab("T2", "/b")))
	require.NoError(t, s.RemoveTab("T2"))

	st := s.GetState()
	require.NotNil(t, st.ActiveTabID)
	assert.Equal(t, "T1", *st.ActiveTabID)
	assert.True(t, st.Tabs[0].Active)

	require.NoError(t, s.RemoveTab("T1"))
	st = s.GetState()
	assert.Empty(t, st.Tabs)
	assert.Nil(t, st.ActiveTabID)
}

func TestRemoveActiveFirstTabActivatesNewFirst(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("a", "/a")))
	require.NoError(t, s.AddTab(tab("b", "/b")))
	require.NoError(t, s.AddTab(tab("c", "/c")))
	require.NoError(t, s.SetActiveTab("a"))

	require.NoError(t, s.RemoveTab("a"))
	active, ok := s.ActiveTab()
	require.True(t, ok)
	assert.Equal(t, "b", active.ID)
	st := s.GetState()
	assert.NoError(t, st.Validate())
}

func TestRemoveMiddleActiveTabActivatesPrevious(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("a", "/a")))
	require.NoError(t, s.AddTab(tab("b", "/b")))
	require.NoError(t, s.AddTab(tab("c", "/c")))
	require.NoError(t, s.SetActiveTab("b"))

	require.NoError(t, s.RemoveTab("b"))
	active, ok := s.ActiveTab()
	require.True(t, ok)
	assert.Equal(t, "a", active.ID)
}

func TestRemoveInactiveTabKeepsActive(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("a", "/a")))
	require.NoError(t, s.AddTab(tab("b", "/b")))

	require.NoError(t, s.RemoveTab("a"))
	active, ok := s.ActiveTab()
	require.True(t, ok)
	assert.Equal(t, "b", active.ID)
}

func TestUnknownIdentifiersLeaveStateUntouched(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("a", "/a")))
	before := s.GetState()

	checks := map[string]error{
		"remove_tab":       s.RemoveTab("zzz"),
		"set_active_tab":   s.SetActiveTab("zzz"),
		"set_tab_path":     s.SetTabPath("zzz", "/x"),
		"rename_tab":       s.RenameTab("zzz", "x"),
		"remove_pane":      s.RemovePane("zzz"),
		"set_pane_visible": s.SetPaneVisible("zzz", false),
	}
	for op, err := range checks {
		assert.Truef(t, errors.Is(err, apperrors.ErrNotFound), "%s: expected NotFound, got %v", op, err)
	}
	assert.Equal(t, before, s.GetState())
}

func TestFailedMutationDiscardsPartialChanges(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("a", "/a")))
	before := s.GetState()

	err := s.Update(func(st *AppState) (Event, error) {
		st.Tabs = append(st.Tabs, tab("half", "/half"))
		st.Window.Width = 1
		return nil, apperrors.NewNotFoundError("custom", "", "bail out")
	})
	require.Error(t, err)
	assert.Equal(t, before, s.GetState())
}

func TestPanickingMutationReturnsInternal(t *testing.T) {
	s, _ := newTestStore()
	before := s.GetState()

	err := s.Update(func(st *AppState) (Event, error) {
		st.Window.Width = 3
		panic("boom")
	})
	assert.True(t, errors.Is(err, apperrors.ErrInternal))
	assert.Equal(t, before, s.GetState())

	// store remains usable
	require.NoError(t, s.AddTab(tab("a", "/a")))
}

func TestMutationsStampLastSaved(t *testing.T) {
	s, _ := newTestStore()
	t0 := s.GetState().LastSaved

	require.NoError(t, s.SetWindowState(WindowState{Width: 640, Height: 480}))
	t1 := s.GetState().LastSaved
	assert.True(t, t1.After(t0))

	require.NoError(t, s.SetUiState(DefaultUiState()))
	assert.True(t, s.GetState().LastSaved.After(t1))
}

func TestGetStateReturnsIndependentCopy(t *testing.T) {
	s, _ := newTestStore()
	x := 10.0
	require.NoError(t, s.SetWindowState(WindowState{Width: 1, Height: 1, X: &x}))
	ui := DefaultUiState()
	ui.CustomProperties["k"] = "v"
	require.NoError(t, s.SetUiState(ui))
	require.NoError(t, s.AddPane(NewPane(PanePreview, PositionRight)))

	st := s.GetState()
	*st.Window.X = 99
	st.UI.CustomProperties["k"] = "changed"
	*st.Panes[0].Size.Flex = 5
	ui.CustomProperties["k"] = "caller"

	fresh := s.GetState()
	assert.Equal(t, 10.0, *fresh.Window.X)
	assert.Equal(t, "v", fresh.UI.CustomProperties["k"])
	assert.Equal(t, 1.0, *fresh.Panes[0].Size.Flex)
}

func TestPaneOperations(t *testing.T) {
	s, _ := newTestStore()
	p := NewPane(PaneFileList, PositionLeft)
	require.NoError(t, s.AddPane(p))
	assert.True(t, errors.Is(s.AddPane(p), apperrors.ErrInternal))

	require.NoError(t, s.SetPaneVisible(p.ID, false))
	st := s.GetState()
	require.Len(t, st.Panes, 1)
	assert.False(t, st.Panes[0].Visible)

	require.NoError(t, s.RemovePane(p.ID))
	assert.Empty(t, s.GetState().Panes)
}

func TestTabPathAndRename(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddTab(tab("a", "/a")))
	require.NoError(t, s.SetTabPath("a", "/a/b"))
	require.NoError(t, s.RenameTab("a", "work"))

	got, ok := s.Tab("a")
	require.True(t, ok)
	assert.Equal(t, "/a/b", got.CurrentPath)
	assert.Equal(t, "work", got.Name)
}

func TestNewTabNaming(t *testing.T) {
	assert.Equal(t, "docs", NewTab("/home/user/docs").Name)
	assert.Equal(t, "New Tab", NewTab("/").Name)
	a, b := NewTab("/x"), NewTab("/x")
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Active)
}

func TestNewStoreWithStateNormalizes(t *testing.T) {
	bad := DefaultAppState(time.Now())
	bad.Tabs = []TabState{
		{ID: "a", Active: true},
		{ID: "b", Active: true},
	}
	id := "b"
	bad.ActiveTabID = &id
	require.Error(t, bad.Validate())

	s := NewStoreWithState(bad)
	st := s.GetState()
	assert.NoError(t, st.Validate())
	assert.Equal(t, "b", *st.ActiveTabID)
	assert.False(t, st.Tabs[0].Active)

	dangling := DefaultAppState(time.Now())
	dangling.Tabs = []TabState{{ID: "a"}}
	ghost := "ghost"
	dangling.ActiveTabID = &ghost
	st = NewStoreWithState(dangling).GetState()
	assert.NoError(t, st.Validate())
	assert.Nil(t, st.ActiveTabID)

	// the caller's value is not aliased
	assert.True(t, bad.Tabs[0].Active)
}

func TestValidate(t *testing.T) {
	id := "a"
	other := "b"
	testCases := []struct {
		name    string
		state   AppState
		wantErr bool
	}{
		{"empty", AppState{}, false},
		{"one active", AppState{Tabs: []TabState{{ID: "a", Active: true}}, ActiveTabID: &id}, false},
		{"none active", AppState{Tabs: []TabState{{ID: "a"}}}, false},
		{"two active", AppState{Tabs: []TabState{{ID: "a", Active: true}, {ID: "b", Active: true}}, ActiveTabID: &id}, true},
		{"id without active", AppState{Tabs: []TabState{{ID: "a"}}, ActiveTabID: &id}, true},
		{"active without id", AppState{Tabs: []TabState{{ID: "a", Active: true}}}, true},
		{"mismatched id", AppState{Tabs: []TabState{{ID: "a", Active: true}}, ActiveTabID: &other}, true},
		{"duplicate ids", AppState{Tabs: []TabState{{ID: "a"}, {ID: "a"}}}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.state.Validate()
			if tc.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrInternal))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConcurrentMutationsKeepInvariant(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				tb := NewTab("/tmp")
				_ = s.AddTab(tb)
				_ = s.GetState()
				if j%2 == 0 {
					_ = s.RemoveTab(tb.ID)
				}
			}
		}(i)
	}
	wg.Wait()

	st := s.GetState()
	assert.Len(t, st.Tabs, 8*12)
	assert.NoError(t, st.Validate())
}
