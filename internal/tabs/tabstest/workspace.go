package tabstest

import (
	"context"
	"fmt"

	"github.com/kobzarvs/tabshift/internal/session"
	"github.com/kobzarvs/tabshift/internal/tabs"
	"github.com/kobzarvs/tabshift/internal/workspace"
)

// Load restores one window per layout into a fresh workspace and applies
// the selections marked in each layout. Tab ids match Parse for a single
// layout; with several layouts they continue across windows.
func Load(layouts ...string) (*workspace.Workspace, error) {
	ctx := context.Background()
	var st session.State
	strips := make([]*Strip, len(layouts))
	for i, l := range layouts {
		s, err := Parse(l)
		if err != nil {
			return nil, err
		}
		strips[i] = s
		st.Windows = append(st.Windows, s.WindowState())
	}
	ws := workspace.New()
	if err := ws.Restore(ctx, st); err != nil {
		return nil, err
	}
	for i, s := range strips {
		if err := ws.SetSelection(ctx, tabs.WindowID(i+1), s.Positions()); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// Layout renders the current strip of win.
func Layout(ws *workspace.Workspace, win tabs.WindowID) string {
	ctx := context.Background()
	ts, err := ws.Tabs(ctx, win)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	gs, err := ws.Groups(ctx, win)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return Format(ts, gs)
}

// Find returns the id of the tab titled title in any window.
func Find(ws *workspace.Workspace, title string) tabs.TabID {
	ctx := context.Background()
	for _, win := range ws.Windows() {
		ts, _ := ws.Tabs(ctx, win)
		for _, t := range ts {
			if t.Title == title {
				return t.ID
			}
		}
	}
	panic("tabstest: unknown tab " + title)
}

// FindGroup returns the id of the group titled title in any window.
func FindGroup(ws *workspace.Workspace, title string) tabs.GroupID {
	ctx := context.Background()
	for _, win := range ws.Windows() {
		gs, _ := ws.Groups(ctx, win)
		for _, g := range gs {
			if g.Title == title {
				return g.ID
			}
		}
	}
	panic("tabstest: unknown group " + title)
}
