package workspace

import (
	"context"
	"fmt"

	"github.com/kobzarvs/tabshift/internal/session"
	"github.com/kobzarvs/tabshift/internal/tabs"
)

// State exports every window for persistence. Group references are
// renumbered per window.
func (ws *Workspace) State() session.State {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	var st session.State
	for _, wid := range ws.order {
		w := ws.windows[wid]
		out := session.WindowState{Focused: wid == ws.focused}
		slot := make(map[tabs.GroupID]int)
		for _, g := range orderedGroups(w) {
			out.Groups = append(out.Groups, session.GroupState{Title: g.Title, Color: g.Color, Collapsed: g.Collapsed})
			slot[g.ID] = len(out.Groups)
		}
		for _, t := range w.tabs {
			out.Tabs = append(out.Tabs, session.TabState{
				Title:  t.Title,
				Path:   t.Path,
				Pinned: t.Pinned,
				Group:  slot[t.GroupID],
				Active: t.ID == w.active,
			})
		}
		st.Windows = append(st.Windows, out)
	}
	return st
}

// Restore appends the windows of st to the workspace. A window whose strip
// fails validation is rejected and nothing is restored.
func (ws *Workspace) Restore(ctx context.Context, st session.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	nextTab, nextGroup, nextWindow := ws.nextTab, ws.nextGroup, ws.nextWindow
	var built []*window
	focused := tabs.WindowID(0)
	for wi, saved := range st.Windows {
		if len(saved.Tabs) == 0 {
			continue
		}
		w := &window{id: nextWindow, groups: make(map[tabs.GroupID]tabs.Group)}
		nextWindow++
		ids := make([]tabs.GroupID, len(saved.Groups))
		for i, g := range saved.Groups {
			ids[i] = nextGroup
			w.groups[nextGroup] = tabs.Group{ID: nextGroup, WindowID: w.id, Title: g.Title, Color: g.Color, Collapsed: g.Collapsed}
			nextGroup++
		}
		for i, t := range saved.Tabs {
			gid := tabs.NoGroup
			if t.Group > 0 {
				if t.Group > len(ids) {
					return fmt.Errorf("%w: window %d tab %d references group %d", ErrInvariant, wi, i, t.Group)
				}
				gid = ids[t.Group-1]
			}
			tab := tabs.Tab{ID: nextTab, Index: i, WindowID: w.id, GroupID: gid, Pinned: t.Pinned, Title: t.Title, Path: t.Path}
			nextTab++
			if t.Active || w.active == 0 {
				w.active = tab.ID
			}
			w.tabs = append(w.tabs, tab)
		}
		if err := tabs.Validate(w.tabs, w.groupList()); err != nil {
			return fmt.Errorf("%w: window %d: %v", ErrInvariant, wi, err)
		}
		if saved.Focused {
			focused = w.id
		}
		built = append(built, w)
	}

	for _, w := range built {
		for gid := range w.groups {
			used := false
			for _, t := range w.tabs {
				if t.GroupID == gid {
					used = true
					break
				}
			}
			if !used {
				delete(w.groups, gid)
			}
		}
		ws.windows[w.id] = w
		ws.order = append(ws.order, w.id)
	}
	ws.nextTab, ws.nextGroup, ws.nextWindow = nextTab, nextGroup, nextWindow
	if focused != 0 {
		ws.focused = focused
	} else if ws.focused == 0 && len(ws.order) > 0 {
		ws.focused = ws.order[0]
	}
	ws.version++
	for _, w := range built {
		for _, t := range w.tabs {
			ws.publish(Event{Kind: EventOpened, Tab: t.ID, Window: w.id})
		}
	}
	return nil
}
