package workspace

import (
	"context"
	"fmt"

	"github.com/kobzarvs/tabshift/internal/tabs"
)

// Move repositions ids, in the given order, as a block whose first tab
// lands at index in win (-1 appends). Tabs arriving from another window
// are unpinned and ungrouped.
func (ws *Workspace) Move(ctx context.Context, ids []tabs.TabID, win tabs.WindowID, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	dst, ok := ws.windows[win]
	if !ok {
		return fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	next := make(map[*window][]tabs.Tab)
	moving := make([]tabs.Tab, 0, len(ids))
	picked := make(map[tabs.TabID]bool, len(ids))
	for _, id := range ids {
		w, i := ws.locate(id)
		if w == nil {
			return fmt.Errorf("tab %d: %w", id, ErrNotFound)
		}
		if picked[id] {
			continue
		}
		picked[id] = true
		t := w.tabs[i]
		if w != dst {
			t.Pinned = false
			t.GroupID = tabs.NoGroup
		}
		moving = append(moving, t)
		if _, ok := next[w]; !ok {
			next[w] = nil
		}
	}
	next[dst] = nil
	for w := range next {
		next[w] = without(w.tabs, picked)
	}
	next[dst] = insertAt(next[dst], index, moving)
	if err := ws.commit(next); err != nil {
		return err
	}
	for _, t := range moving {
		ws.publish(Event{Kind: EventMoved, Tab: t.ID, Window: win})
	}
	return nil
}

// MoveGroup repositions a whole group so its first tab lands at index in
// win (-1 appends). The group keeps its identity across windows.
func (ws *Workspace) MoveGroup(ctx context.Context, gid tabs.GroupID, win tabs.WindowID, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	dst, ok := ws.windows[win]
	if !ok {
		return fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	src := ws.groupWindow(gid)
	if src == nil {
		return fmt.Errorf("group %d: %w", gid, ErrNotFound)
	}
	picked := make(map[tabs.TabID]bool)
	var moving []tabs.Tab
	for _, t := range src.tabs {
		if t.GroupID == gid {
			picked[t.ID] = true
			moving = append(moving, t)
		}
	}
	next := map[*window][]tabs.Tab{src: without(src.tabs, picked)}
	var moves []transfer
	if dst != src {
		next[dst] = without(dst.tabs, picked)
		moves = append(moves, transfer{group: gid, from: src, to: dst})
	}
	next[dst] = insertAt(next[dst], index, moving)
	if err := ws.commit(next, moves...); err != nil {
		return err
	}
	for _, t := range moving {
		ws.publish(Event{Kind: EventMoved, Tab: t.ID, Window: win})
	}
	return nil
}

// AddToGroup makes ids members of gid. Tabs that are not adjacent to the
// group are gathered right after its last member.
func (ws *Workspace) AddToGroup(ctx context.Context, ids []tabs.TabID, gid tabs.GroupID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w := ws.groupWindow(gid)
	if w == nil {
		return fmt.Errorf("group %d: %w", gid, ErrNotFound)
	}
	added := make(map[tabs.TabID]bool, len(ids))
	for _, id := range ids {
		i := w.indexOf(id)
		if i < 0 {
			return fmt.Errorf("tab %d in window %d: %w", id, w.id, ErrNotFound)
		}
		if w.tabs[i].Pinned {
			return fmt.Errorf("%w: pinned tab %d cannot join a group", ErrInvariant, id)
		}
		if w.tabs[i].GroupID != gid {
			added[id] = true
		}
	}
	if len(added) == 0 {
		return nil
	}
	next := append([]tabs.Tab(nil), w.tabs...)
	for i := range next {
		if added[next[i].ID] {
			next[i].GroupID = gid
		}
	}
	if tabs.Validate(reindexed(next), w.groupList()) != nil {
		next = gather(next, added, gid)
	}
	if err := ws.commit(map[*window][]tabs.Tab{w: next}); err != nil {
		return err
	}
	for id := range added {
		ws.publish(Event{Kind: EventGrouped, Tab: id, Window: w.id})
	}
	return nil
}

// RemoveFromGroup ungroups ids. A tab whose removal would split its group
// is moved right after the group's last remaining member.
func (ws *Workspace) RemoveFromGroup(ctx context.Context, ids []tabs.TabID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	byWindow := make(map[*window]map[tabs.TabID]tabs.GroupID)
	for _, id := range ids {
		w, i := ws.locate(id)
		if w == nil {
			return fmt.Errorf("tab %d: %w", id, ErrNotFound)
		}
		if !w.tabs[i].Grouped() {
			continue
		}
		if byWindow[w] == nil {
			byWindow[w] = make(map[tabs.TabID]tabs.GroupID)
		}
		byWindow[w][id] = w.tabs[i].GroupID
	}
	if len(byWindow) == 0 {
		return nil
	}
	next := make(map[*window][]tabs.Tab, len(byWindow))
	for w, removed := range byWindow {
		strip := append([]tabs.Tab(nil), w.tabs...)
		for i := range strip {
			if _, ok := removed[strip[i].ID]; ok {
				strip[i].GroupID = tabs.NoGroup
			}
		}
		if tabs.Validate(reindexed(strip), w.groupList()) != nil {
			strip = eject(strip, removed)
		}
		next[w] = strip
	}
	if err := ws.commit(next); err != nil {
		return err
	}
	for w, removed := range byWindow {
		for id := range removed {
			ws.publish(Event{Kind: EventUngrouped, Tab: id, Window: w.id})
		}
	}
	return nil
}

// CreateGroup puts ids into a new group gathered at the first tab's place.
// Pinned tabs are unpinned.
func (ws *Workspace) CreateGroup(ctx context.Context, ids []tabs.TabID, title, color string) (tabs.GroupID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: empty group", ErrInvariant)
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, _ := ws.locate(ids[0])
	if w == nil {
		return 0, fmt.Errorf("tab %d: %w", ids[0], ErrNotFound)
	}
	picked := make(map[tabs.TabID]bool, len(ids))
	for _, id := range ids {
		if w.indexOf(id) < 0 {
			return 0, fmt.Errorf("tab %d in window %d: %w", id, w.id, ErrNotFound)
		}
		picked[id] = true
	}
	var members []tabs.Tab
	at := -1
	rest := make([]tabs.Tab, 0, len(w.tabs))
	for _, t := range w.tabs {
		if picked[t.ID] {
			if at < 0 {
				at = len(rest)
			}
			members = append(members, t)
			continue
		}
		rest = append(rest, t)
	}
	gid := ws.nextGroup
	for i := range members {
		members[i].GroupID = gid
		members[i].Pinned = false
	}
	at = safeInsertion(rest, at)
	w.groups[gid] = tabs.Group{ID: gid, WindowID: w.id, Title: title, Color: color}
	next := insertAt(rest, at, members)
	if err := ws.commit(map[*window][]tabs.Tab{w: next}); err != nil {
		delete(w.groups, gid)
		return 0, err
	}
	ws.nextGroup++
	for _, t := range members {
		ws.publish(Event{Kind: EventGrouped, Tab: t.ID, Window: w.id})
	}
	return gid, nil
}

func (ws *Workspace) SetCollapsed(ctx context.Context, gid tabs.GroupID, collapsed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w := ws.groupWindow(gid)
	if w == nil {
		return fmt.Errorf("group %d: %w", gid, ErrNotFound)
	}
	g := w.groups[gid]
	g.Collapsed = collapsed
	w.groups[gid] = g
	ws.version++
	return nil
}

// SetPinned pins a tab at the end of the pinned prefix, or unpins it to
// the first unpinned position. Pinning drops group membership.
func (ws *Workspace) SetPinned(ctx context.Context, id tabs.TabID, pinned bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, i := ws.locate(id)
	if w == nil {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	t := w.tabs[i]
	if t.Pinned == pinned {
		return nil
	}
	rest := append(append([]tabs.Tab(nil), w.tabs[:i]...), w.tabs[i+1:]...)
	t.Pinned = pinned
	t.GroupID = tabs.NoGroup
	at := 0
	for at < len(rest) && rest[at].Pinned {
		at++
	}
	if err := ws.commit(map[*window][]tabs.Tab{w: insertAt(rest, at, []tabs.Tab{t})}); err != nil {
		return err
	}
	ws.publish(Event{Kind: EventPinned, Tab: id, Window: w.id})
	return nil
}

func (ws *Workspace) FocusWindow(ctx context.Context, win tabs.WindowID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.windows[win]
	if !ok {
		return fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	ws.focused = win
	ws.version++
	ws.publish(Event{Kind: EventFocused, Tab: w.active, Window: win})
	return nil
}

// SetSelection replaces the selection of win with the tabs at positions.
func (ws *Workspace) SetSelection(ctx context.Context, win tabs.WindowID, positions []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.windows[win]
	if !ok {
		return fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	for _, p := range positions {
		if p < 0 || p >= len(w.tabs) {
			return fmt.Errorf("position %d in window %d: %w", p, win, ErrNotFound)
		}
	}
	for i := range w.tabs {
		w.tabs[i].Selected = false
	}
	for _, p := range positions {
		w.tabs[p].Selected = true
	}
	ws.version++
	return nil
}

// Activate makes id the active tab of its window and focuses that window.
func (ws *Workspace) Activate(ctx context.Context, id tabs.TabID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, _ := ws.locate(id)
	if w == nil {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	w.active = id
	ws.focused = w.id
	ws.version++
	ws.publish(Event{Kind: EventActivated, Tab: id, Window: w.id})
	return nil
}

func (ws *Workspace) groupWindow(gid tabs.GroupID) *window {
	for _, wid := range ws.order {
		if _, ok := ws.windows[wid].groups[gid]; ok {
			return ws.windows[wid]
		}
	}
	return nil
}

func without(strip []tabs.Tab, picked map[tabs.TabID]bool) []tabs.Tab {
	out := make([]tabs.Tab, 0, len(strip))
	for _, t := range strip {
		if !picked[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// insertAt places block so its first tab lands at index (-1 or past the
// end appends).
func insertAt(strip []tabs.Tab, index int, block []tabs.Tab) []tabs.Tab {
	if index < 0 || index > len(strip) {
		index = len(strip)
	}
	out := make([]tabs.Tab, 0, len(strip)+len(block))
	out = append(out, strip[:index]...)
	out = append(out, block...)
	return append(out, strip[index:]...)
}

func reindexed(strip []tabs.Tab) []tabs.Tab {
	tabs.Reindex(strip)
	return strip
}

// gather pulls the added tabs out and reinserts them after gid's last
// remaining member.
func gather(strip []tabs.Tab, added map[tabs.TabID]bool, gid tabs.GroupID) []tabs.Tab {
	var block []tabs.Tab
	rest := make([]tabs.Tab, 0, len(strip))
	for _, t := range strip {
		if added[t.ID] {
			block = append(block, t)
		} else {
			rest = append(rest, t)
		}
	}
	at := len(rest)
	for i, t := range rest {
		if t.GroupID == gid {
			at = i + 1
		}
	}
	return insertAt(rest, at, block)
}

// eject moves ungrouped tabs that sit between remaining members of their
// former group to just after that group. Tabs already outside stay put.
func eject(strip []tabs.Tab, removed map[tabs.TabID]tabs.GroupID) []tabs.Tab {
	byGroup := make(map[tabs.GroupID]map[tabs.TabID]bool)
	for id, gid := range removed {
		if byGroup[gid] == nil {
			byGroup[gid] = make(map[tabs.TabID]bool)
		}
		byGroup[gid][id] = true
	}
	for gid, ids := range byGroup {
		first, last := -1, -1
		for i, t := range strip {
			if t.GroupID == gid {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		if first < 0 {
			continue
		}
		inside := make(map[tabs.TabID]bool)
		for i := first + 1; i < last; i++ {
			if ids[strip[i].ID] {
				inside[strip[i].ID] = true
			}
		}
		if len(inside) > 0 {
			strip = gather(strip, inside, gid)
		}
	}
	return strip
}

// safeInsertion moves at forward past any group run it would split and
// past the pinned prefix.
func safeInsertion(strip []tabs.Tab, at int) int {
	if at < 0 || at > len(strip) {
		at = len(strip)
	}
	for at < len(strip) && strip[at].Pinned {
		at++
	}
	for at > 0 && at < len(strip) && strip[at].Grouped() && strip[at-1].GroupID == strip[at].GroupID {
		at++
	}
	return at
}
