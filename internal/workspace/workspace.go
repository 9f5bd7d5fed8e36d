package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kobzarvs/tabshift/internal/logger"
	"github.com/kobzarvs/tabshift/internal/tabs"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvariant = errors.New("operation would break strip invariants")
)

type window struct {
	id     tabs.WindowID
	tabs   []tabs.Tab
	groups map[tabs.GroupID]tabs.Group
	active tabs.TabID
}

func (w *window) groupList() []tabs.Group {
	out := make([]tabs.Group, 0, len(w.groups))
	for _, g := range w.groups {
		out = append(out, g)
	}
	return out
}

func (w *window) indexOf(id tabs.TabID) int {
	for i, t := range w.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Workspace is an in-memory host of windows, tabs and groups. Every
// mutation is validated against the strip invariants before it is applied.
type Workspace struct {
	mu         sync.Mutex
	windows    map[tabs.WindowID]*window
	order      []tabs.WindowID
	focused    tabs.WindowID
	nextTab    tabs.TabID
	nextGroup  tabs.GroupID
	nextWindow tabs.WindowID
	version    uint64

	subs    map[int]chan Event
	nextSub int
	waiters map[waitKey][]*Future
}

func New() *Workspace {
	return &Workspace{
		windows:    make(map[tabs.WindowID]*window),
		nextTab:    1,
		nextGroup:  1,
		nextWindow: 1,
		subs:       make(map[int]chan Event),
		waiters:    make(map[waitKey][]*Future),
	}
}

// Version increments on every successful mutation.
func (ws *Workspace) Version() uint64 {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.version
}

func (ws *Workspace) NewWindow() tabs.WindowID {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	id := ws.nextWindow
	ws.nextWindow++
	ws.windows[id] = &window{id: id, groups: make(map[tabs.GroupID]tabs.Group)}
	ws.order = append(ws.order, id)
	if ws.focused == 0 {
		ws.focused = id
	}
	ws.version++
	return id
}

// CloseWindow removes win. Only a window without tabs can be closed.
func (ws *Workspace) CloseWindow(win tabs.WindowID) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.windows[win]
	if !ok {
		return fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	if len(w.tabs) > 0 {
		return fmt.Errorf("window %d holds %d tabs: %w", win, len(w.tabs), ErrInvariant)
	}
	ws.dropWindow(win)
	ws.version++
	return nil
}

// Windows lists window ids in creation order.
func (ws *Workspace) Windows() []tabs.WindowID {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]tabs.WindowID(nil), ws.order...)
}

func (ws *Workspace) Focused() tabs.WindowID {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.focused
}

// Active returns the active tab of win, or 0 for an empty window.
func (ws *Workspace) Active(win tabs.WindowID) tabs.TabID {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if w, ok := ws.windows[win]; ok {
		return w.active
	}
	return 0
}

func (ws *Workspace) OpenTab(ctx context.Context, win tabs.WindowID, title, path string) (tabs.TabID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.windows[win]
	if !ok {
		return 0, fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	id := ws.nextTab
	ws.nextTab++
	w.tabs = append(w.tabs, tabs.Tab{
		ID:       id,
		Index:    len(w.tabs),
		WindowID: win,
		GroupID:  tabs.NoGroup,
		Title:    title,
		Path:     path,
	})
	if w.active == 0 {
		w.active = id
	}
	ws.version++
	ws.publish(Event{Kind: EventOpened, Tab: id, Window: win})
	return id, nil
}

func (ws *Workspace) CloseTab(ctx context.Context, id tabs.TabID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, i := ws.locate(id)
	if w == nil {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	next := append(append([]tabs.Tab(nil), w.tabs[:i]...), w.tabs[i+1:]...)
	if err := ws.commit(map[*window][]tabs.Tab{w: next}); err != nil {
		return err
	}
	ws.publish(Event{Kind: EventClosed, Tab: id, Window: w.id})
	return nil
}

// Tabs lists the strip of win in order.
func (ws *Workspace) Tabs(ctx context.Context, win tabs.WindowID) ([]tabs.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.windows[win]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	out := append([]tabs.Tab(nil), w.tabs...)
	for i := range out {
		out[i].Active = out[i].ID == w.active
	}
	return out, nil
}

// Groups lists the groups of win ordered by strip position.
func (ws *Workspace) Groups(ctx context.Context, win tabs.WindowID) ([]tabs.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.windows[win]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", win, ErrNotFound)
	}
	return orderedGroups(w), nil
}

func orderedGroups(w *window) []tabs.Group {
	out := make([]tabs.Group, 0, len(w.groups))
	seen := make(map[tabs.GroupID]bool, len(w.groups))
	for _, t := range w.tabs {
		if t.Grouped() && !seen[t.GroupID] {
			seen[t.GroupID] = true
			out = append(out, w.groups[t.GroupID])
		}
	}
	return out
}

// Snapshot captures win for planning.
func (ws *Workspace) Snapshot(ctx context.Context, win tabs.WindowID) (tabs.Snapshot, error) {
	ts, err := ws.Tabs(ctx, win)
	if err != nil {
		return tabs.Snapshot{}, err
	}
	gs, err := ws.Groups(ctx, win)
	if err != nil {
		return tabs.Snapshot{}, err
	}
	return tabs.Snapshot{Window: win, Tabs: ts, Groups: gs}, nil
}

func (ws *Workspace) locate(id tabs.TabID) (*window, int) {
	for _, wid := range ws.order {
		w := ws.windows[wid]
		if i := w.indexOf(id); i >= 0 {
			return w, i
		}
	}
	return nil, -1
}

// transfer moves a group record between windows as part of a commit.
type transfer struct {
	group    tabs.GroupID
	from, to *window
}

// commit validates the proposed strips and applies them atomically.
// Groups left without tabs and windows left without tabs are dropped.
func (ws *Workspace) commit(next map[*window][]tabs.Tab, moves ...transfer) error {
	for w, strip := range next {
		tabs.Reindex(strip)
		for i := range strip {
			strip[i].WindowID = w.id
		}
		groups := w.groupList()
		for _, m := range moves {
			if m.to == w {
				g := m.from.groups[m.group]
				g.WindowID = w.id
				groups = append(groups, g)
			}
		}
		if err := tabs.Validate(strip, groups); err != nil {
			logger.Debug("workspace rejected change", "window", w.id, "err", err)
			return fmt.Errorf("%w: %v", ErrInvariant, err)
		}
	}
	for _, m := range moves {
		g := m.from.groups[m.group]
		g.WindowID = m.to.id
		delete(m.from.groups, m.group)
		m.to.groups[m.group] = g
	}
	for w, strip := range next {
		w.tabs = strip
		used := make(map[tabs.GroupID]bool)
		for _, t := range strip {
			used[t.GroupID] = true
		}
		for gid := range w.groups {
			if !used[gid] {
				delete(w.groups, gid)
			}
		}
		if w.indexOf(w.active) < 0 {
			w.active = 0
			if len(strip) > 0 {
				w.active = strip[0].ID
			}
		}
		if len(strip) == 0 {
			ws.dropWindow(w.id)
		}
	}
	ws.version++
	return nil
}

func (ws *Workspace) dropWindow(id tabs.WindowID) {
	delete(ws.windows, id)
	for i, wid := range ws.order {
		if wid == id {
			ws.order = append(ws.order[:i], ws.order[i+1:]...)
			break
		}
	}
	if ws.focused == id {
		ws.focused = 0
		if len(ws.order) > 0 {
			ws.focused = ws.order[0]
		}
	}
}
