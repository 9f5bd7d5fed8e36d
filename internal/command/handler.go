package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kobzarvs/tabshift/internal/config"
	"github.com/kobzarvs/tabshift/internal/gitinfo"
	"github.com/kobzarvs/tabshift/internal/logger"
	"github.com/kobzarvs/tabshift/internal/mru"
	"github.com/kobzarvs/tabshift/internal/rearrange"
	"github.com/kobzarvs/tabshift/internal/tabs"
	"github.com/kobzarvs/tabshift/internal/workspace"
)

const (
	MoveLeft        = "move_left"
	MoveRight       = "move_right"
	MoveHome        = "move_home"
	MoveEnd         = "move_end"
	MoveNewWindow   = "move_new_window"
	MoveNextWindow  = "move_next_window"
	ToggleSelect    = "toggle_select"
	SelectNone      = "select_none"
	SelectGroup     = "select_group"
	Pin             = "pin"
	GroupSelected   = "group_selected"
	UngroupSelected = "ungroup_selected"
	ToggleCollapse  = "toggle_collapse"
	GroupByRepo     = "group_by_repo"
	GroupByRule     = "group_by_rule"
	FocusRecent     = "focus_recent"
	TabLeft         = "tab_left"
	TabRight        = "tab_right"
	WindowNext      = "window_next"
	WindowPrev      = "window_prev"
	NewWindow       = "new_window"
	CloseTab        = "close_tab"
)

var ErrUnknownCommand = errors.New("unknown command")

var groupColors = []string{"blue", "red", "yellow", "green", "pink", "purple", "cyan", "orange"}

// Handler runs named commands against the focused window.
type Handler struct {
	ws     *workspace.Workspace
	recent *mru.Tracker
	cfg    config.Config
	repo   func(path string) (gitinfo.Repo, bool)
	cmds   map[string]func(context.Context) (string, error)
}

func NewHandler(ws *workspace.Workspace, recent *mru.Tracker, cfg config.Config) *Handler {
	h := &Handler{ws: ws, recent: recent, cfg: cfg, repo: gitinfo.Lookup}
	h.cmds = map[string]func(context.Context) (string, error){
		MoveLeft:        func(ctx context.Context) (string, error) { return h.move(ctx, rearrange.Backward) },
		MoveRight:       func(ctx context.Context) (string, error) { return h.move(ctx, rearrange.Forward) },
		MoveHome:        func(ctx context.Context) (string, error) { return h.edge(ctx, rearrange.Backward) },
		MoveEnd:         func(ctx context.Context) (string, error) { return h.edge(ctx, rearrange.Forward) },
		MoveNewWindow:   h.moveNewWindow,
		MoveNextWindow:  h.moveNextWindow,
		ToggleSelect:    h.toggleSelect,
		SelectNone:      h.selectNone,
		SelectGroup:     h.selectGroup,
		Pin:             h.pin,
		GroupSelected:   h.groupSelected,
		UngroupSelected: h.ungroupSelected,
		ToggleCollapse:  h.toggleCollapse,
		GroupByRepo:     h.groupByRepo,
		GroupByRule:     h.groupByRule,
		FocusRecent:     h.focusRecent,
		TabLeft:         func(ctx context.Context) (string, error) { return h.step(ctx, -1) },
		TabRight:        func(ctx context.Context) (string, error) { return h.step(ctx, 1) },
		WindowNext:      func(ctx context.Context) (string, error) { return h.cycleWindow(ctx, 1) },
		WindowPrev:      func(ctx context.Context) (string, error) { return h.cycleWindow(ctx, -1) },
		NewWindow:       h.newWindow,
		CloseTab:        h.closeTab,
	}
	return h
}

// Names lists the supported commands in sorted order.
func (h *Handler) Names() []string {
	out := make([]string, 0, len(h.cmds))
	for name := range h.cmds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run executes the named command and returns a status message.
func (h *Handler) Run(ctx context.Context, name string) (string, error) {
	fn, ok := h.cmds[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	status, err := fn(ctx)
	if err != nil {
		logger.Warn("command failed", "command", name, "err", err)
		return "", err
	}
	logger.Debug("command", "command", name, "status", status)
	return status, nil
}

// selection is the working set of a command: the explicit selection, or
// the active tab when nothing is selected.
type selection struct {
	snap     tabs.Snapshot
	ids      []tabs.TabID
	active   tabs.TabID
	explicit bool
}

func (h *Handler) current(ctx context.Context) (selection, error) {
	win := h.ws.Focused()
	if win == 0 {
		return selection{}, workspace.ErrNotFound
	}
	snap, err := h.ws.Snapshot(ctx, win)
	if err != nil {
		return selection{}, err
	}
	sel := selection{snap: snap, active: h.ws.Active(win)}
	for _, t := range snap.Tabs {
		if t.Selected {
			sel.ids = append(sel.ids, t.ID)
		}
	}
	sel.explicit = len(sel.ids) > 0
	if !sel.explicit && sel.active != 0 {
		sel.ids = []tabs.TabID{sel.active}
	}
	return sel, nil
}

func (h *Handler) move(ctx context.Context, dir rearrange.Direction) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	plan, err := rearrange.PlanMove(sel.snap, sel.ids, dir)
	if err != nil {
		return "", err
	}
	return h.execute(ctx, sel, plan)
}

func (h *Handler) edge(ctx context.Context, dir rearrange.Direction) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	plan, err := rearrange.PlanEdge(sel.snap, sel.ids, dir)
	if err != nil {
		return "", err
	}
	return h.execute(ctx, sel, plan)
}

// execute runs plan and re-applies an explicit selection by identity.
func (h *Handler) execute(ctx context.Context, sel selection, plan rearrange.Plan) (string, error) {
	if plan.Empty() {
		return "nothing to move", nil
	}
	if err := Execute(ctx, h.ws, plan); err != nil {
		return "", err
	}
	if sel.explicit {
		if err := selectByID(ctx, h.ws, sel.snap.Window, sel.ids); err != nil && !errors.Is(err, workspace.ErrNotFound) {
			return "", err
		}
	}
	return fmt.Sprintf("moved %d tab(s)", len(sel.ids)), nil
}

func (h *Handler) moveNewWindow(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	dest := h.ws.NewWindow()
	status, err := h.toWindow(ctx, sel, dest)
	if ts, terr := h.ws.Tabs(context.WithoutCancel(ctx), dest); terr == nil && len(ts) == 0 {
		if cerr := h.ws.CloseWindow(dest); cerr != nil {
			logger.Warn("dropping unused window", "window", dest, "err", cerr)
		}
	}
	return status, err
}

func (h *Handler) moveNextWindow(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	dest, ok := h.neighborWindow(sel.snap.Window, 1)
	if !ok {
		return "no other window", nil
	}
	return h.toWindow(ctx, sel, dest)
}

func (h *Handler) toWindow(ctx context.Context, sel selection, dest tabs.WindowID) (string, error) {
	plan, err := rearrange.PlanToWindow(sel.snap, sel.ids, dest, sel.active)
	if err != nil {
		return "", err
	}
	if plan.Empty() {
		return "nothing to move", nil
	}
	if err := Execute(ctx, h.ws, plan); err != nil {
		return "", err
	}
	return fmt.Sprintf("moved %d tab(s) to window %d", len(sel.ids), dest), nil
}

func (h *Handler) neighborWindow(win tabs.WindowID, step int) (tabs.WindowID, bool) {
	order := h.ws.Windows()
	if len(order) < 2 {
		return 0, false
	}
	for i, id := range order {
		if id == win {
			return order[(i+step+len(order))%len(order)], true
		}
	}
	return order[0], true
}

func (h *Handler) toggleSelect(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	if sel.active == 0 {
		return "no active tab", nil
	}
	var positions []int
	for _, t := range sel.snap.Tabs {
		if t.Selected != (t.ID == sel.active) {
			positions = append(positions, t.Index)
		}
	}
	if err := h.ws.SetSelection(ctx, sel.snap.Window, positions); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d selected", len(positions)), nil
}

func (h *Handler) selectNone(ctx context.Context) (string, error) {
	win := h.ws.Focused()
	if err := h.ws.SetSelection(ctx, win, nil); err != nil {
		return "", err
	}
	return "selection cleared", nil
}

func (h *Handler) selectGroup(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	active, ok := tabByID(sel.snap, sel.active)
	if !ok || !active.Grouped() {
		return "active tab is not grouped", nil
	}
	var positions []int
	for _, t := range sel.snap.Tabs {
		if t.Selected || t.GroupID == active.GroupID {
			positions = append(positions, t.Index)
		}
	}
	if err := h.ws.SetSelection(ctx, sel.snap.Window, positions); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d selected", len(positions)), nil
}

// pin pins the working set, or unpins it when it is already all pinned.
// Pinning walks forward and unpinning backward so relative order holds.
func (h *Handler) pin(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	ts := tabsByID(sel.snap, sel.ids)
	if len(ts) == 0 {
		return "nothing to pin", nil
	}
	pinned := false
	for _, t := range ts {
		if !t.Pinned {
			pinned = true
			break
		}
	}
	if !pinned {
		for i, j := 0, len(ts)-1; i < j; i, j = i+1, j-1 {
			ts[i], ts[j] = ts[j], ts[i]
		}
	}
	for _, t := range ts {
		if err := h.ws.SetPinned(ctx, t.ID, pinned); err != nil {
			return "", err
		}
	}
	if err := h.reselect(ctx, sel); err != nil {
		return "", err
	}
	if pinned {
		return fmt.Sprintf("pinned %d tab(s)", len(ts)), nil
	}
	return fmt.Sprintf("unpinned %d tab(s)", len(ts)), nil
}

func (h *Handler) groupSelected(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	if len(sel.ids) == 0 {
		return "nothing to group", nil
	}
	ordered := ids(tabsByID(sel.snap, sel.ids))
	color := groupColors[len(sel.snap.Groups)%len(groupColors)]
	if _, err := h.ws.CreateGroup(ctx, ordered, "", color); err != nil {
		return "", err
	}
	if err := h.reselect(ctx, sel); err != nil {
		return "", err
	}
	return fmt.Sprintf("grouped %d tab(s)", len(ordered)), nil
}

func (h *Handler) ungroupSelected(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	if err := h.ws.RemoveFromGroup(ctx, sel.ids); err != nil {
		return "", err
	}
	if err := h.reselect(ctx, sel); err != nil {
		return "", err
	}
	return fmt.Sprintf("ungrouped %d tab(s)", len(sel.ids)), nil
}

func (h *Handler) toggleCollapse(ctx context.Context) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	active, ok := tabByID(sel.snap, sel.active)
	if !ok || !active.Grouped() {
		return "active tab is not grouped", nil
	}
	for _, g := range sel.snap.Groups {
		if g.ID == active.GroupID {
			if err := h.ws.SetCollapsed(ctx, g.ID, !g.Collapsed); err != nil {
				return "", err
			}
			if g.Collapsed {
				return "expanded", nil
			}
			return "collapsed", nil
		}
	}
	return "", fmt.Errorf("group %d: %w", active.GroupID, workspace.ErrNotFound)
}

// bucket is one target group for the classification commands.
type bucket struct {
	title string
	color string
	tabs  []tabs.TabID
}

func (h *Handler) groupByRepo(ctx context.Context) (string, error) {
	return h.classify(ctx, func(t tabs.Tab) (string, string, bool) {
		repo, ok := h.repo(t.Path)
		if !ok {
			return "", "", false
		}
		return repo.Label(), "", true
	})
}

func (h *Handler) groupByRule(ctx context.Context) (string, error) {
	return h.classify(ctx, func(t tabs.Tab) (string, string, bool) {
		rule := h.cfg.Rules.Match(t.Path)
		if rule == nil {
			return "", "", false
		}
		return rule.Name, rule.Color, true
	})
}

// classify groups the unpinned tabs of the focused window by key. Tabs
// join an existing group of the same title when there is one.
func (h *Handler) classify(ctx context.Context, key func(tabs.Tab) (title, color string, ok bool)) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	var order []*bucket
	byTitle := make(map[string]*bucket)
	for _, t := range sel.snap.Tabs {
		if t.Pinned {
			continue
		}
		title, color, ok := key(t)
		if !ok {
			continue
		}
		b := byTitle[title]
		if b == nil {
			b = &bucket{title: title, color: color}
			byTitle[title] = b
			order = append(order, b)
		}
		b.tabs = append(b.tabs, t.ID)
	}
	existing := make(map[string]tabs.GroupID)
	for _, g := range sel.snap.Groups {
		if g.Title != "" {
			existing[g.Title] = g.ID
		}
	}
	groups := 0
	for i, b := range order {
		if gid, ok := existing[b.title]; ok {
			if err := h.ws.AddToGroup(ctx, b.tabs, gid); err != nil {
				return "", err
			}
			groups++
			continue
		}
		if len(b.tabs) < 2 {
			continue
		}
		color := b.color
		if color == "" {
			color = groupColors[(len(sel.snap.Groups)+i)%len(groupColors)]
		}
		if _, err := h.ws.CreateGroup(ctx, b.tabs, b.title, color); err != nil {
			return "", err
		}
		groups++
	}
	if err := h.reselect(ctx, sel); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d group(s) updated", groups), nil
}

func (h *Handler) focusRecent(ctx context.Context) (string, error) {
	win := h.ws.Focused()
	current := h.ws.Active(win)
	for {
		prev, ok := h.recent.Previous(current)
		if !ok {
			return "no recent tab", nil
		}
		timeout := time.Duration(h.cfg.Strip.ActivationTimeoutMs) * time.Millisecond
		wctx, cancel := context.WithTimeout(ctx, timeout)
		fut := h.ws.Expect(workspace.EventActivated, prev)
		err := h.ws.Activate(wctx, prev)
		if err != nil {
			cancel()
			// unregisters the future
			_, _ = fut.Wait(wctx)
			if errors.Is(err, workspace.ErrNotFound) {
				h.recent.Remove(prev)
				continue
			}
			return "", err
		}
		_, err = fut.Wait(wctx)
		cancel()
		if err != nil {
			return "", fmt.Errorf("activate tab %d: %w", prev, err)
		}
		return fmt.Sprintf("tab %d", prev), nil
	}
}

// step activates the nearest visible tab in direction delta.
func (h *Handler) step(ctx context.Context, delta int) (string, error) {
	sel, err := h.current(ctx)
	if err != nil {
		return "", err
	}
	topo, err := tabs.NewTopology(sel.snap)
	if err != nil {
		return "", err
	}
	active, ok := topo.Tab(sel.active)
	if !ok {
		return "no active tab", nil
	}
	for i := active.Index + delta; i >= 0 && i < topo.Len(); i += delta {
		t := topo.At(i)
		if t.Grouped() && topo.IsHidden(t.GroupID) {
			continue
		}
		if err := h.ws.Activate(ctx, t.ID); err != nil {
			return "", err
		}
		return t.Title, nil
	}
	return "", nil
}

func (h *Handler) cycleWindow(ctx context.Context, delta int) (string, error) {
	dest, ok := h.neighborWindow(h.ws.Focused(), delta)
	if !ok {
		return "no other window", nil
	}
	if err := h.ws.FocusWindow(ctx, dest); err != nil {
		return "", err
	}
	return fmt.Sprintf("window %d", dest), nil
}

func (h *Handler) newWindow(ctx context.Context) (string, error) {
	win := h.ws.NewWindow()
	id, err := h.ws.OpenTab(ctx, win, "new tab", "")
	if err != nil {
		return "", err
	}
	if err := h.ws.Activate(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("window %d", win), nil
}

func (h *Handler) closeTab(ctx context.Context) (string, error) {
	win := h.ws.Focused()
	id := h.ws.Active(win)
	if id == 0 {
		return "no active tab", nil
	}
	if err := h.ws.CloseTab(ctx, id); err != nil {
		return "", err
	}
	h.recent.Remove(id)
	return "closed", nil
}

// reselect restores an explicit selection after a structural change.
func (h *Handler) reselect(ctx context.Context, sel selection) error {
	if !sel.explicit {
		return nil
	}
	err := selectByID(ctx, h.ws, sel.snap.Window, sel.ids)
	if errors.Is(err, workspace.ErrNotFound) {
		return nil
	}
	return err
}

func tabByID(snap tabs.Snapshot, id tabs.TabID) (tabs.Tab, bool) {
	for _, t := range snap.Tabs {
		if t.ID == id {
			return t, true
		}
	}
	return tabs.Tab{}, false
}

// tabsByID returns the snapshot tabs named by ids, in strip order.
func tabsByID(snap tabs.Snapshot, ids []tabs.TabID) []tabs.Tab {
	want := make(map[tabs.TabID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []tabs.Tab
	for _, t := range snap.Tabs {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func ids(ts []tabs.Tab) []tabs.TabID {
	out := make([]tabs.TabID, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}
