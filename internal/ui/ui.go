// Package ui draws the workspace on a tcell screen and maps keys to
// command names.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/tabshift/internal/config"
	"github.com/kobzarvs/tabshift/internal/tabs"
	"github.com/kobzarvs/tabshift/internal/workspace"
)

// Quit is the keymap value that ends the event loop.
const Quit = "quit"

type styles struct {
	base      tcell.Style
	pinned    tcell.Style
	active    tcell.Style
	selected  tcell.Style
	group     tcell.Style
	groupFg   tcell.Color
	bar       tcell.Style
	barActive tcell.Style
	status    tcell.Style
}

// View renders one row per window plus an optional window bar and a
// status line.
type View struct {
	ws     *workspace.Workspace
	cfg    config.Config
	styles styles
	status string
}

func New(ws *workspace.Workspace, cfg config.Config) *View {
	th := cfg.Theme
	fg := parseColor(th.Foreground, tcell.ColorWhite)
	bg := parseColor(th.Background, tcell.ColorBlack)
	base := tcell.StyleDefault.Foreground(fg).Background(bg)
	barBg := parseColor(th.WindowBarBackground, bg)
	groupFg := parseColor(th.GroupForeground, fg)
	return &View{
		ws:  ws,
		cfg: cfg,
		styles: styles{
			base:   base,
			pinned: base.Foreground(parseColor(th.PinnedForeground, fg)),
			active: base.Foreground(parseColor(th.ActiveForeground, bg)).
				Background(parseColor(th.ActiveBackground, fg)),
			selected: base.Foreground(parseColor(th.SelectionForeground, fg)).
				Background(parseColor(th.SelectionBackground, bg)),
			group:     base.Foreground(groupFg),
			groupFg:   groupFg,
			bar:       base.Foreground(parseColor(th.WindowBarForeground, fg)).Background(barBg),
			barActive: base.Foreground(fg).Background(barBg).Bold(true),
			status: base.Foreground(parseColor(th.StatuslineForeground, fg)).
				Background(parseColor(th.StatuslineBackground, bg)),
		},
	}
}

func (v *View) SetStatus(msg string) {
	v.status = msg
}

func (v *View) Status() string {
	return v.status
}

// Command returns the command bound to ev.
func (v *View) Command(ev *tcell.EventKey) (string, bool) {
	key := KeyString(ev)
	if key == "" {
		return "", false
	}
	name, ok := v.cfg.Keymap[key]
	return name, ok
}

func (v *View) Render(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	fill(s, 0, 0, w, h, v.styles.base)
	y := 0
	wins := v.ws.Windows()
	if v.cfg.Strip.ShowWindowBar && h > 1 {
		v.renderWindowBar(s, w, y, wins)
		y++
	}
	for _, win := range wins {
		if y >= h-1 {
			break
		}
		v.renderStrip(s, w, y, win)
		y++
	}
	v.renderStatusline(s, w, h-1)
	s.Show()
}

func (v *View) renderWindowBar(s tcell.Screen, w, y int, wins []tabs.WindowID) {
	fill(s, 0, y, w, 1, v.styles.bar)
	focused := v.ws.Focused()
	x := 0
	for _, win := range wins {
		ts, err := v.ws.Tabs(context.Background(), win)
		if err != nil {
			continue
		}
		style := v.styles.bar
		if win == focused {
			style = v.styles.barActive
		}
		x = drawString(s, x, y, w, fmt.Sprintf(" [%d] %d ", win, len(ts)), style)
	}
}

func (v *View) renderStrip(s tcell.Screen, w, y int, win tabs.WindowID) {
	snap, err := v.ws.Snapshot(context.Background(), win)
	if err != nil {
		return
	}
	groups := make(map[tabs.GroupID]tabs.Group, len(snap.Groups))
	for _, g := range snap.Groups {
		groups[g.ID] = g
	}
	marker := "  "
	if win == v.ws.Focused() {
		marker = "> "
	}
	x := drawString(s, 0, y, w, marker+strconv.Itoa(int(win))+"│", v.styles.bar)
	active := v.ws.Active(win)
	var open tabs.GroupID
	for i, t := range snap.Tabs {
		if t.GroupID != open {
			open = t.GroupID
			if t.Grouped() {
				g := groups[t.GroupID]
				x = drawString(s, x, y, w, groupLabel(g, snap.Tabs[i:]), v.groupStyle(g))
			}
		}
		if t.Grouped() && groups[t.GroupID].Collapsed && t.ID != active {
			continue
		}
		x = drawString(s, x, y, w, v.cell(t), v.tabStyle(t, active))
		x = drawString(s, x, y, w, "│", v.styles.bar)
		if x >= w {
			return
		}
	}
}

// cell is the padded, truncated title of t.
func (v *View) cell(t tabs.Tab) string {
	title := t.Title
	if title == "" {
		title = "untitled"
	}
	if t.Pinned {
		title = "^" + title
	}
	if v.cfg.Strip.TitleWidth > 0 {
		title = runewidth.Truncate(title, v.cfg.Strip.TitleWidth, "…")
	}
	return " " + title + " "
}

func (v *View) tabStyle(t tabs.Tab, active tabs.TabID) tcell.Style {
	switch {
	case t.ID == active:
		style := v.styles.active
		if t.Selected {
			style = style.Underline(true)
		}
		return style
	case t.Selected:
		return v.styles.selected
	case t.Pinned:
		return v.styles.pinned
	}
	return v.styles.base
}

func (v *View) groupStyle(g tabs.Group) tcell.Style {
	return v.styles.group.Foreground(parseColor(g.Color, v.styles.groupFg)).Bold(true)
}

// groupLabel names g; a collapsed group also shows how many tabs it hides.
// rest starts at the group's first tab.
func groupLabel(g tabs.Group, rest []tabs.Tab) string {
	title := g.Title
	if title == "" {
		title = "group " + strconv.Itoa(int(g.ID))
	}
	if !g.Collapsed {
		return "[" + title + "]"
	}
	n := 0
	for _, t := range rest {
		if t.GroupID != g.ID {
			break
		}
		n++
	}
	return fmt.Sprintf("[%s +%d]", title, n)
}

func (v *View) renderStatusline(s tcell.Screen, w, y int) {
	left := " " + v.status + " "
	var right []string
	if win := v.ws.Focused(); win != 0 {
		right = append(right, fmt.Sprintf("win %d", win))
		if snap, err := v.ws.Snapshot(context.Background(), win); err == nil {
			active := v.ws.Active(win)
			n := 0
			for _, t := range snap.Tabs {
				if t.Selected {
					n++
				}
				if t.ID == active {
					right = append(right, t.Title)
				}
			}
			if n > 0 {
				right = append(right, fmt.Sprintf("%d selected", n))
			}
		}
	}
	line := composeStatusLine(left, " "+strings.Join(right, " | ")+" ", w)
	fill(s, 0, y, w, 1, v.styles.status)
	drawString(s, 0, y, w, line, v.styles.status)
}

// composeStatusLine right-aligns right after left, giving right priority
// when both do not fit.
func composeStatusLine(left, right string, width int) string {
	if width <= 0 {
		return ""
	}
	lw, rw := runewidth.StringWidth(left), runewidth.StringWidth(right)
	if lw+rw > width {
		if rw >= width {
			return runewidth.Truncate(right, width, "")
		}
		left = runewidth.Truncate(left, width-rw, "")
		lw = runewidth.StringWidth(left)
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}

// drawString draws str from x and returns the column after it, clipping
// at maxX.
func drawString(s tcell.Screen, x, y, maxX int, str string, style tcell.Style) int {
	for _, r := range str {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > maxX {
			return maxX
		}
		s.SetContent(x, y, r, nil, style)
		x += rw
	}
	return x
}

func fill(s tcell.Screen, x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		r, err1 := strconv.ParseInt(name[1:3], 16, 32)
		g, err2 := strconv.ParseInt(name[3:5], 16, 32)
		b, err3 := strconv.ParseInt(name[5:7], 16, 32)
		if err1 == nil && err2 == nil && err3 == nil {
			return tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		return fallback
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}
