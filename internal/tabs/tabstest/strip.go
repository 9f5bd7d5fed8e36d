// Package tabstest builds window snapshots from a compact layout notation
// and renders strips back into it, for use in tests.
//
// Notation, space separated:
//
//	A      ungrouped tab titled "A"
//	^A     pinned tab
//	A*     selected tab
//	g(A B) group "g" holding A and B
//	g!(A)  collapsed group
package tabstest

import (
	"fmt"
	"strings"

	"github.com/kobzarvs/tabshift/internal/session"
	"github.com/kobzarvs/tabshift/internal/tabs"
)

// Strip is a parsed layout with title lookups.
type Strip struct {
	Snapshot tabs.Snapshot
	tabIDs   map[string]tabs.TabID
	groupIDs map[string]tabs.GroupID
}

// Parse builds a snapshot for window 1. Tab ids start at 1 in strip order,
// group ids start at 100 in order of appearance.
func Parse(layout string) (*Strip, error) {
	return ParseWindow(1, 1, 100, layout)
}

// ParseWindow is Parse with explicit window and id bases.
func ParseWindow(win tabs.WindowID, firstTab tabs.TabID, firstGroup tabs.GroupID, layout string) (*Strip, error) {
	s := &Strip{
		Snapshot: tabs.Snapshot{Window: win},
		tabIDs:   make(map[string]tabs.TabID),
		groupIDs: make(map[string]tabs.GroupID),
	}
	nextTab, nextGroup := firstTab, firstGroup
	current := tabs.NoGroup
	for _, tok := range strings.Fields(layout) {
		if i := strings.Index(tok, "("); i >= 0 {
			if current != tabs.NoGroup {
				return nil, fmt.Errorf("nested group at %q", tok)
			}
			name := tok[:i]
			collapsed := strings.HasSuffix(name, "!")
			name = strings.TrimSuffix(name, "!")
			if name == "" {
				return nil, fmt.Errorf("unnamed group at %q", tok)
			}
			if _, dup := s.groupIDs[name]; dup {
				return nil, fmt.Errorf("duplicate group %q", name)
			}
			current = nextGroup
			nextGroup++
			s.groupIDs[name] = current
			s.Snapshot.Groups = append(s.Snapshot.Groups, tabs.Group{
				ID: current, WindowID: win, Collapsed: collapsed, Title: name,
			})
			tok = tok[i+1:]
			if tok == "" {
				continue
			}
		}
		closes := strings.HasSuffix(tok, ")")
		tok = strings.TrimSuffix(tok, ")")
		if tok != "" {
			tab := tabs.Tab{ID: nextTab, Index: len(s.Snapshot.Tabs), WindowID: win, GroupID: current}
			if strings.HasPrefix(tok, "^") {
				tab.Pinned = true
				tok = tok[1:]
			}
			if strings.HasSuffix(tok, "*") {
				tab.Selected = true
				tok = strings.TrimSuffix(tok, "*")
			}
			if _, dup := s.tabIDs[tok]; dup || tok == "" {
				return nil, fmt.Errorf("bad or duplicate tab %q", tok)
			}
			tab.Title = tok
			s.tabIDs[tok] = tab.ID
			s.Snapshot.Tabs = append(s.Snapshot.Tabs, tab)
			nextTab++
		}
		if closes {
			if current == tabs.NoGroup {
				return nil, fmt.Errorf("unbalanced ) in %q", layout)
			}
			current = tabs.NoGroup
		}
	}
	if current != tabs.NoGroup {
		return nil, fmt.Errorf("unterminated group in %q", layout)
	}
	return s, nil
}

// MustParse is Parse for fixtures known to be well formed.
func MustParse(layout string) *Strip {
	s, err := Parse(layout)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the id of the tab titled title, panicking on unknown titles.
func (s *Strip) ID(title string) tabs.TabID {
	id, ok := s.tabIDs[title]
	if !ok {
		panic("tabstest: unknown tab " + title)
	}
	return id
}

func (s *Strip) IDs(titles ...string) []tabs.TabID {
	out := make([]tabs.TabID, len(titles))
	for i, t := range titles {
		out[i] = s.ID(t)
	}
	return out
}

// Group returns the id of the group named name.
func (s *Strip) Group(name string) tabs.GroupID {
	id, ok := s.groupIDs[name]
	if !ok {
		panic("tabstest: unknown group " + name)
	}
	return id
}

// Format renders a strip in layout notation. Groups are named by title.
func Format(strip []tabs.Tab, groups []tabs.Group) string {
	byID := make(map[tabs.GroupID]tabs.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	var b strings.Builder
	open := tabs.NoGroup
	for i, t := range strip {
		if t.GroupID != open && open != tabs.NoGroup {
			b.WriteString(")")
		}
		if i > 0 {
			b.WriteString(" ")
		}
		if t.GroupID != open && t.Grouped() {
			g := byID[t.GroupID]
			name := g.Title
			if name == "" {
				name = fmt.Sprintf("g%d", g.ID)
			}
			b.WriteString(name)
			if g.Collapsed {
				b.WriteString("!")
			}
			b.WriteString("(")
		}
		open = t.GroupID
		if t.Pinned {
			b.WriteString("^")
		}
		b.WriteString(t.Title)
		if t.Selected {
			b.WriteString("*")
		}
	}
	if open != tabs.NoGroup {
		b.WriteString(")")
	}
	return b.String()
}

// Selection returns the ids of the tabs marked selected, in strip order.
func (s *Strip) Selection() []tabs.TabID {
	var out []tabs.TabID
	for _, t := range s.Snapshot.Tabs {
		if t.Selected {
			out = append(out, t.ID)
		}
	}
	return out
}

// Positions returns the indices of the selected tabs.
func (s *Strip) Positions() []int {
	var out []int
	for _, t := range s.Snapshot.Tabs {
		if t.Selected {
			out = append(out, t.Index)
		}
	}
	return out
}

// WindowState converts the strip into its persisted form. Restoring it
// into an empty workspace reproduces the tab ids of Parse and, when the
// strip was parsed with firstGroup 1, the group ids too.
func (s *Strip) WindowState() session.WindowState {
	var out session.WindowState
	slot := make(map[tabs.GroupID]int)
	for _, g := range s.Snapshot.Groups {
		out.Groups = append(out.Groups, session.GroupState{Title: g.Title, Color: g.Color, Collapsed: g.Collapsed})
		slot[g.ID] = len(out.Groups)
	}
	for _, t := range s.Snapshot.Tabs {
		out.Tabs = append(out.Tabs, session.TabState{Title: t.Title, Path: t.Path, Pinned: t.Pinned, Group: slot[t.GroupID]})
	}
	return out
}
