package tabs

import (
	"errors"
	"fmt"
)

type (
	TabID    int
	GroupID  int
	WindowID int
)

// NoGroup marks an ungrouped tab.
const NoGroup GroupID = -1

// Tab is one positioned entry of a window's strip.
type Tab struct {
	ID       TabID
	Index    int
	WindowID WindowID
	GroupID  GroupID
	Pinned   bool
	Selected bool
	Active   bool
	Title    string
	Path     string
}

// Grouped reports whether the tab belongs to a group.
func (t Tab) Grouped() bool {
	return t.GroupID != NoGroup
}

// Group is a contiguous, collapsible set of tabs within one window.
type Group struct {
	ID        GroupID
	WindowID  WindowID
	Collapsed bool
	Title     string
	Color     string
}

// Snapshot is an immutable view of a single window.
type Snapshot struct {
	Window WindowID
	Tabs   []Tab
	Groups []Group
}

var ErrInvalidStrip = errors.New("invalid strip")

// Validate checks the structural invariants of a window's strip:
// dense indices, a pinned prefix, ungrouped pinned tabs, known groups
// and contiguous group runs.
func Validate(tabs []Tab, groups []Group) error {
	known := make(map[GroupID]bool, len(groups))
	for _, g := range groups {
		known[g.ID] = true
	}
	seen := make(map[GroupID]bool, len(groups))
	prev := NoGroup
	unpinned := false
	for i, t := range tabs {
		if t.Index != i {
			return fmt.Errorf("%w: tab %d has index %d at position %d", ErrInvalidStrip, t.ID, t.Index, i)
		}
		if t.Pinned {
			if unpinned {
				return fmt.Errorf("%w: pinned tab %d follows unpinned tabs", ErrInvalidStrip, t.ID)
			}
			if t.Grouped() {
				return fmt.Errorf("%w: pinned tab %d is grouped", ErrInvalidStrip, t.ID)
			}
		} else {
			unpinned = true
		}
		if t.GroupID != prev {
			if t.Grouped() {
				if !known[t.GroupID] {
					return fmt.Errorf("%w: tab %d references unknown group %d", ErrInvalidStrip, t.ID, t.GroupID)
				}
				if seen[t.GroupID] {
					return fmt.Errorf("%w: group %d is not contiguous", ErrInvalidStrip, t.GroupID)
				}
				seen[t.GroupID] = true
			}
			prev = t.GroupID
		}
	}
	return nil
}

// Reindex rewrites Index to match slice order.
func Reindex(tabs []Tab) {
	for i := range tabs {
		tabs[i].Index = i
	}
}
