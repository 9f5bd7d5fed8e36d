package rearrange

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kobzarvs/tabshift/internal/tabs"
)

var (
	ErrInvalidSelection = errors.New("selection references a tab outside the snapshot")
	ErrSameWindow       = errors.New("destination is the source window")
)

// Direction of travel along the strip.
type Direction int

const (
	Backward Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

func (d Direction) step() int {
	if d == Forward {
		return 1
	}
	return -1
}

// OpKind enumerates the host mutations a plan may request.
type OpKind int

const (
	OpMove OpKind = iota
	OpMoveGroup
	OpAddToGroup
	OpRemoveFromGroup
	OpSetPinned
	OpFocusWindow
	OpSelect
)

var opKindNames = [...]string{
	OpMove:            "move",
	OpMoveGroup:       "move-group",
	OpAddToGroup:      "add-to-group",
	OpRemoveFromGroup: "remove-from-group",
	OpSetPinned:       "set-pinned",
	OpFocusWindow:     "focus-window",
	OpSelect:          "select",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one host mutation. Index is the final strip index of the first
// moved tab; -1 appends. Ops sharing a Phase have no data dependency on
// each other.
type Op struct {
	Kind   OpKind
	Phase  int
	Tabs   []tabs.TabID
	Group  tabs.GroupID
	Window tabs.WindowID
	Index  int
	Pinned bool
}

func (o Op) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s@%d", o.Kind, o.Phase)
	switch o.Kind {
	case OpMove:
		fmt.Fprintf(&b, " %v -> w%d[%d]", o.Tabs, o.Window, o.Index)
	case OpMoveGroup:
		fmt.Fprintf(&b, " g%d -> w%d[%d]", o.Group, o.Window, o.Index)
	case OpAddToGroup:
		fmt.Fprintf(&b, " %v -> g%d", o.Tabs, o.Group)
	case OpRemoveFromGroup:
		fmt.Fprintf(&b, " %v", o.Tabs)
	case OpSetPinned:
		fmt.Fprintf(&b, " %v=%t", o.Tabs, o.Pinned)
	case OpFocusWindow:
		fmt.Fprintf(&b, " w%d", o.Window)
	case OpSelect:
		fmt.Fprintf(&b, " %v in w%d", o.Tabs, o.Window)
	}
	return b.String()
}

func moveOp(phase int, win tabs.WindowID, index int, ids ...tabs.TabID) Op {
	return Op{Kind: OpMove, Phase: phase, Tabs: ids, Window: win, Index: index, Group: tabs.NoGroup}
}

func moveGroupOp(phase int, gid tabs.GroupID, win tabs.WindowID, index int) Op {
	return Op{Kind: OpMoveGroup, Phase: phase, Group: gid, Window: win, Index: index}
}

func addToGroupOp(phase int, gid tabs.GroupID, ids ...tabs.TabID) Op {
	return Op{Kind: OpAddToGroup, Phase: phase, Tabs: ids, Group: gid}
}

func removeFromGroupOp(phase int, ids ...tabs.TabID) Op {
	return Op{Kind: OpRemoveFromGroup, Phase: phase, Tabs: ids, Group: tabs.NoGroup}
}

// Plan is an ordered operation list for one command.
type Plan struct {
	Window tabs.WindowID
	Ops    []Op
}

func (p Plan) Empty() bool { return len(p.Ops) == 0 }

// Phases groups ops by phase in ascending order, keeping emission order
// inside each phase.
func (p Plan) Phases() [][]Op {
	ops := append([]Op(nil), p.Ops...)
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Phase < ops[j].Phase })
	var out [][]Op
	for i, op := range ops {
		if i == 0 || op.Phase != ops[i-1].Phase {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], op)
	}
	return out
}

func (p *Plan) add(op Op) {
	p.Ops = append(p.Ops, op)
}

// applySelection returns a copy of snap whose Selected flags match sel.
func applySelection(snap tabs.Snapshot, sel []tabs.TabID) (tabs.Snapshot, error) {
	want := make(map[tabs.TabID]bool, len(sel))
	for _, id := range sel {
		want[id] = true
	}
	out := snap
	out.Tabs = make([]tabs.Tab, len(snap.Tabs))
	for i, t := range snap.Tabs {
		t.Selected = want[t.ID]
		delete(want, t.ID)
		out.Tabs[i] = t
	}
	if len(want) > 0 {
		missing := make([]int, 0, len(want))
		for id := range want {
			missing = append(missing, int(id))
		}
		sort.Ints(missing)
		return tabs.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSelection, missing)
	}
	return out, nil
}

func topology(snap tabs.Snapshot, sel []tabs.TabID) (*tabs.Topology, error) {
	snap, err := applySelection(snap, sel)
	if err != nil {
		return nil, err
	}
	return tabs.NewTopology(snap)
}

func ids(ts []tabs.Tab) []tabs.TabID {
	out := make([]tabs.TabID, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func selected(ts []tabs.Tab) []tabs.Tab {
	var out []tabs.Tab
	for _, t := range ts {
		if t.Selected {
			out = append(out, t)
		}
	}
	return out
}
