package rearrange

import (
	"github.com/kobzarvs/tabshift/internal/seq"
	"github.com/kobzarvs/tabshift/internal/tabs"
)

// PlanToWindow computes the operations that carry the selection into dest.
// Pinned tabs are re-pinned there, fully selected groups move whole, other
// selected tabs move individually and arrive ungrouped. The plan ends by
// focusing dest and selecting the moved tabs plus initiator.
func PlanToWindow(snap tabs.Snapshot, sel []tabs.TabID, dest tabs.WindowID, initiator tabs.TabID) (Plan, error) {
	if dest == snap.Window {
		return Plan{}, ErrSameWindow
	}
	topo, err := topology(snap, sel)
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{Window: snap.Window}
	phase := 0
	next := func() int {
		phase++
		return phase - 1
	}

	var moved []tabs.TabID
	pinned := ids(selected(topo.Pinned()))
	if len(pinned) > 0 {
		plan.add(moveOp(next(), dest, -1, pinned...))
		for _, id := range pinned {
			plan.add(Op{Kind: OpSetPinned, Phase: next(), Tabs: []tabs.TabID{id}, Pinned: true, Group: tabs.NoGroup})
		}
		moved = append(moved, pinned...)
	}

	chunks := seq.Chunk(topo.Unpinned(), func(t tabs.Tab) tabs.GroupID { return t.GroupID })
	for _, c := range chunks {
		sel := selected(c.Items)
		if len(sel) == 0 {
			continue
		}
		if c.Key != tabs.NoGroup && topo.SelectionStatus(c.Key) == tabs.StatusFull {
			plan.add(moveGroupOp(next(), c.Key, dest, -1))
		} else {
			plan.add(moveOp(next(), dest, -1, ids(sel)...))
		}
		moved = append(moved, ids(sel)...)
	}
	if len(moved) == 0 {
		return plan, nil
	}

	plan.add(Op{Kind: OpFocusWindow, Phase: next(), Window: dest, Group: tabs.NoGroup})
	selection := moved
	if _, ok := topo.Tab(initiator); ok && !contains(moved, initiator) {
		selection = append(append([]tabs.TabID(nil), moved...), initiator)
	}
	plan.add(Op{Kind: OpSelect, Phase: next(), Window: dest, Tabs: selection, Group: tabs.NoGroup})
	return plan, nil
}

func contains(ids []tabs.TabID, id tabs.TabID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
