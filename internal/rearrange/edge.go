package rearrange

import (
	"github.com/kobzarvs/tabshift/internal/logger"
	"github.com/kobzarvs/tabshift/internal/seq"
	"github.com/kobzarvs/tabshift/internal/tabs"
)

// PlanEdge computes the operations that carry the selection to the start
// (Backward) or end (Forward) of its region. Pinned tabs stay inside the
// pinned prefix; a fully selected group travels whole; a partially selected
// group only reorders its own members.
func PlanEdge(snap tabs.Snapshot, sel []tabs.TabID, dir Direction) (Plan, error) {
	topo, err := topology(snap, sel)
	if err != nil {
		return Plan{}, err
	}
	e := &edger{topo: topo, dir: dir, plan: Plan{Window: snap.Window}}
	e.pinned()
	e.unpinned()
	return e.plan, nil
}

type edger struct {
	topo  *tabs.Topology
	dir   Direction
	plan  Plan
	phase int
}

func (e *edger) pinned() {
	sel := selected(e.topo.Pinned())
	if len(sel) == 0 {
		return
	}
	index := 0
	if e.dir == Forward {
		index = e.topo.PinnedBoundary() - len(sel)
	}
	if !inPlace(sel, index) {
		e.plan.add(moveOp(0, e.plan.Window, index, ids(sel)...))
	}
}

func (e *edger) unpinned() {
	chunks := seq.Chunk(e.topo.Unpinned(), func(t tabs.Tab) tabs.GroupID { return t.GroupID })
	if e.dir == Backward {
		cursor := e.topo.PinnedBoundary()
		for _, c := range chunks {
			cursor = e.chunk(c, cursor)
		}
		return
	}
	cursor := e.topo.Len()
	for i := len(chunks) - 1; i >= 0; i-- {
		cursor = e.chunk(chunks[i], cursor)
	}
}

// chunk places one group (or ungrouped stretch) and returns the new cursor.
// Backward the cursor is the first free index after the placed prefix;
// Forward it is one past the last free index before the placed suffix.
// Tabs not yet visited keep their snapshot indices because every earlier
// move only shuffled tabs on the already-visited side.
func (e *edger) chunk(c seq.Run[tabs.GroupID, tabs.Tab], cursor int) int {
	sel := selected(c.Items)
	if len(sel) == 0 {
		return cursor
	}
	win := e.plan.Window
	switch {
	case c.Key != tabs.NoGroup && e.topo.SelectionStatus(c.Key) == tabs.StatusFull:
		n := len(c.Items)
		index := cursor
		if e.dir == Forward {
			index = cursor - n
		}
		if c.Items[0].Index != index {
			e.emit(moveGroupOp(e.phase, c.Key, win, index))
		}
		if e.dir == Forward {
			return cursor - n
		}
		return cursor + n
	case c.Key != tabs.NoGroup:
		first, last, _ := e.topo.GroupBounds(c.Key)
		index := first
		if e.dir == Forward {
			index = last - len(sel) + 1
		}
		if !inPlace(sel, index) {
			e.emit(moveOp(e.phase, win, index, ids(sel)...))
		}
		return cursor
	default:
		index := cursor
		if e.dir == Forward {
			index = cursor - len(sel)
		}
		if !inPlace(sel, index) {
			e.emit(moveOp(e.phase, win, index, ids(sel)...))
		}
		if e.dir == Forward {
			return cursor - len(sel)
		}
		return cursor + len(sel)
	}
}

func (e *edger) emit(op Op) {
	logger.Debug("plan edge", "window", e.plan.Window, "dir", e.dir.String(), "op", op.String())
	e.plan.add(op)
	e.phase++
}

// inPlace reports whether ts already occupy consecutive indices from index.
func inPlace(ts []tabs.Tab, index int) bool {
	for i, t := range ts {
		if t.Index != index+i {
			return false
		}
	}
	return true
}
