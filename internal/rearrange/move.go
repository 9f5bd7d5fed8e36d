package rearrange

import (
	"fmt"

	"github.com/kobzarvs/tabshift/internal/logger"
	"github.com/kobzarvs/tabshift/internal/seq"
	"github.com/kobzarvs/tabshift/internal/tabs"
)

// Action is the resolved treatment of one selected run.
type Action int

const (
	// Slide moves the target to the anchor's index; the run advances as a block.
	Slide Action = iota
	// SplitThenSlide detaches the run from its partially selected group first.
	SplitThenSlide
	// Merge adds the run's stragglers to the group the focus already sits in.
	Merge
	// MergeIntoNeighbor adds an ungrouped run to the visible group ahead of it.
	MergeIntoNeighbor
	// RelocateNeighbor moves the whole neighbouring group behind the run.
	RelocateNeighbor
	// SplitThenRelocate is RelocateNeighbor after detaching the run.
	SplitThenRelocate
	// Blocked leaves the run in place: the neighbouring group holds
	// selected tabs that move in the same pass, so it cannot be relocated
	// as a unit.
	Blocked
)

var actionNames = [...]string{
	Slide:             "slide",
	SplitThenSlide:    "split-then-slide",
	Merge:             "merge",
	MergeIntoNeighbor: "merge-into-neighbor",
	RelocateNeighbor:  "relocate-neighbor",
	SplitThenRelocate: "split-then-relocate",
	Blocked:           "blocked",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

const (
	phaseSplit = 0
	phaseShift = 1
)

// PlanMove computes the operations that advance every selected run one
// step in dir. Runs already touching the strip boundary (or the pinned
// boundary, for pinned tabs) in dir are left alone.
func PlanMove(snap tabs.Snapshot, sel []tabs.TabID, dir Direction) (Plan, error) {
	topo, err := topology(snap, sel)
	if err != nil {
		return Plan{}, err
	}
	m := &mover{topo: topo, dir: dir, plan: Plan{Window: snap.Window}}
	m.region(topo.Pinned(), true)
	m.region(topo.Unpinned(), false)
	return m.plan, nil
}

type mover struct {
	topo *tabs.Topology
	dir  Direction
	plan Plan
}

// stepRun is a selected run seen from the direction of travel.
type stepRun struct {
	items  []tabs.Tab
	anchor tabs.Tab
	focus  tabs.Tab
	target tabs.Tab
}

func (m *mover) region(region []tabs.Tab, pinned bool) {
	runs := seq.Chunk(region, func(t tabs.Tab) bool { return t.Selected })
	if n := len(runs); n > 0 {
		if m.dir == Backward && runs[0].Key {
			runs = runs[1:]
		} else if m.dir == Forward && runs[n-1].Key {
			runs = runs[:n-1]
		}
	}
	var steps []stepRun
	for _, run := range runs {
		if !run.Key {
			continue
		}
		r := stepRun{items: run.Items}
		first, last := run.Items[0], run.Items[len(run.Items)-1]
		if m.dir == Forward {
			r.anchor, r.focus = first, last
		} else {
			r.anchor, r.focus = last, first
		}
		r.target = m.topo.At(r.focus.Index + m.dir.step())
		steps = append(steps, r)
	}

	// Runs further along dir resolve first, so each run knows which
	// selected tabs ahead of it are on the move.
	actions := make([]Action, len(steps))
	moving := make(map[tabs.TabID]bool)
	for k := range steps {
		i := k
		if m.dir == Forward {
			i = len(steps) - 1 - k
		}
		actions[i] = m.resolve(steps[i], pinned, moving)
		if actions[i] != Blocked {
			for _, t := range steps[i].items {
				moving[t.ID] = true
			}
		}
	}
	for i, r := range steps {
		m.apply(r, actions[i])
	}
}

func (m *mover) resolve(r stepRun, pinned bool, moving map[tabs.TabID]bool) Action {
	if pinned {
		return Slide
	}
	homogeneous := true
	for _, t := range r.items {
		if t.GroupID != r.anchor.GroupID {
			homogeneous = false
			break
		}
	}
	split := r.anchor.Grouped() && m.topo.SelectionStatus(r.anchor.GroupID) == tabs.StatusPartial
	target := r.target.GroupID

	switch {
	case r.target.Grouped() && target == r.focus.GroupID:
		if homogeneous {
			return Slide
		}
		return Merge
	case !r.target.Grouped():
		if split {
			return SplitThenSlide
		}
		return Slide
	case homogeneous && !r.anchor.Grouped() && !m.topo.IsHidden(target):
		return MergeIntoNeighbor
	case m.topo.SelectionStatus(target) != tabs.StatusNone && m.carries(target, moving):
		return Blocked
	case split:
		return SplitThenRelocate
	default:
		return RelocateNeighbor
	}
}

// carries reports whether any tab of gid belongs to a run that moves in
// this pass.
func (m *mover) carries(gid tabs.GroupID, moving map[tabs.TabID]bool) bool {
	for _, t := range m.topo.GroupRun(gid) {
		if moving[t.ID] {
			return true
		}
	}
	return false
}

func (m *mover) apply(r stepRun, action Action) {
	logger.Debug("plan move",
		"window", m.plan.Window,
		"dir", m.dir.String(),
		"anchor", r.anchor.ID,
		"focus", r.focus.ID,
		"target", r.target.ID,
		"action", action.String())

	win := m.plan.Window
	switch action {
	case Slide:
		m.plan.add(moveOp(phaseShift, win, r.anchor.Index, r.target.ID))
	case SplitThenSlide:
		m.split(r)
		m.plan.add(moveOp(phaseShift, win, r.anchor.Index, r.target.ID))
	case Merge:
		var adds []tabs.TabID
		for _, t := range r.items {
			if t.GroupID != r.focus.GroupID {
				adds = append(adds, t.ID)
			}
		}
		m.plan.add(addToGroupOp(phaseShift, r.focus.GroupID, adds...))
	case MergeIntoNeighbor:
		m.plan.add(addToGroupOp(phaseShift, r.target.GroupID, ids(r.items)...))
	case RelocateNeighbor:
		m.relocate(r)
	case SplitThenRelocate:
		m.split(r)
		m.relocate(r)
	case Blocked:
	default:
		panic(fmt.Sprintf("rearrange: unhandled action %v", action))
	}
}

// split detaches the run's members of the anchor's group.
func (m *mover) split(r stepRun) {
	var out []tabs.TabID
	for _, t := range r.items {
		if t.GroupID == r.anchor.GroupID {
			out = append(out, t.ID)
		}
	}
	m.plan.add(removeFromGroupOp(phaseSplit, out...))
}

// relocate moves the target's whole group to sit behind the run.
func (m *mover) relocate(r stepRun) {
	index := r.anchor.Index
	if m.dir == Backward {
		index = r.anchor.Index - len(m.topo.GroupRun(r.target.GroupID)) + 1
	}
	m.plan.add(moveGroupOp(phaseShift, r.target.GroupID, m.plan.Window, index))
}
