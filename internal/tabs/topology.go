package tabs

// Status classifies how much of a group is selected.
type Status int

const (
	StatusNone Status = iota
	StatusPartial
	StatusFull
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusPartial:
		return "partial"
	case StatusFull:
		return "full"
	}
	return "unknown"
}

// span is a half-open [start, end) range of strip indices.
type span struct {
	start, end int
}

// Topology derives read-only indices over a snapshot: the pinned boundary,
// per-group runs and per-group selection status.
type Topology struct {
	snap     Snapshot
	boundary int
	runs     map[GroupID]span
	groups   map[GroupID]Group
	byID     map[TabID]int
	selected map[GroupID]int
}

// NewTopology validates snap and indexes it.
func NewTopology(snap Snapshot) (*Topology, error) {
	if err := Validate(snap.Tabs, snap.Groups); err != nil {
		return nil, err
	}
	t := &Topology{
		snap:     snap,
		boundary: len(snap.Tabs),
		runs:     make(map[GroupID]span),
		groups:   make(map[GroupID]Group, len(snap.Groups)),
		byID:     make(map[TabID]int, len(snap.Tabs)),
		selected: make(map[GroupID]int),
	}
	for _, g := range snap.Groups {
		t.groups[g.ID] = g
	}
	for i, tab := range snap.Tabs {
		t.byID[tab.ID] = i
		if !tab.Pinned && t.boundary == len(snap.Tabs) {
			t.boundary = i
		}
		if !tab.Grouped() {
			continue
		}
		r, ok := t.runs[tab.GroupID]
		if !ok {
			r.start = i
		}
		r.end = i + 1
		t.runs[tab.GroupID] = r
		if tab.Selected {
			t.selected[tab.GroupID]++
		}
	}
	return t, nil
}

func (t *Topology) Snapshot() Snapshot { return t.snap }

// PinnedBoundary is the index of the first unpinned tab, or len(tabs).
func (t *Topology) PinnedBoundary() int { return t.boundary }

func (t *Topology) Pinned() []Tab { return t.snap.Tabs[:t.boundary] }

func (t *Topology) Unpinned() []Tab { return t.snap.Tabs[t.boundary:] }

func (t *Topology) Len() int { return len(t.snap.Tabs) }

func (t *Topology) At(i int) Tab { return t.snap.Tabs[i] }

// Tab looks up a tab by id.
func (t *Topology) Tab(id TabID) (Tab, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Tab{}, false
	}
	return t.snap.Tabs[i], true
}

func (t *Topology) Group(id GroupID) (Group, bool) {
	g, ok := t.groups[id]
	return g, ok
}

// GroupRun returns the contiguous run of tabs belonging to id.
func (t *Topology) GroupRun(id GroupID) []Tab {
	r, ok := t.runs[id]
	if !ok {
		return nil
	}
	return t.snap.Tabs[r.start:r.end]
}

// GroupBounds returns the first and last index of the group's run.
func (t *Topology) GroupBounds(id GroupID) (first, last int, ok bool) {
	r, ok := t.runs[id]
	if !ok {
		return 0, 0, false
	}
	return r.start, r.end - 1, true
}

func (t *Topology) SelectionStatus(id GroupID) Status {
	r, ok := t.runs[id]
	if !ok {
		return StatusNone
	}
	switch n := t.selected[id]; {
	case n == 0:
		return StatusNone
	case n == r.end-r.start:
		return StatusFull
	default:
		return StatusPartial
	}
}

// IsHidden reports whether the group is collapsed.
func (t *Topology) IsHidden(id GroupID) bool {
	return t.groups[id].Collapsed
}

func (t *Topology) Selected() []Tab {
	var out []Tab
	for _, tab := range t.snap.Tabs {
		if tab.Selected {
			out = append(out, tab)
		}
	}
	return out
}
