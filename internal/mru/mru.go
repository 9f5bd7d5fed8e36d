// Package mru tracks the most recently activated tabs.
package mru

import (
	"sync"

	"github.com/kobzarvs/tabshift/internal/tabs"
)

// Tracker is an ordered, capped list of tab ids, most recent first.
type Tracker struct {
	mu   sync.Mutex
	ids  []tabs.TabID
	size int
}

// New returns a tracker holding at most size entries. A size below one
// keeps a single entry.
func New(size int) *Tracker {
	if size < 1 {
		size = 1
	}
	return &Tracker{size: size}
}

// Record moves id to the front, evicting the oldest entry past capacity.
func (t *Tracker) Record(id tabs.TabID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids = remove(t.ids, id)
	t.ids = append([]tabs.TabID{id}, t.ids...)
	if len(t.ids) > t.size {
		t.ids = t.ids[:t.size]
	}
}

func (t *Tracker) Remove(id tabs.TabID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids = remove(t.ids, id)
}

// Recent returns a copy of the list, most recent first.
func (t *Tracker) Recent() []tabs.TabID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]tabs.TabID(nil), t.ids...)
}

// Previous returns the most recent entry other than current.
func (t *Tracker) Previous(current tabs.TabID) (tabs.TabID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.ids {
		if id != current {
			return id, true
		}
	}
	return 0, false
}

func remove(ids []tabs.TabID, id tabs.TabID) []tabs.TabID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
