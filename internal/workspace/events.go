package workspace

import (
	"context"
	"fmt"

	"github.com/kobzarvs/tabshift/internal/tabs"
)

type EventKind int

const (
	EventOpened EventKind = iota
	EventClosed
	EventActivated
	EventMoved
	EventGrouped
	EventUngrouped
	EventPinned
	EventFocused
)

var eventNames = [...]string{
	EventOpened:    "opened",
	EventClosed:    "closed",
	EventActivated: "activated",
	EventMoved:     "moved",
	EventGrouped:   "grouped",
	EventUngrouped: "ungrouped",
	EventPinned:    "pinned",
	EventFocused:   "focused",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a change notification. Tab is 0 for window-level events on an
// empty window.
type Event struct {
	Kind   EventKind
	Tab    tabs.TabID
	Window tabs.WindowID
}

const subscriberBuffer = 64

// Subscribe returns a channel of events and a cancel function. Slow
// subscribers miss events rather than block mutations.
func (ws *Workspace) Subscribe() (<-chan Event, func()) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	id := ws.nextSub
	ws.nextSub++
	ch := make(chan Event, subscriberBuffer)
	ws.subs[id] = ch
	return ch, func() {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		if c, ok := ws.subs[id]; ok {
			delete(ws.subs, id)
			close(c)
		}
	}
}

// publish must be called with ws.mu held.
func (ws *Workspace) publish(ev Event) {
	for _, ch := range ws.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	key := waitKey{kind: ev.Kind, tab: ev.Tab}
	if fs, ok := ws.waiters[key]; ok {
		delete(ws.waiters, key)
		for _, f := range fs {
			f.resolve(ev)
		}
	}
}

type waitKey struct {
	kind EventKind
	tab  tabs.TabID
}

// Future resolves on the first event matching its kind and tab.
type Future struct {
	ws   *Workspace
	key  waitKey
	done chan struct{}
	ev   Event
}

// Expect registers interest in the next event of kind for tab. Register
// before triggering the change to avoid missing it.
func (ws *Workspace) Expect(kind EventKind, tab tabs.TabID) *Future {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	f := &Future{ws: ws, key: waitKey{kind: kind, tab: tab}, done: make(chan struct{})}
	ws.waiters[f.key] = append(ws.waiters[f.key], f)
	return f
}

func (f *Future) resolve(ev Event) {
	f.ev = ev
	close(f.done)
}

// Wait blocks until the event arrives or ctx ends. A cancelled future is
// unregistered.
func (f *Future) Wait(ctx context.Context) (Event, error) {
	select {
	case <-f.done:
		return f.ev, nil
	case <-ctx.Done():
	}
	f.ws.mu.Lock()
	defer f.ws.mu.Unlock()
	select {
	case <-f.done:
		return f.ev, nil
	default:
	}
	fs := f.ws.waiters[f.key]
	for i, w := range fs {
		if w == f {
			fs = append(fs[:i], fs[i+1:]...)
			break
		}
	}
	if len(fs) == 0 {
		delete(f.ws.waiters, f.key)
	} else {
		f.ws.waiters[f.key] = fs
	}
	return Event{}, ctx.Err()
}

// Await waits for the next event of kind for tab. Callers that trigger
// the change themselves should use Expect first.
func (ws *Workspace) Await(ctx context.Context, kind EventKind, tab tabs.TabID) (Event, error) {
	return ws.Expect(kind, tab).Wait(ctx)
}
