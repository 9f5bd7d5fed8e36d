package workspace_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kobzarvs/tabshift/internal/session"
	"github.com/kobzarvs/tabshift/internal/tabs"
	"github.com/kobzarvs/tabshift/internal/tabs/tabstest"
	"github.com/kobzarvs/tabshift/internal/workspace"
)

func load(t *testing.T, layouts ...string) *workspace.Workspace {
	t.Helper()
	ws, err := tabstest.Load(layouts...)
	if err != nil {
		t.Fatalf("Load(%q): %v", layouts, err)
	}
	return ws
}

func wantLayout(t *testing.T, ws *workspace.Workspace, win tabs.WindowID, want string) {
	t.Helper()
	if got := tabstest.Layout(ws, win); got != want {
		t.Fatalf("window %d = %q, want %q", win, got, want)
	}
}

func TestRestoreKeepsLayout(t *testing.T) {
	layout := "^P1 ^P2* g(A* B*) h!(C D*) E"
	ws := load(t, layout)
	wantLayout(t, ws, 1, layout)
	if got := ws.Windows(); !cmp.Equal(got, []tabs.WindowID{1}) {
		t.Fatalf("Windows = %v, want [1]", got)
	}
}

func TestMoveWithinWindow(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "^P1 g(A B) C")
	if err := ws.Move(ctx, []tabs.TabID{tabstest.Find(ws, "C")}, 1, 1); err != nil {
		t.Fatalf("Move: %v", err)
	}
	wantLayout(t, ws, 1, "^P1 C g(A B)")
}

func TestMoveRejectsBrokenStrip(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "^P1 g(A B) C")
	before := ws.Version()

	err := ws.Move(ctx, []tabs.TabID{tabstest.Find(ws, "C")}, 1, 2)
	if !errors.Is(err, workspace.ErrInvariant) {
		t.Fatalf("Move into group middle err = %v, want ErrInvariant", err)
	}
	err = ws.Move(ctx, []tabs.TabID{tabstest.Find(ws, "P1")}, 1, 2)
	if !errors.Is(err, workspace.ErrInvariant) {
		t.Fatalf("Move pinned past boundary err = %v, want ErrInvariant", err)
	}
	wantLayout(t, ws, 1, "^P1 g(A B) C")
	if ws.Version() != before {
		t.Fatalf("rejected moves bumped version")
	}
}

func TestMoveAcrossWindowsUnpinsAndUngroups(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "^P1 g(A B) C", "X")
	ids := []tabs.TabID{tabstest.Find(ws, "P1"), tabstest.Find(ws, "A")}
	if err := ws.Move(ctx, ids, 2, -1); err != nil {
		t.Fatalf("Move: %v", err)
	}
	wantLayout(t, ws, 1, "g(B) C")
	wantLayout(t, ws, 2, "X P1 A")
}

func TestEmptyWindowIsDropped(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "A", "X")
	if err := ws.Move(ctx, []tabs.TabID{tabstest.Find(ws, "A")}, 2, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := ws.Windows(); !cmp.Equal(got, []tabs.WindowID{2}) {
		t.Fatalf("Windows = %v, want [2]", got)
	}
	if ws.Focused() != 2 {
		t.Fatalf("Focused = %d, want 2", ws.Focused())
	}
}

func TestCloseWindow(t *testing.T) {
	ws := load(t, "A")
	if err := ws.CloseWindow(1); !errors.Is(err, workspace.ErrInvariant) {
		t.Fatalf("CloseWindow(1) err = %v, want ErrInvariant", err)
	}
	empty := ws.NewWindow()
	before := ws.Version()
	if err := ws.CloseWindow(empty); err != nil {
		t.Fatalf("CloseWindow(%d): %v", empty, err)
	}
	if got := ws.Windows(); !cmp.Equal(got, []tabs.WindowID{1}) {
		t.Fatalf("Windows = %v, want [1]", got)
	}
	if ws.Version() == before {
		t.Fatalf("Version did not change")
	}
	if err := ws.CloseWindow(empty); !errors.Is(err, workspace.ErrNotFound) {
		t.Fatalf("second CloseWindow err = %v, want ErrNotFound", err)
	}
}

func TestMoveGroupAcrossWindows(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "g!(A B) C", "^X Y")
	gid := tabstest.FindGroup(ws, "g")
	if err := ws.MoveGroup(ctx, gid, 2, -1); err != nil {
		t.Fatalf("MoveGroup: %v", err)
	}
	wantLayout(t, ws, 1, "C")
	wantLayout(t, ws, 2, "^X Y g!(A B)")
	gs, err := ws.Groups(ctx, 2)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(gs) != 1 || gs[0].ID != gid || gs[0].WindowID != 2 {
		t.Fatalf("groups of window 2 = %+v", gs)
	}
}

func TestAddToGroupGathers(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "X g(A B) C D")
	gid := tabstest.FindGroup(ws, "g")
	if err := ws.AddToGroup(ctx, []tabs.TabID{tabstest.Find(ws, "D")}, gid); err != nil {
		t.Fatalf("AddToGroup: %v", err)
	}
	wantLayout(t, ws, 1, "X g(A B D) C")
	if err := ws.AddToGroup(ctx, []tabs.TabID{tabstest.Find(ws, "X")}, gid); err != nil {
		t.Fatalf("AddToGroup adjacent: %v", err)
	}
	wantLayout(t, ws, 1, "g(X A B D) C")
}

func TestAddToGroupRejectsPinned(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "^P g(A)")
	err := ws.AddToGroup(ctx, []tabs.TabID{tabstest.Find(ws, "P")}, tabstest.FindGroup(ws, "g"))
	if !errors.Is(err, workspace.ErrInvariant) {
		t.Fatalf("err = %v, want ErrInvariant", err)
	}
}

func TestRemoveFromGroup(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "g(A B C) D")
	if err := ws.RemoveFromGroup(ctx, []tabs.TabID{tabstest.Find(ws, "C")}); err != nil {
		t.Fatalf("RemoveFromGroup edge: %v", err)
	}
	wantLayout(t, ws, 1, "g(A B) C D")
	if err := ws.RemoveFromGroup(ctx, []tabs.TabID{tabstest.Find(ws, "A")}); err != nil {
		t.Fatalf("RemoveFromGroup edge: %v", err)
	}
	wantLayout(t, ws, 1, "A g(B) C D")
}

func TestRemoveFromGroupEjectsMiddle(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "g(A B C) D")
	if err := ws.RemoveFromGroup(ctx, []tabs.TabID{tabstest.Find(ws, "B")}); err != nil {
		t.Fatalf("RemoveFromGroup: %v", err)
	}
	wantLayout(t, ws, 1, "g(A C) B D")
}

func TestRemoveLastMemberDropsGroup(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "g(A) B")
	if err := ws.RemoveFromGroup(ctx, []tabs.TabID{tabstest.Find(ws, "A")}); err != nil {
		t.Fatalf("RemoveFromGroup: %v", err)
	}
	gs, _ := ws.Groups(ctx, 1)
	if len(gs) != 0 {
		t.Fatalf("groups = %+v, want none", gs)
	}
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "^P A g(B C) D")
	ids := []tabs.TabID{tabstest.Find(ws, "P"), tabstest.Find(ws, "D")}
	if _, err := ws.CreateGroup(ctx, ids, "n", "red"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	wantLayout(t, ws, 1, "n(P D) A g(B C)")

	ws = load(t, "A g(B C) D")
	ids = []tabs.TabID{tabstest.Find(ws, "C"), tabstest.Find(ws, "D")}
	if _, err := ws.CreateGroup(ctx, ids, "n", ""); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	wantLayout(t, ws, 1, "A g(B) n(C D)")
}

func TestSetPinned(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "^P g(A B) C")
	if err := ws.SetPinned(ctx, tabstest.Find(ws, "C"), true); err != nil {
		t.Fatalf("SetPinned: %v", err)
	}
	wantLayout(t, ws, 1, "^P ^C g(A B)")
	if err := ws.SetPinned(ctx, tabstest.Find(ws, "A"), true); err != nil {
		t.Fatalf("SetPinned grouped: %v", err)
	}
	wantLayout(t, ws, 1, "^P ^C ^A g(B)")
	if err := ws.SetPinned(ctx, tabstest.Find(ws, "P"), false); err != nil {
		t.Fatalf("SetPinned unpin: %v", err)
	}
	wantLayout(t, ws, 1, "^C ^A P g(B)")
}

func TestSetSelection(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "A* B C")
	if err := ws.SetSelection(ctx, 1, []int{1, 2}); err != nil {
		t.Fatalf("SetSelection: %v", err)
	}
	wantLayout(t, ws, 1, "A B* C*")
	if err := ws.SetSelection(ctx, 1, []int{3}); !errors.Is(err, workspace.ErrNotFound) {
		t.Fatalf("SetSelection out of range err = %v, want ErrNotFound", err)
	}
}

func TestCloseTabMovesActive(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "A B")
	a := tabstest.Find(ws, "A")
	if ws.Active(1) != a {
		t.Fatalf("Active = %d, want %d", ws.Active(1), a)
	}
	if err := ws.CloseTab(ctx, a); err != nil {
		t.Fatalf("CloseTab: %v", err)
	}
	if got, want := ws.Active(1), tabstest.Find(ws, "B"); got != want {
		t.Fatalf("Active = %d, want %d", got, want)
	}
	if err := ws.CloseTab(ctx, a); !errors.Is(err, workspace.ErrNotFound) {
		t.Fatalf("second CloseTab err = %v, want ErrNotFound", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ws := load(t, "A")
	if err := ws.Move(ctx, []tabs.TabID{1}, 1, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	ws := workspace.New()
	events, cancel := ws.Subscribe()
	win := ws.NewWindow()
	id, err := ws.OpenTab(ctx, win, "a", "/a")
	if err != nil {
		t.Fatalf("OpenTab: %v", err)
	}
	if err := ws.Activate(ctx, id); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	want := []workspace.Event{
		{Kind: workspace.EventOpened, Tab: id, Window: win},
		{Kind: workspace.EventActivated, Tab: id, Window: win},
	}
	for _, w := range want {
		select {
		case got := <-events:
			if got != w {
				t.Fatalf("event = %+v, want %+v", got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %+v", w)
		}
	}
	cancel()
	if _, ok := <-events; ok {
		t.Fatalf("channel still open after cancel")
	}
	cancel()
}

func TestExpectResolvesOnce(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "A B")
	b := tabstest.Find(ws, "B")
	fut := ws.Expect(workspace.EventActivated, b)
	if err := ws.Activate(ctx, b); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	ev, err := fut.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ev.Tab != b || ev.Kind != workspace.EventActivated {
		t.Fatalf("event = %+v", ev)
	}
	// a resolved future keeps its value
	if again, err := fut.Wait(ctx); err != nil || again != ev {
		t.Fatalf("second Wait = %+v, %v", again, err)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	ws := load(t, "A B")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := ws.Await(ctx, workspace.EventActivated, tabstest.Find(ws, "B"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	ws := load(t, "^P g!(A B) C", "h(X) Y")
	if err := ws.FocusWindow(ctx, 2); err != nil {
		t.Fatalf("FocusWindow: %v", err)
	}
	st := ws.State()

	restored := workspace.New()
	if err := restored.Restore(ctx, st); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	wantLayout(t, restored, 1, "^P g!(A B) C")
	wantLayout(t, restored, 2, "h(X) Y")
	if restored.Focused() != 2 {
		t.Fatalf("Focused = %d, want 2", restored.Focused())
	}
	if diff := cmp.Diff(st, restored.State()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreRejectsBrokenState(t *testing.T) {
	st := session.State{Windows: []session.WindowState{{
		Tabs: []session.TabState{
			{Title: "A", Group: 1},
			{Title: "B"},
			{Title: "C", Group: 1},
		},
		Groups: []session.GroupState{{Title: "g"}},
	}}}
	ws := workspace.New()
	err := ws.Restore(context.Background(), st)
	if !errors.Is(err, workspace.ErrInvariant) {
		t.Fatalf("err = %v, want ErrInvariant", err)
	}
	if len(ws.Windows()) != 0 {
		t.Fatalf("windows = %v, want none", ws.Windows())
	}
}
