package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kobzarvs/tabshift/internal/config"
	"github.com/kobzarvs/tabshift/internal/gitinfo"
	"github.com/kobzarvs/tabshift/internal/mru"
	"github.com/kobzarvs/tabshift/internal/tabs"
	"github.com/kobzarvs/tabshift/internal/tabs/tabstest"
	"github.com/kobzarvs/tabshift/internal/workspace"
)

func newHandler(t *testing.T, layouts ...string) (*Handler, *workspace.Workspace) {
	t.Helper()
	ws, err := tabstest.Load(layouts...)
	if err != nil {
		t.Fatalf("Load(%q): %v", layouts, err)
	}
	return NewHandler(ws, mru.New(8), config.Default()), ws
}

func runCommand(t *testing.T, h *Handler, name string) string {
	t.Helper()
	status, err := h.Run(context.Background(), name)
	if err != nil {
		t.Fatalf("Run(%s): %v", name, err)
	}
	return status
}

func wantLayout(t *testing.T, ws *workspace.Workspace, win tabs.WindowID, want string) {
	t.Helper()
	if got := tabstest.Layout(ws, win); got != want {
		t.Fatalf("window %d = %q, want %q", win, got, want)
	}
}

func TestMoveCommands(t *testing.T) {
	tests := []struct {
		cmd    string
		layout string
		want   string
	}{
		{MoveRight, "^P1 g(A* B*) C", "^P1 C g(A* B*)"},
		{MoveLeft, "A B* C*", "B* C* A"},
		{MoveHome, "^P1 ^P2 X g(A* B*) Y", "^P1 ^P2 g(A* B*) X Y"},
		{MoveEnd, "A* B C", "B C A*"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			h, ws := newHandler(t, tt.layout)
			runCommand(t, h, tt.cmd)
			wantLayout(t, ws, 1, tt.want)
		})
	}
}

func TestMoveUsesActiveTabWithoutSelection(t *testing.T) {
	h, ws := newHandler(t, "A B C")
	runCommand(t, h, MoveRight)
	wantLayout(t, ws, 1, "B A C")
}

func TestMoveAtBoundaryReportsNothing(t *testing.T) {
	h, ws := newHandler(t, "A B*")
	if got := runCommand(t, h, MoveRight); got != "nothing to move" {
		t.Fatalf("status = %q, want %q", got, "nothing to move")
	}
	wantLayout(t, ws, 1, "A B*")
}

func TestMoveNewWindow(t *testing.T) {
	h, ws := newHandler(t, "^P* A* B")
	runCommand(t, h, MoveNewWindow)
	if got := ws.Windows(); !cmp.Equal(got, []tabs.WindowID{1, 2}) {
		t.Fatalf("Windows = %v, want [1 2]", got)
	}
	wantLayout(t, ws, 1, "B")
	wantLayout(t, ws, 2, "^P* A*")
	if ws.Focused() != 2 {
		t.Fatalf("Focused = %d, want 2", ws.Focused())
	}
}

func TestMoveNewWindowDropsUnusedWindow(t *testing.T) {
	ws := workspace.New()
	ws.NewWindow()
	h := NewHandler(ws, mru.New(8), config.Default())
	if got := runCommand(t, h, MoveNewWindow); got != "nothing to move" {
		t.Fatalf("status = %q, want %q", got, "nothing to move")
	}
	if got := ws.Windows(); !cmp.Equal(got, []tabs.WindowID{1}) {
		t.Fatalf("Windows = %v, want [1]", got)
	}
	if ws.Focused() != 1 {
		t.Fatalf("Focused = %d, want 1", ws.Focused())
	}
}

func TestMoveNextWindow(t *testing.T) {
	h, ws := newHandler(t, "A* g(B* C*) D", "X")
	runCommand(t, h, MoveNextWindow)
	wantLayout(t, ws, 1, "D")
	wantLayout(t, ws, 2, "X A* g(B* C*)")

	single, _ := newHandler(t, "A*")
	if got := runCommand(t, single, MoveNextWindow); got != "no other window" {
		t.Fatalf("status = %q, want %q", got, "no other window")
	}
}

func TestSelectionCommands(t *testing.T) {
	ctx := context.Background()
	h, ws := newHandler(t, "A g(B C) D")
	runCommand(t, h, ToggleSelect)
	wantLayout(t, ws, 1, "A* g(B C) D")
	runCommand(t, h, ToggleSelect)
	wantLayout(t, ws, 1, "A g(B C) D")

	if err := ws.Activate(ctx, tabstest.Find(ws, "C")); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	runCommand(t, h, SelectGroup)
	wantLayout(t, ws, 1, "A g(B* C*) D")
	runCommand(t, h, SelectNone)
	wantLayout(t, ws, 1, "A g(B C) D")
}

func TestPinTogglesAndKeepsOrder(t *testing.T) {
	h, ws := newHandler(t, "^P A* g(B*) C")
	runCommand(t, h, Pin)
	wantLayout(t, ws, 1, "^P ^A* ^B* C")
	runCommand(t, h, Pin)
	wantLayout(t, ws, 1, "^P A* B* C")
}

func TestGroupAndUngroupSelected(t *testing.T) {
	ctx := context.Background()
	h, ws := newHandler(t, "A* B C* D")
	runCommand(t, h, GroupSelected)
	gs, _ := ws.Groups(ctx, 1)
	if len(gs) != 1 {
		t.Fatalf("groups = %+v, want one", gs)
	}
	wantLayout(t, ws, 1, fmt.Sprintf("g%d(A* C*) B D", gs[0].ID))

	runCommand(t, h, UngroupSelected)
	wantLayout(t, ws, 1, "A* C* B D")
}

func TestToggleCollapse(t *testing.T) {
	ctx := context.Background()
	h, ws := newHandler(t, "A g(B C)")
	if got := runCommand(t, h, ToggleCollapse); got != "active tab is not grouped" {
		t.Fatalf("status = %q", got)
	}
	if err := ws.Activate(ctx, tabstest.Find(ws, "B")); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	runCommand(t, h, ToggleCollapse)
	wantLayout(t, ws, 1, "A g!(B C)")
	runCommand(t, h, ToggleCollapse)
	wantLayout(t, ws, 1, "A g(B C)")
}

func openTabs(t *testing.T, ws *workspace.Workspace, paths ...string) tabs.WindowID {
	t.Helper()
	win := ws.NewWindow()
	for _, p := range paths {
		if _, err := ws.OpenTab(context.Background(), win, filepath.Base(p), p); err != nil {
			t.Fatalf("OpenTab: %v", err)
		}
	}
	return win
}

func TestGroupByRule(t *testing.T) {
	ws := workspace.New()
	win := openTabs(t, ws, "/r/main.go", "/r/README.md", "/r/util.go", "/r/notes.txt", "/r/image.png")
	h := NewHandler(ws, mru.New(8), config.Default())
	runCommand(t, h, GroupByRule)
	wantLayout(t, ws, win, "go(main.go util.go) docs(README.md notes.txt) image.png")

	// a later tab joins the existing group
	if _, err := ws.OpenTab(context.Background(), win, "x.go", "/r/x.go"); err != nil {
		t.Fatalf("OpenTab: %v", err)
	}
	runCommand(t, h, GroupByRule)
	wantLayout(t, ws, win, "go(main.go util.go x.go) docs(README.md notes.txt) image.png")
}

func TestGroupByRepo(t *testing.T) {
	ws := workspace.New()
	win := openTabs(t, ws, "/a/x.go", "/b/y.go", "/a/z.go", "/tmp/loose")
	h := NewHandler(ws, mru.New(8), config.Default())
	h.repo = func(path string) (gitinfo.Repo, bool) {
		switch filepath.Dir(path) {
		case "/a":
			return gitinfo.Repo{Root: "/a", Branch: "main"}, true
		case "/b":
			return gitinfo.Repo{Root: "/b", Branch: "dev"}, true
		}
		return gitinfo.Repo{}, false
	}
	runCommand(t, h, GroupByRepo)
	wantLayout(t, ws, win, "a@main(x.go z.go) y.go loose")
}

func TestFocusRecent(t *testing.T) {
	ctx := context.Background()
	h, ws := newHandler(t, "A B C")
	a, c := tabstest.Find(ws, "A"), tabstest.Find(ws, "C")
	h.recent.Record(c)
	h.recent.Record(a)
	if got := runCommand(t, h, FocusRecent); got == "no recent tab" {
		t.Fatalf("status = %q", got)
	}
	if ws.Active(1) != c {
		t.Fatalf("Active = %d, want %d", ws.Active(1), c)
	}

	// closed tabs are skipped and forgotten
	if err := ws.CloseTab(ctx, a); err != nil {
		t.Fatalf("CloseTab: %v", err)
	}
	h.recent.Record(c)
	h.recent.Record(a)
	if got := runCommand(t, h, FocusRecent); got != "no recent tab" {
		t.Fatalf("status = %q, want %q", got, "no recent tab")
	}
	if diff := cmp.Diff([]tabs.TabID{c}, h.recent.Recent()); diff != "" {
		t.Fatalf("recent (-want +got):\n%s", diff)
	}
}

func TestTabNavigationSkipsCollapsed(t *testing.T) {
	h, ws := newHandler(t, "A g!(B C) D")
	runCommand(t, h, TabRight)
	if got, want := ws.Active(1), tabstest.Find(ws, "D"); got != want {
		t.Fatalf("Active = %d, want %d", got, want)
	}
	runCommand(t, h, TabLeft)
	if got, want := ws.Active(1), tabstest.Find(ws, "A"); got != want {
		t.Fatalf("Active = %d, want %d", got, want)
	}
}

func TestWindowCommands(t *testing.T) {
	h, ws := newHandler(t, "A")
	runCommand(t, h, NewWindow)
	if ws.Focused() != 2 {
		t.Fatalf("Focused = %d, want 2", ws.Focused())
	}
	wantLayout(t, ws, 2, "new tab")
	runCommand(t, h, WindowNext)
	if ws.Focused() != 1 {
		t.Fatalf("Focused = %d, want 1", ws.Focused())
	}
	runCommand(t, h, WindowPrev)
	if ws.Focused() != 2 {
		t.Fatalf("Focused = %d, want 2", ws.Focused())
	}
	runCommand(t, h, CloseTab)
	if got := ws.Windows(); !cmp.Equal(got, []tabs.WindowID{1}) {
		t.Fatalf("Windows = %v, want [1]", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	h, _ := newHandler(t, "A")
	if _, err := h.Run(context.Background(), "fly"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("err = %v, want ErrUnknownCommand", err)
	}
	if len(h.Names()) != 22 {
		t.Fatalf("Names = %v", h.Names())
	}
}
