package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/kobzarvs/tabshift/internal/config"
	"github.com/kobzarvs/tabshift/internal/session"
	"github.com/kobzarvs/tabshift/internal/tabs"
	"github.com/kobzarvs/tabshift/internal/tabs/tabstest"
	"github.com/kobzarvs/tabshift/internal/ui"
)

func newApp(t *testing.T, path string, args ...string) *App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	sm := session.Open(path, time.Hour)
	t.Cleanup(func() {
		cancel()
		_ = sm.Stop()
	})
	a := New(args)
	if err := a.setup(ctx, config.Default(), sm); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return a
}

func TestSetupOpensArguments(t *testing.T) {
	dir := t.TempDir()
	a := newApp(t, filepath.Join(dir, "session.json"),
		filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go"), filepath.Join(dir, "a.go"))

	if got := tabstest.Layout(a.ws, 1); got != "a.go b.go" {
		t.Fatalf("layout = %q, want %q", got, "a.go b.go")
	}
	if got, want := a.ws.Active(1), tabstest.Find(a.ws, "a.go"); got != want {
		t.Fatalf("Active = %d, want %d", got, want)
	}
	st := a.sessions.State()
	if len(st.Windows) != 1 || len(st.Windows[0].Tabs) != 2 {
		t.Fatalf("session state = %+v", st)
	}
}

func TestSetupWithoutArgumentsOpensBlankTab(t *testing.T) {
	a := newApp(t, filepath.Join(t.TempDir(), "session.json"))
	if got := tabstest.Layout(a.ws, 1); got != "new tab" {
		t.Fatalf("layout = %q", got)
	}
}

func TestSetupRestoresSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	prev := session.Open(path, time.Hour)
	prev.SetState(session.State{
		Windows: []session.WindowState{{
			Tabs: []session.TabState{
				{Title: "x", Path: "/p/x", Pinned: true},
				{Title: "y", Path: "/p/y", Group: 1, Active: true},
				{Title: "z", Path: "/p/z", Group: 1},
			},
			Groups: []session.GroupState{{Title: "g", Collapsed: true}},
		}},
		Recent: []string{"/p/x", "/p/z", "/gone"},
	})
	if err := prev.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	a := newApp(t, path)
	if got := tabstest.Layout(a.ws, 1); got != "^x g!(y z)" {
		t.Fatalf("layout = %q", got)
	}
	y := tabstest.Find(a.ws, "y")
	want := []tabs.TabID{y, tabstest.Find(a.ws, "x"), tabstest.Find(a.ws, "z")}
	if diff := cmp.Diff(want, a.recent.Recent()); diff != "" {
		t.Fatalf("recent (-want +got):\n%s", diff)
	}
}

func TestSetupDiscardsBrokenSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	prev := session.Open(path, time.Hour)
	prev.SetState(session.State{Windows: []session.WindowState{{
		Tabs: []session.TabState{{Title: "x", Group: 3}},
	}}})
	if err := prev.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	a := newApp(t, path)
	if got := tabstest.Layout(a.ws, 1); got != "new tab" {
		t.Fatalf("layout = %q", got)
	}
}

func TestLoopDispatchesKeys(t *testing.T) {
	dir := t.TempDir()
	a := newApp(t, filepath.Join(dir, "session.json"),
		filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go"), filepath.Join(dir, "c.go"))

	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	defer s.Fini()
	s.SetSize(60, 5)

	s.InjectKey(tcell.KeyRune, 'h', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'L', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	if err := a.loop(context.Background(), s); err != nil {
		t.Fatalf("loop: %v", err)
	}

	if got := tabstest.Layout(a.ws, 1); got != "a.go c.go b.go" {
		t.Fatalf("layout = %q, want %q", got, "a.go c.go b.go")
	}
	if got := a.view.Status(); got != "moved 1 tab(s)" {
		t.Fatalf("status = %q", got)
	}
	st := a.sessions.State()
	var titles []string
	for _, ts := range st.Windows[0].Tabs {
		titles = append(titles, ts.Title)
	}
	if diff := cmp.Diff([]string{"a.go", "c.go", "b.go"}, titles); diff != "" {
		t.Fatalf("saved order (-want +got):\n%s", diff)
	}
}

func TestRunReportsFailures(t *testing.T) {
	a := newApp(t, filepath.Join(t.TempDir(), "session.json"))
	if got := a.run(context.Background(), "fly"); got != "unknown command fly" {
		t.Fatalf("status = %q", got)
	}
}

func TestDefaultKeymapNamesCommands(t *testing.T) {
	a := newApp(t, filepath.Join(t.TempDir(), "session.json"))
	known := map[string]bool{ui.Quit: true}
	for _, name := range a.handler.Names() {
		known[name] = true
	}
	for key, name := range config.Default().Keymap {
		if !known[name] {
			t.Fatalf("key %q is bound to unknown command %q", key, name)
		}
	}
}
