package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/tabshift/internal/command"
	"github.com/kobzarvs/tabshift/internal/config"
	"github.com/kobzarvs/tabshift/internal/logger"
	"github.com/kobzarvs/tabshift/internal/mru"
	"github.com/kobzarvs/tabshift/internal/rearrange"
	"github.com/kobzarvs/tabshift/internal/session"
	"github.com/kobzarvs/tabshift/internal/tabs"
	"github.com/kobzarvs/tabshift/internal/ui"
	"github.com/kobzarvs/tabshift/internal/workspace"
)

// App is the top-level runtime for tabshift.
type App struct {
	args     []string
	ws       *workspace.Workspace
	recent   *mru.Tracker
	handler  *command.Handler
	view     *ui.View
	sessions *session.Manager
	saved    uint64
}

func New(args []string) *App {
	return &App{args: args}
}

func (a *App) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Strip.Debug); err != nil {
		return err
	}
	defer logger.Close()

	sm, err := session.NewManager()
	if err != nil {
		return err
	}
	defer func() {
		if err := sm.Stop(); err != nil {
			logger.Error("saving session", "path", sm.Path(), "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.setup(ctx, cfg, sm); err != nil {
		return err
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()
	return a.loop(ctx, s)
}

// setup restores the saved session, opens the argument paths and starts
// feeding activation events into the MRU tracker. The tracker stops when
// ctx is cancelled.
func (a *App) setup(ctx context.Context, cfg config.Config, sm *session.Manager) error {
	a.sessions = sm
	a.ws = workspace.New()
	a.recent = mru.New(cfg.Strip.MRUSize)

	events, unsubscribe := a.ws.Subscribe()
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	go a.track(events)

	st := sm.State()
	if err := a.ws.Restore(ctx, st); err != nil {
		if !errors.Is(err, workspace.ErrInvariant) {
			return err
		}
		logger.Warn("discarding saved session", "path", sm.Path(), "err", err)
	}
	a.restoreRecent(ctx, st.Recent)

	for _, arg := range a.args {
		if err := a.open(ctx, arg); err != nil {
			return err
		}
	}
	if len(a.ws.Windows()) == 0 {
		win := a.ws.NewWindow()
		if _, err := a.ws.OpenTab(ctx, win, "new tab", ""); err != nil {
			return err
		}
	}
	if active := a.ws.Active(a.ws.Focused()); active != 0 {
		a.recent.Record(active)
	}

	a.handler = command.NewHandler(a.ws, a.recent, cfg)
	a.view = ui.New(a.ws, cfg)
	a.save()
	logger.Info("workspace ready", "windows", len(a.ws.Windows()), "args", len(a.args))
	return nil
}

// open adds path as a tab of the focused window, or activates the tab
// already showing it.
func (a *App) open(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, win := range a.ws.Windows() {
		ts, err := a.ws.Tabs(ctx, win)
		if err != nil {
			return err
		}
		for _, t := range ts {
			if t.Path == abs {
				return a.ws.Activate(ctx, t.ID)
			}
		}
	}
	win := a.ws.Focused()
	if win == 0 {
		win = a.ws.NewWindow()
	}
	id, err := a.ws.OpenTab(ctx, win, filepath.Base(abs), abs)
	if err != nil {
		return err
	}
	return a.ws.Activate(ctx, id)
}

func (a *App) track(events <-chan workspace.Event) {
	for ev := range events {
		switch ev.Kind {
		case workspace.EventActivated:
			a.recent.Record(ev.Tab)
		case workspace.EventClosed:
			a.recent.Remove(ev.Tab)
		}
	}
}

// restoreRecent seeds the tracker from saved paths, oldest first.
func (a *App) restoreRecent(ctx context.Context, paths []string) {
	byPath := make(map[string]tabs.TabID)
	for _, win := range a.ws.Windows() {
		ts, err := a.ws.Tabs(ctx, win)
		if err != nil {
			continue
		}
		for _, t := range ts {
			if t.Path != "" {
				byPath[t.Path] = t.ID
			}
		}
	}
	for i := len(paths) - 1; i >= 0; i-- {
		if id, ok := byPath[paths[i]]; ok {
			a.recent.Record(id)
		}
	}
}

// save hands the current arrangement to the session manager when the
// workspace changed since the last call.
func (a *App) save() {
	v := a.ws.Version()
	if v == a.saved && a.saved != 0 {
		return
	}
	a.saved = v
	st := a.ws.State()
	st.Recent = a.recentPaths()
	a.sessions.SetState(st)
}

func (a *App) recentPaths() []string {
	byID := make(map[tabs.TabID]string)
	for _, win := range a.ws.Windows() {
		ts, err := a.ws.Tabs(context.Background(), win)
		if err != nil {
			continue
		}
		for _, t := range ts {
			byID[t.ID] = t.Path
		}
	}
	var out []string
	for _, id := range a.recent.Recent() {
		if p := byID[id]; p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (a *App) loop(ctx context.Context, s tcell.Screen) error {
	a.view.Render(s)
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			name, ok := a.view.Command(ev)
			if !ok {
				a.view.SetStatus("unbound key " + ui.KeyString(ev))
				break
			}
			if name == ui.Quit {
				a.save()
				return nil
			}
			a.view.SetStatus(a.run(ctx, name))
			a.save()
		case *tcell.EventResize:
			s.Sync()
		}
		a.view.Render(s)
	}
}

// run executes a command and turns failures into a short notification.
// Details go to the log.
func (a *App) run(ctx context.Context, name string) string {
	status, err := a.handler.Run(ctx, name)
	switch {
	case err == nil:
		return status
	case errors.Is(err, rearrange.ErrInvalidSelection):
		return "selection changed, try again"
	case errors.Is(err, command.ErrUnknownCommand):
		return "unknown command " + name
	}
	logger.Error("command", "command", name, "err", err)
	return name + " failed"
}
