// Package command executes rearrangement plans against a host and maps
// named user commands onto the planners.
package command

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kobzarvs/tabshift/internal/logger"
	"github.com/kobzarvs/tabshift/internal/rearrange"
	"github.com/kobzarvs/tabshift/internal/tabs"
)

var ErrHostOperation = errors.New("host operation failed")

// Host is the mutation and query surface a plan is executed against.
type Host interface {
	Tabs(ctx context.Context, win tabs.WindowID) ([]tabs.Tab, error)
	Move(ctx context.Context, ids []tabs.TabID, win tabs.WindowID, index int) error
	MoveGroup(ctx context.Context, gid tabs.GroupID, win tabs.WindowID, index int) error
	AddToGroup(ctx context.Context, ids []tabs.TabID, gid tabs.GroupID) error
	RemoveFromGroup(ctx context.Context, ids []tabs.TabID) error
	SetPinned(ctx context.Context, id tabs.TabID, pinned bool) error
	FocusWindow(ctx context.Context, win tabs.WindowID) error
	SetSelection(ctx context.Context, win tabs.WindowID, positions []int) error
}

// OpError reports the operation that failed. It matches both
// ErrHostOperation and the host's own error.
type OpError struct {
	Op  rearrange.Op
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrHostOperation, e.Op, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{ErrHostOperation, e.Err}
}

// Execute runs plan phase by phase. Ops within a phase run concurrently
// and are all awaited before the next phase starts. The first failure
// stops execution; completed ops are not rolled back.
func Execute(ctx context.Context, host Host, plan rearrange.Plan) error {
	for _, phase := range plan.Phases() {
		g, gctx := errgroup.WithContext(ctx)
		for _, op := range phase {
			g.Go(func() error {
				if err := run(gctx, host, op); err != nil {
					return &OpError{Op: op, Err: err}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logger.Warn("plan aborted", "window", plan.Window, "err", err)
			return err
		}
	}
	return nil
}

func run(ctx context.Context, host Host, op rearrange.Op) error {
	switch op.Kind {
	case rearrange.OpMove:
		return host.Move(ctx, op.Tabs, op.Window, op.Index)
	case rearrange.OpMoveGroup:
		return host.MoveGroup(ctx, op.Group, op.Window, op.Index)
	case rearrange.OpAddToGroup:
		return host.AddToGroup(ctx, op.Tabs, op.Group)
	case rearrange.OpRemoveFromGroup:
		return host.RemoveFromGroup(ctx, op.Tabs)
	case rearrange.OpSetPinned:
		for _, id := range op.Tabs {
			if err := host.SetPinned(ctx, id, op.Pinned); err != nil {
				return err
			}
		}
		return nil
	case rearrange.OpFocusWindow:
		return host.FocusWindow(ctx, op.Window)
	case rearrange.OpSelect:
		return selectByID(ctx, host, op.Window, op.Tabs)
	default:
		return fmt.Errorf("unknown op kind %v", op.Kind)
	}
}

// selectByID maps tab identities to their current positions in win.
// Ids no longer in win are ignored.
func selectByID(ctx context.Context, host Host, win tabs.WindowID, ids []tabs.TabID) error {
	strip, err := host.Tabs(ctx, win)
	if err != nil {
		return err
	}
	want := make(map[tabs.TabID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	positions := make([]int, 0, len(ids))
	for _, t := range strip {
		if want[t.ID] {
			positions = append(positions, t.Index)
		}
	}
	return host.SetSelection(ctx, win, positions)
}
