package game

import (
	"context"
	"errors"

	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// ErrStopped is returned by Loop.Do once Run has returned.
var ErrStopped = errors.New("game loop stopped")

// Loop runs an Engine on a single goroutine. Clock ticks and commands from
// other goroutines are handled one at a time, so a tick never overlaps
// another tick or a command.
type Loop struct {
	engine  *Engine
	cmds    chan func(*Engine)
	stopped chan struct{}
}

func NewLoop(e *Engine) *Loop {
	return &Loop{
		engine:  e,
		cmds:    make(chan func(*Engine)),
		stopped: make(chan struct{}),
	}
}

// Run announces readiness and then serves ticks and commands until ctx is
// cancelled. The clock is stopped on return.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	e := l.engine
	defer e.Clock().Stop()

	e.Ready()
	for {
		select {
		case <-ctx.Done():
			glog.Infof("game loop exiting: %v", ctx.Err())
			return ctx.Err()
		case <-e.Clock().C():
			e.Tick()
		case fn := <-l.cmds:
			fn(e)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*Engine)) error {
	done := make(chan struct{})
	cmd := func(e *Engine) {
		defer close(done)
		fn(e)
	}
	select {
	case l.cmds <- cmd:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Start(ctx context.Context) error {
	return l.Do(ctx, (*Engine).Start)
}

func (l *Loop) Restart(ctx context.Context) error {
	return l.Do(ctx, (*Engine).Restart)
}

func (l *Loop) Input(ctx context.Context, key string) error {
	return l.Do(ctx, func(e *Engine) { e.Input(key) })
}

func (l *Loop) Chord(ctx context.Context, keys []string) error {
	var err error
	if doErr := l.Do(ctx, func(e *Engine) { err = e.Chord(keys) }); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot returns a copy of the engine state.
func (l *Loop) Snapshot(ctx context.Context) (structs.GameState, error) {
	var st structs.GameState
	err := l.Do(ctx, func(e *Engine) { st = e.State() })
	return st, err
}
