package screen

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned by a Checkpoint once the run has been cancelled.
var ErrCancelled = errors.New("screening cancelled")

// Checkpoint is polled by the runner before each instrument. Wait blocks
// while the run is paused and returns an error once it is cancelled.
type Checkpoint interface {
	Wait(ctx context.Context) error
}

// contextCheckpoint only observes ctx.
type contextCheckpoint struct{}

func (contextCheckpoint) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Gate is a Checkpoint controlled from outside the run: Pause holds the
// runner at the next instrument boundary until Resume or Cancel.
type Gate struct {
	mu        sync.Mutex
	paused    bool
	cancelled bool
	resume    chan struct{}
}

// NewGate creates an open gate.
func NewGate() *Gate {
	return &Gate{resume: make(chan struct{})}
}

// Pause holds runners at their next checkpoint.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = true
}

// Resume releases paused runners.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return
	}
	g.paused = false
	close(g.resume)
	g.resume = make(chan struct{})
}

// Cancel makes every later Wait fail. It cannot be undone.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelled {
		return
	}
	g.cancelled = true
	close(g.resume)
	g.resume = make(chan struct{})
}

// Paused reports whether the gate is paused.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait returns nil when the gate is open, blocks while it is paused and
// returns ErrCancelled after Cancel.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.cancelled {
			g.mu.Unlock()
			return ErrCancelled
		}
		if !g.paused {
			g.mu.Unlock()
			return ctx.Err()
		}
		ch := g.resume
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}
