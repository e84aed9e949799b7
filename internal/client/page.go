package client

import (
	"context"
	"sync"
)

// State is where a page's data is in its load cycle.
type State int

const (
	Idle State = iota
	Loading
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Page holds one screen's data: Idle → Loading → Success | Error.
// Reloading from Success or Error goes back through Loading. A failed reload
// keeps the previous data so the screen can still show it next to the error.
type Page[T any] struct {
	mu    sync.RWMutex
	state State
	data  T
	err   error
}

// Load runs fetch and records the outcome. It returns fetch's error.
func (p *Page[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	p.mu.Lock()
	p.state = Loading
	p.err = nil
	p.mu.Unlock()

	data, err := fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = Error
		p.err = err
		return err
	}
	p.state = Success
	p.data = data
	return nil
}

// Snapshot returns state, data and error consistently.
func (p *Page[T]) Snapshot() (State, T, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state, p.data, p.err
}

func (p *Page[T]) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Page[T]) Data() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

func (p *Page[T]) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Reset returns the page to Idle and drops its data.
func (p *Page[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero T
	p.state = Idle
	p.data = zero
	p.err = nil
}
