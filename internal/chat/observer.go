// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	"github.com/halcyonlabs/parley/internal/elicit"
	"github.com/halcyonlabs/parley/internal/sandbox"
)

// =============================================================================
// OBSERVER INTERFACE
// =============================================================================

// Observer receives turn progress notifications. Implementations must be
// fast or hand off to their own goroutine: callbacks run on the
// orchestrator's loop.
type Observer interface {
	// OnToken receives each text token as it streams, with no buffering
	// delay.
	OnToken(token string)

	// OnStateChange receives every state transition.
	OnStateChange(state State)

	// OnToolExecution receives execution status events.
	OnToolExecution(event ToolExecutionEvent)

	// OnWebview receives a prepared page when a tool result carries
	// renderable HTML.
	OnWebview(page *sandbox.Page)

	// OnElicitation receives pending input requests so the UI can present
	// them.
	OnElicitation(req elicit.Request)
}

// NopObserver is an Observer that ignores every notification. Embed it to
// implement only the callbacks of interest.
type NopObserver struct{}

func (NopObserver) OnToken(string)                    {}
func (NopObserver) OnStateChange(State)               {}
func (NopObserver) OnToolExecution(ToolExecutionEvent) {}
func (NopObserver) OnWebview(*sandbox.Page)           {}
func (NopObserver) OnElicitation(elicit.Request)      {}

// =============================================================================
// OBSERVER LIST
// =============================================================================

// Observers is a fan-out list with explicit subscription lifetime.
// Subscribe returns the unsubscribe function; dropping the function without
// calling it is the only way to leak a listener, which makes leaks visible
// at the call site instead of hidden inside an emitter.
type Observers struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Observer
}

// NewObservers creates an empty observer list.
func NewObservers() *Observers {
	return &Observers{
		subs: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns its unsubscribe function.
func (o *Observers) Subscribe(obs Observer) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = obs
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Len returns the number of subscribed observers.
func (o *Observers) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

// snapshot returns the current observers.
func (o *Observers) snapshot() []Observer {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]Observer, 0, len(o.subs))
	for _, obs := range o.subs {
		out = append(out, obs)
	}
	return out
}

func (o *Observers) OnToken(token string) {
	for _, obs := range o.snapshot() {
		obs.OnToken(token)
	}
}

func (o *Observers) OnStateChange(state State) {
	for _, obs := range o.snapshot() {
		obs.OnStateChange(state)
	}
}

func (o *Observers) OnToolExecution(event ToolExecutionEvent) {
	for _, obs := range o.snapshot() {
		obs.OnToolExecution(event)
	}
}

func (o *Observers) OnWebview(page *sandbox.Page) {
	for _, obs := range o.snapshot() {
		obs.OnWebview(page)
	}
}

func (o *Observers) OnElicitation(req elicit.Request) {
	for _, obs := range o.snapshot() {
		obs.OnElicitation(req)
	}
}
