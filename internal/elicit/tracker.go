// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package elicit

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultTTL is how long a request stays valid after creation.
const DefaultTTL = 5 * time.Minute

// DefaultSweepInterval is how often expired requests are purged.
const DefaultSweepInterval = 1 * time.Minute

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned for unknown request IDs.
	ErrNotFound = errors.New("elicitation request not found")

	// ErrExpired is returned for requests past their expiry.
	ErrExpired = errors.New("elicitation request expired")

	// ErrAlreadyUsed is returned when a request was already consumed.
	ErrAlreadyUsed = errors.New("elicitation request already used")
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Mode selects how the user supplies the requested data.
type Mode string

const (
	// ModeForm renders an inline schema-driven form. Permitted only for
	// non-sensitive data.
	ModeForm Mode = "form"

	// ModeURL redirects the user to an out-of-band, provider-controlled
	// destination. Required for credential/payment/secret collection.
	ModeURL Mode = "url"
)

// Request is a single tracked elicitation request.
type Request struct {
	ID         string
	ProviderID string
	Schema     map[string]interface{}
	Mode       Mode
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Used       bool
}

// Response is the user-supplied data for a request, delivered directly to
// the originating provider.
type Response struct {
	RequestID string
	Data      map[string]interface{}

	// Cancelled indicates the user dismissed the request without answering.
	Cancelled bool
}

// =============================================================================
// TRACKER
// =============================================================================

// Config holds configuration for the tracker.
type Config struct {
	// TTL is the request lifetime (default: 5 minutes)
	TTL time.Duration

	// SweepInterval is how often expired entries are purged (default: 1 minute)
	SweepInterval time.Duration
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		TTL:           DefaultTTL,
		SweepInterval: DefaultSweepInterval,
	}
}

// Tracker manages the create/validate/consume lifecycle of elicitation
// requests. It is an explicitly constructed instance shared by reference,
// never ambient global state. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	requests map[string]*Request
	waiters  map[string]chan Response
	ttl      time.Duration

	sweepStop chan struct{}
	sweepOnce sync.Once

	// now is replaceable in tests.
	now func() time.Time
}

// NewTracker creates a new tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	t := &Tracker{
		requests:  make(map[string]*Request),
		waiters:   make(map[string]chan Response),
		ttl:       cfg.TTL,
		sweepStop: make(chan struct{}),
		now:       time.Now,
	}

	go t.sweepLoop(cfg.SweepInterval)
	return t
}

// Close stops the background sweep. The tracker remains usable; expired
// entries are still purged lazily on Validate.
func (t *Tracker) Close() {
	t.sweepOnce.Do(func() {
		close(t.sweepStop)
	})
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// Create registers a new request and returns its unguessable ID.
func (t *Tracker) Create(providerID string, schema map[string]interface{}, mode Mode) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	req := &Request{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		Schema:     schema,
		Mode:       mode,
		CreatedAt:  now,
		ExpiresAt:  now.Add(t.ttl),
	}
	t.requests[req.ID] = req
	return req.ID
}

// Validate checks a request without mutating it.
// Returns nil, ErrNotFound, ErrExpired, or ErrAlreadyUsed.
func (t *Tracker) Validate(requestID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	req, ok := t.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	if t.now().After(req.ExpiresAt) {
		// Lazy purge: an expired request is permanently invalid.
		delete(t.requests, requestID)
		t.dropWaiterLocked(requestID)
		return ErrExpired
	}
	if req.Used {
		return ErrAlreadyUsed
	}
	return nil
}

// Consume atomically checks !used && !expired and marks the request used.
// Exactly one concurrent caller succeeds for a given ID; losers receive
// ErrAlreadyUsed. This is the replay/duplicate-submission defense.
func (t *Tracker) Consume(requestID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	req, ok := t.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	if t.now().After(req.ExpiresAt) {
		delete(t.requests, requestID)
		t.dropWaiterLocked(requestID)
		return ErrExpired
	}
	if req.Used {
		return ErrAlreadyUsed
	}
	req.Used = true
	return nil
}

// Get returns a copy of a tracked request.
func (t *Tracker) Get(requestID string) (Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	req, ok := t.requests[requestID]
	if !ok {
		return Request{}, false
	}
	return *req, true
}

// =============================================================================
// RESPONSE DELIVERY
// =============================================================================

// Await returns a channel on which the response for a request will be
// delivered. The channel is buffered: delivery never blocks the sandbox
// message handler even if the provider has not yet started receiving.
func (t *Tracker) Await(requestID string) <-chan Response {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.waiters[requestID]
	if !ok {
		ch = make(chan Response, 1)
		t.waiters[requestID] = ch
	}
	return ch
}

// Deliver consumes the request and hands the collected data to the waiting
// provider. The consume-then-deliver order guarantees that of two racing
// submissions only one reaches the provider.
func (t *Tracker) Deliver(requestID string, data map[string]interface{}) error {
	if err := t.Consume(requestID); err != nil {
		return err
	}

	t.mu.Lock()
	ch, ok := t.waiters[requestID]
	if ok {
		delete(t.waiters, requestID)
	}
	t.mu.Unlock()

	if ok {
		ch <- Response{RequestID: requestID, Data: data}
		close(ch)
	}
	return nil
}

// Cancel terminates a pending request. The request is marked consumed so a
// stale submission cannot revive it after the user dismissed the prompt.
func (t *Tracker) Cancel(requestID string) error {
	if err := t.Consume(requestID); err != nil {
		return err
	}

	t.mu.Lock()
	ch, ok := t.waiters[requestID]
	if ok {
		delete(t.waiters, requestID)
	}
	t.mu.Unlock()

	if ok {
		ch <- Response{RequestID: requestID, Cancelled: true}
		close(ch)
	}
	return nil
}

// dropWaiterLocked closes and removes the waiter for an expired request.
// Callers must hold t.mu.
func (t *Tracker) dropWaiterLocked(requestID string) {
	if ch, ok := t.waiters[requestID]; ok {
		delete(t.waiters, requestID)
		ch <- Response{RequestID: requestID, Cancelled: true}
		close(ch)
	}
}

// =============================================================================
// EXPIRY SWEEP
// =============================================================================

// sweepLoop periodically purges expired requests.
func (t *Tracker) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.sweepStop:
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

// sweep removes all expired requests and signals their waiters.
func (t *Tracker) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, req := range t.requests {
		if now.After(req.ExpiresAt) {
			delete(t.requests, id)
			t.dropWaiterLocked(id)
		}
	}
}

// Len returns the number of tracked (not yet purged) requests.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}
