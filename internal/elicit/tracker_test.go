// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package elicit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr := NewTracker(DefaultConfig())
	t.Cleanup(tr.Close)
	return tr
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestCreateAndValidate(t *testing.T) {
	tr := newTestTracker(t)

	id := tr.Create("weather", map[string]interface{}{"type": "object"}, ModeForm)
	if id == "" {
		t.Fatal("Create returned empty ID")
	}

	if err := tr.Validate(id); err != nil {
		t.Errorf("Validate error: %v", err)
	}

	req, ok := tr.Get(id)
	if !ok {
		t.Fatal("Get should find the request")
	}
	if req.ProviderID != "weather" || req.Mode != ModeForm {
		t.Errorf("request = %+v", req)
	}
	if !req.ExpiresAt.After(req.CreatedAt) {
		t.Error("ExpiresAt should be after CreatedAt")
	}
}

func TestRequestIDsUnguessable(t *testing.T) {
	tr := newTestTracker(t)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := tr.Create("p", nil, ModeURL)
		if len(id) != 36 {
			t.Fatalf("ID %q is not a UUID", id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestValidateUnknown(t *testing.T) {
	tr := newTestTracker(t)
	if err := tr.Validate("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestConsumeOnce(t *testing.T) {
	tr := newTestTracker(t)
	id := tr.Create("p", nil, ModeForm)

	if err := tr.Consume(id); err != nil {
		t.Fatalf("first Consume error: %v", err)
	}
	if err := tr.Consume(id); !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("second Consume error = %v, want ErrAlreadyUsed", err)
	}
	if err := tr.Validate(id); !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("Validate after consume = %v, want ErrAlreadyUsed", err)
	}
}

func TestConsumeConcurrentSingleWinner(t *testing.T) {
	// N goroutines race to consume one request; exactly one may win.
	tr := newTestTracker(t)
	id := tr.Create("p", nil, ModeForm)

	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Consume(id) == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}

// =============================================================================
// EXPIRY TESTS
// =============================================================================

func TestExpiredRequestRejected(t *testing.T) {
	tr := newTestTracker(t)

	base := time.Now()
	tr.now = func() time.Time { return base }

	id := tr.Create("p", nil, ModeForm)

	tr.now = func() time.Time { return base.Add(DefaultTTL + time.Second) }

	if err := tr.Validate(id); !errors.Is(err, ErrExpired) {
		t.Errorf("Validate = %v, want ErrExpired", err)
	}
	// Lazy purge: after the expired hit the request is gone entirely.
	if err := tr.Consume(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Consume after purge = %v, want ErrNotFound", err)
	}
}

func TestSweepPurgesExpired(t *testing.T) {
	tr := newTestTracker(t)

	base := time.Now()
	tr.now = func() time.Time { return base }

	tr.Create("p", nil, ModeForm)
	tr.Create("p", nil, ModeForm)
	if tr.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tr.Len())
	}

	tr.now = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	tr.sweep()

	if tr.Len() != 0 {
		t.Errorf("Len after sweep = %d, want 0", tr.Len())
	}
}

func TestSweepSignalsWaiters(t *testing.T) {
	tr := newTestTracker(t)

	base := time.Now()
	tr.now = func() time.Time { return base }

	id := tr.Create("p", nil, ModeForm)
	waiter := tr.Await(id)

	tr.now = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	tr.sweep()

	select {
	case resp := <-waiter:
		if !resp.Cancelled {
			t.Error("expired waiter should receive a cancelled response")
		}
	default:
		t.Error("waiter should be signalled on expiry")
	}
}

// =============================================================================
// DELIVERY TESTS
// =============================================================================

func TestDeliverReachesWaiter(t *testing.T) {
	tr := newTestTracker(t)
	id := tr.Create("p", nil, ModeForm)
	waiter := tr.Await(id)

	data := map[string]interface{}{"city": "Oslo"}
	if err := tr.Deliver(id, data); err != nil {
		t.Fatalf("Deliver error: %v", err)
	}

	resp := <-waiter
	if resp.Cancelled {
		t.Error("delivered response should not be cancelled")
	}
	if resp.Data["city"] != "Oslo" {
		t.Errorf("Data = %v", resp.Data)
	}
	if resp.RequestID != id {
		t.Errorf("RequestID = %q", resp.RequestID)
	}
}

func TestDeliverTwiceSecondLoses(t *testing.T) {
	tr := newTestTracker(t)
	id := tr.Create("p", nil, ModeForm)
	waiter := tr.Await(id)

	if err := tr.Deliver(id, map[string]interface{}{"n": 1}); err != nil {
		t.Fatalf("first Deliver error: %v", err)
	}
	if err := tr.Deliver(id, map[string]interface{}{"n": 2}); !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("second Deliver = %v, want ErrAlreadyUsed", err)
	}

	// Only the winning submission reaches the provider.
	count := 0
	for range waiter {
		count++
	}
	if count != 1 {
		t.Errorf("waiter received %d responses, want 1", count)
	}
}

func TestCancelConsumesRequest(t *testing.T) {
	tr := newTestTracker(t)
	id := tr.Create("p", nil, ModeForm)
	waiter := tr.Await(id)

	if err := tr.Cancel(id); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	resp := <-waiter
	if !resp.Cancelled {
		t.Error("cancel should deliver a cancelled response")
	}

	// A submission arriving after the user dismissed the prompt is a replay.
	if err := tr.Deliver(id, map[string]interface{}{"late": true}); !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("Deliver after Cancel = %v, want ErrAlreadyUsed", err)
	}
}

func TestDeliverWithoutWaiter(t *testing.T) {
	// Delivery with no provider waiting still consumes the request.
	tr := newTestTracker(t)
	id := tr.Create("p", nil, ModeForm)

	if err := tr.Deliver(id, nil); err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
	if err := tr.Validate(id); !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("Validate = %v, want ErrAlreadyUsed", err)
	}
}
