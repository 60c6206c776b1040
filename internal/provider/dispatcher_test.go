// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/halcyonlabs/parley/internal/elicit"
	"github.com/halcyonlabs/parley/internal/model"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Registry, *elicit.Tracker) {
	t.Helper()
	tracker := elicit.NewTracker(elicit.DefaultConfig())
	t.Cleanup(tracker.Close)
	registry := NewRegistry()
	return NewDispatcher(registry, tracker), registry, tracker
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestDispatchSuccess(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	ctx := context.Background()

	p := newFakeProvider("get_forecast")
	p.call = func(ctx context.Context, tool string, args map[string]interface{}) (*Result, error) {
		if tool != "get_forecast" {
			t.Errorf("tool = %q", tool)
		}
		if args["city"] != "Oslo" {
			t.Errorf("args = %v", args)
		}
		return TextResult("Sunny, 21C"), nil
	}
	if err := r.Register(ctx, "weather", p); err != nil {
		t.Fatal(err)
	}

	result := d.Dispatch(ctx, model.ToolCall{
		ID:            "call-1",
		QualifiedName: "weather__get_forecast",
		Arguments:     map[string]interface{}{"city": "Oslo"},
	})

	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Text)
	}
	if result.CallID != "call-1" {
		t.Errorf("CallID = %q", result.CallID)
	}
	if result.Text != "Sunny, 21C" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.ProviderID != "weather" || result.ToolName != "get_forecast" {
		t.Errorf("resolved to (%q, %q)", result.ProviderID, result.ToolName)
	}
}

func TestDispatchUnresolvableBecomesErrorResult(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	result := d.Dispatch(context.Background(), model.ToolCall{
		ID:            "call-1",
		QualifiedName: "nope__missing",
	})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.HasPrefix(result.Text, "Tool error:") {
		t.Errorf("Text = %q, want Tool error prefix", result.Text)
	}
	if result.CallID != "call-1" {
		t.Errorf("CallID = %q", result.CallID)
	}
}

func TestDispatchProviderFailureBecomesErrorResult(t *testing.T) {
	// A provider failure must never surface as a Go error: it is folded
	// into the result text so the conversation can continue.
	d, r, _ := newTestDispatcher(t)
	ctx := context.Background()

	p := newFakeProvider("crash")
	p.call = func(context.Context, string, map[string]interface{}) (*Result, error) {
		return nil, errors.New("backend unavailable")
	}
	if err := r.Register(ctx, "svc", p); err != nil {
		t.Fatal(err)
	}

	result := d.Dispatch(ctx, model.ToolCall{ID: "c", QualifiedName: "svc__crash"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.Text, "backend unavailable") {
		t.Errorf("Text = %q, should carry the provider's message", result.Text)
	}
	if !strings.Contains(result.Text, "svc__crash") {
		t.Errorf("Text = %q, should name the failing tool", result.Text)
	}
}

func TestDispatchNilResultBecomesErrorResult(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	ctx := context.Background()

	p := newFakeProvider("void")
	p.call = func(context.Context, string, map[string]interface{}) (*Result, error) {
		return nil, nil
	}
	if err := r.Register(ctx, "svc", p); err != nil {
		t.Fatal(err)
	}

	result := d.Dispatch(ctx, model.ToolCall{ID: "c", QualifiedName: "svc__void"})
	if !result.IsError {
		t.Error("nil result without error should become an error result")
	}
}

// =============================================================================
// ELICITATION RESUME TESTS
// =============================================================================

func TestDispatchElicitationResume(t *testing.T) {
	d, r, tracker := newTestDispatcher(t)
	ctx := context.Background()

	p := newFakeProvider("book_flight")
	p.call = func(context.Context, string, map[string]interface{}) (*Result, error) {
		return &Result{NeedsInput: &InputRequest{
			Schema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"seat": map[string]interface{}{"type": "string"},
				},
			},
			Mode:              elicit.ModeForm,
			ContinuationToken: "cont-42",
		}}, nil
	}
	p.resume = func(ctx context.Context, token string, data map[string]interface{}) (*Result, error) {
		if token != "cont-42" {
			t.Errorf("token = %q", token)
		}
		return TextResult("Booked seat " + data["seat"].(string)), nil
	}
	if err := r.Register(ctx, "travel", p); err != nil {
		t.Fatal(err)
	}

	// Deliver the user's answer as soon as the request is surfaced.
	d.OnElicitation = func(req elicit.Request) {
		go func() {
			if err := tracker.Deliver(req.ID, map[string]interface{}{"seat": "12A"}); err != nil {
				t.Errorf("Deliver error: %v", err)
			}
		}()
	}

	result := d.Dispatch(ctx, model.ToolCall{ID: "c", QualifiedName: "travel__book_flight"})
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Text)
	}
	if result.Text != "Booked seat 12A" {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestDispatchElicitationCancelled(t *testing.T) {
	d, r, tracker := newTestDispatcher(t)
	ctx := context.Background()

	p := newFakeProvider("pause")
	p.call = func(context.Context, string, map[string]interface{}) (*Result, error) {
		return &Result{NeedsInput: &InputRequest{
			Schema: map[string]interface{}{"type": "object"},
			Mode:   elicit.ModeForm,
		}}, nil
	}
	if err := r.Register(ctx, "svc", p); err != nil {
		t.Fatal(err)
	}

	d.OnElicitation = func(req elicit.Request) {
		go func() {
			if err := tracker.Cancel(req.ID); err != nil {
				t.Errorf("Cancel error: %v", err)
			}
		}()
	}

	result := d.Dispatch(ctx, model.ToolCall{ID: "c", QualifiedName: "svc__pause"})
	if !result.IsError {
		t.Fatal("cancelled elicitation should yield an error result")
	}
	if !strings.Contains(result.Text, "cancelled") {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestDispatchSensitiveFormRejected(t *testing.T) {
	// A provider asking for a password via form mode is refused before the
	// request ever reaches the user.
	d, r, _ := newTestDispatcher(t)
	ctx := context.Background()

	p := newFakeProvider("login")
	p.call = func(context.Context, string, map[string]interface{}) (*Result, error) {
		return &Result{NeedsInput: &InputRequest{
			Schema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"password": map[string]interface{}{"type": "string"},
				},
			},
			Mode: elicit.ModeForm,
		}}, nil
	}
	if err := r.Register(ctx, "svc", p); err != nil {
		t.Fatal(err)
	}

	presented := false
	d.OnElicitation = func(elicit.Request) { presented = true }

	result := d.Dispatch(ctx, model.ToolCall{ID: "c", QualifiedName: "svc__login"})
	if !result.IsError {
		t.Fatal("sensitive form should be rejected")
	}
	if presented {
		t.Error("rejected request must not be presented to the user")
	}
}

func TestDispatchNotResumableProvider(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	ctx := context.Background()

	// plainProvider implements Provider but not Resumable.
	p := &plainProvider{}
	if err := r.Register(ctx, "svc", p); err != nil {
		t.Fatal(err)
	}

	result := d.Dispatch(ctx, model.ToolCall{ID: "c", QualifiedName: "svc__pause"})
	if !result.IsError {
		t.Fatal("pause from a non-resumable provider should fail")
	}
	if !strings.Contains(result.Text, "cannot resume") {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestDispatchContextCancelledDuringElicitation(t *testing.T) {
	d, r, tracker := newTestDispatcher(t)

	p := newFakeProvider("pause")
	p.call = func(context.Context, string, map[string]interface{}) (*Result, error) {
		return &Result{NeedsInput: &InputRequest{
			Schema: map[string]interface{}{"type": "object"},
			Mode:   elicit.ModeForm,
		}}, nil
	}
	if err := r.Register(context.Background(), "svc", p); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var requestID string
	d.OnElicitation = func(req elicit.Request) {
		requestID = req.ID
		cancel()
	}

	result := d.Dispatch(ctx, model.ToolCall{ID: "c", QualifiedName: "svc__pause"})
	if !result.IsError {
		t.Fatal("cancelled turn should yield an error result")
	}

	// The pending request must be invalidated: a late submission is a replay.
	deadline := time.After(time.Second)
	for {
		if err := tracker.Validate(requestID); errors.Is(err, elicit.ErrAlreadyUsed) || errors.Is(err, elicit.ErrNotFound) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("request was not invalidated after turn cancellation")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// plainProvider pauses but cannot resume.
type plainProvider struct{}

func (p *plainProvider) List(ctx context.Context) ([]ToolDescriptor, error) {
	return []ToolDescriptor{{Name: "pause"}}, nil
}

func (p *plainProvider) Call(ctx context.Context, tool string, args map[string]interface{}) (*Result, error) {
	return &Result{NeedsInput: &InputRequest{
		Schema: map[string]interface{}{"type": "object"},
		Mode:   elicit.ModeForm,
	}}, nil
}
