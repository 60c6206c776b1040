// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/halcyonlabs/parley/internal/elicit"
	"github.com/halcyonlabs/parley/internal/model"
)

// =============================================================================
// DISPATCH RESULT
// =============================================================================

// ToolResult is the outcome of a dispatched tool call. Dispatch failures
// are encoded in Text with IsError set; they are folded back into the
// conversation like any other result so the model can react.
type ToolResult struct {
	// CallID links the result to the model's tool call.
	CallID string

	// ProviderID and ToolName identify the resolved target. Empty when
	// resolution itself failed.
	ProviderID string
	ToolName   string

	// Text is the plain text folded into conversation history.
	Text string

	// Blocks is the full content block sequence, including any resource
	// block eligible to become a webview.
	Blocks []model.ContentBlock

	// IsError marks results that encode a dispatch or provider failure.
	IsError bool
}

// ErrorResult builds a textual error result for a call.
func ErrorResult(callID, text string) ToolResult {
	return ToolResult{
		CallID:  callID,
		Text:    text,
		Blocks:  []model.ContentBlock{model.NewTextBlock(text)},
		IsError: true,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotResumable is returned when a paused tool's provider does not
// implement Resume.
var ErrNotResumable = errors.New("provider cannot resume a paused call")

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher resolves qualified tool names and invokes the bound providers.
// Tool calls are dispatched one at a time; a call that pauses for user
// input blocks only the turn that issued it.
type Dispatcher struct {
	registry *Registry
	tracker  *elicit.Tracker

	// OnElicitation is invoked when a paused call registers an input
	// request, so the renderer boundary can present it to the user.
	// The collected response is delivered through the tracker directly
	// to the provider; it never reaches the orchestrator or the model.
	OnElicitation func(req elicit.Request)
}

// NewDispatcher creates a dispatcher over the given registry and tracker.
func NewDispatcher(registry *Registry, tracker *elicit.Tracker) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		tracker:  tracker,
	}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch resolves and invokes a single tool call. Provider errors are
// wrapped into textual results and never propagate as Go errors; the
// returned ToolResult is always usable as a conversation message.
func (d *Dispatcher) Dispatch(ctx context.Context, call model.ToolCall) ToolResult {
	providerID, toolName, err := d.registry.Resolve(call.QualifiedName)
	if err != nil {
		return ErrorResult(call.ID, fmt.Sprintf("Tool error: %v", err))
	}
	return d.Invoke(ctx, call.ID, providerID, toolName, call.Arguments)
}

// Invoke calls a resolved tool and drives the elicitation resume protocol
// until the provider returns a final result.
func (d *Dispatcher) Invoke(ctx context.Context, callID, providerID, toolName string, args map[string]interface{}) ToolResult {
	p, ok := d.registry.providerFor(providerID)
	if !ok {
		return ErrorResult(callID, fmt.Sprintf("Tool error: %v: %s", ErrUnknownProvider, providerID))
	}

	res, err := p.Call(ctx, toolName, args)
	if err != nil {
		return d.errorResult(callID, providerID, toolName, err)
	}

	for res != nil && res.NeedsInput != nil {
		res, err = d.resume(ctx, p, providerID, res.NeedsInput)
		if err != nil {
			return d.errorResult(callID, providerID, toolName, err)
		}
	}

	if res == nil {
		return d.errorResult(callID, providerID, toolName, errors.New("provider returned no result"))
	}

	return ToolResult{
		CallID:     callID,
		ProviderID: providerID,
		ToolName:   toolName,
		Text:       model.JoinText(res.Blocks),
		Blocks:     res.Blocks,
	}
}

// resume registers the elicitation, waits for the user's response, and
// resumes the paused call with the continuation token plus collected data.
// The wait is unbounded by design (a human may take arbitrarily long) and
// blocks only the current turn's progression.
func (d *Dispatcher) resume(ctx context.Context, p Provider, providerID string, input *InputRequest) (*Result, error) {
	resumable, ok := p.(Resumable)
	if !ok {
		return nil, ErrNotResumable
	}

	if err := elicit.ValidateMode(input.Mode, input.Schema); err != nil {
		return nil, err
	}

	requestID := d.tracker.Create(providerID, input.Schema, input.Mode)
	waiter := d.tracker.Await(requestID)

	if d.OnElicitation != nil {
		if req, ok := d.tracker.Get(requestID); ok {
			d.OnElicitation(req)
		}
	}

	select {
	case <-ctx.Done():
		// Invalidate the request so a late submission cannot succeed
		// after the turn is gone.
		_ = d.tracker.Cancel(requestID)
		return nil, ctx.Err()

	case resp := <-waiter:
		if resp.Cancelled {
			return nil, errors.New("elicitation cancelled by user")
		}
		return resumable.Resume(ctx, input.ContinuationToken, resp.Data)
	}
}

// errorResult formats a provider failure as a textual tool result.
func (d *Dispatcher) errorResult(callID, providerID, toolName string, err error) ToolResult {
	r := ErrorResult(callID, fmt.Sprintf("Tool error: %s: %v", QualifiedName(providerID, toolName), err))
	r.ProviderID = providerID
	r.ToolName = toolName
	return r
}
