// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/halcyonlabs/parley/internal/audit"
	"github.com/halcyonlabs/parley/internal/llm"
	"github.com/halcyonlabs/parley/internal/model"
	"github.com/halcyonlabs/parley/internal/provider"
	"github.com/halcyonlabs/parley/internal/sandbox"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxIterations bounds model round-trips per user turn. The cap is a
// safety bound against infinite tool-calling loops, not an error.
const DefaultMaxIterations = 5

// truncationNotice is appended when the iteration cap forces finalization.
const truncationNotice = "[Response truncated: the tool-calling limit for this turn was reached.]"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCancelled is returned when the user cancels the turn. Partial
	// text already streamed remains visible.
	ErrCancelled = errors.New("turn cancelled")

	// ErrModelTransport is returned for unrecoverable transport errors
	// talking to the model. Fatal for the current turn only; the
	// conversation remains usable for the next turn.
	ErrModelTransport = errors.New("model transport failure")
)

// =============================================================================
// MODEL STREAMER
// =============================================================================

// ModelStreamer is the streaming text/tool-call source the orchestrator
// consumes. Satisfied by *llm.Client.
type ModelStreamer interface {
	ChatStream(ctx context.Context, modelName string, messages []llm.Message, tools []llm.Tool, callback llm.StreamCallback) error
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator drives the per-conversation loop. One orchestrator serves
// one conversation; its loop is logically single-threaded. Construct with
// NewOrchestrator.
type Orchestrator struct {
	streamer   ModelStreamer
	dispatcher *provider.Dispatcher
	preparer   *sandbox.Preparer
	observers  *Observers
	auditLog   *audit.Log

	modelName string
	maxIter   int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxIterations overrides the iteration cap.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIter = n
		}
	}
}

// WithModelName sets the model used for this conversation.
func WithModelName(name string) Option {
	return func(o *Orchestrator) {
		o.modelName = name
	}
}

// WithAuditLog records content rejections to the given log.
func WithAuditLog(log *audit.Log) Option {
	return func(o *Orchestrator) {
		o.auditLog = log
	}
}

// NewOrchestrator creates an orchestrator over the given model streamer,
// dispatcher, and page preparer.
func NewOrchestrator(streamer ModelStreamer, dispatcher *provider.Dispatcher, preparer *sandbox.Preparer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		streamer:   streamer,
		dispatcher: dispatcher,
		preparer:   preparer,
		observers:  NewObservers(),
		maxIter:    DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(o)
	}

	// Pending elicitations surface to the UI through the observer list.
	dispatcher.OnElicitation = o.observers.OnElicitation
	return o
}

// Subscribe registers a turn observer; call the returned function to
// unsubscribe.
func (o *Orchestrator) Subscribe(obs Observer) func() {
	return o.observers.Subscribe(obs)
}

// =============================================================================
// TURN EXECUTION
// =============================================================================

// roundTrip is the outcome of one streamed model response.
type roundTrip struct {
	text  string
	calls []model.ToolCall
}

// RunTurn executes one user turn against the given conversation history and
// returns the final assistant message.
//
// The returned error is nil when the turn completed (including forced
// finalization at the iteration cap), ErrCancelled when the user cancelled
// (the message still carries any partial text), and wraps
// ErrModelTransport on unrecoverable transport failures.
func (o *Orchestrator) RunTurn(ctx context.Context, history []model.Message) (model.Message, error) {
	// Per-turn iteration state: created here, destroyed when the turn
	// finalizes, cancels, or hits the bound.
	iteration := 0
	lastText := ""

	// Work on a private copy so callers keep ownership of their slice.
	working := make([]model.Message, len(history))
	copy(working, history)

	for {
		iteration++
		if iteration > o.maxIter {
			final := lastText
			if final != "" {
				final += "\n\n"
			}
			final += truncationNotice
			msg := model.NewAssistantMessage(final)
			o.setState(StateCompleted)
			return msg, nil
		}

		rt, err := o.streamModel(ctx, working)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				o.setState(StateCancelled)
				return model.NewAssistantMessage(rt.text), ErrCancelled
			}
			o.setState(StateFailed)
			return model.Message{}, fmt.Errorf("%w: %v", ErrModelTransport, err)
		}
		lastText = rt.text

		// No tool calls: the model answered in plain text and the turn
		// finalizes.
		if len(rt.calls) == 0 {
			msg := model.NewAssistantMessage(rt.text)
			o.setState(StateCompleted)
			return msg, nil
		}

		working = append(working, model.NewAssistantMessageWithToolCalls(rt.text, rt.calls))

		results, cancelled := o.executeTools(ctx, rt.calls)

		// Results are appended in call order regardless of completion
		// order; the model depends on this for correct reasoning.
		for _, res := range results {
			toolMsg := model.NewToolResultMessage(res.CallID, res.Text)
			toolMsg.IsError = res.IsError
			if wv, ok := model.ExtractWebview(res.Blocks); ok {
				toolMsg.Resource = &model.ResourceBlock{MimeType: model.MimeTypeHTML, Text: wv.HTML}
			}
			working = append(working, toolMsg)
		}

		if cancelled {
			o.setState(StateCancelled)
			return model.NewAssistantMessage(rt.text), ErrCancelled
		}
	}
}

// streamModel performs one streaming round-trip. Text tokens are forwarded
// to observers as they arrive; tool-call chunks are collected.
func (o *Orchestrator) streamModel(ctx context.Context, history []model.Message) (roundTrip, error) {
	o.setState(StateAwaitingModel)

	var rt roundTrip
	var streamed bool
	var rawCalls []llm.ToolCall

	err := o.streamer.ChatStream(ctx, o.modelName, toLLMMessages(history), o.dispatcher.Registry().ExportTools(), func(chunk llm.StreamChunk) {
		if !streamed {
			streamed = true
			o.setState(StateStreaming)
		}
		if chunk.Content != "" {
			rt.text += chunk.Content
			o.observers.OnToken(chunk.Content)
		}
		if len(chunk.ToolCalls) > 0 {
			rawCalls = append(rawCalls, chunk.ToolCalls...)
		}
	})
	if err != nil {
		return rt, err
	}

	for _, rc := range rawCalls {
		rt.calls = append(rt.calls, model.ToolCall{
			ID:            uuid.NewString(),
			QualifiedName: rc.Function.Name,
			Arguments:     rc.Function.Arguments,
		})
	}
	return rt, nil
}

// executeTools dispatches a batch sequentially, in the order received.
// On cancellation the in-flight call finishes, no further calls are
// issued, and the model is not re-invoked.
func (o *Orchestrator) executeTools(ctx context.Context, calls []model.ToolCall) (results []provider.ToolResult, cancelled bool) {
	o.setState(StateExecutingTools)

	for _, call := range calls {
		if ctx.Err() != nil {
			return results, true
		}

		o.observers.OnToolExecution(ToolExecutionEvent{
			Status:   StatusExecuting,
			Tool:     call.QualifiedName,
			Provider: providerOf(o.dispatcher, call.QualifiedName),
		})

		res := o.dispatcher.Dispatch(ctx, call)
		results = append(results, res)

		status := StatusCompleted
		if res.IsError {
			status = StatusError
		}
		o.observers.OnToolExecution(ToolExecutionEvent{
			Status:   status,
			Tool:     call.QualifiedName,
			Provider: res.ProviderID,
			Result:   &res,
		})

		if !res.IsError {
			o.presentWebview(res)
		}
	}
	return results, ctx.Err() != nil
}

// presentWebview classifies, sanitizes, and hands renderable HTML to
// observers. Rejected content is never rendered, only logged.
func (o *Orchestrator) presentWebview(res provider.ToolResult) {
	wv, ok := model.ExtractWebview(res.Blocks)
	if !ok {
		return
	}

	page, err := o.preparer.Prepare(res.ProviderID, res.ToolName, wv)
	if err != nil {
		if o.auditLog != nil {
			_ = o.auditLog.Record(audit.EventContentRejected, map[string]string{
				"provider": res.ProviderID,
				"tool":     res.ToolName,
				"reason":   err.Error(),
			})
		}
		return
	}
	o.observers.OnWebview(page)
}

// setState publishes a state transition.
func (o *Orchestrator) setState(s State) {
	o.observers.OnStateChange(s)
}

// providerOf resolves the provider half of a qualified name for status
// events, tolerating unresolvable names.
func providerOf(d *provider.Dispatcher, qualifiedName string) string {
	providerID, _, err := d.Registry().Resolve(qualifiedName)
	if err != nil {
		return ""
	}
	return providerID
}

// =============================================================================
// MESSAGE CONVERSION
// =============================================================================

// toLLMMessages converts conversation history to the transport format.
func toLLMMessages(history []model.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		lm := llm.Message{
			Role:    m.Role.String(),
			Content: m.Content,
		}
		for _, tc := range m.ToolCalls {
			lm.ToolCalls = append(lm.ToolCalls, llm.ToolCall{
				Function: llm.ToolFunction{
					Name:      tc.QualifiedName,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, lm)
	}
	return out
}
