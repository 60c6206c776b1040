// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/halcyonlabs/parley/internal/provider"
)

// =============================================================================
// ORCHESTRATOR STATES
// =============================================================================

// State is the orchestrator's position in the per-turn state machine.
type State int

const (
	// StateIdle is the state between turns.
	StateIdle State = iota

	// StateAwaitingModel means a model request is in flight.
	StateAwaitingModel

	// StateStreaming means model output is being consumed.
	StateStreaming

	// StateExecutingTools means tool calls are being dispatched.
	StateExecutingTools

	// StateCompleted is the successful terminal state.
	StateCompleted

	// StateCancelled is the user-initiated terminal state.
	StateCancelled

	// StateFailed is the terminal state for unrecoverable model transport
	// errors. Tool errors never produce this state.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateStreaming:
		return "streaming"
	case StateExecutingTools:
		return "executing_tools"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the turn.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// =============================================================================
// EXECUTION STATUS EVENTS
// =============================================================================

// ToolExecutionStatus is the status of a single tool call.
type ToolExecutionStatus string

const (
	StatusExecuting ToolExecutionStatus = "executing"
	StatusCompleted ToolExecutionStatus = "completed"
	StatusError     ToolExecutionStatus = "error"
)

// ToolExecutionEvent is emitted once per tool call at start and end, for
// consumption by the UI collaborator.
type ToolExecutionEvent struct {
	Status   ToolExecutionStatus
	Tool     string
	Provider string

	// Result is set on completed and error events.
	Result *provider.ToolResult
}
