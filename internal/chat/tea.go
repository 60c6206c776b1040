// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/halcyonlabs/parley/internal/elicit"
	"github.com/halcyonlabs/parley/internal/model"
	"github.com/halcyonlabs/parley/internal/sandbox"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// TokenMsg carries one streamed text token.
type TokenMsg struct {
	Token string
}

// StateMsg carries an orchestrator state transition.
type StateMsg struct {
	State State
}

// ToolExecutionMsg carries a tool execution status event.
type ToolExecutionMsg struct {
	Event ToolExecutionEvent
}

// WebviewMsg carries a prepared sandbox page.
type WebviewMsg struct {
	Page *sandbox.Page
}

// ElicitationMsg carries a pending input request for the UI to present.
type ElicitationMsg struct {
	Request elicit.Request
}

// TurnCompleteMsg carries the final assistant message of a turn.
type TurnCompleteMsg struct {
	Message model.Message
	Err     error
}

// =============================================================================
// PROGRAM OBSERVER
// =============================================================================

// MsgSender is the subset of *tea.Program the observer needs.
type MsgSender interface {
	Send(msg tea.Msg)
}

// ProgramObserver forwards turn notifications to a Bubble Tea program as
// messages.
type ProgramObserver struct {
	sender MsgSender
}

// NewProgramObserver creates an observer that forwards to the given program.
func NewProgramObserver(sender MsgSender) *ProgramObserver {
	return &ProgramObserver{sender: sender}
}

func (p *ProgramObserver) OnToken(token string) {
	p.sender.Send(TokenMsg{Token: token})
}

func (p *ProgramObserver) OnStateChange(state State) {
	p.sender.Send(StateMsg{State: state})
}

func (p *ProgramObserver) OnToolExecution(event ToolExecutionEvent) {
	p.sender.Send(ToolExecutionMsg{Event: event})
}

func (p *ProgramObserver) OnWebview(page *sandbox.Page) {
	p.sender.Send(WebviewMsg{Page: page})
}

func (p *ProgramObserver) OnElicitation(req elicit.Request) {
	p.sender.Send(ElicitationMsg{Request: req})
}

// =============================================================================
// COMMANDS
// =============================================================================

// RunTurnCmd runs a turn asynchronously and delivers the outcome as a
// TurnCompleteMsg. Streaming progress arrives through the subscribed
// observers while the command runs.
func RunTurnCmd(ctx context.Context, o *Orchestrator, history []model.Message) tea.Cmd {
	return func() tea.Msg {
		msg, err := o.RunTurn(ctx, history)
		return TurnCompleteMsg{Message: msg, Err: err}
	}
}
