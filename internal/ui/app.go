// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/halcyonlabs/parley/internal/chat"
	"github.com/halcyonlabs/parley/internal/elicit"
	"github.com/halcyonlabs/parley/internal/model"
	"github.com/halcyonlabs/parley/internal/sandbox"
	"github.com/halcyonlabs/parley/internal/storage"
	"github.com/halcyonlabs/parley/internal/util"
)

// =============================================================================
// APP STATE
// =============================================================================

// appState is the UI's position in the input/response cycle.
type appState int

const (
	stateReady     appState = iota // accepting input
	stateStreaming                 // a turn is in flight
)

// =============================================================================
// APP MODEL
// =============================================================================

// App is the Bubble Tea model for the chat interface.
type App struct {
	state appState
	theme *Theme

	width  int
	height int
	ready  bool

	// Conversation
	orch      *chat.Orchestrator
	history   []model.Message
	store     *storage.Store
	convID    string
	modelName string

	// Turn in flight
	turnCancel context.CancelFunc
	streaming  strings.Builder
	toolStatus string

	// Pending elicitation, if any
	pending *elicit.Request

	// Transcript rendering
	transcript strings.Builder

	// Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
}

// NewApp creates the chat interface. The store may be nil to disable
// persistence.
func NewApp(orch *chat.Orchestrator, store *storage.Store, modelName string) *App {
	input := textinput.New()
	input.Placeholder = "Ask anything..."
	input.Focus()
	input.CharLimit = 8192

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		theme:     NewTheme(),
		orch:      orch,
		store:     store,
		modelName: modelName,
		input:     input,
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if !a.ready {
			a.viewport = viewport.New(msg.Width, msg.Height-3)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = msg.Height - 3
		}
		a.refreshViewport()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case chat.TokenMsg:
		a.streaming.WriteString(msg.Token)
		a.refreshViewport()
		return a, nil

	case chat.StateMsg:
		if msg.State == chat.StateExecutingTools {
			a.toolStatus = "running tools..."
		}
		return a, nil

	case chat.ToolExecutionMsg:
		a.toolStatus = a.renderToolEvent(msg.Event)
		a.refreshViewport()
		return a, nil

	case chat.WebviewMsg:
		a.appendWebview(msg.Page)
		a.refreshViewport()
		return a, nil

	case chat.ElicitationMsg:
		req := msg.Request
		a.pending = &req
		a.refreshViewport()
		return a, nil

	case chat.TurnCompleteMsg:
		return a.finishTurn(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKey processes keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if a.turnCancel != nil {
			a.turnCancel()
		}
		return a, tea.Quit

	case "esc":
		// Cancel the in-flight turn; partial text stays visible.
		if a.state == stateStreaming && a.turnCancel != nil {
			a.turnCancel()
		}
		return a, nil

	case "enter":
		if a.state != stateReady {
			return a, nil
		}
		text := strings.TrimSpace(a.input.Value())
		if text == "" {
			return a, nil
		}
		return a.submit(text)

	case "pgup":
		a.viewport.HalfViewUp()
		return a, nil

	case "pgdown":
		a.viewport.HalfViewDown()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit starts a turn for the given user text.
func (a *App) submit(text string) (tea.Model, tea.Cmd) {
	userMsg := model.NewUserMessage(text)
	a.history = append(a.history, userMsg)
	a.appendMessage(userMsg)

	a.input.Reset()
	a.state = stateStreaming
	a.streaming.Reset()
	a.toolStatus = ""
	a.refreshViewport()

	ctx, cancel := context.WithCancel(context.Background())
	a.turnCancel = cancel

	return a, tea.Batch(
		a.spinner.Tick,
		chat.RunTurnCmd(ctx, a.orch, a.history),
	)
}

// finishTurn folds the turn outcome into the transcript and history.
func (a *App) finishTurn(msg chat.TurnCompleteMsg) (tea.Model, tea.Cmd) {
	if a.turnCancel != nil {
		a.turnCancel()
		a.turnCancel = nil
	}
	a.state = stateReady
	a.pending = nil
	a.toolStatus = ""
	a.streaming.Reset()

	if msg.Err != nil && msg.Message.Content == "" {
		a.transcript.WriteString(a.theme.ToolError.Render(fmt.Sprintf("error: %v", msg.Err)) + "\n\n")
	} else {
		a.history = append(a.history, msg.Message)
		a.appendMessage(msg.Message)
		a.persist()
	}
	a.refreshViewport()
	return a, nil
}

// persist saves the conversation, best-effort.
func (a *App) persist() {
	if a.store == nil {
		return
	}
	conv := &storage.Conversation{
		ID:       a.convID,
		Model:    a.modelName,
		Messages: a.history,
	}
	if id, err := a.store.Save(conv); err == nil {
		a.convID = id
	}
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// appendMessage renders a finished message into the transcript.
func (a *App) appendMessage(msg model.Message) {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = a.theme.UserLabel.Render(msg.Role.DisplayName())
	case model.RoleAssistant:
		label = a.theme.AssistantLabel.Render(msg.Role.DisplayName())
	default:
		label = a.theme.ToolLabel.Render(msg.Role.DisplayName())
	}
	a.transcript.WriteString(label + "\n" + msg.Content + "\n\n")
}

// appendWebview renders a sanitized page as a framed block with its trust
// badge. The terminal renders the HTML as text; the capability flags matter
// to the external renderer, not here.
func (a *App) appendWebview(page *sandbox.Page) {
	header := a.theme.TrustBadge(page.Trust) + " " + a.theme.Status.Render(page.ProviderID+"/"+page.Tool)
	body := util.TruncateRunes(page.HTML, 2000)
	a.transcript.WriteString(a.theme.WebviewFrame.Render(header+"\n"+body) + "\n\n")
}

// renderToolEvent formats a status line for a tool execution event.
func (a *App) renderToolEvent(ev chat.ToolExecutionEvent) string {
	switch ev.Status {
	case chat.StatusExecuting:
		return fmt.Sprintf("running %s...", ev.Tool)
	case chat.StatusError:
		return a.theme.ToolError.Render(fmt.Sprintf("%s failed", ev.Tool))
	default:
		return fmt.Sprintf("%s done", ev.Tool)
	}
}

// renderElicitation frames a pending input request.
func (a *App) renderElicitation(req *elicit.Request) string {
	var b strings.Builder
	b.WriteString("Input requested by " + req.ProviderID + " (" + string(req.Mode) + " mode)\n")
	if props, ok := req.Schema["properties"].(map[string]interface{}); ok {
		for field := range props {
			b.WriteString("  - " + field + "\n")
		}
	}
	b.WriteString("Expires " + req.ExpiresAt.Format("15:04:05"))
	return a.theme.ElicitFrame.Render(b.String())
}

// refreshViewport rebuilds the viewport content and scrolls to the bottom.
func (a *App) refreshViewport() {
	if !a.ready {
		return
	}

	var b strings.Builder
	b.WriteString(a.transcript.String())

	if a.state == stateStreaming && a.streaming.Len() > 0 {
		b.WriteString(a.theme.AssistantLabel.Render("Assistant") + "\n" + a.streaming.String() + "\n")
	}
	if a.pending != nil {
		b.WriteString(a.renderElicitation(a.pending) + "\n")
	}

	a.viewport.SetContent(b.String())
	a.viewport.GotoBottom()
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "starting..."
	}

	var status string
	switch {
	case a.state == stateStreaming && a.toolStatus != "":
		status = a.spinner.View() + " " + a.theme.Status.Render(a.toolStatus)
	case a.state == stateStreaming:
		status = a.spinner.View() + " " + a.theme.Status.Render("thinking... (esc to cancel)")
	default:
		status = a.theme.Status.Render(a.modelName)
	}

	return a.viewport.View() + "\n" +
		status + "\n" +
		a.theme.InputPrompt.Render("> ") + a.input.View()
}
