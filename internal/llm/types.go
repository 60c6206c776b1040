// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents a chat message sent to the model.
type Message struct {
	Role      string     `json:"role"`                 // "user", "assistant", "system", "tool"
	Content   string     `json:"content"`              // The message content
	ToolCalls []ToolCall `json:"tool_calls,omitempty"` // Tool calls requested by assistant
}

// ToolCall represents a tool invocation emitted by the model.
type ToolCall struct {
	Function ToolFunction `json:"function"`
}

// ToolFunction contains the qualified tool name and arguments.
type ToolFunction struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Tools    []Tool    `json:"tools,omitempty"`
	Options  *Options  `json:"options,omitempty"`
}

// Tool represents a tool definition in the model's function-calling format.
type Tool struct {
	Type     string     `json:"type"` // Always "function"
	Function ToolSchema `json:"function"`
}

// ToolSchema defines a tool's interface.
type ToolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Options contains model parameters for inference.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk is a single chunk from a streaming response.
type StreamChunk struct {
	// Content is the text token(s) in this chunk.
	Content string

	// ToolCalls are any tool calls carried by this chunk.
	ToolCalls []ToolCall

	// Done indicates the stream is complete.
	Done bool

	// DoneReason is the model-reported stop reason, if any.
	DoneReason string

	// Model is the model that produced the chunk.
	Model string

	// Error is set when the chunk represents a transport failure.
	Error error

	// Statistics, populated on the final chunk.
	TotalDuration    time.Duration
	PromptTokens     int
	CompletionTokens int
}

// StreamCallback is invoked for each chunk as it arrives.
type StreamCallback func(chunk StreamChunk)
