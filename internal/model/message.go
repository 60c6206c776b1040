// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// TOOL CALL
// =============================================================================

// ToolCall is a model-issued request to invoke a named tool.
// QualifiedName carries both the provider and tool identity on the wire
// (providerID + separator + toolName) and must resolve to exactly one pair.
type ToolCall struct {
	// ID uniquely identifies this call within the turn.
	ID string `json:"id"`

	// QualifiedName is the namespaced tool identifier.
	QualifiedName string `json:"name"`

	// Arguments contains the parameters for the tool.
	Arguments map[string]interface{} `json:"arguments"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation turn.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content is the plain text content of the message.
	Content string `json:"content"`

	// ToolCalls contains any tool calls requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool result back to its call (role "tool" only).
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Resource is an optional resource block attached to a tool result.
	Resource *ResourceBlock `json:"resource,omitempty"`

	// IsError marks a tool result that encodes a dispatch failure.
	IsError bool `json:"is_error,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewAssistantMessageWithToolCalls creates an assistant message that
// requested one or more tool calls.
func NewAssistantMessageWithToolCalls(content string, calls []ToolCall) Message {
	msg := NewMessage(RoleAssistant, content)
	msg.ToolCalls = calls
	return msg
}

// NewToolResultMessage creates a tool result message linked to its call.
func NewToolResultMessage(toolCallID, content string) Message {
	msg := NewMessage(RoleTool, content)
	msg.ToolCallID = toolCallID
	return msg
}

// =============================================================================
// ID GENERATION
// =============================================================================

// generateID creates a random hex message identifier.
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Timestamp fallback keeps IDs unique enough for display purposes.
		return "msg_" + hex.EncodeToString([]byte(time.Now().Format("150405.000000")))
	}
	return "msg_" + hex.EncodeToString(b)
}
