// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"

	"github.com/halcyonlabs/parley/internal/elicit"
	"github.com/halcyonlabs/parley/internal/model"
)

// =============================================================================
// PROVIDER CAPABILITY INTERFACE
// =============================================================================

// Provider is the fixed capability interface every tool provider implements.
// A provider is an external process exposing named, schema-described callable
// operations. Providers may be internally concurrent; the dispatcher observes
// one completion at a time.
type Provider interface {
	// List returns the provider's tool descriptors.
	List(ctx context.Context) ([]ToolDescriptor, error)

	// Call invokes a named tool with arguments and returns its result.
	Call(ctx context.Context, tool string, args map[string]interface{}) (*Result, error)
}

// Resumable is implemented by providers whose tools can pause for user
// input. A paused call returns a NeedsInput marker with a continuation
// token; Resume supplies the token plus the collected data to finish the
// call. This replaces implicit mid-call suspension with two explicit calls.
type Resumable interface {
	Resume(ctx context.Context, token string, data map[string]interface{}) (*Result, error)
}

// =============================================================================
// DESCRIPTOR AND RESULT TYPES
// =============================================================================

// ToolDescriptor describes one registered tool. Immutable after
// registration; descriptors live until the provider is reloaded.
type ToolDescriptor struct {
	// Name is the provider-local tool name.
	Name string `json:"name"`

	// Description is shown to the model.
	Description string `json:"description"`

	// InputSchema is the JSON Schema for the tool's arguments.
	// Nil defaults to an empty-object schema at export time.
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

// InputRequest is the NeedsInput marker returned by a paused tool call.
type InputRequest struct {
	// Schema describes the data being requested.
	Schema map[string]interface{}

	// Mode selects inline form or out-of-band url collection.
	Mode elicit.Mode

	// ContinuationToken is passed back to Resume.
	ContinuationToken string
}

// Result is what a provider returns from Call or Resume.
type Result struct {
	// Blocks is the tool-produced content.
	Blocks []model.ContentBlock

	// NeedsInput, when set, pauses the call pending user-supplied data.
	NeedsInput *InputRequest
}

// TextResult builds a plain text result.
func TextResult(text string) *Result {
	return &Result{Blocks: []model.ContentBlock{model.NewTextBlock(text)}}
}
