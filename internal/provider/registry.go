// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/halcyonlabs/parley/internal/llm"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Separator joins provider ID and tool name into a qualified name.
// The separator may legally occur inside either identifier, so Resolve
// matches against the set of registered provider IDs with longest-prefix
// matching instead of naive splitting.
const Separator = "__"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnresolvableToolName is returned when a qualified name does not
	// resolve to exactly one registered provider/tool pair.
	ErrUnresolvableToolName = errors.New("unresolvable tool name")

	// ErrUnknownProvider is returned for invocations against an
	// unregistered provider ID.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrDuplicateProvider is returned when a provider ID is registered twice.
	ErrDuplicateProvider = errors.New("provider already registered")
)

// =============================================================================
// REGISTRY
// =============================================================================

// binding pairs a provider with its descriptor snapshot.
type binding struct {
	provider    Provider
	descriptors []ToolDescriptor
	tools       map[string]ToolDescriptor
}

// Registry maps provider identities to bindings and exposes the flattened
// tool list in the model's function-calling schema. The registry is
// read-mostly: bindings are created at registration and replaced only by
// the explicit, serialized Reconnect operation.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]*binding),
	}
}

// Register binds a provider under its identity and snapshots its tool
// descriptors. Descriptors are immutable after registration.
func (r *Registry) Register(ctx context.Context, providerID string, p Provider) error {
	if providerID == "" {
		return fmt.Errorf("provider ID must not be empty")
	}

	descriptors, err := p.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools for provider %q: %w", providerID, err)
	}

	b := &binding{
		provider:    p,
		descriptors: descriptors,
		tools:       make(map[string]ToolDescriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		b.tools[d.Name] = d
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[providerID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, providerID)
	}
	r.bindings[providerID] = b
	return nil
}

// Reconnect re-lists a provider's tools and swaps the descriptor snapshot
// in one serialized operation. Readers never observe a half-updated binding.
func (r *Registry) Reconnect(ctx context.Context, providerID string) error {
	r.mu.RLock()
	b, ok := r.bindings[providerID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, providerID)
	}

	descriptors, err := b.provider.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-list tools for provider %q: %w", providerID, err)
	}

	next := &binding{
		provider:    b.provider,
		descriptors: descriptors,
		tools:       make(map[string]ToolDescriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		next.tools[d.Name] = d
	}

	r.mu.Lock()
	r.bindings[providerID] = next
	r.mu.Unlock()
	return nil
}

// Unregister removes a provider binding.
func (r *Registry) Unregister(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, providerID)
}

// ProviderIDs returns the registered provider identities, sorted.
func (r *Registry) ProviderIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Descriptors returns the descriptor snapshot for a provider.
func (r *Registry) Descriptors(providerID string) ([]ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[providerID]
	if !ok {
		return nil, false
	}
	out := make([]ToolDescriptor, len(b.descriptors))
	copy(out, b.descriptors)
	return out, true
}

// provider returns the bound provider for an ID.
func (r *Registry) providerFor(providerID string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[providerID]
	if !ok {
		return nil, false
	}
	return b.provider, true
}

// =============================================================================
// QUALIFIED NAME RESOLUTION
// =============================================================================

// QualifiedName builds the wire name for a provider/tool pair.
func QualifiedName(providerID, toolName string) string {
	return providerID + Separator + toolName
}

// Resolve maps a qualified name to exactly one (providerID, toolName) pair.
//
// Because the separator can occur inside identifiers, resolution matches
// the name against registered provider IDs, longest prefix first, and
// requires the remainder to be a tool that provider actually registered.
// Returns ErrUnresolvableToolName otherwise; never a silent wrong match.
func (r *Registry) Resolve(qualifiedName string) (providerID, toolName string, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	// Longest provider ID first; ties broken lexicographically for
	// deterministic resolution.
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) > len(ids[j])
		}
		return ids[i] < ids[j]
	})

	for _, id := range ids {
		prefix := id + Separator
		if !strings.HasPrefix(qualifiedName, prefix) {
			continue
		}
		tool := qualifiedName[len(prefix):]
		if tool == "" {
			continue
		}
		if _, ok := r.bindings[id].tools[tool]; ok {
			return id, tool, nil
		}
	}

	return "", "", fmt.Errorf("%w: %q", ErrUnresolvableToolName, qualifiedName)
}

// =============================================================================
// SCHEMA EXPORT
// =============================================================================

// emptyObjectSchema is the default for tools registered without a schema.
func emptyObjectSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// ExportTools returns the flattened tool list in the model's
// function-calling format, sorted by qualified name for deterministic
// prompt construction.
func (r *Registry) ExportTools() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tools []llm.Tool
	for id, b := range r.bindings {
		for _, d := range b.descriptors {
			params := d.InputSchema
			if params == nil {
				params = emptyObjectSchema()
			}
			tools = append(tools, llm.Tool{
				Type: "function",
				Function: llm.ToolSchema{
					Name:        QualifiedName(id, d.Name),
					Description: d.Description,
					Parameters:  params,
				},
			})
		}
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Function.Name < tools[j].Function.Name
	})
	return tools
}
