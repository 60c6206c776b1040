// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider binds external tool providers to the chat model's
// function-calling surface.
//
// Providers are modeled as a fixed capability interface (List and Call)
// bound by identity at registration time, never by runtime type inspection.
// Tools are exposed to the model under a qualified name composed of the
// provider ID and tool name; the dispatcher resolves qualified names back
// to exactly one provider/tool pair and wraps provider failures into
// textual results so errors never propagate raw to the orchestrator.
package provider
