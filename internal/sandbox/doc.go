// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sandbox defines the boundary between the host and rendered
// tool-authored content.
//
// Content executes in an isolated context with no ambient access to host
// state; the only communication path is a single structured message
// channel. The host validates every inbound message's origin against its
// own exact origin, and validates shape and size, before acting on it.
// Elicitation responses arriving on the channel are consumed through the
// tracker and delivered directly to the originating tool provider, never
// to the orchestrator or the model.
package sandbox
