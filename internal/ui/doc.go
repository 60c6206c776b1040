// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the terminal chat interface for parley.
//
// The interface is a Bubble Tea program: a viewport for the transcript, a
// text input for the prompt, and a spinner while the model is thinking.
// Turn progress arrives as messages from the chat package's program
// observer; the UI never talks to providers or the model directly.
package ui
