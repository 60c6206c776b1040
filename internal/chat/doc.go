// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat drives the per-conversation orchestration loop.
//
// Each user turn streams the model's output token-by-token, collects any
// tool calls, dispatches them sequentially in the order received, folds
// the results back into the conversation, and re-invokes the model until
// it answers in plain text, the turn is cancelled, or the iteration cap
// forces finalization. Each conversation's loop is logically
// single-threaded; independent conversations share only the elicitation
// tracker and the read-mostly provider registry.
package chat
