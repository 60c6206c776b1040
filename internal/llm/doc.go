// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm provides the streaming HTTP transport for the chat model.
//
// The transport speaks the Ollama-compatible /api/chat protocol: requests
// carry the conversation history plus the exported tool schemas, responses
// arrive as line-delimited JSON chunks containing text tokens and tool
// calls. The orchestrator consumes this package purely as a streaming
// text/tool-call source; token generation internals are out of scope.
package llm
