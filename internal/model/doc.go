// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversation turns,
// content blocks, and webview extraction.
//
// A conversation turn is an ordered sequence of messages with roles user,
// assistant, and tool. Tool results may carry a resource block; only a
// resource with mime type "text/html" is eligible to become a webview.
// A legacy inline fenced syntax (```webview:<type> ... ```) is still
// recognized as a fallback when no resource block is present.
package model
