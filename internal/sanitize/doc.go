// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sanitize strips disallowed markup from tool-produced HTML
// according to the content source's trust level.
//
// Sanitization is defense-in-depth, independent from the renderer boundary:
// script, iframe, object, and embed elements plus inline event handlers are
// removed at the content level for every trust level, and URI schemes other
// than http(s) and data-image are neutralized. Script execution for trusted
// content is granted only inside the isolated renderer, never via raw DOM
// injection into the host.
package sanitize
