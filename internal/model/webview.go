// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"regexp"
	"strings"
)

// =============================================================================
// WEBVIEW EXTRACTION
// =============================================================================

// PERFORMANCE: Pre-compiled regex (compiled once at startup)
var legacyWebviewRegex = regexp.MustCompile("(?s)```webview:([a-zA-Z0-9_-]+)\\s*\\n(.*?)```")

// Webview is an HTML content block extracted from a tool result.
type Webview struct {
	// Kind describes the webview flavor ("html" for resource blocks, the
	// fence tag for legacy inline blocks).
	Kind string

	// HTML is the raw, unsanitized markup. Callers must pass it through
	// the sanitizer before rendering.
	HTML string
}

// ExtractWebview returns the webview carried by a tool result, if any.
//
// Resource blocks with mime type "text/html" take priority. When no
// eligible resource block exists, the legacy inline fenced syntax is
// parsed from the text as a fallback.
func ExtractWebview(blocks []ContentBlock) (Webview, bool) {
	for _, b := range blocks {
		if b.Type == ContentTypeResource && b.Resource.IsHTML() {
			return Webview{Kind: "html", HTML: b.Resource.Text}, true
		}
	}
	for _, b := range blocks {
		if b.Type != ContentTypeText {
			continue
		}
		if wv, ok := extractLegacyWebview(b.Text); ok {
			return wv, true
		}
	}
	return Webview{}, false
}

// extractLegacyWebview parses the first ```webview:<type> fenced block.
func extractLegacyWebview(text string) (Webview, bool) {
	match := legacyWebviewRegex.FindStringSubmatch(text)
	if len(match) < 3 {
		return Webview{}, false
	}
	return Webview{
		Kind: match[1],
		HTML: strings.TrimSpace(match[2]),
	}, true
}

// StripLegacyWebview removes legacy fenced webview blocks from text so the
// markup is not duplicated into the plain-text transcript.
func StripLegacyWebview(text string) string {
	return strings.TrimSpace(legacyWebviewRegex.ReplaceAllString(text, ""))
}
