// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONTENT BLOCK WIRE FORMAT
// =============================================================================

// Content block types on the wire.
const (
	ContentTypeText     = "text"
	ContentTypeResource = "resource"
)

// MimeTypeHTML is the only mime type eligible to become a webview.
const MimeTypeHTML = "text/html"

// ContentBlock is a single block of tool-produced content.
// Exactly one of Text or Resource is populated, selected by Type.
type ContentBlock struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Resource *ResourceBlock `json:"resource,omitempty"`
}

// ResourceBlock is an embedded resource returned by a tool.
type ResourceBlock struct {
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// IsHTML reports whether the resource is eligible to become a webview.
func (r *ResourceBlock) IsHTML() bool {
	return r != nil && r.MimeType == MimeTypeHTML
}

// NewTextBlock creates a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// NewResourceBlock creates a resource content block.
func NewResourceBlock(uri, mimeType, text string) ContentBlock {
	return ContentBlock{
		Type: ContentTypeResource,
		Resource: &ResourceBlock{
			URI:      uri,
			MimeType: mimeType,
			Text:     text,
		},
	}
}

// JoinText concatenates the text portions of a block sequence, skipping
// resource blocks. Used when folding tool output back into conversation
// history, which only carries plain text to the model.
func JoinText(blocks []ContentBlock) string {
	var out string
	for _, b := range blocks {
		if b.Type == ContentTypeText && b.Text != "" {
			if out != "" {
				out += "\n"
			}
			out += b.Text
		}
	}
	return out
}
