// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sanitize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/halcyonlabs/parley/internal/model"
	"github.com/halcyonlabs/parley/internal/trust"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// MaxContentSize is the largest HTML payload accepted for sanitization (2MB).
const MaxContentSize = 2 * 1024 * 1024

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrContentRejected is returned when content is refused outright and
	// must never be rendered.
	ErrContentRejected = errors.New("content rejected by sanitizer")

	// ErrUnsupportedMimeType is returned for resources that are not HTML.
	ErrUnsupportedMimeType = errors.New("resource mime type is not eligible for rendering")
)

// =============================================================================
// SANITIZER
// =============================================================================

// Sanitizer applies per-trust-level bluemonday policies.
// Policies are built once at construction; Sanitizer is safe for
// concurrent use.
type Sanitizer struct {
	policies map[trust.Level]*bluemonday.Policy
	maxSize  int
}

// NewSanitizer creates a sanitizer with the default policy set.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		policies: map[trust.Level]*bluemonday.Policy{
			trust.LevelVerified:   fullPolicy(true),
			trust.LevelTrusted:    fullPolicy(true),
			trust.LevelUnverified: strippedPolicy(),
		},
		maxSize: MaxContentSize,
	}
}

// Sanitize returns html with disallowed markup removed for the given trust
// level. Output never contains script/iframe/object/embed elements, inline
// event handlers, or non-allow-listed URI schemes, for any input.
func (s *Sanitizer) Sanitize(html string, level trust.Level) string {
	policy, ok := s.policies[level]
	if !ok {
		policy = s.policies[trust.LevelUnverified]
	}
	return policy.Sanitize(html)
}

// SanitizeResource validates and sanitizes a tool resource block.
// Returns ErrUnsupportedMimeType for non-HTML resources and
// ErrContentRejected for oversized payloads or content that sanitizes to
// nothing; rejected content is never rendered.
func (s *Sanitizer) SanitizeResource(res *model.ResourceBlock, level trust.Level) (string, error) {
	if res == nil || !res.IsHTML() {
		return "", ErrUnsupportedMimeType
	}
	return s.SanitizeChecked(res.Text, level)
}

// SanitizeChecked sanitizes html and rejects payloads that are oversized or
// empty after sanitization.
func (s *Sanitizer) SanitizeChecked(html string, level trust.Level) (string, error) {
	if len(html) > s.maxSize {
		return "", fmt.Errorf("%w: payload exceeds %d bytes", ErrContentRejected, s.maxSize)
	}

	safe := s.Sanitize(html, level)
	if strings.TrimSpace(safe) == "" && strings.TrimSpace(html) != "" {
		return "", fmt.Errorf("%w: no renderable content after sanitization", ErrContentRejected)
	}
	return safe, nil
}

// =============================================================================
// POLICIES
// =============================================================================

// allowURLs restricts every policy to http(s) links and data-URI images.
// All other URI schemes (javascript:, vbscript:, file:, ...) are neutralized.
func allowURLs(p *bluemonday.Policy) *bluemonday.Policy {
	p.AllowURLSchemes("http", "https")
	p.AllowDataURIImages()
	p.RequireNoFollowOnLinks(true)
	return p
}

// fullPolicy permits rich markup for verified and trusted content.
// Script, iframe, object, and embed are never allowed: for trusted content
// script execution is granted only by the renderer boundary, not by letting
// script tags survive sanitization. Built from an empty policy rather than
// the UGC preset so the URL scheme allow-list stays exact.
func fullPolicy(forms bool) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardAttributes()
	p.AllowTables()
	p.AllowImages()
	p.AllowLists()
	p.AllowElements("p", "br", "hr", "b", "i", "em", "strong", "u", "s",
		"sub", "sup", "small", "mark", "abbr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "q", "cite", "code", "pre", "kbd", "samp",
		"div", "span", "section", "article", "header", "footer",
		"details", "summary", "figure", "figcaption")
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("a")
	p.AllowAttrs("class", "id").Globally()

	if forms {
		p.AllowElements("form", "fieldset", "legend", "label", "button",
			"select", "option", "optgroup", "textarea", "datalist", "output")
		p.AllowAttrs("type", "name", "value", "placeholder", "checked",
			"disabled", "readonly", "required", "min", "max", "step",
			"maxlength", "pattern").OnElements("input")
		p.AllowElements("input")
		p.AllowAttrs("name", "action", "method").OnElements("form")
		p.AllowAttrs("for").OnElements("label")
		p.AllowAttrs("name", "value", "selected").OnElements("option")
		p.AllowAttrs("name", "multiple", "size").OnElements("select")
		p.AllowAttrs("name", "rows", "cols", "placeholder").OnElements("textarea")
		p.AllowAttrs("type", "name", "value", "disabled").OnElements("button")
	}

	return allowURLs(p)
}

// strippedPolicy heavily strips markup for unverified content: basic
// formatting only, no forms, limited attributes.
func strippedPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "hr", "b", "i", "em", "strong", "u", "s",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "dl", "dt", "dd",
		"blockquote", "code", "pre", "div", "span",
		"table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("a")
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.AllowElements("img")

	return allowURLs(p)
}
