// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sandbox

import (
	"github.com/halcyonlabs/parley/internal/model"
	"github.com/halcyonlabs/parley/internal/sanitize"
	"github.com/halcyonlabs/parley/internal/trust"
)

// =============================================================================
// PAGE PREPARATION
// =============================================================================

// Page is a sanitized document ready to hand to the isolated renderer,
// together with the capabilities its trust level grants. The trust level
// is fixed at content-origin time and never upgraded here.
type Page struct {
	// ProviderID and Tool identify the content source.
	ProviderID string
	Tool       string

	// Trust is the level assigned at classification time.
	Trust trust.Level

	// HTML is the sanitized document body.
	HTML string

	// Capabilities granted to the rendered content. Script execution, when
	// granted, happens only inside the isolated renderer.
	Capabilities trust.Capabilities
}

// Preparer turns tool webviews into renderable pages.
type Preparer struct {
	classifier *trust.Classifier
	sanitizer  *sanitize.Sanitizer
}

// NewPreparer creates a page preparer.
func NewPreparer(classifier *trust.Classifier, sanitizer *sanitize.Sanitizer) *Preparer {
	return &Preparer{
		classifier: classifier,
		sanitizer:  sanitizer,
	}
}

// Prepare classifies, sanitizes, and packages a tool webview.
// Returns a sanitize error when the content is refused; refused content is
// never rendered.
func (p *Preparer) Prepare(providerID, tool string, wv model.Webview) (*Page, error) {
	level := p.classifier.ClassifyProvider(providerID)

	safe, err := p.sanitizer.SanitizeChecked(wv.HTML, level)
	if err != nil {
		return nil, err
	}

	return &Page{
		ProviderID:   providerID,
		Tool:         tool,
		Trust:        level,
		HTML:         safe,
		Capabilities: trust.CapabilitiesFor(level),
	}, nil
}

// Document is the initial host-to-content payload for a prepared page.
type Document struct {
	HTML         string `json:"html"`
	AllowScripts bool   `json:"allow_scripts"`
	AllowForms   bool   `json:"allow_forms"`
}

// Document returns the outbound payload for the page.
func (pg *Page) Document() Document {
	return Document{
		HTML:         pg.HTML,
		AllowScripts: pg.Capabilities.Scripts,
		AllowForms:   pg.Capabilities.Forms,
	}
}
