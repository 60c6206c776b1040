// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sanitize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/parley/internal/model"
	"github.com/halcyonlabs/parley/internal/trust"
)

var allLevels = []trust.Level{
	trust.LevelVerified,
	trust.LevelTrusted,
	trust.LevelUnverified,
}

// =============================================================================
// INVARIANT TESTS
// =============================================================================

func TestScriptsStrippedAtEveryLevel(t *testing.T) {
	s := NewSanitizer()

	payloads := []string{
		`<script>alert(1)</script><p>hi</p>`,
		`<SCRIPT SRC="https://evil.example/x.js"></SCRIPT><p>hi</p>`,
		`<p>hi</p><script type="module">import("x")</script>`,
		`<iframe src="https://evil.example"></iframe><p>hi</p>`,
		`<object data="x.swf"></object><p>hi</p>`,
		`<embed src="x.swf"><p>hi</p>`,
	}

	for _, level := range allLevels {
		for _, payload := range payloads {
			out := s.Sanitize(payload, level)
			assert.NotContains(t, strings.ToLower(out), "<script", "level %s: %q", level, payload)
			assert.NotContains(t, strings.ToLower(out), "<iframe", "level %s: %q", level, payload)
			assert.NotContains(t, strings.ToLower(out), "<object", "level %s: %q", level, payload)
			assert.NotContains(t, strings.ToLower(out), "<embed", "level %s: %q", level, payload)
			assert.Contains(t, out, "hi", "benign content should survive")
		}
	}
}

func TestEventHandlersStripped(t *testing.T) {
	s := NewSanitizer()

	payloads := []string{
		`<div onclick="alert(1)">x</div>`,
		`<img src="https://a.example/x.png" onerror="alert(1)">`,
		`<p onmouseover="steal()">x</p>`,
		`<button ONCLICK="x()">go</button>`,
	}

	for _, level := range allLevels {
		for _, payload := range payloads {
			out := strings.ToLower(s.Sanitize(payload, level))
			assert.NotContains(t, out, "onclick", "level %s", level)
			assert.NotContains(t, out, "onerror", "level %s", level)
			assert.NotContains(t, out, "onmouseover", "level %s", level)
		}
	}
}

func TestURISchemeAllowList(t *testing.T) {
	s := NewSanitizer()

	blocked := []string{
		`<a href="javascript:alert(1)">x</a>`,
		`<a href="JaVaScRiPt:alert(1)">x</a>`,
		`<a href="vbscript:msgbox(1)">x</a>`,
		`<a href="file:///etc/passwd">x</a>`,
		`<a href="ftp://evil.example/x">x</a>`,
		`<img src="data:text/html;base64,PHNjcmlwdD4=">`,
	}
	for _, level := range allLevels {
		for _, payload := range blocked {
			out := strings.ToLower(s.Sanitize(payload, level))
			assert.NotContains(t, out, "javascript:", "level %s: %q", level, payload)
			assert.NotContains(t, out, "vbscript:", "level %s: %q", level, payload)
			assert.NotContains(t, out, "file:", "level %s: %q", level, payload)
			assert.NotContains(t, out, "ftp:", "level %s: %q", level, payload)
			assert.NotContains(t, out, "data:text/html", "level %s: %q", level, payload)
		}
	}

	// The allowed schemes survive.
	for _, level := range allLevels {
		out := s.Sanitize(`<a href="https://ok.example/page">link</a>`, level)
		assert.Contains(t, out, `https://ok.example/page`, "level %s", level)

		out = s.Sanitize(`<img src="data:image/png;base64,iVBORw0KGgo=" alt="x">`, level)
		assert.Contains(t, out, "data:image/png", "level %s: data-URI images are allowed", level)
	}
}

// =============================================================================
// TRUST LEVEL DIFFERENCES
// =============================================================================

func TestFormsPerTrustLevel(t *testing.T) {
	s := NewSanitizer()
	form := `<form name="f" method="post"><input type="text" name="city"><button type="submit">go</button></form>`

	for _, level := range []trust.Level{trust.LevelVerified, trust.LevelTrusted} {
		out := s.Sanitize(form, level)
		assert.Contains(t, out, "<form", "level %s keeps forms", level)
		assert.Contains(t, out, "<input", "level %s keeps inputs", level)
	}

	out := s.Sanitize(form, trust.LevelUnverified)
	assert.NotContains(t, out, "<form", "unverified content loses forms")
	assert.NotContains(t, out, "<input", "unverified content loses inputs")
}

func TestUnknownLevelFallsBackToStripped(t *testing.T) {
	s := NewSanitizer()
	out := s.Sanitize(`<form><input name="x"></form><p>t</p>`, trust.Level(999))
	assert.NotContains(t, out, "<form")
	assert.Contains(t, out, "<p>t</p>")
}

// =============================================================================
// CHECKED SANITIZATION
// =============================================================================

func TestSanitizeCheckedOversized(t *testing.T) {
	s := NewSanitizer()
	huge := "<p>" + strings.Repeat("a", MaxContentSize) + "</p>"

	_, err := s.SanitizeChecked(huge, trust.LevelVerified)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentRejected)
}

func TestSanitizeCheckedEmptyAfterSanitize(t *testing.T) {
	s := NewSanitizer()

	_, err := s.SanitizeChecked(`<script>alert(1)</script>`, trust.LevelVerified)
	assert.ErrorIs(t, err, ErrContentRejected, "pure-script payload has nothing renderable")

	// Genuinely empty input is not an error.
	out, err := s.SanitizeChecked("", trust.LevelVerified)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestSanitizeResource(t *testing.T) {
	s := NewSanitizer()

	html := &model.ResourceBlock{
		URI:      "ui://card",
		MimeType: model.MimeTypeHTML,
		Text:     `<div class="card">hello</div>`,
	}
	out, err := s.SanitizeResource(html, trust.LevelVerified)
	require.NoError(t, err)
	assert.Contains(t, out, "hello")

	plain := &model.ResourceBlock{MimeType: "application/json", Text: "{}"}
	_, err = s.SanitizeResource(plain, trust.LevelVerified)
	assert.True(t, errors.Is(err, ErrUnsupportedMimeType))

	_, err = s.SanitizeResource(nil, trust.LevelVerified)
	assert.True(t, errors.Is(err, ErrUnsupportedMimeType))
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestSanitizeIdempotent(t *testing.T) {
	s := NewSanitizer()
	input := `<div class="x"><a href="https://a.example">l</a><img src="https://a.example/i.png"><form><input name="q"></form></div>`

	for _, level := range allLevels {
		once := s.Sanitize(input, level)
		twice := s.Sanitize(once, level)
		assert.Equal(t, once, twice, "level %s", level)
	}
}
