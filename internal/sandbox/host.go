// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/halcyonlabs/parley/internal/audit"
	"github.com/halcyonlabs/parley/internal/elicit"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxMessageBytes bounds inbound message payloads (256KB).
const DefaultMaxMessageBytes = 256 * 1024

// Inbound message rate limit: sustained and burst.
const (
	DefaultMessageRate  = 50 // messages per second
	DefaultMessageBurst = 100
)

// Inbound message types.
const (
	TypeWebviewMessage       = "webview-message"
	TypeElicitationResponse  = "elicitation-response"
	TypeElicitationCancelled = "elicitation-cancelled"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrOriginMismatch marks a message dropped for carrying a foreign
	// origin. The drop is silent: logged, no user-visible effect.
	ErrOriginMismatch = errors.New("message origin does not match host origin")

	// ErrMessageTooLarge marks an oversized payload.
	ErrMessageTooLarge = errors.New("message payload exceeds size limit")

	// ErrMalformedMessage marks a message failing shape validation.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownMessageType marks an unrecognized message type.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrRateLimited marks a message dropped by the rate limiter.
	ErrRateLimited = errors.New("message rate limit exceeded")
)

// =============================================================================
// MESSAGES
// =============================================================================

// InboundMessage is a content-to-host message received on the channel.
type InboundMessage struct {
	// Origin is the sender's origin as reported by the channel transport.
	Origin string `json:"origin"`

	// Type selects the handler.
	Type string `json:"type"`

	// Data is the type-specific payload.
	Data json.RawMessage `json:"data"`
}

// elicitationPayload is the data shape for elicitation-response and
// elicitation-cancelled messages.
type elicitationPayload struct {
	RequestID string                 `json:"requestId"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// =============================================================================
// HOST
// =============================================================================

// Host is the host side of the sandbox message channel. Safe for
// concurrent use.
type Host struct {
	origin   string
	tracker  *elicit.Tracker
	auditLog *audit.Log

	mu      sync.Mutex
	limiter *rate.Limiter
	maxSize int

	// OnWebviewMessage receives generic payloads forwarded to the active
	// tool flow. Nil drops webview messages.
	OnWebviewMessage func(data json.RawMessage)
}

// NewHost creates a host bound to its own exact origin.
// The audit log may be nil; security rejections are then simply dropped.
func NewHost(origin string, tracker *elicit.Tracker, auditLog *audit.Log) *Host {
	return &Host{
		origin:   origin,
		tracker:  tracker,
		auditLog: auditLog,
		limiter:  rate.NewLimiter(rate.Limit(DefaultMessageRate), DefaultMessageBurst),
		maxSize:  DefaultMaxMessageBytes,
	}
}

// Origin returns the host's own origin.
func (h *Host) Origin() string {
	return h.origin
}

// SetMaxMessageBytes overrides the inbound payload size limit.
func (h *Host) SetMaxMessageBytes(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > 0 {
		h.maxSize = n
	}
}

// HandleInbound validates and processes one inbound message.
//
// Validation order: rate limit, exact-origin check, size, shape. A message
// failing any check is dropped before any handler runs; security failures
// are recorded in the audit log and never leak detail back to the sandbox.
func (h *Host) HandleInbound(msg InboundMessage) error {
	if !h.limiter.Allow() {
		h.record(audit.EventMessageRejected, map[string]string{"reason": "rate_limited"})
		return ErrRateLimited
	}

	// Exact origin match against the host's own origin; never a wildcard.
	if msg.Origin != h.origin {
		h.record(audit.EventOriginMismatch, map[string]string{"origin": truncate(msg.Origin, 128)})
		return ErrOriginMismatch
	}

	h.mu.Lock()
	maxSize := h.maxSize
	h.mu.Unlock()
	if len(msg.Data) > maxSize {
		h.record(audit.EventMessageRejected, map[string]string{
			"reason": "oversized",
			"type":   msg.Type,
		})
		return ErrMessageTooLarge
	}

	switch msg.Type {
	case TypeWebviewMessage:
		return h.handleWebviewMessage(msg.Data)
	case TypeElicitationResponse:
		return h.handleElicitationResponse(msg.Data)
	case TypeElicitationCancelled:
		return h.handleElicitationCancelled(msg.Data)
	default:
		h.record(audit.EventMessageRejected, map[string]string{
			"reason": "unknown_type",
			"type":   truncate(msg.Type, 64),
		})
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}
}

// handleWebviewMessage forwards a generic payload to the active tool flow.
func (h *Host) handleWebviewMessage(data json.RawMessage) error {
	if h.OnWebviewMessage != nil {
		h.OnWebviewMessage(data)
	}
	return nil
}

// handleElicitationResponse consumes the request and delivers the collected
// data directly to the originating provider.
func (h *Host) handleElicitationResponse(data json.RawMessage) error {
	payload, err := h.parseElicitation(data)
	if err != nil {
		return err
	}

	if err := h.tracker.Deliver(payload.RequestID, payload.Data); err != nil {
		h.record(audit.EventElicitationRejected, map[string]string{
			"request_id": payload.RequestID,
			"reason":     err.Error(),
		})
		return err
	}

	h.record(audit.EventElicitationConsumed, map[string]string{
		"request_id": payload.RequestID,
	})
	return nil
}

// handleElicitationCancelled terminates the pending request. The request is
// marked consumed so a stale submission cannot reuse it.
func (h *Host) handleElicitationCancelled(data json.RawMessage) error {
	payload, err := h.parseElicitation(data)
	if err != nil {
		return err
	}

	if err := h.tracker.Cancel(payload.RequestID); err != nil {
		h.record(audit.EventElicitationRejected, map[string]string{
			"request_id": payload.RequestID,
			"reason":     err.Error(),
		})
		return err
	}
	return nil
}

// parseElicitation validates the shape of an elicitation payload.
func (h *Host) parseElicitation(data json.RawMessage) (*elicitationPayload, error) {
	var payload elicitationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.record(audit.EventMessageRejected, map[string]string{"reason": "malformed"})
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if payload.RequestID == "" {
		h.record(audit.EventMessageRejected, map[string]string{"reason": "missing_request_id"})
		return nil, fmt.Errorf("%w: missing requestId", ErrMalformedMessage)
	}
	return &payload, nil
}

// record writes an audit event, ignoring audit failures: auditing must
// never break message handling.
func (h *Host) record(eventType string, detail map[string]string) {
	if h.auditLog == nil {
		return
	}
	_ = h.auditLog.Record(eventType, detail)
}

// truncate bounds a string for audit storage.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
