// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package elicit tracks out-of-band input requests issued by tool providers.
//
// An elicitation is a provider's mid-execution need for user-supplied data
// that must not pass through the model. Each request is single-use with a
// hard expiry: consume is atomic, so concurrent duplicate submissions for
// the same request succeed for exactly one caller. Collected responses are
// delivered directly to the waiting provider, never to the orchestrator.
package elicit
