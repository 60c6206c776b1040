// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package trust classifies content sources and defines the rendering
// capabilities each trust level receives.
//
// Classification is by origin identity only: model-authored content is
// verified, allow-listed providers are trusted, everything else is
// unverified. A level is assigned once at content-origin time and is never
// upgraded during sanitization or rendering.
package trust
