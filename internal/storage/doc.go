// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for parley.
//
// Conversations are stored as individual JSON files under
// ~/.parley/conversations/, written atomically so a crash never leaves a
// partial file. The store keeps a bounded number of conversations, evicting
// the oldest by update time.
package storage
