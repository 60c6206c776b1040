// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package trust

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier assigns trust levels to content sources based on an allow-list
// of provider identities. The allow-list is read-mostly: it is loaded once
// and mutated only by the explicit, serialized Reload operation, so readers
// never observe a half-updated list.
type Classifier struct {
	mu      sync.RWMutex
	allowed map[string]struct{}
}

// NewClassifier creates a classifier with the given allow-listed providers.
func NewClassifier(allowedProviders []string) *Classifier {
	c := &Classifier{}
	c.replace(allowedProviders)
	return c
}

// replace swaps in a fresh allow-list.
func (c *Classifier) replace(providers []string) {
	next := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if p != "" {
			next[p] = struct{}{}
		}
	}

	c.mu.Lock()
	c.allowed = next
	c.mu.Unlock()
}

// ClassifyProvider returns the trust level for a provider identity.
// Classification never inspects content, only origin.
func (c *Classifier) ClassifyProvider(providerID string) Level {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.allowed[providerID]; ok {
		return LevelTrusted
	}
	return LevelUnverified
}

// ClassifyModelContent returns the trust level for model-authored content.
func (c *Classifier) ClassifyModelContent() Level {
	return LevelVerified
}

// IsAllowListed reports whether a provider is on the allow-list.
func (c *Classifier) IsAllowListed(providerID string) bool {
	return c.ClassifyProvider(providerID) == LevelTrusted
}

// Reload atomically replaces the allow-list with the given providers.
func (c *Classifier) Reload(allowedProviders []string) {
	c.replace(allowedProviders)
}

// =============================================================================
// ALLOW-LIST FILE
// =============================================================================

// allowListFile is the on-disk allow-list format.
type allowListFile struct {
	TrustedProviders []string `json:"trusted_providers"`
}

// LoadAllowList reads an allow-list file and returns the provider IDs.
func LoadAllowList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allow-list: %w", err)
	}

	var file allowListFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list: %w", err)
	}
	return file.TrustedProviders, nil
}

// ReloadFromFile reloads the allow-list from disk in one serialized swap.
func (c *Classifier) ReloadFromFile(path string) error {
	providers, err := LoadAllowList(path)
	if err != nil {
		return err
	}
	c.Reload(providers)
	return nil
}
