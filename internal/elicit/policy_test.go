// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package elicit

import (
	"errors"
	"testing"
)

// =============================================================================
// SENSITIVITY POLICY TESTS
// =============================================================================

func TestIsSensitiveFieldName(t *testing.T) {
	sensitive := []string{
		"password",
		"Password",
		"user_password",
		"apiKey",
		"api_key",
		"clientSecret",
		"access_token",
		"creditCardNumber",
		"cvv",
		"ssn",
		"private_key",
	}
	for _, name := range sensitive {
		if !IsSensitiveFieldName(name) {
			t.Errorf("%q should be flagged sensitive", name)
		}
	}

	benign := []string{"city", "seat", "email", "quantity", "departure_date"}
	for _, name := range benign {
		if IsSensitiveFieldName(name) {
			t.Errorf("%q should not be flagged", name)
		}
	}
}

func TestValidateFormSchema(t *testing.T) {
	ok := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"city": map[string]interface{}{"type": "string"},
			"days": map[string]interface{}{"type": "integer"},
		},
	}
	if err := ValidateFormSchema(ok); err != nil {
		t.Errorf("benign schema rejected: %v", err)
	}

	bad := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"username": map[string]interface{}{"type": "string"},
			"password": map[string]interface{}{"type": "string"},
		},
	}
	if err := ValidateFormSchema(bad); !errors.Is(err, ErrSensitiveForm) {
		t.Errorf("error = %v, want ErrSensitiveForm", err)
	}

	// Schemas without a properties object pass through.
	if err := ValidateFormSchema(map[string]interface{}{"type": "object"}); err != nil {
		t.Errorf("schema without properties rejected: %v", err)
	}
	if err := ValidateFormSchema(nil); err != nil {
		t.Errorf("nil schema rejected: %v", err)
	}
}

func TestValidateMode(t *testing.T) {
	sensitive := map[string]interface{}{
		"properties": map[string]interface{}{
			"api_key": map[string]interface{}{"type": "string"},
		},
	}

	if err := ValidateMode(ModeForm, sensitive); !errors.Is(err, ErrSensitiveForm) {
		t.Errorf("form mode with sensitive schema = %v, want ErrSensitiveForm", err)
	}

	// URL mode is the sanctioned channel for sensitive collection.
	if err := ValidateMode(ModeURL, sensitive); err != nil {
		t.Errorf("url mode should accept sensitive schema: %v", err)
	}
}
