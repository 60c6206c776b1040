// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package elicit

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// FORM SENSITIVITY POLICY
// =============================================================================

// ErrSensitiveForm is returned when a form-mode schema requests data that
// the protocol requires to be collected via url mode.
var ErrSensitiveForm = errors.New("form mode may not collect sensitive data; use url mode")

// sensitiveFieldMarkers are substrings that flag a form field as collecting
// credentials, payment data, or other secrets. Matching is design-time
// validation of the form/url split, not a runtime guarantee: a provider
// naming a password field "p" is not caught, and url mode remains the only
// sound channel for sensitive collection.
var sensitiveFieldMarkers = []string{
	"password",
	"passphrase",
	"apikey",
	"api_key",
	"secret",
	"token",
	"credential",
	"creditcard",
	"credit_card",
	"cardnumber",
	"card_number",
	"cvv",
	"ssn",
	"privatekey",
	"private_key",
}

// ValidateFormSchema checks a form-mode schema against the sensitivity
// policy. Schemas follow JSON Schema shape: a top-level "properties" object
// whose keys are field names.
func ValidateFormSchema(schema map[string]interface{}) error {
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}

	for field := range props {
		if IsSensitiveFieldName(field) {
			return fmt.Errorf("%w: field %q", ErrSensitiveForm, field)
		}
	}
	return nil
}

// IsSensitiveFieldName reports whether a field name matches a known
// credential/payment/secret marker.
func IsSensitiveFieldName(name string) bool {
	lowered := strings.ToLower(name)
	for _, marker := range sensitiveFieldMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// ValidateMode enforces the mode invariant at request-creation time:
// form mode is rejected outright when its schema names sensitive fields.
func ValidateMode(mode Mode, schema map[string]interface{}) error {
	if mode != ModeForm {
		return nil
	}
	return ValidateFormSchema(schema)
}
