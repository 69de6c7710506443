package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// nationalIDLength is the fixed length of an Egyptian national ID.
const nationalIDLength = 14

// LookupRequest is the payload for POST /api/v1/lookup.
type LookupRequest struct {
	// NationalID is the 14-digit national ID to query. Required.
	NationalID string `json:"national_id" binding:"required"`

	// Timeout is the maximum duration in seconds for the entire lookup
	// including all retries. Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
}

// ValidateNationalID trims whitespace and checks the 14-digit invariant.
// It runs before any browser interaction; the returned string is the
// canonical identifier to query with.
func ValidateNationalID(raw string) (string, error) {
	v := strings.TrimSpace(raw)

	if n := utf8.RuneCountInString(v); n != nationalIDLength {
		return "", NewLookupError(
			ErrCodeInvalidInput,
			fmt.Sprintf("national ID must be exactly %d digits, got %d characters", nationalIDLength, n),
			nil,
		)
	}

	for _, r := range v {
		if r < '0' || r > '9' {
			return "", NewLookupError(
				ErrCodeInvalidInput,
				"national ID must contain only digits (0-9)",
				nil,
			)
		}
	}

	return v, nil
}
