package models

import (
	"strings"
	"testing"
)

func TestValidateNationalID_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "29710260300314", "29710260300314"},
		{"leading whitespace", "  29710260300314", "29710260300314"},
		{"trailing whitespace", "29710260300314\n", "29710260300314"},
		{"all zeros", "00000000000000", "00000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateNationalID(tt.in)
			if err != nil {
				t.Fatalf("ValidateNationalID(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ValidateNationalID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateNationalID_Idempotent(t *testing.T) {
	first, err := ValidateNationalID(" 29710260300314 ")
	if err != nil {
		t.Fatalf("first validation failed: %v", err)
	}
	second, err := ValidateNationalID(first)
	if err != nil {
		t.Fatalf("revalidation failed: %v", err)
	}
	if first != second {
		t.Errorf("validation not idempotent: %q then %q", first, second)
	}
}

func TestValidateNationalID_WrongLength(t *testing.T) {
	tests := []struct {
		in      string
		wantLen string
	}{
		{"", "got 0 characters"},
		{"123", "got 3 characters"},
		{"2971026000314", "got 13 characters"},
		{"297102603003145", "got 15 characters"},
	}

	for _, tt := range tests {
		_, err := ValidateNationalID(tt.in)
		if err == nil {
			t.Fatalf("ValidateNationalID(%q) accepted wrong-length input", tt.in)
		}
		if !strings.Contains(err.Error(), tt.wantLen) {
			t.Errorf("ValidateNationalID(%q) error %q does not state observed length %q",
				tt.in, err.Error(), tt.wantLen)
		}
	}
}

func TestValidateNationalID_NonDigit(t *testing.T) {
	for _, in := range []string{"2971026030031a", "29710-60300314", "٢٩٧١٠٢٦٠٣٠٠٣١٤"} {
		_, err := ValidateNationalID(in)
		if err == nil {
			t.Fatalf("ValidateNationalID(%q) accepted non-ASCII-digit input", in)
		}
		if !strings.Contains(err.Error(), "only digits") {
			t.Errorf("ValidateNationalID(%q) error %q does not cite digits-only constraint", in, err.Error())
		}
		var lerr *LookupError
		if le, ok := err.(*LookupError); ok {
			lerr = le
		} else {
			t.Fatalf("ValidateNationalID(%q) returned %T, want *LookupError", in, err)
		}
		if lerr.Code != ErrCodeInvalidInput {
			t.Errorf("ValidateNationalID(%q) code = %s, want %s", in, lerr.Code, ErrCodeInvalidInput)
		}
	}
}

func TestLookupErrorRetryable(t *testing.T) {
	retryable := []string{
		ErrCodeNavigation, ErrCodeFrameNotFound, ErrCodeInputNotFound,
		ErrCodeSubmitFailed, ErrCodeEmptyPage, ErrCodeExtraction,
	}
	for _, code := range retryable {
		if !NewLookupError(code, "x", nil).Retryable() {
			t.Errorf("code %s should be retryable", code)
		}
	}

	terminal := []string{ErrCodeInvalidInput, ErrCodeTimeout, ErrCodeRateLimited, ErrCodeInternal}
	for _, code := range terminal {
		if NewLookupError(code, "x", nil).Retryable() {
			t.Errorf("code %s should not be retryable", code)
		}
	}
}

func TestRecordEmpty(t *testing.T) {
	if !(Record{}).Empty() {
		t.Error("zero record should be empty")
	}
	if (Record{District: "قسم الشرق"}).Empty() {
		t.Error("record with a district should not be empty")
	}
}
