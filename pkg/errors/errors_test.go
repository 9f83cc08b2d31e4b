package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedDocument, "root is %s", "array")

	if err.Code != ErrCodeMalformedDocument {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedDocument)
	}

	if err.Message != "root is array" {
		t.Errorf("Message = %v, want %v", err.Message, "root is array")
	}

	expected := "MALFORMED_DOCUMENT: root is array"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, cause, "create collection")

	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidColor, "test"),
			code:     ErrCodeInvalidColor,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidColor, "test"),
			code:     ErrCodeMissingColorData,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeAliasStalled, New(ErrCodeUnresolvedAlias, "inner"), "outer"),
			code:     ErrCodeAliasStalled,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeSelfAlias, "test"),
			expected: ErrCodeSelfAlias,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCodeClasses(t *testing.T) {
	if !IsFatal(ErrCodeMalformedDocument) {
		t.Error("MALFORMED_DOCUMENT should be fatal")
	}
	if !IsFatal(ErrCodeAliasStalled) {
		t.Error("ALIAS_STALLED should be fatal")
	}
	if IsFatal(ErrCodeTypeMismatch) {
		t.Error("TYPE_MISMATCH should not be fatal")
	}
	if !IsInformational(ErrCodeStoreModeLimit) {
		t.Error("STORE_MODE_LIMIT should be informational")
	}
	if IsInformational(ErrCodeUnresolvedAlias) {
		t.Error("UNRESOLVED_ALIAS should not be informational")
	}
}
