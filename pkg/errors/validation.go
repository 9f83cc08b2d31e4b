package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds collection, mode and token segment names.
const maxNameLength = 256

// ValidateName validates a collection, mode or token path segment before it
// is sent to a store.
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No curly braces (they delimit references in documents)
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name %q contains control characters", name)
		}
	}

	if strings.ContainsAny(name, "{}") {
		return New(ErrCodeInvalidName, "name %q contains reference delimiters", name)
	}

	return nil
}

// ValidatePath validates every segment of a token path.
// A path needs a collection segment plus at least one name segment.
func ValidatePath(path []string) error {
	if len(path) < 2 {
		return New(ErrCodeInvalidName, "path %q needs a collection and a name", strings.Join(path, "."))
	}
	for _, seg := range path {
		if err := ValidateName(seg); err != nil {
			return err
		}
	}
	return nil
}
