package document

import (
	"regexp"
	"strings"
	"unicode"
)

// Slug normalizes a name into a lowercase identifier: runs of characters
// other than letters and digits collapse to a single "-", and leading or
// trailing dashes are trimmed.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// SlugPath slugs every segment of path and joins them with "/".
func SlugPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = Slug(p)
	}
	return strings.Join(parts, "/")
}

// ParseReference reports whether s is a brace-delimited reference and returns
// its raw dot-separated segments.
func ParseReference(s string) ([]string, bool) {
	if len(s) < 3 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, false
	}
	inner := s[1 : len(s)-1]
	if strings.ContainsAny(inner, "{}") {
		return nil, false
	}
	return strings.Split(inner, "."), true
}

// FormatReference renders segments as a brace-delimited reference.
func FormatReference(path []string) string {
	return "{" + strings.Join(path, ".") + "}"
}

// legacyGroup matches the synthetic subgroup older exports placed directly
// under each collection.
var legacyGroup = regexp.MustCompile(`^collection-\d+$`)

// outputPath strips a legacy "collection-N" segment right below the
// collection.
func outputPath(path []string) []string {
	if len(path) > 2 && legacyGroup.MatchString(path[1]) {
		out := make([]string, 0, len(path)-1)
		out = append(out, path[0])
		return append(out, path[2:]...)
	}
	return path
}
