package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-02T03:04:05Z"

	want := "version: v1.2.3\ncommit: abc123\nbuilt: 2026-01-02T03:04:05Z"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTemplate(t *testing.T) {
	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} ") {
		t.Errorf("Template() = %q, want cobra name placeholder", got)
	}
	if !strings.Contains(got, Version) || !strings.HasSuffix(got, "\n") {
		t.Errorf("Template() = %q", got)
	}
}
