package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokensync/pkg/errors"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Report(errors.ErrCodeInvalidColor, "bad color")
	Reportf(c, errors.ErrCodeTypeMismatch, "token %s", "A.x")
	c.Report(errors.ErrCodeInvalidColor, "another")

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if got := c.Count(errors.ErrCodeInvalidColor); got != 2 {
		t.Errorf("Count(INVALID_COLOR) = %d, want 2", got)
	}
	if !c.Has(errors.ErrCodeTypeMismatch) {
		t.Error("Has(TYPE_MISMATCH) = false")
	}
	if c.Has(errors.ErrCodeSelfAlias) {
		t.Error("Has(SELF_ALIAS) = true")
	}
	all := c.All()
	if all[1].String() != "TYPE_MISMATCH: token A.x" {
		t.Errorf("String() = %q", all[1].String())
	}
}

func TestReportfNilSink(t *testing.T) {
	// Must not panic.
	Reportf(nil, errors.ErrCodeInvalidColor, "ignored")
}

func TestMulti(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	m := Multi{a, nil, b, Discard}
	m.Report(errors.ErrCodeSelfAlias, "self")
	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("fan-out lens = %d, %d, want 1, 1", a.Len(), b.Len())
	}
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	s := LogSink{Logger: logger}

	s.Report(errors.ErrCodeStoreModeLimit, "renamed mode")
	s.Report(errors.ErrCodeUnresolvedAlias, "missing target")

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "renamed mode") {
		t.Errorf("informational diagnostic not logged at info: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "missing target") {
		t.Errorf("warning diagnostic not logged at warn: %q", out)
	}
}
