package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokensync/pkg/cache"
	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/observability"
	"github.com/matzehuels/tokensync/pkg/store"
)

const sampleDoc = `{
  "A": {
    "x": {
      "$type": "number",
      "$value": 4
    }
  },
  "B": {
    "y": {
      "$type": "number",
      "$value": "{A.x}"
    }
  }
}
`

func newTestRunner(c cache.Cache) *Runner {
	return NewRunner(c, log.New(io.Discard))
}

type countingHooks struct {
	observability.NoopConversionHooks
	imports, exports int
	created          int
}

func (h *countingHooks) OnImportComplete(_ context.Context, created int, _ time.Duration, _ error) {
	h.imports++
	h.created = created
}

func (h *countingHooks) OnExportComplete(context.Context, int, time.Duration, error) {
	h.exports++
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil)
	if r.Cache == nil || r.Logger == nil {
		t.Error("NewRunner should fill in a cache and logger")
	}
}

func TestImportExport(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetConversionHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	r := newTestRunner(nil)
	s := store.NewMemory(store.MemoryOptions{})

	res, err := r.Import(ctx, strings.NewReader(sampleDoc), s, ImportOptions{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Materialize.Created != 2 || res.Materialize.Rounds != 1 {
		t.Errorf("Import result = %+v", res.Materialize)
	}
	if res.Stats.Tokens != 2 {
		t.Errorf("Stats.Tokens = %d, want 2", res.Stats.Tokens)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v", res.Diagnostics)
	}

	var buf bytes.Buffer
	exp, err := r.Export(ctx, s, &buf, ExportOptions{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if buf.String() != sampleDoc {
		t.Errorf("Export wrote\n%s\nwant\n%s", buf.String(), sampleDoc)
	}
	if got := strings.Join(exp.Collections, ","); got != "A,B" {
		t.Errorf("Collections = %s", got)
	}

	if hooks.imports != 1 || hooks.exports != 1 || hooks.created != 2 {
		t.Errorf("hooks = %+v", hooks)
	}
}

func TestImportMalformed(t *testing.T) {
	r := newTestRunner(nil)
	_, err := r.Import(context.Background(), strings.NewReader(`[1,2]`), store.NewMemory(store.MemoryOptions{}), ImportOptions{})
	if !errors.Is(err, errors.ErrCodeMalformedDocument) {
		t.Errorf("Import error = %v, want MALFORMED_DOCUMENT", err)
	}
}

func TestImportStalledReturnsResult(t *testing.T) {
	doc := `{"C":{"$type":"number","ok":{"$value":1},"a":{"$value":"{C.b}"},"b":{"$value":"{C.a}"}}}`
	r := newTestRunner(nil)

	res, err := r.Import(context.Background(), strings.NewReader(doc), store.NewMemory(store.MemoryOptions{}), ImportOptions{})
	if !errors.Is(err, errors.ErrCodeAliasStalled) {
		t.Fatalf("Import error = %v, want ALIAS_STALLED", err)
	}
	if res == nil || len(res.Materialize.Unresolved) != 2 {
		t.Fatalf("Import result = %+v", res)
	}
	if len(res.Diagnostics) != 2 {
		t.Errorf("Diagnostics = %v", res.Diagnostics)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		valid   bool
		stalled int
		cycles  int
		kinds   []errors.Code
	}{
		{"clean", sampleDoc, true, 0, 0, nil},
		{
			"self alias",
			`{"C":{"x":{"$type":"number","$value":"{C.x}"}}}`,
			false, 1, 1, []errors.Code{errors.ErrCodeSelfAlias},
		},
		{
			"cycle",
			`{"C":{"$type":"number","a":{"$value":"{C.b}"},"b":{"$value":"{C.a}"}}}`,
			false, 2, 1, []errors.Code{errors.ErrCodeUnresolvedAlias, errors.ErrCodeUnresolvedAlias},
		},
		{
			"type mismatch",
			`{"C":{"x":{"$type":"number","$value":"wide"},"y":{"$type":"number","$value":2}}}`,
			false, 0, 0, []errors.Code{errors.ErrCodeTypeMismatch},
		},
		{
			"duplicate only",
			`{"C":{"x":{"$type":"number","$value":1},"x":{"$type":"number","$value":2}}}`,
			true, 0, 0, []errors.Code{errors.ErrCodeDuplicateToken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := newTestRunner(nil).Validate(context.Background(), strings.NewReader(tt.doc), document.ReadOptions{})
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if rep.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (%s)", rep.Valid, tt.valid, rep.Summary())
			}
			if len(rep.Stalled) != tt.stalled {
				t.Errorf("Stalled = %v, want %d", rep.Stalled, tt.stalled)
			}
			if len(rep.Cycles) != tt.cycles {
				t.Errorf("Cycles = %v, want %d", rep.Cycles, tt.cycles)
			}
			if len(rep.Diagnostics) != len(tt.kinds) {
				t.Fatalf("Diagnostics = %v, want kinds %v", rep.Diagnostics, tt.kinds)
			}
			for i, k := range tt.kinds {
				if rep.Diagnostics[i].Kind != k {
					t.Errorf("diagnostic %d = %s, want %s", i, rep.Diagnostics[i].Kind, k)
				}
			}
		})
	}
}

func TestValidateCaches(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(cache.NewMemoryCache())

	first, err := r.Validate(ctx, strings.NewReader(sampleDoc), document.ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first report should not be cached")
	}

	second, err := r.Validate(ctx, strings.NewReader(sampleDoc), document.ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Tokens != first.Tokens || second.Valid != first.Valid {
		t.Errorf("second report = %+v, want cached copy of %+v", second, first)
	}

	third, _ := r.Validate(ctx, strings.NewReader(sampleDoc), document.ReadOptions{LenientHex: true})
	if third.Cached {
		t.Error("different options should not share a cache entry")
	}
}

func TestValidateMalformed(t *testing.T) {
	_, err := newTestRunner(nil).Validate(context.Background(), strings.NewReader(`{"a":`), document.ReadOptions{})
	if !errors.Is(err, errors.ErrCodeMalformedDocument) {
		t.Errorf("Validate error = %v, want MALFORMED_DOCUMENT", err)
	}
}

func TestGraph(t *testing.T) {
	r := newTestRunner(nil)
	out, err := r.Graph(context.Background(), strings.NewReader(sampleDoc), GraphOptions{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if !strings.Contains(string(out), `"B.y" -> "A.x";`) {
		t.Errorf("DOT output missing alias edge:\n%s", out)
	}

	if _, err := r.Graph(context.Background(), strings.NewReader(sampleDoc), GraphOptions{Format: "png"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Graph(png) error = %v, want INVALID_INPUT", err)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"SVG", true},
		{"png", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestReportSummary(t *testing.T) {
	rep := &Report{Valid: false, Tokens: 3, Collections: []string{"A"}, Rounds: 1}
	want := "invalid: 3 tokens in 1 collections, 1 alias rounds, 0 diagnostics"
	if got := rep.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
