package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokensync/pkg/aliasgraph"
	"github.com/matzehuels/tokensync/pkg/cache"
	"github.com/matzehuels/tokensync/pkg/diag"
	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/materialize"
	"github.com/matzehuels/tokensync/pkg/observability"
	"github.com/matzehuels/tokensync/pkg/store"
)

// Runner executes conversions. It holds no per-conversion state, so one
// Runner may serve concurrent callers as long as they use different stores.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil logger
// uses log.Default().
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Import reads a document from in and materializes it into s.
//
// The result is non-nil whenever the document was read and the store could
// be prefetched, even if an error is returned.
func (r *Runner) Import(ctx context.Context, in io.Reader, s store.Store, opts ImportOptions) (*ImportResult, error) {
	collector := diag.NewCollector()
	sink := diag.Multi{collector, opts.Sink}
	res := &ImportResult{}

	readStart := time.Now()
	g, err := document.Read(in, opts.Read, sink)
	if err != nil {
		return nil, err
	}
	res.Stats.ReadTime = time.Since(readStart)
	res.Stats.Tokens = g.Len()
	res.Collections = g.Collections()

	r.Logger.Info("read document",
		"tokens", g.Len(),
		"collections", len(res.Collections),
		"duration", res.Stats.ReadTime)

	hooks := observability.Conversion()
	hooks.OnImportStart(ctx, g.Len())

	start := time.Now()
	mres, err := materialize.Materialize(ctx, g, store.Instrument(s), materialize.Options{
		Logger: r.Logger,
		Sink:   sink,
	})
	res.Stats.MaterializeTime = time.Since(start)

	created := 0
	if mres != nil {
		created = mres.Created
	}
	hooks.OnImportComplete(ctx, created, res.Stats.MaterializeTime, err)

	if mres == nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}
	res.Materialize = mres
	res.Diagnostics = collector.All()

	r.Logger.Info("materialized tokens",
		"created", mres.Created,
		"reused", mres.Reused,
		"values", mres.Values,
		"rounds", mres.Rounds,
		"diagnostics", len(res.Diagnostics),
		"duration", res.Stats.MaterializeTime)
	if err != nil {
		return res, fmt.Errorf("materialize: %w", err)
	}
	return res, nil
}

// Export snapshots s and writes it to w as a document.
func (r *Runner) Export(ctx context.Context, s store.Store, w io.Writer, opts ExportOptions) (*ExportResult, error) {
	collector := diag.NewCollector()
	sink := diag.Multi{collector, opts.Sink}
	res := &ExportResult{}

	hooks := observability.Conversion()
	hooks.OnExportStart(ctx)

	start := time.Now()
	g, err := materialize.Snapshot(ctx, store.Instrument(s), materialize.Options{Logger: r.Logger, Sink: sink})
	res.Stats.SnapshotTime = time.Since(start)
	if err != nil {
		hooks.OnExportComplete(ctx, 0, time.Since(start), err)
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	res.Stats.Tokens = g.Len()
	res.Collections = g.Collections()

	writeStart := time.Now()
	err = document.Write(w, g, opts.Write)
	res.Stats.WriteTime = time.Since(writeStart)
	hooks.OnExportComplete(ctx, g.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	res.Diagnostics = collector.All()

	r.Logger.Info("exported document",
		"tokens", g.Len(),
		"collections", len(res.Collections),
		"duration", res.Stats.SnapshotTime+res.Stats.WriteTime)
	return res, nil
}

// Validate reads a document and reports everything an import would
// complain about that does not depend on store state. Reports are cached by
// document content and options.
func (r *Runner) Validate(ctx context.Context, in io.Reader, opts document.ReadOptions) (*Report, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
	}

	key := cache.Key("validate", cache.Hash(data), opts.WithDefaults())
	if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var rep Report
		if err := json.Unmarshal(cached, &rep); err == nil {
			rep.Cached = true
			r.Logger.Debug("validation cache hit", "key", key)
			return &rep, nil
		}
	}

	collector := diag.NewCollector()
	g, err := document.ReadBytes(data, opts, collector)
	if err != nil {
		return nil, err
	}

	ag := aliasgraph.Build(g)
	for _, id := range ag.Stalled() {
		n, _ := ag.Node(id)
		targets := ag.Targets(id)
		switch {
		case len(targets) == 0:
			// Tokens without aliases or values were already reported by the reader.
		case len(targets) == 1 && targets[0] == id:
			diag.Reportf(collector, errors.ErrCodeSelfAlias, "%s: alias refers to the token itself", n.ID)
		default:
			diag.Reportf(collector, errors.ErrCodeUnresolvedAlias, "%s: no alias target can be created", n.ID)
		}
	}

	rep := &Report{
		Tokens:      g.Len(),
		Collections: g.Collections(),
		Rounds:      ag.Rounds(),
		Stalled:     ag.Stalled(),
		Cycles:      ag.Cycles(),
		Diagnostics: collector.All(),
	}
	rep.Valid = valid(rep.Diagnostics) && len(rep.Stalled) == 0

	if data, err := json.Marshal(rep); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLValidation)
	}
	r.Logger.Debug("validated document", "tokens", rep.Tokens, "valid", rep.Valid)
	return rep, nil
}

// Graph reads a document and renders its alias graph.
func (r *Runner) Graph(ctx context.Context, in io.Reader, opts GraphOptions) ([]byte, error) {
	if opts.Format == "" {
		opts.Format = DefaultGraphFormat
	}
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, err
	}

	g, err := document.Read(in, opts.Read, diag.LogSink{Logger: r.Logger})
	if err != nil {
		return nil, err
	}
	dot := aliasgraph.ToDOT(aliasgraph.Build(g), aliasgraph.Options{Detailed: opts.Detailed})
	if opts.Format == FormatDOT {
		return []byte(dot), nil
	}

	start := time.Now()
	svg, err := aliasgraph.RenderSVG(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render alias graph")
	}
	r.Logger.Debug("rendered alias graph", "bytes", len(svg), "duration", time.Since(start))
	return svg, nil
}
