package materialize

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/diag"
	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/ir"
	"github.com/matzehuels/tokensync/pkg/observability"
	"github.com/matzehuels/tokensync/pkg/store"
)

// Options configures Materialize and Snapshot.
type Options struct {
	// Logger receives debug output. Defaults to a discarding logger.
	Logger *log.Logger
	// Sink receives per-token diagnostics. Defaults to diag.Discard.
	Sink diag.Sink
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Sink == nil {
		o.Sink = diag.Discard
	}
	return o
}

// Result summarizes an import.
type Result struct {
	// Created counts entries created by this run.
	Created int `json:"created"`
	// Reused counts tokens matched to entries that already existed.
	Reused int `json:"reused"`
	// Values counts successful SetValue calls.
	Values int `json:"values"`
	// Rounds counts alias rounds that created at least one entry.
	Rounds int `json:"rounds"`
	// ModesAdded and ModesRenamed count mode changes outside of the default
	// mode of new collections.
	ModesAdded   int `json:"modes_added"`
	ModesRenamed int `json:"modes_renamed"`
	// RemovedCollections lists collections removed because they held no
	// entries after the run.
	RemovedCollections []string `json:"removed_collections,omitempty"`
	// Skipped lists tokens that were never materialized.
	Skipped []string `json:"skipped,omitempty"`
	// Unresolved lists alias-only tokens left when resolution stalled.
	Unresolved []string `json:"unresolved,omitempty"`
	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`
}

// planned is a token that passed bucketing.
type planned struct {
	tok  *ir.Token
	self entryRef
	// kind is empty for untyped alias-only tokens until a target is known.
	kind store.Kind
}

type run struct {
	ctx  context.Context
	s    store.Store
	idx  *index
	log  *log.Logger
	sink diag.Sink
	res  *Result
	ids  map[*ir.Token]string
}

// Materialize writes g into s. See the package documentation for the steps.
//
// The returned Result is non-nil whenever prefetching the store succeeded,
// including when an error is returned.
func Materialize(ctx context.Context, g *ir.Graph, s store.Store, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()

	idx, err := prefetch(ctx, s)
	if err != nil {
		return nil, err
	}
	r := &run{
		ctx:  ctx,
		s:    s,
		idx:  idx,
		log:  opts.Logger,
		sink: opts.Sink,
		res:  &Result{},
		ids:  make(map[*ir.Token]string),
	}
	tokens := slices.Clone(g.Tokens)
	ir.SortTokens(tokens)

	err = r.execute(tokens)
	r.res.Duration = time.Since(start)
	return r.res, err
}

func (r *run) execute(tokens []*ir.Token) error {
	if err := r.ensureCollections(tokens); err != nil {
		return err
	}

	direct, aliasOnly := r.bucket(tokens)
	r.log.Debug("bucketed tokens", "direct", len(direct), "alias", len(aliasOnly), "skipped", len(r.res.Skipped))

	for _, p := range direct {
		if err := r.create(p); err != nil {
			return err
		}
	}

	stalled, err := r.resolveRounds(aliasOnly)
	if err != nil {
		return err
	}
	var stallErr error
	if stalled > 0 {
		stallErr = errors.New(errors.ErrCodeAliasStalled, "%d alias tokens have no resolvable target", stalled)
	}

	for _, tok := range tokens {
		id, ok := r.ids[tok]
		if !ok {
			continue
		}
		if err := r.populate(tok, id); err != nil {
			return err
		}
	}

	if err := r.cleanup(); err != nil {
		return err
	}
	return stallErr
}

func (r *run) report(code errors.Code, tok *ir.Token, format string, args ...any) {
	diag.Reportf(r.sink, code, "%s: %s", tok.DotPath(), fmt.Sprintf(format, args...))
}

func (r *run) skip(code errors.Code, tok *ir.Token, format string, args ...any) {
	r.report(code, tok, format, args...)
	r.res.Skipped = append(r.res.Skipped, tok.DotPath())
}

// ensureCollections creates every collection the graph names that the store
// does not have yet.
func (r *run) ensureCollections(tokens []*ir.Token) error {
	for _, tok := range tokens {
		name := tok.Collection()
		if _, ok := r.idx.byName[name]; ok || errors.ValidateName(name) != nil {
			continue
		}
		c, err := r.s.CreateCollection(r.ctx, name)
		if err != nil {
			return fmt.Errorf("create collection %q: %w", name, err)
		}
		r.idx.addCollection(c, true)
		r.log.Debug("created collection", "name", name)
	}
	return nil
}

// bucket splits tokens into direct and alias-only sets. Everything else is
// reported and skipped.
func (r *run) bucket(tokens []*ir.Token) (direct, aliasOnly []planned) {
	for _, tok := range tokens {
		if err := errors.ValidatePath(tok.Path); err != nil {
			r.skip(errors.GetCode(err), tok, "%s", errors.UserMessage(err))
			continue
		}
		if host, ok := tok.HostString(ir.ExtCollectionName); ok && host != "" && host != tok.Collection() {
			r.skip(errors.ErrCodeNameConflict, tok, "host collection %q differs from path collection %q", host, tok.Collection())
			continue
		}

		var kind store.Kind
		if tok.Type != "" {
			k, ok := store.KindFor(tok.Type)
			if !ok {
				r.skip(errors.ErrCodeUnsupported, tok, "%s tokens cannot be stored", tok.Type)
				continue
			}
			kind = k
		}

		p := planned{tok: tok, self: refOf(tok), kind: kind}
		hasDirect, hasAlias := false, false
		var firstErr error
		for _, cv := range tok.Values {
			if cv.Value.IsAlias() {
				hasAlias = true
				continue
			}
			if cv.Value.IsEmpty() {
				continue
			}
			k := kind
			if k == "" {
				inferred, ok := inferKind(cv.Value.Data)
				if !ok {
					continue
				}
				k = inferred
			}
			if err := usable(k, cv.Value.Data, r.idx.profile); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if !hasDirect {
				p.kind = k
			}
			hasDirect = true
		}

		switch {
		case hasDirect:
			direct = append(direct, p)
		case hasAlias:
			aliasOnly = append(aliasOnly, p)
		case firstErr != nil:
			r.skip(errors.GetCode(firstErr), tok, "no usable value: %s", errors.UserMessage(firstErr))
		default:
			r.skip(errors.ErrCodeUnusable, tok, "no values")
		}
	}
	return direct, aliasOnly
}

// create finds or creates the entry for p and records its ID.
func (r *run) create(p planned) error {
	cs, ok := r.idx.byName[p.self.collection]
	if !ok {
		r.skip(errors.ErrCodeNotFound, p.tok, "collection %q does not exist", p.self.collection)
		return nil
	}

	e, exists := cs.entries[p.self.name]
	if exists {
		if e.Kind != p.kind {
			r.skip(errors.ErrCodeTypeMismatch, p.tok, "existing entry is %s, token needs %s", e.Kind, p.kind)
			return nil
		}
		r.res.Reused++
	} else {
		var err error
		e, err = r.s.CreateEntry(r.ctx, cs.coll.ID, p.self.name, p.kind)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", p.self, err)
		}
		r.idx.addEntry(cs, e)
		r.res.Created++
	}
	r.ids[p.tok] = e.ID

	if p.tok.Description != "" && p.tok.Description != e.Description {
		if err := r.s.SetDescription(r.ctx, e.ID, p.tok.Description); err != nil {
			return fmt.Errorf("set description of %s: %w", p.self, err)
		}
		e.Description = p.tok.Description
		r.idx.addEntry(cs, e)
	}
	return nil
}

// resolveRounds creates alias-only entries whose targets exist, one round at
// a time. Eligibility for a round is decided before any of its entries are
// created. It returns the number of tokens left when a round stalls.
func (r *run) resolveRounds(pending []planned) (int, error) {
	for round := 1; len(pending) > 0; round++ {
		type eligible struct {
			p      planned
			target store.Entry
		}
		var ready []eligible
		var deferred []planned
		for _, p := range pending {
			if target, ok := r.firstTarget(p); ok {
				ready = append(ready, eligible{p, target})
			} else {
				deferred = append(deferred, p)
			}
		}

		if len(ready) == 0 {
			r.stall(pending)
			return len(pending), nil
		}

		for _, el := range ready {
			if el.p.kind == "" {
				el.p.kind = el.target.Kind
			}
			if err := r.create(el.p); err != nil {
				return 0, err
			}
		}
		r.res.Rounds = round
		observability.Conversion().OnRound(r.ctx, round, len(ready), len(deferred))
		r.log.Debug("alias round", "round", round, "created", len(ready), "deferred", len(deferred))
		pending = deferred
	}
	return 0, nil
}

// firstTarget returns the first existing target over all of p's aliases.
func (r *run) firstTarget(p planned) (store.Entry, bool) {
	for _, segs := range p.tok.Aliases() {
		if e, out := r.idx.resolve(p.self, segs); out == resolved {
			return e, true
		}
	}
	return store.Entry{}, false
}

// stall reports every context of the remaining tokens.
func (r *run) stall(pending []planned) {
	for _, p := range pending {
		for _, cv := range p.tok.Values {
			if !cv.Value.IsAlias() {
				continue
			}
			ref := document.FormatReference(cv.Value.Alias)
			if _, out := r.idx.resolve(p.self, cv.Value.Alias); out == selfReference {
				r.report(errors.ErrCodeSelfAlias, p.tok, "%s: %s refers to the token itself", cv.Context, ref)
			} else {
				r.report(errors.ErrCodeUnresolvedAlias, p.tok, "%s: %s does not resolve", cv.Context, ref)
			}
		}
		r.res.Unresolved = append(r.res.Unresolved, p.tok.DotPath())
	}
}

// populate writes every context of tok into entry id.
func (r *run) populate(tok *ir.Token, id string) error {
	entry := r.idx.byEntryID[id]
	cs := r.idx.byName[tok.Collection()]
	self := refOf(tok)

	for _, cv := range tok.Values {
		if cv.Value.IsEmpty() {
			continue
		}
		mode, ok := cv.Context.ModeIn(tok.Collection())
		if !ok {
			r.report(errors.ErrCodeInvalidInput, tok, "context %s belongs to another collection", cv.Context)
			continue
		}

		modeID, ok, err := r.ensureMode(cs, mode)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		var v any
		switch {
		case cv.Value.IsAlias():
			target, out := r.idx.resolve(self, cv.Value.Alias)
			ref := document.FormatReference(cv.Value.Alias)
			switch out {
			case selfReference:
				r.report(errors.ErrCodeSelfAlias, tok, "%s: %s refers to the token itself", cv.Context, ref)
				continue
			case unresolved:
				r.report(errors.ErrCodeUnresolvedAlias, tok, "%s: %s does not resolve", cv.Context, ref)
				continue
			}
			if target.Kind != entry.Kind {
				r.report(errors.ErrCodeTypeMismatch, tok, "%s: %s is %s, token is %s", cv.Context, ref, target.Kind, entry.Kind)
				continue
			}
			reference, err := r.s.CreateReference(r.ctx, target.ID)
			if err != nil {
				return fmt.Errorf("reference %s from %s: %w", target.Name, self, err)
			}
			v = reference

		case entry.Kind == store.KindColor:
			if err := usable(store.KindColor, cv.Value.Data, r.idx.profile); err != nil {
				r.report(errors.GetCode(err), tok, "%s: %s", cv.Context, errors.UserMessage(err))
				continue
			}
			native, err := color.ToNative(cv.Value.Data.(ir.Color), r.idx.profile.NativeSpace())
			if err != nil {
				r.report(errors.GetCode(err), tok, "%s: %s", cv.Context, errors.UserMessage(err))
				continue
			}
			v = native

		default:
			scalar, err := reconcile(entry.Kind, cv.Value.Data)
			if err != nil {
				r.report(errors.GetCode(err), tok, "%s: %s", cv.Context, errors.UserMessage(err))
				continue
			}
			v = scalar
		}

		if err := r.s.SetValue(r.ctx, id, modeID, v); err != nil {
			if stderrors.Is(err, store.ErrKindMismatch) {
				r.report(errors.ErrCodeTypeMismatch, tok, "%s: %v", cv.Context, err)
				continue
			}
			return fmt.Errorf("set %s in %s: %w", self, cv.Context, err)
		}
		r.res.Values++
	}
	return nil
}

// ensureMode returns the ID of the mode called name in cs, creating it when
// needed. The pristine default mode of a collection created by this run is
// renamed instead of adding a second mode. When the store refuses another
// mode an unclaimed mode is renamed; ok is false when none is left.
func (r *run) ensureMode(cs *collectionState, name string) (id string, ok bool, err error) {
	if m, found := cs.coll.ModeByName(name); found {
		cs.claimed[m.ID] = true
		return m.ID, true, nil
	}

	if cs.created && len(cs.claimed) == 0 && len(cs.coll.Modes) == 1 {
		m := cs.coll.Modes[0]
		if err := r.s.RenameMode(r.ctx, cs.coll.ID, m.ID, name); err != nil {
			return "", false, fmt.Errorf("rename mode of %q: %w", cs.coll.Name, err)
		}
		cs.coll.Modes[0].Name = name
		cs.claimed[m.ID] = true
		return m.ID, true, nil
	}

	m, err := r.s.AddMode(r.ctx, cs.coll.ID, name)
	if err == nil {
		cs.coll.Modes = append(cs.coll.Modes, m)
		cs.claimed[m.ID] = true
		r.res.ModesAdded++
		return m.ID, true, nil
	}
	if !stderrors.Is(err, store.ErrModeLimit) {
		return "", false, fmt.Errorf("add mode %q to %q: %w", name, cs.coll.Name, err)
	}

	for i, m := range cs.coll.Modes {
		if cs.claimed[m.ID] {
			continue
		}
		if err := r.s.RenameMode(r.ctx, cs.coll.ID, m.ID, name); err != nil {
			return "", false, fmt.Errorf("rename mode of %q: %w", cs.coll.Name, err)
		}
		diag.Reportf(r.sink, errors.ErrCodeStoreModeLimit, "%s: mode limit reached, renamed mode %q to %q", cs.coll.Name, m.Name, name)
		cs.coll.Modes[i].Name = name
		cs.claimed[m.ID] = true
		r.res.ModesRenamed++
		return m.ID, true, nil
	}

	diag.Reportf(r.sink, errors.ErrCodeStoreModeLimit, "%s: mode limit reached, values for mode %q skipped", cs.coll.Name, name)
	return "", false, nil
}

// cleanup removes every collection left without entries, whether this run
// created it or it was already empty in the store.
func (r *run) cleanup() error {
	for _, cs := range slices.Clone(r.idx.collections) {
		if len(cs.entries) > 0 {
			continue
		}
		if err := r.s.RemoveCollection(r.ctx, cs.coll.ID); err != nil {
			return fmt.Errorf("remove empty collection %q: %w", cs.coll.Name, err)
		}
		r.idx.remove(cs)
		r.res.RemovedCollections = append(r.res.RemovedCollections, cs.coll.Name)
		r.log.Debug("removed empty collection", "name", cs.coll.Name)
	}
	return nil
}

// inferKind maps an untyped scalar to a store kind.
func inferKind(data any) (store.Kind, bool) {
	switch data.(type) {
	case ir.Color:
		return store.KindColor, true
	case float64:
		return store.KindFloat, true
	case string:
		return store.KindString, true
	case bool:
		return store.KindBoolean, true
	}
	return "", false
}

// usable checks that data can be written to an entry of kind k in a store
// with the given profile.
func usable(k store.Kind, data any, profile color.Profile) error {
	if k == store.KindColor {
		c, ok := data.(ir.Color)
		if !ok {
			return errors.New(errors.ErrCodeTypeMismatch, "%T is not a color", data)
		}
		if err := color.ValidateShape(c); err != nil {
			return err
		}
		if !color.IsRepresentable(c.ColorSpace, profile) {
			return errors.New(errors.ErrCodeOutOfGamut, "%s color cannot be stored in a %s document", c.ColorSpace, profile)
		}
		return nil
	}
	_, err := reconcile(k, data)
	return err
}

// reconcile converts a scalar for an entry of kind k. Booleans and the
// strings "true"/"false" convert into each other so that formats without
// native booleans stay stable.
func reconcile(k store.Kind, data any) (any, error) {
	switch k {
	case store.KindFloat:
		if f, ok := data.(float64); ok {
			return f, nil
		}
	case store.KindString:
		switch v := data.(type) {
		case string:
			return v, nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	case store.KindBoolean:
		switch v := data.(type) {
		case bool:
			return v, nil
		case string:
			if v == "true" || v == "false" {
				return v == "true", nil
			}
		}
	}
	return nil, errors.New(errors.ErrCodeTypeMismatch, "%T value cannot be stored as %s", data, k)
}
