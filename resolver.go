package resolvercore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ResolverSession is the recursive resolver (spec §4.7) plus the caching
// layer it's built on. One session belongs to exactly one top-level call;
// it is never shared across concurrent top-level calls, so nothing here
// synchronizes against external contention — only against the fan-out
// this session itself starts (spec §5).
type ResolverSession struct {
	client QueryClient
	opts   Options
	id     string

	schemas *schemaCache
	values  *valueCache
	coord   *coordinator
}

// NewSession constructs a per-call resolver session over client. The
// session owns client for its duration; callers create a fresh session
// per top-level resolve rather than sharing one across calls (spec §3).
// Its id is used only in debug-log fields, never in cache keys — two
// sessions resolving the same board/column/item independently still
// address the same ResolutionKey.
func NewSession(client QueryClient, opts Options) *ResolverSession {
	opts = opts.withDefaults()
	return &ResolverSession{
		client:  client,
		opts:    opts,
		id:      uuid.NewString(),
		schemas: newSchemaCache(),
		values:  newValueCache(),
		coord:   newCoordinator(client, opts.BatchWindow),
	}
}

// Resolve is the public single-item entry point. RemoteError and
// Cancelled are the only kinds that escape; every other failure mode
// resolves to Empty internally (spec §7).
func (s *ResolverSession) Resolve(ctx context.Context, boardID, columnID, itemID string) (Scalar, error) {
	return s.resolve(ctx, cycleSet{}, false, boardID, columnID, itemID)
}

// ResolveBatch resolves one column across many items. For leaf columns it
// issues a single batched display-value query up front and resolves only
// the residual set (items the query returned nothing for) individually;
// formula and mirror columns fall back to
// one resolve per item, fanned out in parallel — the QueryClient surface
// has no batched deep-mirror shape, so grouping happens at the fan-out
// level rather than in a single extra remote call.
func (s *ResolverSession) ResolveBatch(ctx context.Context, boardID, columnID string, itemIDs []string) (map[string]Scalar, error) {
	out := make(map[string]Scalar, len(itemIDs))
	cols, err := s.schemas.get(ctx, s.client, boardID)
	if err != nil {
		missing := missingSchemaErr(boardID)
		missing.Cause = err
		s.debugf("resolve_batch: %s", missing.Error())
		for _, id := range itemIDs {
			out[id] = Empty
		}
		return out, nil
	}
	def, ok := cols[columnID]
	if !ok {
		s.debugf("resolve_batch: %s", missingColumnErr(boardID, columnID).Error())
		for _, id := range itemIDs {
			out[id] = Empty
		}
		return out, nil
	}
	if def.Kind.IsComplex() {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range itemIDs {
			id := id
			g.Go(func() error {
				v, err := s.resolve(gctx, cycleSet{}, false, boardID, columnID, id)
				if isCancelled(err) {
					return err
				}
				mu.Lock()
				out[id] = v
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return out, err
		}
		return out, nil
	}

	for _, chunk := range chunkItemIDs(itemIDs, displayValueBatchChunkSize) {
		results, err := s.client.DisplayValueBatch(ctx, boardID, columnID, chunk)
		if err != nil {
			return out, remoteErr(boardID, columnID, "", err)
		}
		for _, id := range chunk {
			raw, ok := results[id]
			if !ok {
				v, err := s.resolve(ctx, cycleSet{}, false, boardID, columnID, id)
				if err != nil {
					return out, err
				}
				out[id] = v
				continue
			}
			out[id] = ExtractScalar(def.Kind, raw, def.Settings)
		}
	}
	return out, nil
}

// displayValueBatchChunkSize is the per-request item cap spec §6 assigns
// to the core, not the QueryClient: "chunked by caller at 100 per
// request."
const displayValueBatchChunkSize = 100

// chunkItemIDs splits ids into groups of at most size, preserving order.
func chunkItemIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

func containsString(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Flush forces immediate emission of every pending coordinator batch.
func (s *ResolverSession) Flush(ctx context.Context) { s.coord.flush(ctx) }

// Close releases the coordinator and caches. A session is not reusable
// after Close. ctx bounds how long Close waits for coordinator emissions
// already in flight to finish delivering to their waiters; it does not
// delay rejection of new requests (SPEC_FULL.md §6).
func (s *ResolverSession) Close(ctx context.Context) { s.coord.close(ctx) }

// Stats reports counters useful for the testable properties in spec §8
// ("exactly one remote call" assertions) without requiring a test double
// that wraps the QueryClient itself.
type SessionStats struct {
	SchemaFetches int
	ValueCacheHits int
	CoordinatorFetches int
}

func (s *ResolverSession) Stats() SessionStats {
	return SessionStats{
		SchemaFetches:      s.schemas.fetchCount(),
		ValueCacheHits:     s.values.hits,
		CoordinatorFetches: s.coord.fetchCount(),
	}
}

// resolve implements the seven-step algorithm from spec §4.7. cycles is
// this call stack's set of keys already on the stack; numericParent says
// whether the caller that's awaiting this result is a numeric-aggregation
// mirror, which selects the cycle-break default if key is already on the
// stack.
func (s *ResolverSession) resolve(ctx context.Context, cycles cycleSet, numericParent bool, boardID, columnID, itemID string) (Scalar, error) {
	key := ResolutionKey{BoardID: boardID, ColumnID: columnID, ItemID: itemID}

	if cycles.contains(key) {
		if numericParent {
			return s.opts.CycleBreakNumericDefault, nil
		}
		return Empty, nil
	}
	nextCycles := cycles.with(key)

	return s.values.resolveOnce(key, func() (Scalar, error) {
		return s.resolveUncached(ctx, nextCycles, boardID, columnID, itemID)
	})
}

func (s *ResolverSession) resolveUncached(ctx context.Context, cycles cycleSet, boardID, columnID, itemID string) (Scalar, error) {
	if err := s.cancelledErr(ctx); err != nil {
		return Empty, err
	}

	cols, err := s.schemas.get(ctx, s.client, boardID)
	if err != nil {
		missing := missingSchemaErr(boardID)
		missing.Cause = err
		s.debugf("%s", missing.Error())
		return Empty, nil
	}
	def, ok := cols[columnID]
	if !ok {
		s.debugf("%s", missingColumnErr(boardID, columnID).Error())
		return Empty, nil
	}

	switch def.Kind {
	case KindFormula:
		return s.resolveFormula(ctx, cycles, boardID, itemID, def)
	case KindMirror:
		return s.resolveMirror(ctx, cycles, boardID, itemID, def)
	default:
		return s.resolveLeaf(ctx, boardID, columnID, itemID, def)
	}
}

func (s *ResolverSession) resolveLeaf(ctx context.Context, boardID, columnID, itemID string, def ColumnDef) (Scalar, error) {
	raw, err := s.client.DisplayValue(ctx, boardID, columnID, itemID)
	if err != nil {
		return Empty, remoteErr(boardID, columnID, itemID, err)
	}
	return ExtractScalar(def.Kind, raw, def.Settings), nil
}

func (s *ResolverSession) resolveFormula(ctx context.Context, cycles cycleSet, boardID, itemID string, def ColumnDef) (Scalar, error) {
	node, err := ParseFormula(def.Settings.Formula)
	if err != nil {
		s.debugf("formula %s on board %s failed to parse: %v", def.ID, boardID, err)
		return Empty, nil
	}

	depIDs, err := ExtractColumnIDs(def.Settings.Formula)
	if err != nil || len(depIDs) == 0 {
		v, evalErr := Evaluate(node, nil, nil, s.opts.Clock)
		if evalErr != nil {
			return Empty, nil
		}
		return v, nil
	}

	ids := make([]string, 0, len(depIDs))
	for id := range depIDs {
		ids = append(ids, id)
	}
	schemaOf := func(id string) (ColumnKind, bool) {
		def, ok := s.schemas.column(boardID, id)
		return def.Kind, ok
	}
	plan := planDependencies(ids, schemaOf)

	if plan.probeDisplayValue {
		if raw, err := s.client.DisplayValue(ctx, boardID, def.ID, itemID); err == nil {
			if probed := extractFormulaProbe(raw); probed.Kind() != ScalarEmpty {
				return probed, nil
			}
		}
	}

	env := map[string]Scalar{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, id := range plan.coordinatorIDs {
		id := id
		g.Go(func() error {
			v, err := s.resolveCoordinated(gctx, cycles, boardID, id, itemID)
			if isCancelled(err) {
				return err
			}
			mu.Lock()
			env[id] = v
			mu.Unlock()
			return nil
		})
	}
	for _, id := range plan.recurseIDs {
		id := id
		g.Go(func() error {
			v, err := s.resolve(gctx, cycles, false, boardID, id, itemID)
			if isCancelled(err) {
				return err
			}
			if err != nil {
				v = fallbackFor(false)
			}
			mu.Lock()
			env[id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Empty, err
	}

	v, evalErr := Evaluate(node, env, nil, s.opts.Clock)
	if evalErr != nil {
		return Empty, nil
	}
	return v, nil
}

// resolveCoordinated requests a dependency through the coordinator
// (simple kinds only); if the platform's batched display_value came back
// empty, it falls back to full recursion rather than trusting the empty
// result, per §4.7 step 6's "(b)" clause.
func (s *ResolverSession) resolveCoordinated(ctx context.Context, cycles cycleSet, boardID, columnID, itemID string) (Scalar, error) {
	raw, err := s.coord.request(ctx, boardID, itemID, columnID)
	if err != nil {
		if isCancelled(err) {
			return Empty, err
		}
		return s.resolve(ctx, cycles, false, boardID, columnID, itemID)
	}
	def, ok := s.schemas.column(boardID, columnID)
	if !ok {
		return s.resolve(ctx, cycles, false, boardID, columnID, itemID)
	}
	v := ExtractScalar(def.Kind, raw, def.Settings)
	if v.Kind() == ScalarEmpty {
		return s.resolve(ctx, cycles, false, boardID, columnID, itemID)
	}
	return v, nil
}

func (s *ResolverSession) resolveMirror(ctx context.Context, cycles cycleSet, boardID, itemID string, def ColumnDef) (Scalar, error) {
	deep, err := s.client.DeepMirror(ctx, boardID, def.ID, itemID)
	if err != nil {
		return Empty, remoteErr(boardID, def.ID, itemID, err)
	}

	if deep.DisplayValue != nil && *deep.DisplayValue != "" {
		return extractMirror(RawColumnValue{HasDisplay: true, DisplayValue: *deep.DisplayValue}, def.Settings), nil
	}
	if len(deep.MirroredItems) == 0 {
		return extractMirror(RawColumnValue{}, def.Settings), nil
	}
	if len(def.Settings.DisplayedLinkedColumns) == 0 || len(def.Settings.DisplayedLinkedColumns[0].ColumnIDs) == 0 {
		return extractMirror(RawColumnValue{}, def.Settings), nil
	}
	target := def.Settings.DisplayedLinkedColumns[0]
	if relDef, ok := s.schemas.column(boardID, def.Settings.RelationColumn); ok && len(relDef.Settings.LinkedBoardIDs) > 0 {
		if !containsString(relDef.Settings.LinkedBoardIDs, target.TargetBoardID) {
			s.debugf("%s", missingColumnErr(boardID, def.Settings.RelationColumn).Error())
			return extractMirror(RawColumnValue{}, def.Settings), nil
		}
	}
	targetColumnID := target.ColumnIDs[0]
	numericCtx := def.Settings.Function.IsNumeric()

	children := make([]Scalar, len(deep.MirroredItems))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range deep.MirroredItems {
		i, item := i, item
		g.Go(func() error {
			v, err := s.resolve(gctx, cycles, numericCtx, item.BoardID, targetColumnID, item.ItemID)
			if isCancelled(err) {
				return err
			}
			if err != nil {
				v = fallbackFor(numericCtx)
			}
			children[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Empty, err
	}

	return aggregateMirrorChildren(children, def.Settings.Function), nil
}

// aggregateMirrorChildren implements §4.7's mirror aggregation rule: if
// every resolved child is numeric and the column's function is a numeric
// aggregation, apply it; otherwise join as text in linked-item order.
func aggregateMirrorChildren(children []Scalar, fn AggregationFunc) Scalar {
	if len(children) == 0 {
		if fn.IsNumeric() {
			return NumberScalar(0)
		}
		return Empty
	}
	allNumeric := fn.IsNumeric()
	if allNumeric {
		for _, c := range children {
			if c.Kind() != ScalarNumber {
				allNumeric = false
				break
			}
		}
	}
	if allNumeric {
		values := make([]float64, len(children))
		for i, c := range children {
			values[i], _ = c.AsNumber()
		}
		return NumberScalar(fn.Apply(values))
	}
	parts := make([]string, 0, len(children))
	for _, c := range children {
		if c.Kind() == ScalarEmpty {
			continue
		}
		parts = append(parts, c.Display())
	}
	if len(parts) == 0 {
		return Empty
	}
	joined := parts[0]
	for _, p := range parts[1:] {
		joined += ", " + p
	}
	return TextScalar(joined)
}

// extractFormulaProbe normalizes a formula column's own probed
// display_value: a numeric-looking non-empty value wins immediately
// (§4.7 step 6); anything else is treated as unusable so the caller
// falls through to dependency resolution.
func extractFormulaProbe(raw RawColumnValue) Scalar {
	if raw.HasNumber {
		return NumberScalar(raw.Number)
	}
	if raw.HasDisplay && raw.DisplayValue != "" {
		if v, ok := parseLenientNumber(raw.DisplayValue); ok {
			return NumberScalar(v)
		}
	}
	return Empty
}

// cancelledErr checks both the per-call context and the session-wide
// cancellation signal from Options, since a caller may supply either or
// both (spec §5).
func (s *ResolverSession) cancelledErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return cancelledErr(err)
	}
	if s.opts.Cancel != nil {
		if err := s.opts.Cancel.Err(); err != nil {
			return cancelledErr(err)
		}
	}
	return nil
}

func isCancelled(err error) bool {
	re, ok := err.(*ResolveError)
	return ok && re.Kind == KindCancelled
}

func (s *ResolverSession) debugf(format string, args ...any) {
	if !s.opts.DebugLog {
		return
	}
	s.opts.Logger.Debug("resolvercore", slog.String("session_id", s.id), slog.String("detail", fmt.Sprintf(format, args...)))
}
