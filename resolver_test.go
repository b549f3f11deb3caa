package resolvercore

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a fixture QueryClient backed by in-memory fixtures, with
// call counters per query kind so tests can assert the "exactly one
// remote call" properties from spec §8 directly against the boundary the
// core actually crosses.
type fakeClient struct {
	mu sync.Mutex

	schemas      map[string][]ColumnDef
	displayed    map[ResolutionKey]RawColumnValue
	deepMirrors  map[ResolutionKey]DeepMirrorResult
	multiColumns map[string]map[string]RawColumnValue // itemID -> columnID -> raw

	schemaCalls      int
	displayCalls     int
	deepMirrorCalls  int
	multiColumnCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		schemas:      map[string][]ColumnDef{},
		displayed:    map[ResolutionKey]RawColumnValue{},
		deepMirrors:  map[ResolutionKey]DeepMirrorResult{},
		multiColumns: map[string]map[string]RawColumnValue{},
	}
}

func (f *fakeClient) Schema(ctx context.Context, boardID string) ([]ColumnDef, error) {
	f.mu.Lock()
	f.schemaCalls++
	f.mu.Unlock()
	return f.schemas[boardID], nil
}

func (f *fakeClient) DisplayValue(ctx context.Context, boardID, columnID, itemID string) (RawColumnValue, error) {
	f.mu.Lock()
	f.displayCalls++
	f.mu.Unlock()
	return f.displayed[ResolutionKey{BoardID: boardID, ColumnID: columnID, ItemID: itemID}], nil
}

func (f *fakeClient) DisplayValueBatch(ctx context.Context, boardID, columnID string, itemIDs []string) (map[string]RawColumnValue, error) {
	f.mu.Lock()
	f.displayCalls++
	f.mu.Unlock()
	out := map[string]RawColumnValue{}
	for _, id := range itemIDs {
		out[id] = f.displayed[ResolutionKey{BoardID: boardID, ColumnID: columnID, ItemID: id}]
	}
	return out, nil
}

func (f *fakeClient) DeepMirror(ctx context.Context, boardID, columnID, itemID string) (DeepMirrorResult, error) {
	f.mu.Lock()
	f.deepMirrorCalls++
	f.mu.Unlock()
	return f.deepMirrors[ResolutionKey{BoardID: boardID, ColumnID: columnID, ItemID: itemID}], nil
}

func (f *fakeClient) MultiColumnsDeep(ctx context.Context, boardID, itemID string, columnIDs []string) (map[string]RawColumnValue, error) {
	f.mu.Lock()
	f.multiColumnCalls++
	f.mu.Unlock()
	perItem := f.multiColumns[itemID]
	out := map[string]RawColumnValue{}
	for _, id := range columnIDs {
		out[id] = perItem[id]
	}
	return out, nil
}

func testOptions() Options {
	o := DefaultOptions()
	o.BatchWindow = time.Millisecond
	return o
}

// scenario 1: plain leaf number column.
func TestResolveLeafNumber(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{{ID: "numbers1", Kind: KindNumber}}
	client.displayed[ResolutionKey{"123", "numbers1", "100"}] = RawColumnValue{HasNumber: true, Number: 42}

	sess := NewSession(client, testOptions())
	v, err := sess.Resolve(context.Background(), "123", "numbers1", "100")
	require.NoError(t, err)
	assert.Equal(t, "42", v.Display())
	assert.Equal(t, 1, client.schemaCalls)
	assert.Equal(t, 1, client.displayCalls)
}

// scenario 2: formula recursing into a dependency whose display_value
// came back empty.
func TestResolveFormulaRecursesOnEmptyDisplayValue(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{
		{ID: "numbers1", Kind: KindNumber},
		{ID: "formula1", Kind: KindFormula, Settings: ColumnSettings{Formula: "{numbers1} * 2"}},
	}
	client.displayed[ResolutionKey{"123", "numbers1", "100"}] = RawColumnValue{HasNumber: true, Number: 25}
	// formula1's own probed display_value is empty, forcing recursion.
	client.displayed[ResolutionKey{"123", "formula1", "100"}] = RawColumnValue{}
	client.multiColumns["100"] = map[string]RawColumnValue{
		"numbers1": {HasNumber: true, Number: 25},
	}

	sess := NewSession(client, testOptions())
	v, err := sess.Resolve(context.Background(), "123", "formula1", "100")
	require.NoError(t, err)
	assert.Equal(t, "50", v.Display())
}

// scenario 3: numeric mirror aggregation over a comma-separated
// display_value.
func TestResolveMirrorNumericAggregation(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{
		{ID: "mirror1", Kind: KindMirror, Settings: ColumnSettings{Function: AggSum}},
	}
	dv := "10, 20, 30"
	client.deepMirrors[ResolutionKey{"123", "mirror1", "100"}] = DeepMirrorResult{DisplayValue: &dv}

	sess := NewSession(client, testOptions())
	v, err := sess.Resolve(context.Background(), "123", "mirror1", "100")
	require.NoError(t, err)
	assert.Equal(t, "60", v.Display())
	assert.Equal(t, 1, client.schemaCalls)
	assert.Equal(t, 1, client.deepMirrorCalls)
}

// scenario 4: text mirror aggregation over linked items on another board.
func TestResolveMirrorTextAggregation(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{
		{ID: "mirror1", Kind: KindMirror, Settings: ColumnSettings{
			Function:               AggNone,
			DisplayedLinkedColumns: []MirrorTarget{{TargetBoardID: "456", ColumnIDs: []string{"text1"}}},
		}},
	}
	client.schemas["456"] = []ColumnDef{{ID: "text1", Kind: KindText}}
	client.deepMirrors[ResolutionKey{"123", "mirror1", "100"}] = DeepMirrorResult{
		MirroredItems: []LinkedItem{
			{BoardID: "456", ItemID: "201", Name: "Project A"},
			{BoardID: "456", ItemID: "202", Name: "Project B"},
		},
	}
	client.displayed[ResolutionKey{"456", "text1", "201"}] = RawColumnValue{HasText: true, Text: "Project A"}
	client.displayed[ResolutionKey{"456", "text1", "202"}] = RawColumnValue{HasText: true, Text: "Project B"}

	sess := NewSession(client, testOptions())
	v, err := sess.Resolve(context.Background(), "123", "mirror1", "100")
	require.NoError(t, err)
	assert.Equal(t, "Project A, Project B", v.Display())
}

// a mirror whose relation column's declared LinkedBoardIDs don't include
// the mirror's own target board resolves to Empty rather than traversing
// into linked items on a board the relation column was never told about.
func TestResolveMirrorRejectsMismatchedRelationTarget(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{
		{ID: "relation1", Kind: KindBoardRelation, Settings: ColumnSettings{LinkedBoardIDs: []string{"999"}}},
		{ID: "mirror1", Kind: KindMirror, Settings: ColumnSettings{
			Function:               AggNone,
			RelationColumn:         "relation1",
			DisplayedLinkedColumns: []MirrorTarget{{TargetBoardID: "456", ColumnIDs: []string{"text1"}}},
		}},
	}
	client.schemas["456"] = []ColumnDef{{ID: "text1", Kind: KindText}}
	client.deepMirrors[ResolutionKey{"123", "mirror1", "100"}] = DeepMirrorResult{
		MirroredItems: []LinkedItem{{BoardID: "456", ItemID: "201", Name: "Project A"}},
	}

	sess := NewSession(client, testOptions())
	v, err := sess.Resolve(context.Background(), "123", "mirror1", "100")
	require.NoError(t, err)
	assert.Equal(t, ScalarEmpty, v.Kind())
	assert.Equal(t, 0, client.displayCalls)
}

// scenario 5: a formula cycle terminates, and each formula's "+ 1" is
// applied once on the way back out.
func TestResolveCycleTerminates(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{
		{ID: "f_a", Kind: KindFormula, Settings: ColumnSettings{Formula: "{f_b} + 1"}},
		{ID: "f_b", Kind: KindFormula, Settings: ColumnSettings{Formula: "{f_a} + 1"}},
	}
	client.displayed[ResolutionKey{"123", "f_a", "100"}] = RawColumnValue{}
	client.displayed[ResolutionKey{"123", "f_b", "100"}] = RawColumnValue{}

	done := make(chan struct{})
	var v Scalar
	var err error
	go func() {
		sess := NewSession(client, testOptions())
		v, err = sess.Resolve(context.Background(), "123", "f_a", "100")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("resolve on a cycle did not terminate")
	}
	require.NoError(t, err)
	// f_b's resolve re-enters f_a, which is already on the stack, and gets
	// the cycle-break default; f_b = cycle-break + 1 = 1. Back in f_a's own
	// evaluation, f_a = f_b + 1 = 2 (see DESIGN.md's note on this scenario).
	assert.Equal(t, "2", v.Display())
}

// scenario 6: batch resolve issues exactly one batched remote call.
func TestResolveBatchSingleRemoteCall(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{{ID: "numbers1", Kind: KindNumber}}
	client.displayed[ResolutionKey{"123", "numbers1", "100"}] = RawColumnValue{HasNumber: true, Number: 10}
	client.displayed[ResolutionKey{"123", "numbers1", "200"}] = RawColumnValue{HasNumber: true, Number: 20}
	client.displayed[ResolutionKey{"123", "numbers1", "300"}] = RawColumnValue{HasNumber: true, Number: 30}

	sess := NewSession(client, testOptions())
	out, err := sess.ResolveBatch(context.Background(), "123", "numbers1", []string{"100", "200", "300"})
	require.NoError(t, err)
	assert.Equal(t, "10", out["100"].Display())
	assert.Equal(t, "20", out["200"].Display())
	assert.Equal(t, "30", out["300"].Display())
	assert.Equal(t, 1, client.displayCalls)
}

// resolve_batch chunks at 100 items per DisplayValueBatch call (spec §6),
// so a batch of 150 items must cross the QueryClient boundary as two
// calls, not one oversized one.
func TestResolveBatchChunksAt100Items(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{{ID: "numbers1", Kind: KindNumber}}
	itemIDs := make([]string, 150)
	for i := range itemIDs {
		id := strconv.Itoa(i)
		itemIDs[i] = id
		client.displayed[ResolutionKey{"123", "numbers1", id}] = RawColumnValue{HasNumber: true, Number: float64(i)}
	}

	sess := NewSession(client, testOptions())
	out, err := sess.ResolveBatch(context.Background(), "123", "numbers1", itemIDs)
	require.NoError(t, err)
	assert.Len(t, out, 150)
	assert.Equal(t, "0", out["0"].Display())
	assert.Equal(t, "149", out["149"].Display())
	assert.Equal(t, 2, client.displayCalls)
}

func TestResolveStableWithinSession(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{{ID: "numbers1", Kind: KindNumber}}
	client.displayed[ResolutionKey{"123", "numbers1", "100"}] = RawColumnValue{HasNumber: true, Number: 42}

	sess := NewSession(client, testOptions())
	v1, err := sess.Resolve(context.Background(), "123", "numbers1", "100")
	require.NoError(t, err)
	v2, err := sess.Resolve(context.Background(), "123", "numbers1", "100")
	require.NoError(t, err)
	assert.True(t, v1.Equal(v2))
	assert.Equal(t, 1, client.displayCalls)
}

func TestResolveFormulaWithNoDependenciesIssuesOnlySchemaCall(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.schemas["123"] = []ColumnDef{
		{ID: "const1", Kind: KindFormula, Settings: ColumnSettings{Formula: "1 + 1"}},
	}

	sess := NewSession(client, testOptions())
	v, err := sess.Resolve(context.Background(), "123", "const1", "100")
	require.NoError(t, err)
	assert.Equal(t, "2", v.Display())
	assert.Equal(t, 0, client.displayCalls)
	assert.Equal(t, 0, client.deepMirrorCalls)
	assert.Equal(t, 1, client.schemaCalls)
}
