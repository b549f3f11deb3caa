package resolvercore

import (
	"context"
	"sync"
	"time"
)

// coordinatorRequest is one column's ask for one item, queued into the
// item's current batch window.
type coordinatorRequest struct {
	columnID string
	resultCh chan coordinatorResult
}

type coordinatorResult struct {
	value RawColumnValue
	err   error
}

// itemBatch accumulates requests for a single item during one batch
// window before they're emitted as a single multi-columns-deep query.
type itemBatch struct {
	boardID  string
	itemID   string
	requests []coordinatorRequest
	timer    *time.Timer
}

// coordinator collects column requests for the same item within a short
// window (spec §4.6) and issues one multi-column deep remote query per
// window, distributing results to every waiter. flush() forces immediate
// emission and is exposed to callers as ResolverSession.Flush. Session
// teardown calls close(), not flush(): batches still pending at that
// point are failed with Cancelled rather than emitted.
type coordinator struct {
	client QueryClient
	window time.Duration

	mu      sync.Mutex
	pending map[string]*itemBatch // itemID -> batch

	wg      sync.WaitGroup
	fetches int
	closed  bool
}

func newCoordinator(client QueryClient, window time.Duration) *coordinator {
	return &coordinator{
		client:  client,
		window:  window,
		pending: map[string]*itemBatch{},
	}
}

// request enqueues a column fetch for an item and returns the value once
// the batch window closes and the coordinator's query resolves. If the
// window is 0, the request is emitted immediately as a single-column
// batch — correct, just not coalesced (spec §4.6).
func (co *coordinator) request(ctx context.Context, boardID, itemID, columnID string) (RawColumnValue, error) {
	resultCh := make(chan coordinatorResult, 1)

	co.mu.Lock()
	if co.closed {
		co.mu.Unlock()
		return RawColumnValue{}, cancelledErr(nil)
	}
	batch, ok := co.pending[itemID]
	if !ok {
		batch = &itemBatch{boardID: boardID, itemID: itemID}
		co.pending[itemID] = batch
		co.wg.Add(1)
		if co.window <= 0 {
			// emit synchronously once this goroutine releases the lock.
			batch.requests = append(batch.requests, coordinatorRequest{columnID: columnID, resultCh: resultCh})
			co.mu.Unlock()
			co.emit(ctx, itemID)
			return co.await(ctx, resultCh)
		}
		batch.timer = time.AfterFunc(co.window, func() { co.emit(ctx, itemID) })
	}
	batch.requests = append(batch.requests, coordinatorRequest{columnID: columnID, resultCh: resultCh})
	co.mu.Unlock()

	return co.await(ctx, resultCh)
}

func (co *coordinator) await(ctx context.Context, resultCh chan coordinatorResult) (RawColumnValue, error) {
	select {
	case res := <-resultCh:
		return res.value, res.err
	case <-ctx.Done():
		return RawColumnValue{}, cancelledErr(ctx.Err())
	}
}

// emit removes an item's batch from the pending map and issues its
// multi-columns-deep query. Safe to call once per batch; a second call
// for an already-emitted item is a no-op (the timer and flush() can both
// race to call emit, but only one of them finds the batch still pending).
func (co *coordinator) emit(ctx context.Context, itemID string) {
	co.mu.Lock()
	batch, ok := co.pending[itemID]
	if !ok {
		co.mu.Unlock()
		return
	}
	delete(co.pending, itemID)
	if batch.timer != nil {
		batch.timer.Stop()
	}
	co.fetches++
	co.mu.Unlock()
	defer co.wg.Done()

	columnIDs := make([]string, len(batch.requests))
	for i, r := range batch.requests {
		columnIDs[i] = r.columnID
	}

	results, err := co.client.MultiColumnsDeep(ctx, batch.boardID, itemID, columnIDs)
	for _, r := range batch.requests {
		if err != nil {
			r.resultCh <- coordinatorResult{err: remoteErr(batch.boardID, r.columnID, itemID, err)}
			continue
		}
		v, ok := results[r.columnID]
		if !ok {
			r.resultCh <- coordinatorResult{value: RawColumnValue{}}
			continue
		}
		r.resultCh <- coordinatorResult{value: v}
	}
}

// flush forces immediate emission of every pending batch, then waits for
// all in-flight emissions to finish delivering to their waiters.
func (co *coordinator) flush(ctx context.Context) {
	co.mu.Lock()
	itemIDs := make([]string, 0, len(co.pending))
	for id := range co.pending {
		itemIDs = append(itemIDs, id)
	}
	co.mu.Unlock()

	for _, id := range itemIDs {
		co.emit(ctx, id)
	}
	co.wg.Wait()
}

// close cancels any batch still waiting on its timer, refuses further
// requests, per the session-cancellation contract in spec §5, then waits
// for emissions already in flight to finish delivering to their waiters,
// bounded by ctx so a caller that wants deterministic teardown latency
// can time it out (SPEC_FULL.md §6).
func (co *coordinator) close(ctx context.Context) {
	co.mu.Lock()
	if co.closed {
		co.mu.Unlock()
		return
	}
	co.closed = true
	batches := co.pending
	co.pending = map[string]*itemBatch{}
	co.mu.Unlock()

	for _, batch := range batches {
		if batch.timer != nil {
			batch.timer.Stop()
		}
		for _, r := range batch.requests {
			r.resultCh <- coordinatorResult{err: cancelledErr(nil)}
		}
		co.wg.Done()
	}

	done := make(chan struct{})
	go func() {
		co.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (co *coordinator) fetchCount() int {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.fetches
}
