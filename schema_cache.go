package resolvercore

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// schemaCache memoizes a board's column list for the lifetime of a
// session. A pending-request group (golang.org/x/sync/singleflight, the
// "future-like handle multiple observers can await" design note §9 calls
// for) prevents two concurrent resolves from issuing duplicate schema
// fetches — the second subscribes to the first's in-flight fetch.
type schemaCache struct {
	mu      sync.RWMutex
	boards  map[string]map[string]ColumnDef // boardID -> columnID -> def
	group   singleflight.Group
	fetches int
}

func newSchemaCache() *schemaCache {
	return &schemaCache{boards: map[string]map[string]ColumnDef{}}
}

// get returns a board's schema, fetching it through the client on first
// touch. Subsequent lookups are synchronous map reads.
func (c *schemaCache) get(ctx context.Context, client QueryClient, boardID string) (map[string]ColumnDef, error) {
	c.mu.RLock()
	if cols, ok := c.boards[boardID]; ok {
		c.mu.RUnlock()
		return cols, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do(boardID, func() (any, error) {
		defs, err := client.Schema(ctx, boardID)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]ColumnDef, len(defs))
		for _, d := range defs {
			byID[d.ID] = d
		}
		c.mu.Lock()
		c.boards[boardID] = byID
		c.fetches++
		c.mu.Unlock()
		return byID, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]ColumnDef), nil
}

func (c *schemaCache) column(boardID, columnID string) (ColumnDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cols, ok := c.boards[boardID]
	if !ok {
		return ColumnDef{}, false
	}
	def, ok := cols[columnID]
	return def, ok
}

func (c *schemaCache) fetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}
