// Package fixture provides a JSON-file-backed resolvercore.QueryClient
// for the resolvectl demo harness. It is a fixture, not a production
// client: every query kind is answered straight out of an in-memory
// map loaded once at startup, with a per-kind call counter so the CLI
// can print the same "how many remote calls did that take" telemetry
// the core's own tests assert on.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/branchboard/resolvercore"
)

// Board is one board's fixture data: its schema plus canned answers for
// every query the demo might issue against it.
type Board struct {
	Columns       []ColumnFixture            `json:"columns"`
	DisplayValues map[string]ValueFixture    `json:"display_values"` // "columnID|itemID"
	DeepMirrors   map[string]MirrorFixture   `json:"deep_mirrors"`   // "columnID|itemID"
	MultiColumns  map[string]map[string]ValueFixture `json:"multi_columns"` // "itemID" -> columnID -> value
}

type ColumnFixture struct {
	ID       string                    `json:"id"`
	Title    string                    `json:"title"`
	Kind     string                    `json:"kind"`
	Settings ColumnSettingsFixture     `json:"settings"`
}

type ColumnSettingsFixture struct {
	Formula                string                  `json:"formula"`
	DisplayedLinkedColumns []MirrorTargetFixture   `json:"displayed_linked_columns"`
	Function               string                  `json:"function"`
	RelationColumn         string                  `json:"relation_column"`
	NumberFormatDecimals   int                     `json:"number_format_decimals"`
	LinkedBoardIDs         []string                `json:"linked_board_ids"`
}

type MirrorTargetFixture struct {
	TargetBoardID string   `json:"target_board_id"`
	ColumnIDs     []string `json:"column_ids"`
}

// ValueFixture is the JSON shape of one RawColumnValue.
type ValueFixture struct {
	Text         *string  `json:"text,omitempty"`
	Number       *float64 `json:"number,omitempty"`
	Bool         *bool    `json:"bool,omitempty"`
	DisplayValue *string  `json:"display_value,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	Seconds      float64  `json:"seconds,omitempty"`
}

// MirrorFixture is the JSON shape of one DeepMirrorResult.
type MirrorFixture struct {
	DisplayValue  *string         `json:"display_value,omitempty"`
	MirroredItems []LinkedItemFixture `json:"mirrored_items,omitempty"`
}

type LinkedItemFixture struct {
	BoardID string `json:"board_id"`
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
}

// Client is a fixture-backed resolvercore.QueryClient loaded from a JSON
// file keyed by board id.
type Client struct {
	mu     sync.Mutex
	boards map[string]Board

	SchemaCalls      int
	DisplayCalls     int
	DeepMirrorCalls  int
	MultiColumnCalls int
}

// Load reads a fixture file from disk and builds a Client over it.
func Load(path string) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	var boards map[string]Board
	if err := json.Unmarshal(data, &boards); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}
	return &Client{boards: boards}, nil
}

func (c *Client) Schema(ctx context.Context, boardID string) ([]resolvercore.ColumnDef, error) {
	c.mu.Lock()
	c.SchemaCalls++
	c.mu.Unlock()

	board, ok := c.boards[boardID]
	if !ok {
		return nil, fmt.Errorf("fixture: unknown board %q", boardID)
	}
	defs := make([]resolvercore.ColumnDef, 0, len(board.Columns))
	for _, col := range board.Columns {
		defs = append(defs, resolvercore.ColumnDef{
			ID:    col.ID,
			Title: col.Title,
			Kind:  resolvercore.ColumnKind(col.Kind),
			Settings: resolvercore.ColumnSettings{
				Formula:              col.Settings.Formula,
				Function:             resolvercore.AggregationFunc(col.Settings.Function),
				RelationColumn:       col.Settings.RelationColumn,
				NumberFormatDecimals: col.Settings.NumberFormatDecimals,
				LinkedBoardIDs:       col.Settings.LinkedBoardIDs,
				DisplayedLinkedColumns: mirrorTargets(col.Settings.DisplayedLinkedColumns),
			},
		})
	}
	return defs, nil
}

func (c *Client) DisplayValue(ctx context.Context, boardID, columnID, itemID string) (resolvercore.RawColumnValue, error) {
	c.mu.Lock()
	c.DisplayCalls++
	c.mu.Unlock()

	board, ok := c.boards[boardID]
	if !ok {
		return resolvercore.RawColumnValue{}, nil
	}
	v, ok := board.DisplayValues[columnID+"|"+itemID]
	if !ok {
		return resolvercore.RawColumnValue{}, nil
	}
	return toRawValue(v), nil
}

func (c *Client) DisplayValueBatch(ctx context.Context, boardID, columnID string, itemIDs []string) (map[string]resolvercore.RawColumnValue, error) {
	c.mu.Lock()
	c.DisplayCalls++
	c.mu.Unlock()

	out := make(map[string]resolvercore.RawColumnValue, len(itemIDs))
	board, ok := c.boards[boardID]
	if !ok {
		return out, nil
	}
	for _, id := range itemIDs {
		if v, ok := board.DisplayValues[columnID+"|"+id]; ok {
			out[id] = toRawValue(v)
		}
	}
	return out, nil
}

func (c *Client) DeepMirror(ctx context.Context, boardID, columnID, itemID string) (resolvercore.DeepMirrorResult, error) {
	c.mu.Lock()
	c.DeepMirrorCalls++
	c.mu.Unlock()

	board, ok := c.boards[boardID]
	if !ok {
		return resolvercore.DeepMirrorResult{}, nil
	}
	m, ok := board.DeepMirrors[columnID+"|"+itemID]
	if !ok {
		return resolvercore.DeepMirrorResult{}, nil
	}
	items := make([]resolvercore.LinkedItem, 0, len(m.MirroredItems))
	for _, li := range m.MirroredItems {
		items = append(items, resolvercore.LinkedItem{BoardID: li.BoardID, ItemID: li.ItemID, Name: li.Name})
	}
	return resolvercore.DeepMirrorResult{DisplayValue: m.DisplayValue, MirroredItems: items}, nil
}

func (c *Client) MultiColumnsDeep(ctx context.Context, boardID, itemID string, columnIDs []string) (map[string]resolvercore.RawColumnValue, error) {
	c.mu.Lock()
	c.MultiColumnCalls++
	c.mu.Unlock()

	out := make(map[string]resolvercore.RawColumnValue, len(columnIDs))
	board, ok := c.boards[boardID]
	if !ok {
		return out, nil
	}
	perItem := board.MultiColumns[itemID]
	for _, id := range columnIDs {
		if v, ok := perItem[id]; ok {
			out[id] = toRawValue(v)
		}
	}
	return out, nil
}

func mirrorTargets(fixtures []MirrorTargetFixture) []resolvercore.MirrorTarget {
	targets := make([]resolvercore.MirrorTarget, 0, len(fixtures))
	for _, f := range fixtures {
		targets = append(targets, resolvercore.MirrorTarget{TargetBoardID: f.TargetBoardID, ColumnIDs: f.ColumnIDs})
	}
	return targets
}

func toRawValue(v ValueFixture) resolvercore.RawColumnValue {
	raw := resolvercore.RawColumnValue{Labels: v.Labels, Seconds: v.Seconds}
	if v.Text != nil {
		raw.HasText, raw.Text = true, *v.Text
	}
	if v.Number != nil {
		raw.HasNumber, raw.Number = true, *v.Number
	}
	if v.Bool != nil {
		raw.HasBool, raw.Bool = true, *v.Bool
	}
	if v.DisplayValue != nil {
		raw.HasDisplay, raw.DisplayValue = true, *v.DisplayValue
	}
	return raw
}
