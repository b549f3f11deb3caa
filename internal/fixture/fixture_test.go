package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFixture = `{
  "123": {
    "columns": [
      {"id": "numbers1", "title": "Numbers", "kind": "number"},
      {"id": "formula1", "title": "Formula", "kind": "formula", "settings": {"formula": "{numbers1} * 2"}}
    ],
    "display_values": {
      "numbers1|100": {"number": 25}
    },
    "multi_columns": {
      "100": {"numbers1": {"number": 25}}
    }
  }
}`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o644))
	return path
}

func TestLoadAndSchema(t *testing.T) {
	c, err := Load(writeSample(t))
	require.NoError(t, err)

	defs, err := c.Schema(context.Background(), "123")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "numbers1", defs[0].ID)
	assert.Equal(t, "{numbers1} * 2", defs[1].Settings.Formula)
	assert.Equal(t, 1, c.SchemaCalls)
}

func TestDisplayValueMissingReturnsEmpty(t *testing.T) {
	c, err := Load(writeSample(t))
	require.NoError(t, err)

	v, err := c.DisplayValue(context.Background(), "123", "numbers1", "999")
	require.NoError(t, err)
	assert.False(t, v.HasNumber)
}

func TestDisplayValuePresent(t *testing.T) {
	c, err := Load(writeSample(t))
	require.NoError(t, err)

	v, err := c.DisplayValue(context.Background(), "123", "numbers1", "100")
	require.NoError(t, err)
	assert.True(t, v.HasNumber)
	assert.Equal(t, float64(25), v.Number)
}

func TestMultiColumnsDeep(t *testing.T) {
	c, err := Load(writeSample(t))
	require.NoError(t, err)

	out, err := c.MultiColumnsDeep(context.Background(), "123", "100", []string{"numbers1"})
	require.NoError(t, err)
	assert.Equal(t, float64(25), out["numbers1"].Number)
	assert.Equal(t, 1, c.MultiColumnCalls)
}

func TestLoadUnknownFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
