package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verb.csv")
	require.NoError(t, os.WriteFile(path, []byte("語,ます形\n食べる,食べます\n"), 0o644))

	src := New("verb", path)

	assert.Equal(t, "verb", src.Name())
	assert.Equal(t, path, src.Path())

	table, err := src.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "verb", table.Source)
	assert.Equal(t, []string{"語", "ます形"}, table.Columns)
	require.Len(t, table.Rows, 1)
}

func TestFileSource_Load_Missing(t *testing.T) {
	src := New("adjective", filepath.Join(t.TempDir(), "nope.csv"))

	_, err := src.Load(context.Background())

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSource_Load_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := New("verb", "ignored.csv")
	_, err := src.Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
