package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"wayfarer/internal/testutil"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	fs, err := NewFileStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)
	return fs, dir
}

func TestFileStore_GetMissingDocument(t *testing.T) {
	fs, _ := newTestFileStore(t)
	doc, err := fs.GetDocument(context.Background(), "journal", "u1")
	require.NoError(t, err)
	assert.False(t, doc.Exists)
}

func TestFileStore_SetWithoutPersistStaysInMemory(t *testing.T) {
	fs, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SetDocument(ctx, "journal", "u1", map[string]interface{}{"a": "1"}, false))

	doc, err := fs.GetDocument(ctx, "journal", "u1")
	require.NoError(t, err)
	assert.True(t, doc.Exists)

	_, err = os.Stat(filepath.Join(dir, "journal", "u1"+fileExt))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_PersistWritesFile(t *testing.T) {
	fs, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SetDocument(ctx, "journal", "u1", map[string]interface{}{"a": "1"}, false))
	require.NoError(t, fs.Persist())

	path := filepath.Join(dir, "journal", "u1"+fileExt)
	_, err := os.Stat(path)
	assert.NoError(t, err)

	// Temp file should not exist
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	ctx := context.Background()

	fs, err := NewFileStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)
	require.NoError(t, fs.SetDocument(ctx, "journal", "u1", map[string]interface{}{
		"2026-08-21": map[string]interface{}{
			"t1": map[string]interface{}{"message": "hello", "timestamp": "2026-08-21T10:00:00Z"},
		},
	}, false))
	require.NoError(t, fs.Persist())

	// Load through a fresh store
	fs2, err := NewFileStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)
	doc, err := fs2.GetDocument(ctx, "journal", "u1")
	require.NoError(t, err)
	require.True(t, doc.Exists)

	day := doc.Data["2026-08-21"].(map[string]interface{})
	turn := day["t1"].(map[string]interface{})
	assert.Equal(t, "hello", turn["message"])
}

func TestFileStore_LegacyUncompressedFile(t *testing.T) {
	dir := t.TempDir()
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	logger := &testutil.MockLogger{}

	// Pre-compression deployments wrote plain json.
	legacy, _ := json.Marshal(map[string]interface{}{"conversation": []interface{}{}})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "journal"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "journal", "u1"+fileExt), legacy, 0644))

	fs, err := NewFileStore(dir, comp, logger)
	require.NoError(t, err)

	doc, err := fs.GetDocument(context.Background(), "journal", "u1")
	require.NoError(t, err)
	assert.True(t, doc.Exists)
	assert.Contains(t, doc.Data, "conversation")
	assert.Equal(t, 1, logger.LevelCount("warn"))
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	comp, err := NewZstdCompressor()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "journal"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "journal", "u1"+fileExt), []byte{0xff, 0xfe, 0x00}, 0644))

	fs, err := NewFileStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)

	_, err = fs.GetDocument(context.Background(), "journal", "u1")
	assert.Error(t, err)
}

func TestFileStore_DeleteRemovesFileOnPersist(t *testing.T) {
	fs, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SetDocument(ctx, "journal", "u1", map[string]interface{}{"a": "1"}, false))
	require.NoError(t, fs.Persist())

	require.NoError(t, fs.DeleteDocument(ctx, "journal", "u1"))

	doc, err := fs.GetDocument(ctx, "journal", "u1")
	require.NoError(t, err)
	assert.False(t, doc.Exists)

	require.NoError(t, fs.Persist())
	_, err = os.Stat(filepath.Join(dir, "journal", "u1"+fileExt))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_UpdateField(t *testing.T) {
	fs, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SetDocument(ctx, "journal", "u1", map[string]interface{}{
		"day": map[string]interface{}{"t1": map[string]interface{}{"message": "m"}},
	}, false))
	require.NoError(t, fs.UpdateField(ctx, "journal", "u1", "day.t1.diary", "new entry"))

	doc, _ := fs.GetDocument(ctx, "journal", "u1")
	day := doc.Data["day"].(map[string]interface{})
	turn := day["t1"].(map[string]interface{})
	assert.Equal(t, "new entry", turn["diary"])
	assert.Equal(t, "m", turn["message"])
}

func TestFileStore_AppendToArray(t *testing.T) {
	fs, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.AppendToArray(ctx, "users", "u1", "visited_places", "Lisbon"))
	require.NoError(t, fs.AppendToArray(ctx, "users", "u1", "visited_places", "Porto"))

	doc, _ := fs.GetDocument(ctx, "users", "u1")
	assert.Equal(t, []interface{}{"Lisbon", "Porto"}, doc.Data["visited_places"])
}

func TestFileStore_MergePreservesExistingFields(t *testing.T) {
	fs, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SetDocument(ctx, "users", "u1", map[string]interface{}{"display_name": "Ana"}, false))
	require.NoError(t, fs.SetDocument(ctx, "users", "u1", map[string]interface{}{"home_base": "Lisbon"}, true))

	doc, _ := fs.GetDocument(ctx, "users", "u1")
	assert.Equal(t, "Ana", doc.Data["display_name"])
	assert.Equal(t, "Lisbon", doc.Data["home_base"])
}

func TestFileStore_PersistOnlyFlushesDirty(t *testing.T) {
	fs, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SetDocument(ctx, "journal", "u1", map[string]interface{}{"a": "1"}, false))
	require.NoError(t, fs.Persist())

	path := filepath.Join(dir, "journal", "u1"+fileExt)
	before, err := os.Stat(path)
	require.NoError(t, err)

	// Nothing changed; another Persist must not rewrite the file.
	require.NoError(t, fs.Persist())
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestFileStore_CompressError(t *testing.T) {
	dir := t.TempDir()
	comp := &testutil.MockCompressor{
		CompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("compress failed")
		},
	}
	fs, err := NewFileStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)

	require.NoError(t, fs.SetDocument(context.Background(), "c", "k", map[string]interface{}{"a": 1}, false))
	err = fs.Persist()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compress failed")
}

func TestFileStore_GetReturnsCopy(t *testing.T) {
	fs, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SetDocument(ctx, "c", "k", map[string]interface{}{
		"nested": map[string]interface{}{"v": "original"},
	}, false))

	doc, _ := fs.GetDocument(ctx, "c", "k")
	doc.Data["nested"].(map[string]interface{})["v"] = "mutated"

	again, _ := fs.GetDocument(ctx, "c", "k")
	assert.Equal(t, "original", again.Data["nested"].(map[string]interface{})["v"])
}

func TestFileStore_InvalidRefRejected(t *testing.T) {
	fs, _ := newTestFileStore(t)
	err := fs.SetDocument(context.Background(), "journal", "../escape", nil, false)
	assert.Error(t, err)
}

func TestFileStore_CloseFlushes(t *testing.T) {
	dir := t.TempDir()
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	fs, err := NewFileStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)

	require.NoError(t, fs.SetDocument(context.Background(), "journal", "u1", map[string]interface{}{"a": "1"}, false))
	require.NoError(t, fs.Close())

	_, err = os.Stat(filepath.Join(dir, "journal", "u1"+fileExt))
	assert.NoError(t, err)
}
