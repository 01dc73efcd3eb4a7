package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/keyseq/pkg/adapters/file"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	tests.SequenceStoreContractTest(t, file.New(t.TempDir()))
}

func TestFileStore_WritesYAML(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)

	require.NoError(t, store.Save(context.Background(), domain.Definition{
		Name: "hi",
		Keys: domain.Sequence{"KeyH", "KeyI"},
	}))

	data, err := os.ReadFile(filepath.Join(dir, "hi.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: hi")
	assert.Contains(t, string(data), "- KeyH")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not linger")
}

func TestFileStore_ReadsHandWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	content := []byte("description: typed by hand\nkeys: [ArrowUp, ArrowDown]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manual.yaml"), content, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	store := file.New(dir)
	def, err := store.Load(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, "manual", def.Name)
	assert.Equal(t, domain.Sequence{"ArrowUp", "ArrowDown"}, def.Keys)

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"manual"}, names)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store := file.New(t.TempDir())

	_, err := store.Load(context.Background(), "../secret")
	assert.Error(t, err)
	assert.ErrorIs(t, store.Delete(context.Background(), "a/b"), domain.ErrInvalidName)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
