// internal/credstore/file_test.go
package credstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/linkforge-cli/internal/credstore"
	"go.uber.org/zap"
)

func openStore(t *testing.T, path string) *credstore.FileStore {
	t.Helper()
	s, err := credstore.OpenFileStore(path, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNormalizeKey(t *testing.T) {
	variants := []string{"Free Listing UK", "freelisting uk", "FreeListing UK", "  free listing  uk "}
	for _, v := range variants {
		assert.Equal(t, "freelistinguk", credstore.NormalizeKey(v))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	s := openStore(t, path)
	rec := credstore.NewRecord("alice0001", "box@example.com", "pw")
	require.NoError(t, s.Save(ctx, "Free Listing UK", rec, false))

	// A fresh store reads the file back from disk.
	s2 := openStore(t, path)
	got, found, err := s2.Load(ctx, "freelisting uk")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice0001", got.Username)
	assert.Equal(t, "pw", got.Password)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestFileStoreOverwriteSemantics(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	s := openStore(t, path)

	require.NoError(t, s.Save(ctx, "YP Local", credstore.NewRecord("bob", "box@example.com", "original"), false))

	t.Run("overwrite false preserves the stored password", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "yp local", credstore.NewRecord("bob2", "box@example.com", "different"), false))
		got, found, err := s.Load(ctx, "YP Local")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "original", got.Password)
		assert.Equal(t, "bob", got.Username)
	})

	t.Run("overwrite true replaces the record", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "YP LOCAL", credstore.NewRecord("bob3", "box@example.com", "new"), true))
		got, _, err := s.Load(ctx, "yplocal")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Password)
	})

	t.Run("key variants do not fork entries", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		// One site, however spelled, is one top-level key.
		assert.Equal(t, 1, countJSONKeys(t, data))
	})
}

func TestFileStoreAttachProfileURL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	s := openStore(t, path)

	require.NoError(t, s.Save(ctx, "Directory Node", credstore.NewRecord("carol", "box@example.com", "pw"), false))
	require.NoError(t, s.AttachProfileURL(ctx, "directory node", "https://directorynode.example/listing/9"))

	got, found, err := s.Load(ctx, "DirectoryNode")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://directorynode.example/listing/9", got.ProfileURL)
	assert.Equal(t, "pw", got.Password)

	t.Run("unknown site errors", func(t *testing.T) {
		assert.Error(t, s.AttachProfileURL(ctx, "nowhere", "https://x.example"))
	})
}

func TestFileStoreMissingFile(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "absent.json"))
	_, found, err := s.Load(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := credstore.OpenFileStore(path, zap.NewNop())
	assert.Error(t, err)
}

func countJSONKeys(t *testing.T, data []byte) int {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return len(m)
}
