package filestore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenclo/intradesk/internal/config"
)

func TestLocalStoreSaveOpenURL(t *testing.T) {
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": t.TempDir(),
		},
	})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	payload := []byte("png bytes")
	require.NoError(t, store.Save(context.Background(), "circular_1_ab_p1.png", NewBytesReader(payload), int64(len(payload))))
	require.Equal(t, "/api/v1/files/circular_1_ab_p1.png", store.URL("circular_1_ab_p1.png"))

	file, err := store.Open(context.Background(), "circular_1_ab_p1.png")
	require.NoError(t, err)
	defer file.Close()
	read, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, payload, read)
}

func TestLocalStoreRejectsTraversalKeys(t *testing.T) {
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": t.TempDir(),
		},
	})
	require.NoError(t, err)

	for _, key := range []string{"", "a/b.png", `a\b.png`, "..secret"} {
		require.Error(t, store.Save(context.Background(), key, NewBytesReader([]byte("x")), 1))
		_, err := store.Open(context.Background(), key)
		require.Error(t, err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}
