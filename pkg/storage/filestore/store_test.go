package filestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, found, err := store.Load(ctx, "sf:cart:abc")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Save(ctx, "sf:cart:abc", []byte(`[{"sku":"A"}]`)))
	data, found, err := store.Load(ctx, "sf:cart:abc")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `[{"sku":"A"}]`, string(data))
}

func TestKeyFromName(t *testing.T) {
	key, ok := keyFromName("sf%3Acart%3Aabc.json")
	require.True(t, ok)
	require.Equal(t, "sf:cart:abc", key)

	_, ok = keyFromName(".tmp-12345")
	require.False(t, ok)
	_, ok = keyFromName("notes.txt")
	require.False(t, ok)
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("  ", nil)
	require.Error(t, err)
}

func TestWatchReportsOtherProcessesOnly(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	self, err := New(dir, nil)
	require.NoError(t, err)
	other, err := New(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	feed, err := self.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, self.Save(ctx, "mine", []byte(`1`)))
	require.NoError(t, other.Save(ctx, "theirs", []byte(`2`)))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case change := <-feed:
			require.NotEqual(t, "mine", change.Key, "own writes must be filtered")
			if change.Key == "theirs" {
				cancel()
				for range feed {
				}
				return
			}
		case <-deadline:
			cancel()
			for range feed {
			}
			t.Fatal("timed out waiting for foreign change")
		}
	}
}
