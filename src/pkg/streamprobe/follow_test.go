package streamprobe

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowReader_ReadsAppendedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "growing.flv")
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	follow := NewFollowReader(context.Background(), r, 5*time.Millisecond)
	follow.IdleTimeout = 2 * time.Second

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("FLV"))
	}()

	buf := make([]byte, 8)
	n, err := io.ReadAtLeast(follow, buf, 3)
	require.NoError(t, err)
	assert.Equal(t, "FLV", string(buf[:n]))
}

func TestFollowReader_IdleTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.flv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	follow := NewFollowReader(context.Background(), r, time.Millisecond)
	follow.IdleTimeout = 10 * time.Millisecond

	_, err = follow.Read(make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)
}

func TestFollowReader_Canceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.flv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFollowReader(ctx, r, time.Millisecond).Read(make([]byte, 4))
	assert.ErrorIs(t, err, context.Canceled)
}
