package log

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bililive-go/flvdemux/src/configs"
)

func TestDailyRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "flvdemux-2000-01-01.log")
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0644))

	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.Local)
	w := &dailyRotatingWriter{dir: dir, base: "flvdemux", retentionDays: 7, now: func() time.Time { return day }}
	defer w.Close()

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.NoFileExists(t, stale)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "flvdemux-2024-03-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(b))
	b, err = os.ReadFile(filepath.Join(dir, "flvdemux-2024-03-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(b))
}

func TestNew(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer logrus.SetOutput(os.Stderr)

	cfg := configs.NewConfig()
	cfg.Debug = true
	logger, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.Same(t, logrus.StandardLogger(), logger)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	cfg = configs.NewConfig()
	cfg.Log.OutPutFolder = filepath.Join(t.TempDir(), "missing")
	_, err = New(ctx, cfg)
	assert.Error(t, err)

	logrus.SetReportCaller(false)
	logrus.SetLevel(logrus.InfoLevel)
}
