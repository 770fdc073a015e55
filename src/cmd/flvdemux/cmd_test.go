package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bililive-go/flvdemux/src/configs"
	"github.com/bililive-go/flvdemux/src/pkg/flv/flvtest"
	"github.com/bililive-go/flvdemux/src/pkg/metadata"
)

func writeStream(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "simple.flv")
	require.NoError(t, os.WriteFile(file, flvtest.SimpleStream(), 0644))
	return file
}

func run(t *testing.T, argv ...string) (string, string, int) {
	t.Helper()
	defer configs.SetCurrentConfig(nil)
	defer logrus.SetLevel(logrus.InfoLevel)
	var out, errOut bytes.Buffer
	code := runWithOutput(argv, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestProbe_JSON(t *testing.T) {
	file := writeStream(t)
	out, errOut, code := run(t, "probe", file, "--chunk", "7")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"video_codec": "h264"`)
	assert.Contains(t, out, `"width": 256`)
	assert.Contains(t, out, `"audio_codec": "aac"`)
}

func TestProbe_Query(t *testing.T) {
	file := writeStream(t)
	out, errOut, code := run(t, "probe", file, "--query", "width")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "256", strings.TrimSpace(out))

	_, errOut, code = run(t, "probe", file, "-q", "no.such.path")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "查询路径不存在")
}

func TestProbe_Store(t *testing.T) {
	file := writeStream(t)
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	t.Setenv(configs.EnvStorePath, dbPath)

	first, errOut, code := run(t, "probe", file, "--store")
	require.Equal(t, 0, code, errOut)

	store, err := metadata.Open(dbPath)
	require.NoError(t, err)
	key, err := metadata.FileKey(file)
	require.NoError(t, err)
	cached, err := store.LoadProbe(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "256x192", cached.Resolution())
	require.NoError(t, store.Close())

	second, errOut, code := run(t, "probe", file, "--store")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, first, second)

	out, errOut, code := run(t, "cache", "list")
	require.Equal(t, 0, code, errOut)
	abs, err := filepath.Abs(file)
	require.NoError(t, err)
	assert.Contains(t, out, abs)

	out, errOut, code = run(t, "cache", "clear")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "已清除 1 条缓存")
}

func TestProbe_MissingFile(t *testing.T) {
	_, errOut, code := run(t, "probe", filepath.Join(t.TempDir(), "missing.flv"))
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)
}

func TestConfigInit(t *testing.T) {
	output := filepath.Join(t.TempDir(), "config.yml")
	out, errOut, code := run(t, "config", "init", output)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, output)

	c, err := configs.NewConfigWithFile(output)
	require.NoError(t, err)
	assert.Equal(t, configs.NewConfig().Demux, c.Demux)

	_, errOut, code = run(t, "config", "init", output)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "--force")

	_, _, code = run(t, "config", "init", output, "--force")
	assert.Equal(t, 0, code)
}

func TestListenAddr(t *testing.T) {
	env := &appEnv{Config: configs.NewConfig()}
	assert.Equal(t, "0.0.0.0:1", listenAddr(env, "0.0.0.0:1"))
	assert.Equal(t, env.Config.Metrics.Bind, listenAddr(env, ""))
	env.Config.Metrics.Enable = false
	assert.Equal(t, "", listenAddr(env, ""))
}

func TestGetConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("demux:\n  timescale: 0\n"), 0644))
	_, err := getConfig(file, nil, false)
	assert.Error(t, err)

	c, err := getConfig("", nil, true)
	require.NoError(t, err)
	assert.True(t, c.Debug)
}
