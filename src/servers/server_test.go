package servers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bililive-go/flvdemux/src/metrics"
	"github.com/bililive-go/flvdemux/src/pkg/events"
	"github.com/bililive-go/flvdemux/src/pkg/flv"
	"github.com/bililive-go/flvdemux/src/pkg/streamprobe"
)

type staticSource struct {
	info *streamprobe.StreamHeaderInfo
}

func (s staticSource) HeaderInfo() *streamprobe.StreamHeaderInfo {
	return s.info
}

func (s staticSource) Stats() flv.Stats {
	if s.info == nil {
		return flv.Stats{}
	}
	return s.info.Stats
}

func newTestServer(info *streamprobe.StreamHeaderInfo) (*Server, *SSEHub) {
	logger, _ := test.NewNullLogger()
	hub := NewSSEHub()
	src := staticSource{info: info}
	s := New(Config{
		Source:   src,
		Hub:      hub,
		Registry: metrics.NewRegistry(metrics.NewCollector(src)),
		Logger:   logger,
	})
	return s, hub
}

func sampleInfo() *streamprobe.StreamHeaderInfo {
	return &streamprobe.StreamHeaderInfo{
		VideoCodec: "h264",
		Width:      256,
		Height:     192,
		AudioCodec: "aac",
		SampleRate: 44100,
		Stats:      flv.Stats{VideoTags: 2, AudioTags: 3},
		Video:      &flv.VideoTrackMeta{Codec: "avc1.4d401f"},
	}
}

func decodeResp(t *testing.T, rec *httptest.ResponseRecorder) commonResp {
	t.Helper()
	var resp commonResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetInfo(t *testing.T) {
	s, _ := newTestServer(sampleInfo())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decodeResp(t, rec)
	assert.Equal(t, 0, resp.ErrNo)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "h264", data["video_codec"])
	assert.Equal(t, float64(256), data["width"])
}

func TestGetInfo_Unavailable(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetInfoField(t *testing.T) {
	s, _ := newTestServer(sampleInfo())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info/video.codec", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "avc1.4d401f", decodeResp(t, rec).Data)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info/stats.audio_tags", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeResp(t, rec).Data)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info/no_such_field", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(sampleInfo())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flvdemux_tags_total{type="audio"} 3`)
}

func TestSSEHub_Broadcast(t *testing.T) {
	hub := NewSSEHub()
	d := events.NewDispatcher()
	hub.Subscribe(d)

	ch := make(chan SSEMessage, 4)
	hub.AddClient(ch)
	assert.Equal(t, 1, hub.ClientCount())

	d.DispatchEvent(events.NewEvent(events.EventType(flv.DemuxError), flv.Outcome{
		Kind: flv.DemuxError,
		Err:  errors.New("boom"),
	}))
	d.DispatchEvent(events.NewEvent("other", "not an outcome"))

	msg := <-ch
	assert.Equal(t, flv.DemuxError, msg.Type)
	assert.Equal(t, "boom", msg.Error)
	assert.Len(t, ch, 0)

	hub.Unsubscribe(d)
	hub.Close()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestSSEHandler(t *testing.T) {
	s, hub := newTestServer(sampleInfo())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer hub.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	// 等待客户端注册完成
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast(SSEMessage{Type: flv.MetadataParsed, Track: flv.TrackVideo})

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") && line != "event: connected\n" {
			break
		}
	}
	assert.Equal(t, "event: METADATA_PARSED\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"track":"video"`)
}

func TestServe_Shutdown(t *testing.T) {
	s, _ := newTestServer(sampleInfo())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/info")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
