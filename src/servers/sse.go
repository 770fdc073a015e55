package servers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bililive-go/flvdemux/src/pkg/events"
	"github.com/bililive-go/flvdemux/src/pkg/flv"
)

// SSEMessage SSE 消息结构
type SSEMessage struct {
	Type   flv.OutcomeKind `json:"type"`
	Track  flv.TrackKind   `json:"track,omitempty"`
	Sample *flv.Sample     `json:"sample,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// SSEHub 管理所有 SSE 连接
type SSEHub struct {
	mu      sync.RWMutex
	clients map[chan SSEMessage]struct{}
	closeCh chan struct{}
	closed  bool

	listener *events.EventListener
}

// NewSSEHub 创建 SSE Hub
func NewSSEHub() *SSEHub {
	h := &SSEHub{
		clients: make(map[chan SSEMessage]struct{}),
		closeCh: make(chan struct{}),
	}
	h.listener = events.NewEventListener(h.handleEvent)
	return h
}

// AddClient 添加一个 SSE 客户端
func (h *SSEHub) AddClient(ch chan SSEMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return
	}
	h.clients[ch] = struct{}{}
}

// RemoveClient 移除一个 SSE 客户端
func (h *SSEHub) RemoveClient(ch chan SSEMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broadcast 向所有客户端广播消息
func (h *SSEHub) Broadcast(msg SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// 如果 channel 满了，跳过这条消息（避免阻塞解复用）
		}
	}
}

// ClientCount 获取当前连接的客户端数量
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close 关闭所有 SSE 连接
func (h *SSEHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.closeCh)
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// Done 返回关闭信号 channel
func (h *SSEHub) Done() <-chan struct{} {
	return h.closeCh
}

// Subscribe 把 dispatcher 上的解复用通知转发给 SSE 客户端
func (h *SSEHub) Subscribe(d events.Dispatcher) {
	d.AddEventListener(events.AllEvents, h.listener)
}

// Unsubscribe 取消转发
func (h *SSEHub) Unsubscribe(d events.Dispatcher) {
	d.RemoveEventListener(events.AllEvents, h.listener)
}

func (h *SSEHub) handleEvent(event *events.Event) {
	if event == nil {
		return
	}
	o, ok := event.Object.(flv.Outcome)
	if !ok {
		return
	}
	msg := SSEMessage{
		Type:   o.Kind,
		Track:  o.Track,
		Sample: o.Sample,
	}
	if o.Err != nil {
		msg.Error = o.Err.Error()
	}
	h.Broadcast(msg)
}

// sseHandler 处理 SSE 连接请求
func (s *Server) sseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	hub := s.hub
	clientCh := make(chan SSEMessage, 100)
	hub.AddClient(clientCh)

	fmt.Fprintf(w, "event: connected\ndata: {\"message\":\"SSE connected\",\"clients\":%d}\n\n", hub.ClientCount())
	flusher.Flush()

	heartbeatTicker := time.NewTicker(30 * time.Second)
	defer heartbeatTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			hub.RemoveClient(clientCh)
			return

		case <-hub.Done():
			return

		case <-heartbeatTicker.C:
			fmt.Fprintf(w, ":heartbeat\n\n")
			flusher.Flush()

		case msg, ok := <-clientCh:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			flusher.Flush()
		}
	}
}
