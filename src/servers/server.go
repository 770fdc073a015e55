// Package servers watch 模式下的 HTTP 接口：流信息、解复用事件推送与 Prometheus 指标
package servers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/bililive-go/flvdemux/src/metrics"
	"github.com/bililive-go/flvdemux/src/pkg/streamprobe"
)

// InfoSource 提供最新的流信息汇总，*streamprobe.Prober 满足该接口
type InfoSource interface {
	HeaderInfo() *streamprobe.StreamHeaderInfo
}

// Config 服务配置
type Config struct {
	Bind     string
	Source   InfoSource
	Hub      *SSEHub
	Registry *prometheus.Registry
	Logger   logrus.FieldLogger
}

// Server HTTP 服务
type Server struct {
	server *http.Server
	source InfoSource
	hub    *SSEHub
	logger logrus.FieldLogger
}

// New 创建服务，Registry 为空时不暴露 /metrics，Hub 为空时不提供 /api/events
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	s := &Server{
		source: cfg.Source,
		hub:    cfg.Hub,
		logger: cfg.Logger,
	}
	s.server = &http.Server{
		Addr:              cfg.Bind,
		Handler:           s.router(cfg.Registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) router(reg *prometheus.Registry) *mux.Router {
	m := mux.NewRouter()
	m.Use(log)

	apiRoute := m.PathPrefix("/api").Subrouter()
	apiRoute.HandleFunc("/info", s.getInfo).Methods("GET")
	apiRoute.HandleFunc("/info/{path}", s.getInfoField).Methods("GET")
	if s.hub != nil {
		apiRoute.HandleFunc("/events", s.sseHandler).Methods("GET")
	}
	if reg != nil {
		m.Handle("/metrics", metrics.Handler(reg)).Methods("GET")
	}
	return m
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start 监听并服务直到 ctx 被取消
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在给定的 listener 上服务直到 ctx 被取消
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("HTTP server listening")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
