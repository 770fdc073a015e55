package main

import (
	"context"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bililive-go/flvdemux/src/metrics"
	"github.com/bililive-go/flvdemux/src/pkg/events"
	"github.com/bililive-go/flvdemux/src/pkg/streamprobe"
	"github.com/bililive-go/flvdemux/src/servers"
)

func runWatch(ctx context.Context, env *appEnv, file, listen string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := env.Logger.WithField("file", file)
	dispatcher := events.NewDispatcher()
	// 任一 goroutine 失败时 ctx 被取消，FollowReader 随之返回
	g, ctx := errgroup.WithContext(ctx)
	prober := streamprobe.New(streamprobe.Config{
		Reader:     streamprobe.NewFollowReader(ctx, f, streamprobe.DefaultPollInterval),
		ChunkSize:  env.Config.Demux.ReadChunkSize,
		Timescale:  env.Config.Demux.Timescale,
		SPSDecoder: env.SPSDecoder(),
		Dispatcher: dispatcher,
		Logger:     logger,
		OnProbed: func(info *streamprobe.StreamHeaderInfo) {
			logger.WithFields(logrus.Fields{
				"resolution":  info.Resolution(),
				"frame_rate":  info.FrameRate,
				"sample_rate": info.SampleRate,
			}).Info("轨道参数更新")
		},
	})

	g.Go(func() error {
		_, err := prober.Run(ctx)
		return err
	})

	if bind := listenAddr(env, listen); bind != "" {
		collector := metrics.NewCollector(prober)
		collector.Subscribe(dispatcher)
		hub := servers.NewSSEHub()
		hub.Subscribe(dispatcher)

		srv := servers.New(servers.Config{
			Bind:     bind,
			Source:   prober,
			Hub:      hub,
			Registry: metrics.NewRegistry(collector),
			Logger:   logger,
		})
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.WithField("stats", prober.Stats()).Info("watch 结束")
	return nil
}

// listenAddr --listen 优先，其次是启用状态下的 metrics.bind
func listenAddr(env *appEnv, listen string) string {
	if listen != "" {
		return listen
	}
	if env.Config.Metrics.Enable {
		return env.Config.Metrics.Bind
	}
	return ""
}
