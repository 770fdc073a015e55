package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/bililive-go/flvdemux/src/pkg/metadata"
	"github.com/bililive-go/flvdemux/src/pkg/streamprobe"
)

type probeOptions struct {
	File  string
	Query string
	Chunk int
	Store bool
}

func runProbe(ctx context.Context, env *appEnv, opts probeOptions, out io.Writer) error {
	logger := env.Logger.WithField("file", opts.File)

	var (
		store    *metadata.Store
		cacheKey string
	)
	if opts.Store || env.Config.Store.Enable {
		s, err := env.Store()
		if err != nil {
			return err
		}
		key, err := metadata.FileKey(opts.File)
		if err != nil {
			return err
		}
		store, cacheKey = s, key
		cached, err := store.LoadProbe(ctx, cacheKey)
		if err != nil {
			logger.WithError(err).Warn("读取探测缓存失败")
		} else if cached != nil {
			logger.Debug("使用缓存的探测结果")
			return printInfo(out, cached, opts.Query)
		}
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return err
	}
	defer f.Close()

	chunk := opts.Chunk
	if chunk <= 0 {
		chunk = env.Config.Demux.ReadChunkSize
	}
	prober := streamprobe.New(streamprobe.Config{
		Reader:     f,
		ChunkSize:  chunk,
		Timescale:  env.Config.Demux.Timescale,
		SPSDecoder: env.SPSDecoder(),
		Logger:     logger,
	})
	info, err := prober.Run(ctx)
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.SaveProbe(ctx, cacheKey, info); err != nil {
			logger.WithError(err).Warn("保存探测缓存失败")
		}
	}
	return printInfo(out, info, opts.Query)
}

func printInfo(out io.Writer, info *streamprobe.StreamHeaderInfo, query string) error {
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	if query == "" {
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	result := gjson.GetBytes(b, query)
	if !result.Exists() {
		return fmt.Errorf("查询路径不存在: %s", query)
	}
	_, err = fmt.Fprintln(out, result.String())
	return err
}
