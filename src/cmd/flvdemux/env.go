package main

import (
	"context"
	"fmt"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/bililive-go/flvdemux/src/configs"
	"github.com/bililive-go/flvdemux/src/log"
	"github.com/bililive-go/flvdemux/src/pkg/metadata"
	"github.com/bililive-go/flvdemux/src/pkg/sps"
)

// appEnv 一次运行共享的配置、日志与可选的缓存
type appEnv struct {
	Config    *configs.Config
	Logger    *logrus.Entry
	SessionID string

	store *metadata.Store
}

func getConfig(file string, envFiles []string, debug bool) (*configs.Config, error) {
	config := configs.NewConfig()
	if file != "" {
		c, err := configs.NewConfigWithFile(file)
		if err != nil {
			return nil, err
		}
		config = c
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	if debug {
		config.Debug = true
	}
	return config, config.Verify()
}

func newAppEnv(ctx context.Context, file string, envFiles []string, debug bool) (*appEnv, error) {
	config, err := getConfig(file, envFiles, debug)
	if err != nil {
		return nil, err
	}
	configs.SetCurrentConfig(config)

	logger, err := log.New(ctx, config)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.Must(uuid.NewV4()).String()
	return &appEnv{
		Config:    config,
		Logger:    logger.WithField("session", sessionID),
		SessionID: sessionID,
	}, nil
}

// Store 按需打开探测缓存
func (e *appEnv) Store() (*metadata.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if e.Config.Store.Path == "" {
		return nil, fmt.Errorf("未配置 store.path")
	}
	s, err := metadata.Open(e.Config.Store.Path)
	if err != nil {
		return nil, err
	}
	e.store = s
	return s, nil
}

// SPSDecoder 按配置决定是否缓存 SPS 解析结果
func (e *appEnv) SPSDecoder() sps.Decoder {
	if e.Config.Demux.SPSCacheSize > 0 {
		return sps.NewCachedDecoder(sps.H264Decoder{}, e.Config.Demux.SPSCacheSize)
	}
	return sps.H264Decoder{}
}

func (e *appEnv) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
