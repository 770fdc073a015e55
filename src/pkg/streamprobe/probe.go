package streamprobe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bililive-go/flvdemux/src/pkg/buffer"
	"github.com/bililive-go/flvdemux/src/pkg/events"
	"github.com/bililive-go/flvdemux/src/pkg/flv"
	"github.com/bililive-go/flvdemux/src/pkg/sps"
)

const (
	// DefaultChunkSize 每次从 Reader 读取的字节数
	DefaultChunkSize = 32 * 1024

	// maxErrors 汇总中保留的最近错误条数
	maxErrors = 16

	chunkQueueSize = 8
)

// Config Prober 配置
type Config struct {
	// Reader 输入流
	Reader io.Reader

	// ChunkSize 每次读取的字节数，默认 DefaultChunkSize
	ChunkSize int

	// Timescale 轨道时间单位，默认 flv.DefaultTimescale
	Timescale int

	// SPSDecoder 默认 sps.H264Decoder
	SPSDecoder sps.Decoder

	// Dispatcher 接收每一个解复用通知，事件类型为 Outcome.Kind，事件对象为 flv.Outcome
	Dispatcher events.Dispatcher

	// OnProbed 轨道参数就绪以及之后每次参数变化时调用；
	// 整个流都没有 sequence header 时在 Run 结束前调用一次
	OnProbed func(info *StreamHeaderInfo)

	// OnProbeError 解复用错误回调，仅用于记录，不会中断解析
	OnProbeError func(err error, msg string)

	// Logger 日志记录器，默认 logrus.StandardLogger()
	Logger logrus.FieldLogger
}

// Prober 从 Reader 读取 FLV 数据并驱动 Demuxer
// Run 内部使用两个 goroutine：一个负责读取，一个负责解复用；
// HeaderInfo 可以在任意 goroutine 中调用
type Prober struct {
	config  Config
	logger  logrus.FieldLogger
	demuxer *flv.Demuxer

	headerInfo atomic.Pointer[StreamHeaderInfo]
	bytesRead  atomic.Int64

	// 以下字段只在解复用 goroutine 中访问
	videoSamples  int
	audioSamples  int
	keyframes     int
	lastTimestamp int32
	errs          []string
	probed        bool
}

// New 创建一个新的 Prober
func New(cfg Config) *Prober {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	p := &Prober{
		config: cfg,
		logger: cfg.Logger,
	}
	p.demuxer = flv.New(buffer.New(), flv.Options{
		Timescale:  cfg.Timescale,
		SPSDecoder: cfg.SPSDecoder,
		Logger:     cfg.Logger,
	})
	p.headerInfo.Store(&StreamHeaderInfo{})
	return p
}

// HeaderInfo 返回最近一次汇总的流信息
func (p *Prober) HeaderInfo() *StreamHeaderInfo {
	return p.headerInfo.Load()
}

// Stats 返回最近一次汇总时的解析计数
func (p *Prober) Stats() flv.Stats {
	return p.HeaderInfo().Stats
}

// Run 读取直到 Reader 返回 io.EOF 或 ctx 被取消，返回最终汇总
// ctx 取消视为正常结束
func (p *Prober) Run(ctx context.Context) (*StreamHeaderInfo, error) {
	if p.config.Reader == nil {
		return nil, errors.New("streamprobe: nil reader")
	}

	chunks := make(chan []byte, chunkQueueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		return p.readLoop(gctx, chunks)
	})

	g.Go(func() error {
		for chunk := range chunks {
			p.feed(chunk)
		}
		return nil
	})

	err := g.Wait()
	info := p.HeaderInfo()
	// 没有 sequence header 的流在结束时通知一次
	if !p.probed {
		p.probed = true
		p.notifyProbed(info)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return info, err
	}
	return info, nil
}

func (p *Prober) readLoop(ctx context.Context, chunks chan<- []byte) error {
	buf := make([]byte, p.config.ChunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := p.config.Reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("读取输入流失败: %w", err)
		}
	}
}

// feed 追加一块数据并处理所有产生的通知
func (p *Prober) feed(chunk []byte) {
	p.bytesRead.Add(int64(len(chunk)))
	p.demuxer.Buffer().Append(chunk)

	changed := false
	for _, o := range p.demuxer.Advance() {
		switch o.Kind {
		case flv.DemuxError:
			p.recordError(o.Err)
		case flv.MetadataChanged, flv.VideoMetadataChange:
			changed = true
		case flv.MetadataParsed:
			if o.Sample == nil {
				changed = true
			}
		}
		if o.Sample != nil {
			p.countSample(o)
		}
		if p.config.Dispatcher != nil {
			p.config.Dispatcher.DispatchEvent(events.NewEvent(events.EventType(o.Kind), o))
		}
	}

	// 样本只统计不保留
	if tracks := p.demuxer.Tracks(); tracks != nil {
		if tracks.Video != nil {
			tracks.Video.DrainSamples()
		}
		if tracks.Audio != nil {
			tracks.Audio.DrainSamples()
		}
	}

	info := p.snapshot()
	p.headerInfo.Store(info)
	if changed {
		p.probed = true
		p.notifyProbed(info)
	}
}

func (p *Prober) countSample(o flv.Outcome) {
	switch o.Track {
	case flv.TrackVideo:
		p.videoSamples++
		if o.Sample.Keyframe {
			p.keyframes++
		}
	case flv.TrackAudio:
		p.audioSamples++
	}
	if o.Sample.Timestamp > p.lastTimestamp {
		p.lastTimestamp = o.Sample.Timestamp
	}
}

func (p *Prober) recordError(err error) {
	if err == nil {
		return
	}
	p.errs = append(p.errs, err.Error())
	if len(p.errs) > maxErrors {
		p.errs = p.errs[len(p.errs)-maxErrors:]
	}
	p.notifyError(err, "解复用错误")
}

func (p *Prober) snapshot() *StreamHeaderInfo {
	info := Summarize(p.demuxer)
	info.BytesRead = p.bytesRead.Load()
	info.VideoSamples = p.videoSamples
	info.AudioSamples = p.audioSamples
	info.Keyframes = p.keyframes
	info.LastTimestamp = p.lastTimestamp
	if len(p.errs) > 0 {
		info.Errors = append([]string(nil), p.errs...)
	}
	return info
}

// notifyProbed 通知探测完成
func (p *Prober) notifyProbed(info *StreamHeaderInfo) {
	p.logger.WithFields(logrus.Fields{
		"video_codec": info.VideoCodec,
		"resolution":  info.Resolution(),
		"audio_codec": info.AudioCodec,
	}).Info("stream probed")
	if p.config.OnProbed != nil {
		p.config.OnProbed(info)
	}
}

// notifyError 通知探测错误
func (p *Prober) notifyError(err error, msg string) {
	p.logger.WithError(err).Warn(msg)
	if p.config.OnProbeError != nil {
		p.config.OnProbeError(err, msg)
	}
}
