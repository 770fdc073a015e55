package flv

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bililive-go/flvdemux/src/pkg/amf"
	"github.com/bililive-go/flvdemux/src/pkg/buffer"
	"github.com/bililive-go/flvdemux/src/pkg/sps"
)

type state int

const (
	stateAwaitingHeader state = iota
	stateStreamingTags
)

// Options Demuxer 选项，零值可用
type Options struct {
	// Timescale 轨道时间单位，默认 DefaultTimescale
	Timescale int
	// SPSDecoder 默认 sps.H264Decoder
	SPSDecoder sps.Decoder
	// Logger 默认 logrus.StandardLogger()
	Logger logrus.FieldLogger
}

// Stats 解析计数
type Stats struct {
	AudioTags      uint64 `json:"audio_tags"`
	VideoTags      uint64 `json:"video_tags"`
	ScriptTags     uint64 `json:"script_tags"`
	EncryptedTags  uint64 `json:"encrypted_tags"`
	Resyncs        uint64 `json:"resyncs"`
	SizeMismatches uint64 `json:"size_mismatches"`
}

// Demuxer 增量 FLV 解复用器
// 不是并发安全的：Append 与 Advance 必须由同一个 goroutine 串行调用
type Demuxer struct {
	buf        *buffer.Buffer
	logger     logrus.FieldLogger
	spsDecoder sps.Decoder
	timescale  int

	state     state
	tracks    *TrackSet
	metadata  amf.Object
	hasScript bool
	stats     Stats

	outcomes []Outcome
}

// New 创建一个从 buf 中读取数据的 Demuxer
func New(buf *buffer.Buffer, opts Options) *Demuxer {
	if opts.Timescale <= 0 {
		opts.Timescale = DefaultTimescale
	}
	if opts.SPSDecoder == nil {
		opts.SPSDecoder = sps.H264Decoder{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Demuxer{
		buf:        buf,
		logger:     opts.Logger,
		spsDecoder: opts.SPSDecoder,
		timescale:  opts.Timescale,
	}
}

// Buffer 返回输入缓冲区
func (d *Demuxer) Buffer() *buffer.Buffer {
	return d.buf
}

// HeaderParsed 文件头是否已解析
func (d *Demuxer) HeaderParsed() bool {
	return d.state == stateStreamingTags
}

// Tracks 文件头解析之前返回 nil
func (d *Demuxer) Tracks() *TrackSet {
	return d.tracks
}

// MetaData 返回累积的 onMetaData 内容
func (d *Demuxer) MetaData() amf.Object {
	return d.metadata
}

// HasScript 是否收到过一个完整且长度校验通过的 script tag
func (d *Demuxer) HasScript() bool {
	return d.hasScript
}

func (d *Demuxer) Stats() Stats {
	return d.stats
}

// Advance 在已缓冲的数据上尽可能多地解析，返回本次产生的通知
// 数据不足以组成下一个完整单元时返回，缓冲区中留下的字节等待下一次调用
func (d *Demuxer) Advance() []Outcome {
	for d.step() {
	}
	out := d.outcomes
	d.outcomes = nil
	return out
}

// step 解析一个单元，返回是否取得了进展
func (d *Demuxer) step() bool {
	if d.state == stateAwaitingHeader {
		if d.buf.Len() < FileHeaderSize {
			return false
		}
		d.parseFileHeader()
		return true
	}
	return d.parseTag()
}

func (d *Demuxer) parseFileHeader() {
	header, err := d.buf.Consume(FileHeaderSize)
	if err != nil {
		d.emitError(TrackNone, err)
		return
	}
	if !IsFlvFile(header) {
		d.logger.WithField("signature", fmt.Sprintf("% x", header[:4])).Warn("invalid flv signature")
		d.emitError(TrackNone, ErrInvalidSignature)
	}
	pt := GetPlayType(header[4])
	d.tracks = NewTrackSet(pt, d.timescale)
	d.state = stateStreamingTags
	d.logger.WithFields(logrus.Fields{
		"has_video": pt.HasVideo,
		"has_audio": pt.HasAudio,
	}).Debug("flv header parsed")
}

func (d *Demuxer) parseTag() bool {
	tag, err := ReadTagHeader(d.buf)
	if errors.Is(err, ErrNeedMoreData) {
		return false
	}
	if err != nil {
		d.stats.Resyncs++
		d.logger.WithError(err).WithField("offset", d.buf.Offset()-1).Warn("discarding byte to resync")
		return true
	}

	if tag.Type == TagTypeEncrypted {
		d.stats.EncryptedTags++
		if err := d.buf.Skip(encryptedMarkerSize); err != nil {
			d.emitError(TrackNone, err)
		}
		return true
	}

	payload, err := d.buf.Consume(int(tag.DataSize))
	if err != nil {
		d.emitError(TrackNone, err)
		return false
	}
	valid, err := ValidateDataSize(d.buf, tag.DataSize)
	if err != nil {
		d.emitError(TrackNone, err)
		return false
	}
	if !valid {
		d.stats.SizeMismatches++
		d.logger.WithFields(logrus.Fields{
			"tag_type":  tag.Type.String(),
			"data_size": tag.DataSize,
			"offset":    tag.Offset,
		}).Warn("tag size mismatch")
	}

	switch tag.Type {
	case TagTypeScript:
		d.stats.ScriptTags++
		d.parseScriptTag(payload, valid)
	case TagTypeAudio:
		d.stats.AudioTags++
		d.parseAudioTag(tag, payload)
	case TagTypeVideo:
		d.stats.VideoTags++
		d.parseVideoTag(tag, payload, valid)
	}
	return true
}

func (d *Demuxer) emit(o Outcome) {
	d.outcomes = append(d.outcomes, o)
}

func (d *Demuxer) emitError(track TrackKind, err error) {
	d.emit(Outcome{Kind: DemuxError, Track: track, Err: err})
}

// metadataReady 判断 other 轨道是否已经就绪（不存在或已收到 sequence header）
func (d *Demuxer) metadataReady(other TrackKind) bool {
	switch other {
	case TrackAudio:
		return d.tracks.Audio == nil || d.tracks.Audio.HasSpecificConfig
	case TrackVideo:
		return d.tracks.Video == nil || d.tracks.Video.HasSpecificConfig
	}
	return true
}
