package flv

import (
	"math"

	"github.com/bililive-go/flvdemux/src/pkg/sps"
)

// Sample 一个音频帧或视频访问单元
type Sample struct {
	Timestamp int32 `json:"dts"`
	// CompositionTime 仅视频有效，PTS = DTS + CompositionTime
	CompositionTime int32  `json:"cts,omitempty"`
	FrameType       uint8  `json:"frame_type,omitempty"`
	Keyframe        bool   `json:"keyframe,omitempty"`
	Data            []byte `json:"-"`
}

// AudioTrackMeta 音频轨道的解码参数
type AudioTrackMeta struct {
	ID                int    `json:"id"`
	Codec             string `json:"codec"`
	Timescale         int    `json:"timescale"`
	SampleRate        int    `json:"sample_rate"`
	SampleRateIndex   int    `json:"sample_rate_index"`
	ChannelCount      int    `json:"channel_count"`
	ObjectType        int    `json:"object_type"`
	FrameLength       int    `json:"frame_length"`
	RefSampleDuration int    `json:"ref_sample_duration"`
	// Config AudioSpecificConfig 原始字节
	Config []byte `json:"-"`
}

// VideoTrackMeta 视频轨道的解码参数
type VideoTrackMeta struct {
	ID                int           `json:"id"`
	Codec             string        `json:"codec"`
	Timescale         int           `json:"timescale"`
	CodecWidth        int           `json:"codec_width"`
	CodecHeight       int           `json:"codec_height"`
	PresentWidth      int           `json:"present_width"`
	PresentHeight     int           `json:"present_height"`
	Profile           string        `json:"profile"`
	Level             string        `json:"level"`
	BitDepth          int           `json:"bit_depth"`
	ChromaFormat      int           `json:"chroma_format"`
	SARRatio          sps.Size      `json:"sar_ratio"`
	FrameRate         sps.FrameRate `json:"frame_rate"`
	RefSampleDuration int           `json:"ref_sample_duration"`

	ConfigurationVersion uint8   `json:"configuration_version"`
	AVCProfileIndication uint8   `json:"avc_profile_indication"`
	ProfileCompatibility uint8   `json:"profile_compatibility"`
	AVCLevelIndication   float64 `json:"avc_level_indication"`
	NALUnitLength        int     `json:"nal_unit_length"`

	// AVCC AVCDecoderConfigurationRecord 原始字节
	AVCC []byte `json:"-"`
	// HVCC HEVC sequence header 原始字节
	HVCC []byte `json:"-"`
}

// AudioTrack 音频轨道
type AudioTrack struct {
	ID      int
	Meta    *AudioTrackMeta
	Samples []*Sample
	// Format 最近一个音频 tag 的 SoundFormat
	Format            uint8
	HasSpecificConfig bool

	seeded bool
}

// VideoTrack 视频轨道
type VideoTrack struct {
	ID      int
	Meta    *VideoTrackMeta
	Samples []*Sample
	// CodecID 最近一个视频 tag 的 CodecID
	CodecID           uint8
	PPS               []byte
	HasSpecificConfig bool
}

// TrackSet 一个流中的轨道，每种媒体最多一条
type TrackSet struct {
	Video *VideoTrack
	Audio *AudioTrack

	nextID    int
	timescale int
}

// NewTrackSet 按文件头声明创建轨道，id 从 1 开始，视频在前
func NewTrackSet(pt PlayType, timescale int) *TrackSet {
	if timescale <= 0 {
		timescale = DefaultTimescale
	}
	ts := &TrackSet{nextID: 1, timescale: timescale}
	if pt.HasVideo {
		ts.ensureVideo()
	}
	if pt.HasAudio {
		ts.ensureAudio()
	}
	return ts
}

func (ts *TrackSet) ensureAudio() *AudioTrack {
	if ts.Audio == nil {
		id := ts.allocID()
		ts.Audio = &AudioTrack{ID: id, Meta: DefaultAudioMeta(id, ts.timescale)}
	}
	return ts.Audio
}

func (ts *TrackSet) ensureVideo() *VideoTrack {
	if ts.Video == nil {
		id := ts.allocID()
		ts.Video = &VideoTrack{ID: id, Meta: DefaultVideoMeta(id, ts.timescale)}
	}
	return ts.Video
}

func (ts *TrackSet) allocID() int {
	if ts.nextID == 0 {
		ts.nextID = 1
	}
	id := ts.nextID
	ts.nextID++
	return id
}

// DefaultAudioMeta AAC-LC 44.1kHz 双声道
func DefaultAudioMeta(id, timescale int) *AudioTrackMeta {
	return &AudioTrackMeta{
		ID:                id,
		Codec:             "mp4a.40.2",
		Timescale:         timescale,
		SampleRate:        44100,
		SampleRateIndex:   4,
		ChannelCount:      2,
		ObjectType:        2,
		RefSampleDuration: aacRefSampleDuration(44100, timescale),
	}
}

// DefaultVideoMeta H.264 High 720p 25fps
func DefaultVideoMeta(id, timescale int) *VideoTrackMeta {
	m := &VideoTrackMeta{
		ID:            id,
		Codec:         "avc1.640020",
		Timescale:     timescale,
		CodecWidth:    1280,
		CodecHeight:   720,
		PresentWidth:  1280,
		PresentHeight: 720,
		Profile:       "High",
		Level:         "3.2",
		BitDepth:      8,
		ChromaFormat:  420,
		SARRatio:      sps.Size{Width: 1, Height: 1},
		FrameRate:     sps.FrameRate{Fixed: true, FPS: 25, FPSNum: 25000, FPSDen: 1000},
		NALUnitLength: 4,
	}
	m.RefSampleDuration = frameDuration(m.FrameRate, timescale)
	return m
}

func aacRefSampleDuration(sampleRate, timescale int) int {
	if sampleRate <= 0 {
		return 0
	}
	return int(math.Floor(1024 / float64(sampleRate) * float64(timescale)))
}

func frameDuration(fr sps.FrameRate, timescale int) int {
	if fr.FPSNum == 0 {
		return 0
	}
	return int(math.Floor(float64(timescale) * float64(fr.FPSDen) / float64(fr.FPSNum)))
}

// DrainSamples 取出并清空已累积的样本
func (t *AudioTrack) DrainSamples() []*Sample {
	s := t.Samples
	t.Samples = nil
	return s
}

// DrainSamples 取出并清空已累积的样本
func (t *VideoTrack) DrainSamples() []*Sample {
	s := t.Samples
	t.Samples = nil
	return s
}
