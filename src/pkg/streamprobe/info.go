// Package streamprobe 驱动 FLV 解复用：从 io.Reader 读取数据送入 flv.Demuxer，
// 把解复用通知分发给订阅者，并把轨道状态汇总为 StreamHeaderInfo
package streamprobe

import (
	"fmt"

	"github.com/bililive-go/flvdemux/src/pkg/flv"
)

// StreamHeaderInfo 包含从流中解析出的实际信息
type StreamHeaderInfo struct {
	// 视频信息
	VideoCodec       string  `json:"video_codec"`        // "h264", "h265", "unknown"
	VideoCodecString string  `json:"video_codec_string"` // RFC 6381，如 "avc1.64001f"
	Width            int     `json:"width"`              // 从 SPS 解析的实际宽度（像素）
	Height           int     `json:"height"`             // 从 SPS 解析的实际高度（像素）
	Profile          string  `json:"profile,omitempty"`
	Level            string  `json:"level,omitempty"`
	FrameRate        float64 `json:"frame_rate"`    // 帧率（来自 SPS 或 onMetaData）
	VideoBitrate     int     `json:"video_bitrate"` // 视频码率 (kbps, 来自 onMetaData)

	// 音频信息
	AudioCodec       string `json:"audio_codec"` // "aac", "mp3", "opus", "unknown"
	AudioCodecString string `json:"audio_codec_string"`
	SampleRate       int    `json:"sample_rate"`
	Channels         int    `json:"channels"`
	AudioBitrate     int    `json:"audio_bitrate"` // 音频码率 (kbps)

	// 解析来源和状态
	ParsedFromSPS  bool `json:"parsed_from_sps"`  // 分辨率是否从 SPS 解析（最可靠）
	ParsedFromMeta bool `json:"parsed_from_meta"` // 分辨率是否从 onMetaData 解析
	HasScript      bool `json:"has_script"`

	// 不支持的编码格式信息
	Unsupported    bool   `json:"unsupported"`
	UnsupportedMsg string `json:"unsupported_msg"`

	// 解复用进度
	BytesRead     int64     `json:"bytes_read"`
	VideoSamples  int       `json:"video_samples"`
	AudioSamples  int       `json:"audio_samples"`
	Keyframes     int       `json:"keyframes"`
	LastTimestamp int32     `json:"last_timestamp"`
	Stats         flv.Stats `json:"stats"`
	Errors        []string  `json:"errors,omitempty"`

	Video *flv.VideoTrackMeta `json:"video,omitempty"`
	Audio *flv.AudioTrackMeta `json:"audio,omitempty"`

	// 原始数据（供 debug 使用）
	RawMetaData map[string]interface{} `json:"raw_meta_data,omitempty"`
}

// Resolution 返回格式化的分辨率字符串，如 "1920x1080"
// 如果宽高都为 0，返回空字符串
func (info *StreamHeaderInfo) Resolution() string {
	if info.Width > 0 && info.Height > 0 {
		return fmt.Sprintf("%dx%d", info.Width, info.Height)
	}
	return ""
}

// ProbeStatus 返回探测状态字符串
// "success" | "unsupported" | "pending"
func (info *StreamHeaderInfo) ProbeStatus() string {
	if info.Unsupported {
		return "unsupported"
	}
	if info.ParsedFromSPS || info.ParsedFromMeta {
		return "success"
	}
	return "pending"
}
