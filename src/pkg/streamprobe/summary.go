package streamprobe

import (
	"encoding/binary"
	"fmt"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h265"

	"github.com/bililive-go/flvdemux/src/pkg/amf"
	"github.com/bililive-go/flvdemux/src/pkg/flv"
)

const (
	// Video CodecID
	codecAVC  uint8 = 7
	codecHEVC uint8 = 12

	// SoundFormat
	audioCodecAAC  uint8 = 10
	audioCodecMP3  uint8 = 2
	audioCodecOPUS uint8 = 13 // 非标准扩展

	// HEVC NAL type
	hevcNALSPS = 33
)

// Summarize 把 Demuxer 当前的轨道状态汇总为 StreamHeaderInfo
// 必须在驱动 Demuxer 的 goroutine 中调用
func Summarize(d *flv.Demuxer) *StreamHeaderInfo {
	info := &StreamHeaderInfo{
		HasScript: d.HasScript(),
		Stats:     d.Stats(),
	}
	if tracks := d.Tracks(); tracks != nil {
		if tracks.Video != nil {
			summarizeVideo(tracks.Video, info)
		}
		if tracks.Audio != nil {
			summarizeAudio(tracks.Audio, info)
		}
	}
	if meta := d.MetaData(); len(meta) > 0 {
		applyScriptMeta(meta, info)
	}
	return info
}

func summarizeVideo(track *flv.VideoTrack, info *StreamHeaderInfo) {
	meta := *track.Meta
	info.Video = &meta

	switch track.CodecID {
	case 0:
		// 还没有收到视频 tag
	case codecAVC:
		info.VideoCodec = "h264"
		if track.HasSpecificConfig {
			info.VideoCodecString = meta.Codec
			info.Width = meta.CodecWidth
			info.Height = meta.CodecHeight
			info.Profile = meta.Profile
			info.Level = meta.Level
			info.FrameRate = meta.FrameRate.FPS
			info.ParsedFromSPS = true
		}
	case codecHEVC:
		info.VideoCodec = "h265"
		if len(meta.HVCC) > 0 {
			parseHEVCDecoderConfig(meta.HVCC, info)
		}
	default:
		info.VideoCodec = "unknown"
		info.Unsupported = true
		info.UnsupportedMsg = fmt.Sprintf("未知的视频编码格式 (CodecID: %d)", track.CodecID)
	}
}

// parseHEVCDecoderConfig 解析 HEVC Decoder Configuration Record
// 从中提取 SPS 并解析分辨率
func parseHEVCDecoderConfig(data []byte, info *StreamHeaderInfo) {
	if len(data) < 23 {
		return
	}

	// ISO 14496-15 8.3.3.1.2：前 22 字节是固定配置，byte 22 为 numOfArrays
	numArrays := int(data[22])
	offset := 23

	for i := 0; i < numArrays; i++ {
		if offset+3 > len(data) {
			return
		}
		naluType := data[offset] & 0x3f
		numNalus := int(binary.BigEndian.Uint16(data[offset+1 : offset+3]))
		offset += 3

		for j := 0; j < numNalus; j++ {
			if offset+2 > len(data) {
				return
			}
			naluLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
			offset += 2
			if offset+naluLen > len(data) {
				return
			}
			nalu := data[offset : offset+naluLen]
			offset += naluLen

			if naluType != hevcNALSPS || naluLen == 0 {
				continue
			}
			var sps h265.SPS
			if err := sps.Unmarshal(nalu); err != nil {
				continue
			}
			info.Width = sps.Width()
			info.Height = sps.Height()
			info.ParsedFromSPS = true
			if fps := sps.FPS(); fps > 0 && fps < 300 {
				info.FrameRate = fps
			}
			return
		}
	}
}

func summarizeAudio(track *flv.AudioTrack, info *StreamHeaderInfo) {
	meta := *track.Meta
	info.Audio = &meta

	// Format 为 0 且没有样本说明还没有收到音频 tag
	if track.Format == 0 && len(track.Samples) == 0 {
		return
	}
	info.AudioCodec = audioCodecName(track.Format)
	if track.Format == audioCodecAAC {
		info.AudioCodecString = meta.Codec
		info.SampleRate = meta.SampleRate
		info.Channels = meta.ChannelCount
	}
}

// applyScriptMeta 从 onMetaData 中补充 SPS 没有提供的信息
func applyScriptMeta(meta amf.Object, info *StreamHeaderInfo) {
	info.RawMetaData = make(map[string]interface{}, len(meta))
	for k, v := range meta {
		info.RawMetaData[k] = v
	}

	if width, ok := meta.Number("width"); ok && width > 0 && info.Width == 0 {
		info.Width = int(width)
		info.ParsedFromMeta = true
	}
	if height, ok := meta.Number("height"); ok && height > 0 && info.Height == 0 {
		info.Height = int(height)
		info.ParsedFromMeta = true
	}
	if framerate, ok := meta.Number("framerate"); ok && framerate > 0 && info.FrameRate == 0 {
		info.FrameRate = framerate
	}
	if rate, ok := meta.Number("videodatarate"); ok && rate > 0 {
		info.VideoBitrate = int(rate)
	}
	if rate, ok := meta.Number("audiodatarate"); ok && rate > 0 {
		info.AudioBitrate = int(rate)
	}

	if info.VideoCodec == "" {
		if name, ok := codecName(meta, "videocodecid", videoCodecName); ok {
			info.VideoCodec = name
		}
	}
	if info.AudioCodec == "" {
		if name, ok := codecName(meta, "audiocodecid", audioCodecName); ok {
			info.AudioCodec = name
		}
	}
}

// codecName 读取 videocodecid / audiocodecid，可能是字符串也可能是 FLV 编码编号
func codecName(meta amf.Object, key string, byID func(uint8) string) (string, bool) {
	if s, ok := meta.String(key); ok {
		return normalizeCodecName(s), true
	}
	if n, ok := meta.Number(key); ok && n >= 0 && n < 256 {
		return byID(uint8(n)), true
	}
	return "", false
}

func videoCodecName(id uint8) string {
	switch id {
	case codecAVC:
		return "h264"
	case codecHEVC:
		return "h265"
	default:
		return "unknown"
	}
}

func audioCodecName(format uint8) string {
	switch format {
	case audioCodecAAC:
		return "aac"
	case audioCodecMP3:
		return "mp3"
	case audioCodecOPUS:
		return "opus"
	default:
		return fmt.Sprintf("audio_%d", format)
	}
}

// normalizeCodecName 标准化编码名称
func normalizeCodecName(name string) string {
	switch name {
	case "avc1", "AVC", "7":
		return "h264"
	case "hvc1", "hev1", "HEVC", "12":
		return "h265"
	case "mp4a", "AAC", "10":
		return "aac"
	case ".mp3", "mp3":
		return "mp3"
	default:
		return name
	}
}
