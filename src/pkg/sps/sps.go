//go:generate go run go.uber.org/mock/mockgen -package mock -destination mock/mock.go github.com/bililive-go/flvdemux/src/pkg/sps Decoder
package sps

import (
	"errors"
	"fmt"
	"math"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
)

// ErrInvalidSPS SPS NAL 无法解析
var ErrInvalidSPS = errors.New("invalid SPS")

// Size 宽高
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FrameRate 帧率，FPS = FPSNum / FPSDen
type FrameRate struct {
	Fixed  bool    `json:"fixed"`
	FPS    float64 `json:"fps"`
	FPSNum uint32  `json:"fps_num"`
	FPSDen uint32  `json:"fps_den"`
}

// Info 是从 SPS 中提取出的语义信息
type Info struct {
	ProfileIdc   uint8     `json:"profile_idc"`
	LevelIdc     uint8     `json:"level_idc"`
	CodecSize    Size      `json:"codec_size"`
	PresentSize  Size      `json:"present_size"`
	Profile      string    `json:"profile_string"`
	Level        string    `json:"level_string"`
	BitDepth     int       `json:"bit_depth"`
	ChromaFormat int       `json:"chroma_format"`
	SARRatio     Size      `json:"sar_ratio"`
	FrameRate    FrameRate `json:"frame_rate"`
}

// Decoder 把一个完整的 SPS NAL 单元（含 1 字节 NAL 头）解析为 Info
type Decoder interface {
	Decode(nal []byte) (*Info, error)
}

// H264Decoder 使用 mediacommon 解析 H.264 SPS
type H264Decoder struct{}

// Decode implements Decoder.
func (H264Decoder) Decode(nal []byte) (*Info, error) {
	var s h264.SPS
	if err := s.Unmarshal(nal); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSPS, err)
	}

	info := &Info{
		ProfileIdc:   s.ProfileIdc,
		LevelIdc:     s.LevelIdc,
		CodecSize:    Size{Width: s.Width(), Height: s.Height()},
		Profile:      profileString(s.ProfileIdc),
		Level:        fmt.Sprintf("%.1f", float64(s.LevelIdc)/10),
		BitDepth:     int(s.BitDepthLumaMinus8) + 8,
		ChromaFormat: chromaFormat(s.ChromaFormatIdc),
		SARRatio:     Size{Width: 1, Height: 1},
		// 没有 timing info 时帧率未知，由调用方保留默认值
		FrameRate: FrameRate{Fixed: true},
	}

	if vui := s.VUI; vui != nil {
		if vui.AspectRatioInfoPresentFlag {
			info.SARRatio = sarRatio(int(vui.AspectRatioIdc), int(vui.SarWidth), int(vui.SarHeight))
		}
		if ti := vui.TimingInfo; ti != nil && ti.NumUnitsInTick > 0 && ti.TimeScale > 0 {
			info.FrameRate = FrameRate{
				Fixed:  ti.FixedFrameRateFlag,
				FPSNum: ti.TimeScale,
				FPSDen: ti.NumUnitsInTick * 2,
			}
			info.FrameRate.FPS = float64(info.FrameRate.FPSNum) / float64(info.FrameRate.FPSDen)
		}
	}

	scale := 1.0
	if info.SARRatio.Width > 0 && info.SARRatio.Height > 0 {
		scale = float64(info.SARRatio.Width) / float64(info.SARRatio.Height)
	}
	info.PresentSize = Size{
		Width:  int(math.Ceil(float64(info.CodecSize.Width) * scale)),
		Height: info.CodecSize.Height,
	}
	return info, nil
}

// CodecString 由 SPS 的 profile_idc、constraint flags、level_idc 三个字节生成 RFC 6381 编码字符串
func CodecString(nal []byte) string {
	if len(nal) < 4 {
		return ""
	}
	return fmt.Sprintf("avc1.%02x%02x%02x", nal[1], nal[2], nal[3])
}

func profileString(profileIdc uint8) string {
	switch profileIdc {
	case 66:
		return "Baseline"
	case 77:
		return "Main"
	case 88:
		return "Extended"
	case 100:
		return "High"
	case 110:
		return "High10"
	case 122:
		return "High422"
	case 244:
		return "High444"
	default:
		return "Unknown"
	}
}

func chromaFormat(idc uint32) int {
	switch idc {
	case 0:
		return 400
	case 2:
		return 422
	case 3:
		return 444
	default:
		return 420
	}
}

// H.264 Table E-1
var (
	sarWidthTable  = [...]int{1, 12, 10, 16, 40, 24, 20, 32, 80, 18, 15, 64, 160, 4, 3, 2}
	sarHeightTable = [...]int{1, 11, 11, 11, 33, 11, 11, 11, 33, 11, 11, 33, 99, 3, 2, 1}
)

const extendedSAR = 255

func sarRatio(idc, width, height int) Size {
	switch {
	case idc == extendedSAR:
		if width > 0 && height > 0 {
			return Size{Width: width, Height: height}
		}
	case idc > 0 && idc <= len(sarWidthTable):
		return Size{Width: sarWidthTable[idc-1], Height: sarHeightTable[idc-1]}
	}
	return Size{Width: 1, Height: 1}
}
