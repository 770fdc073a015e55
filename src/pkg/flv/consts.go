package flv

import "errors"

// TagType FLV tag 类型
type TagType uint8

const (
	TagTypeAudio     TagType = 8
	TagTypeVideo     TagType = 9
	TagTypeEncrypted TagType = 11
	TagTypeScript    TagType = 18
)

func (t TagType) String() string {
	switch t {
	case TagTypeAudio:
		return "audio"
	case TagTypeVideo:
		return "video"
	case TagTypeEncrypted:
		return "encrypted"
	case TagTypeScript:
		return "script"
	default:
		return "unknown"
	}
}

func (t TagType) valid() bool {
	switch t {
	case TagTypeAudio, TagTypeVideo, TagTypeEncrypted, TagTypeScript:
		return true
	}
	return false
}

const (
	// FileHeaderSize 9 字节文件头 + 4 字节 PreviousTagSize0
	FileHeaderSize = 13
	// TagHeaderSize tag 头固定 11 字节
	TagHeaderSize = 11
	// PreviousTagSizeLen 每个 tag 之后的 PreviousTagSize 字段
	PreviousTagSizeLen = 4

	// DefaultTimescale 轨道时间单位（毫秒）
	DefaultTimescale = 1000

	codecIDAVC  uint8 = 7
	codecIDHEVC uint8 = 12

	soundFormatAAC uint8 = 10

	aacSequenceHeader uint8 = 0
	avcSequenceHeader uint8 = 0

	frameTypeKeyframe uint8 = 1

	// 视频 tag 负载前 5 字节：FrameType/CodecID(1) + AVCPacketType(1) + CompositionTime(3)
	videoTagHeaderSize = 5
	// 加密流标记之后需要跳过的字节
	encryptedMarkerSize = 3
)

var flvSign = []byte{0x46, 0x4c, 0x56, 0x01} // "FLV" version 1

var (
	ErrInvalidSignature       = errors.New("invalid flv file")
	ErrUnknownTagType         = errors.New("unknown tag type")
	ErrInvalidStreamID        = errors.New("non-zero stream id")
	ErrNeedMoreData           = errors.New("need more data")
	ErrUnsupportedAudioFormat = errors.New("invalid audio format")
	ErrUnsupportedVideoCodec  = errors.New("unsupported video codec")
	ErrTruncatedTag           = errors.New("tag payload too short")
	ErrInvalidSequenceHeader  = errors.New("invalid sequence header")
)
