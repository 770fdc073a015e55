package flv

import (
	"bytes"
	"fmt"

	"github.com/bililive-go/flvdemux/src/pkg/buffer"
)

// Tag 是一个已解析出头部的 FLV tag，负载仍在缓冲区中
type Tag struct {
	Type     TagType
	Filtered bool
	DataSize uint32
	// Timestamp 由 24 位基础值和 8 位扩展字节组成（SI32，扩展字节为最高 8 位）
	Timestamp int32
	// Offset tag 头在整个流中的位置
	Offset int64
}

// PlayType 文件头中声明的媒体类型
type PlayType struct {
	HasVideo bool
	HasAudio bool
}

// IsFlvFile 检查文件头签名是否为 "FLV" + 版本 1
func IsFlvFile(header []byte) bool {
	return len(header) >= len(flvSign) && bytes.Equal(header[:len(flvSign)], flvSign)
}

// GetPlayType 解析文件头第 5 字节的标志位：bit0 表示有视频，bit2 表示有音频
func GetPlayType(flags byte) PlayType {
	return PlayType{
		HasVideo: flags&0x01 != 0,
		HasAudio: flags&0x04 != 0,
	}
}

// ReadTagHeader 从位于 tag 边界的缓冲区中读取 11 字节 tag 头
//
// 返回值：
//   - 成功：返回 Tag，缓冲区游标指向 tag 负载起始处
//   - ErrUnknownTagType / ErrInvalidStreamID：丢弃 1 字节用于重新同步
//   - ErrNeedMoreData：缓冲的数据不足以容纳整个 tag（头 + 负载 + PreviousTagSize），不消费任何字节
func ReadTagHeader(buf *buffer.Buffer) (*Tag, error) {
	if buf.Len() < TagHeaderSize {
		return nil, ErrNeedMoreData
	}
	offset := buf.Offset()

	first, _ := buf.PeekUint(0, 1)
	dataSize, _ := buf.PeekUint(1, 3)
	streamID, _ := buf.PeekUint(8, 3)

	tag := &Tag{
		Type:     TagType(first & 0x1f),
		Filtered: first&0x20 != 0,
		DataSize: dataSize,
		Offset:   offset,
	}

	if !tag.Type.valid() {
		_ = buf.Skip(1)
		return nil, fmt.Errorf("%w: %d", ErrUnknownTagType, tag.Type)
	}
	if streamID != 0 {
		_ = buf.Skip(1)
		return nil, fmt.Errorf("%w: %d", ErrInvalidStreamID, streamID)
	}

	if buf.Len() < int(dataSize)+TagHeaderSize+PreviousTagSizeLen {
		return nil, ErrNeedMoreData
	}

	if err := buf.Skip(4); err != nil {
		return nil, err
	}
	base, _ := buf.PeekUint(0, 3)
	ext, _ := buf.PeekUint(3, 1)
	tag.Timestamp = int32(ext<<24 | base)
	// 时间戳 4 字节 + StreamID 3 字节
	if err := buf.Skip(7); err != nil {
		return nil, err
	}
	return tag, nil
}

// ValidateDataSize 消费 tag 之后的 4 字节 PreviousTagSize，检查它是否等于 dataSize + 11
func ValidateDataSize(buf *buffer.Buffer, dataSize uint32) (bool, error) {
	size, err := buf.PeekUint(0, PreviousTagSizeLen)
	if err != nil {
		return false, err
	}
	if err := buf.Skip(PreviousTagSizeLen); err != nil {
		return false, err
	}
	return size == dataSize+TagHeaderSize, nil
}
