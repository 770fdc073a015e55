// Package buffer 提供 FLV 解复用使用的增量字节缓冲区
// 网络/文件读取方在尾部追加数据，解析方在头部按需窥视和消费
package buffer

import (
	"errors"
	"fmt"
)

// compactThreshold 已消费字节超过该值且超过一半容量时整理底层切片
const compactThreshold = 64 * 1024

var (
	// ErrShortBuffer 缓冲区中的字节不足以完成本次读取
	ErrShortBuffer = errors.New("buffer: not enough bytes")
	// ErrInvalidWidth PeekUint 仅支持 1~4 字节宽度
	ErrInvalidWidth = errors.New("buffer: invalid integer width")
)

// Buffer 单写者字节缓冲区
// 零值可以直接使用。不是并发安全的，调用方需保证同一时间只有一个 goroutine 操作
type Buffer struct {
	data     []byte
	off      int
	consumed int64
}

// New 创建一个空缓冲区
func New() *Buffer {
	return &Buffer{}
}

// Append 把 p 复制到缓冲区尾部
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.compact()
	b.data = append(b.data, p...)
}

// Len 返回尚未消费的字节数
func (b *Buffer) Len() int {
	return len(b.data) - b.off
}

// Offset 返回读游标在整个流中的绝对位置
func (b *Buffer) Offset() int64 {
	return b.consumed
}

// PeekUint 以大端序读取从 offset 开始、宽度为 width 的无符号整数，不移动游标
func (b *Buffer) PeekUint(offset, width int) (uint32, error) {
	if width < 1 || width > 4 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	if offset < 0 || offset+width > b.Len() {
		return 0, fmt.Errorf("%w: peek %d bytes at %d, have %d", ErrShortBuffer, width, offset, b.Len())
	}
	var v uint32
	for _, c := range b.data[b.off+offset : b.off+offset+width] {
		v = v<<8 | uint32(c)
	}
	return v, nil
}

// Consume 取出恰好 n 个字节并移动游标
// 返回的切片是独立副本，后续 Append 不会影响它
func (b *Buffer) Consume(n int) ([]byte, error) {
	if n < 0 || n > b.Len() {
		return nil, fmt.Errorf("%w: consume %d bytes, have %d", ErrShortBuffer, n, b.Len())
	}
	out := make([]byte, n)
	copy(out, b.data[b.off:b.off+n])
	b.advance(n)
	return out, nil
}

// Skip 丢弃 n 个字节
func (b *Buffer) Skip(n int) error {
	if n < 0 || n > b.Len() {
		return fmt.Errorf("%w: skip %d bytes, have %d", ErrShortBuffer, n, b.Len())
	}
	b.advance(n)
	return nil
}

// Reset 清空缓冲区，绝对偏移量保持不变
func (b *Buffer) Reset() {
	b.consumed += int64(b.Len())
	b.data = b.data[:0]
	b.off = 0
}

func (b *Buffer) advance(n int) {
	b.off += n
	b.consumed += int64(n)
	if b.off == len(b.data) {
		b.data = b.data[:0]
		b.off = 0
	}
}

func (b *Buffer) compact() {
	if b.off < compactThreshold || b.off < len(b.data)/2 {
		return
	}
	n := copy(b.data, b.data[b.off:])
	b.data = b.data[:n]
	b.off = 0
}
