// Package flvtest 生成测试用的 FLV 字节流
package flvtest

import (
	"encoding/binary"

	"github.com/bililive-go/flvdemux/src/pkg/amf"
)

const (
	TagAudio  byte = 8
	TagVideo  byte = 9
	TagScript byte = 18
)

// SPSMain256x192 Main profile, level 3.1, 256x192, 1001/48000 fixed timing
var SPSMain256x192 = []byte{
	0x67, 0x4d, 0x40, 0x1f, 0xb9, 0x08, 0x08, 0x0c,
	0xd8, 0x0b, 0x50, 0x10, 0x10, 0x14, 0x00, 0x00,
	0x0f, 0xa4, 0x00, 0x02, 0xee, 0x03, 0x81, 0x80,
	0x04, 0x93, 0xc0, 0x02, 0x49, 0xe8, 0xa0, 0xc0,
	0x3a, 0x8e, 0x18, 0xc9,
}

// PPS 与 SPSMain256x192 搭配使用的 PPS
var PPS = []byte{0x68, 0xeb, 0xe3, 0xcb, 0x22, 0xc0}

// ASCLC44100Stereo AAC-LC 44.1kHz 双声道 AudioSpecificConfig
var ASCLC44100Stereo = []byte{0x12, 0x10}

// Header 13 字节文件头（含 PreviousTagSize0）
func Header(hasVideo, hasAudio bool) []byte {
	var flags byte
	if hasVideo {
		flags |= 0x01
	}
	if hasAudio {
		flags |= 0x04
	}
	return []byte{'F', 'L', 'V', 0x01, flags, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00}
}

// Tag 生成一个完整 tag（含尾部 PreviousTagSize）
func Tag(tagType byte, ts uint32, payload []byte) []byte {
	size := len(payload)
	b := make([]byte, 0, 11+size+4)
	b = append(b, tagType, byte(size>>16), byte(size>>8), byte(size))
	b = append(b, byte(ts>>16), byte(ts>>8), byte(ts), byte(ts>>24))
	b = append(b, 0x00, 0x00, 0x00)
	b = append(b, payload...)
	return binary.BigEndian.AppendUint32(b, uint32(size+11))
}

// MetaData onMetaData script tag
func MetaData(meta amf.Object) []byte {
	return Tag(TagScript, 0, amf.EncodeMetaData(meta))
}

// AACSequenceHeader AAC sequence header tag
func AACSequenceHeader(ts uint32, asc []byte) []byte {
	return Tag(TagAudio, ts, append([]byte{0xaf, 0x00}, asc...))
}

// AACFrame AAC raw frame tag
func AACFrame(ts uint32, frame []byte) []byte {
	return Tag(TagAudio, ts, append([]byte{0xaf, 0x01}, frame...))
}

// AVCSequenceHeader 只包含一个 SPS 和一个 PPS 的 AVC sequence header tag
func AVCSequenceHeader(ts uint32, sps, pps []byte) []byte {
	record := []byte{0x01, sps[1], sps[2], sps[3], 0xff, 0xe1, byte(len(sps) >> 8), byte(len(sps))}
	record = append(record, sps...)
	record = append(record, 0x01, byte(len(pps)>>8), byte(len(pps)))
	record = append(record, pps...)
	return Tag(TagVideo, ts, append([]byte{0x17, 0x00, 0x00, 0x00, 0x00}, record...))
}

// AVCFrame 把 NAL 单元按 4 字节长度前缀打包为一个 AVC NALU tag
func AVCFrame(ts uint32, keyframe bool, cts uint32, nalus ...[]byte) []byte {
	first := byte(0x27)
	if keyframe {
		first = 0x17
	}
	payload := []byte{first, 0x01, byte(cts >> 16), byte(cts >> 8), byte(cts)}
	for _, n := range nalus {
		payload = binary.BigEndian.AppendUint32(payload, uint32(len(n)))
		payload = append(payload, n...)
	}
	return Tag(TagVideo, ts, payload)
}

// Join 拼接多个片段
func Join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// SimpleStream 一个带 onMetaData、音视频 sequence header 以及若干帧的完整流
func SimpleStream() []byte {
	return Join(
		Header(true, true),
		MetaData(amf.Object{
			"width":         256.0,
			"height":        192.0,
			"framerate":     24.0,
			"videodatarate": 800.0,
			"audiodatarate": 128.0,
			"videocodecid":  7.0,
			"audiocodecid":  10.0,
		}),
		AVCSequenceHeader(0, SPSMain256x192, PPS),
		AACSequenceHeader(0, ASCLC44100Stereo),
		AVCFrame(0, true, 0, []byte{0x65, 0x88, 0x84, 0x00}),
		AACFrame(0, []byte{0x21, 0x00, 0x49}),
		AVCFrame(42, false, 0, []byte{0x41, 0x9a, 0x02}),
		AACFrame(23, []byte{0x21, 0x00, 0x4a}),
	)
}
