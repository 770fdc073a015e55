package flv

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/bililive-go/flvdemux/src/pkg/amf"
	"github.com/bililive-go/flvdemux/src/pkg/buffer"
)

// Main profile, level 3.1, 256x192, 1001/48000 fixed timing
var spsMain256x192 = []byte{
	0x67, 0x4d, 0x40, 0x1f, 0xb9, 0x08, 0x08, 0x0c,
	0xd8, 0x0b, 0x50, 0x10, 0x10, 0x14, 0x00, 0x00,
	0x0f, 0xa4, 0x00, 0x02, 0xee, 0x03, 0x81, 0x80,
	0x04, 0x93, 0xc0, 0x02, 0x49, 0xe8, 0xa0, 0xc0,
	0x3a, 0x8e, 0x18, 0xc9,
}

var testPPS = []byte{0x68, 0xeb, 0xe3, 0xcb, 0x22, 0xc0}

const (
	flagsVideo = 0x01
	flagsAudio = 0x04
	flagsBoth  = 0x05
)

func flvHeader(flags byte) []byte {
	return []byte{'F', 'L', 'V', 0x01, flags, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00}
}

func buildTag(tagType TagType, ts int32, payload []byte) []byte {
	return buildTagWithPrevSize(tagType, ts, payload, uint32(len(payload)+TagHeaderSize))
}

func buildTagWithPrevSize(tagType TagType, ts int32, payload []byte, prevSize uint32) []byte {
	size := len(payload)
	uts := uint32(ts)
	b := make([]byte, 0, TagHeaderSize+size+PreviousTagSizeLen)
	b = append(b, byte(tagType), byte(size>>16), byte(size>>8), byte(size))
	b = append(b, byte(uts>>16), byte(uts>>8), byte(uts), byte(uts>>24))
	b = append(b, 0x00, 0x00, 0x00)
	b = append(b, payload...)
	return binary.BigEndian.AppendUint32(b, prevSize)
}

func aacSequenceTag(ts int32, asc ...byte) []byte {
	return buildTag(TagTypeAudio, ts, append([]byte{0xaf, 0x00}, asc...))
}

func aacRawTag(ts int32, frame ...byte) []byte {
	return buildTag(TagTypeAudio, ts, append([]byte{0xaf, 0x01}, frame...))
}

// avcRecord 生成 AVCDecoderConfigurationRecord，长度字段按 2 字节写入
func avcRecord(spsList [][]byte, ppsList [][]byte) []byte {
	first := spsList[0]
	r := []byte{0x01, first[1], first[2], first[3], 0xff, 0xe0 | byte(len(spsList))}
	for _, s := range spsList {
		r = append(r, byte(len(s)>>8), byte(len(s)))
		r = append(r, s...)
	}
	r = append(r, byte(len(ppsList)))
	for _, p := range ppsList {
		r = append(r, byte(len(p)>>8), byte(len(p)))
		r = append(r, p...)
	}
	return r
}

func videoPayload(frameType, codecID, packetType byte, cts int32, data []byte) []byte {
	u := uint32(cts)
	p := []byte{frameType<<4 | codecID, packetType, byte(u >> 16), byte(u >> 8), byte(u)}
	return append(p, data...)
}

func avcSequenceTag(ts int32, record []byte) []byte {
	return buildTag(TagTypeVideo, ts, videoPayload(1, codecIDAVC, 0, 0, record))
}

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func newTestDemuxer(opts Options) (*Demuxer, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return New(buffer.New(), opts), hook
}

func feed(d *Demuxer, data []byte) []Outcome {
	d.Buffer().Append(data)
	return d.Advance()
}

func kinds(outcomes []Outcome) []OutcomeKind {
	out := make([]OutcomeKind, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.Kind)
	}
	return out
}

func warnings(hook *test.Hook) []string {
	var msgs []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

func scriptFrameRate(fps float64) []byte {
	return amf.EncodeMetaData(amf.Object{"framerate": fps})
}
