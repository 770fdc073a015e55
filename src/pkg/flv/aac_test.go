package flv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAudioSpecificConfig(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want AudioSpecificConfig
	}{
		{"AAC-LC 44.1kHz stereo", []byte{0x12, 0x10}, AudioSpecificConfig{ObjectType: 2, SampleRateIndex: 4, SampleRate: 44100, ChannelCount: 2}},
		{"AAC-LC 48kHz stereo", []byte{0x11, 0x90}, AudioSpecificConfig{ObjectType: 2, SampleRateIndex: 3, SampleRate: 48000, ChannelCount: 2}},
		{"HE-AAC 22kHz", []byte{0x2b, 0x92}, AudioSpecificConfig{ObjectType: 5, SampleRateIndex: 7, SampleRate: 22050, ChannelCount: 2, DependsOnCoreCoder: 1}},
		{"flags", []byte{0x12, 0x0d}, AudioSpecificConfig{ObjectType: 2, SampleRateIndex: 4, SampleRate: 44100, ChannelCount: 1, FrameLength: 1, ExtensionFlag: 1}},
		{"reserved index", []byte{0x16, 0x88}, AudioSpecificConfig{ObjectType: 2, SampleRateIndex: 13, ChannelCount: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asc, err := ParseAudioSpecificConfig(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *asc)
		})
	}

	_, err := ParseAudioSpecificConfig([]byte{0x12})
	assert.ErrorIs(t, err, ErrInvalidSequenceHeader)
}

func TestDemuxer_AACSequenceHeaderFallback(t *testing.T) {
	d, _ := newTestDemuxer(Options{})
	// 声道数为 0 时保留 AudioTagHeader 预填的值（0xae：44.1kHz 单声道）
	out := feed(d, join(flvHeader(flagsAudio), buildTag(TagTypeAudio, 0, []byte{0xae, 0x00, 0x12, 0x00})))

	assert.Equal(t, []OutcomeKind{MetadataParsed}, kinds(out))
	m := d.Tracks().Audio.Meta
	assert.Equal(t, 1, m.ChannelCount)
	assert.Equal(t, 44100, m.SampleRate)
}

func TestDemuxer_AACSequenceHeaderTruncated(t *testing.T) {
	d, _ := newTestDemuxer(Options{})
	out := feed(d, join(flvHeader(flagsAudio), aacSequenceTag(0, 0x12)))

	require.Equal(t, []OutcomeKind{DemuxError}, kinds(out))
	assert.ErrorIs(t, out[0].Err, ErrInvalidSequenceHeader)
	assert.False(t, d.Tracks().Audio.HasSpecificConfig)
}
