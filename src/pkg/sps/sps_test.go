package sps_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bililive-go/flvdemux/src/pkg/sps"
	"github.com/bililive-go/flvdemux/src/pkg/sps/mock"
)

// Main profile, level 3.1, 256x192, 1001/48000 fixed timing
var spsMain256x192 = []byte{
	0x67, 0x4d, 0x40, 0x1f, 0xb9, 0x08, 0x08, 0x0c,
	0xd8, 0x0b, 0x50, 0x10, 0x10, 0x14, 0x00, 0x00,
	0x0f, 0xa4, 0x00, 0x02, 0xee, 0x03, 0x81, 0x80,
	0x04, 0x93, 0xc0, 0x02, 0x49, 0xe8, 0xa0, 0xc0,
	0x3a, 0x8e, 0x18, 0xc9,
}

// High profile, level 3.1, 1280x720, extended SAR 3:4, non-fixed timing
var spsHigh720p = []byte{
	0x67, 0x64, 0x00, 0x1f, 0xac, 0xd9, 0x40, 0x50,
	0x05, 0xbb, 0xff, 0x00, 0x03, 0x00, 0x04, 0x6a,
	0x02, 0x02, 0x02, 0x80, 0x00, 0x01, 0xf4, 0x80,
	0x00, 0x5d, 0xc0, 0x07, 0x8c, 0x18, 0xcb,
}

func TestH264Decoder_Main(t *testing.T) {
	info, err := sps.H264Decoder{}.Decode(spsMain256x192)
	require.NoError(t, err)

	assert.Equal(t, sps.Size{Width: 256, Height: 192}, info.CodecSize)
	assert.Equal(t, sps.Size{Width: 256, Height: 192}, info.PresentSize)
	assert.Equal(t, "Main", info.Profile)
	assert.Equal(t, "3.1", info.Level)
	assert.Equal(t, uint8(77), info.ProfileIdc)
	assert.Equal(t, uint8(31), info.LevelIdc)
	assert.Equal(t, 8, info.BitDepth)
	assert.Equal(t, 420, info.ChromaFormat)
	assert.Equal(t, sps.Size{Width: 1, Height: 1}, info.SARRatio)

	assert.True(t, info.FrameRate.Fixed)
	assert.Equal(t, uint32(48000), info.FrameRate.FPSNum)
	assert.Equal(t, uint32(2002), info.FrameRate.FPSDen)
	assert.InDelta(t, 23.976, info.FrameRate.FPS, 0.001)
}

func TestH264Decoder_ExtendedSAR(t *testing.T) {
	info, err := sps.H264Decoder{}.Decode(spsHigh720p)
	require.NoError(t, err)

	assert.Equal(t, "High", info.Profile)
	assert.Equal(t, sps.Size{Width: 1280, Height: 720}, info.CodecSize)
	assert.Equal(t, sps.Size{Width: 3, Height: 4}, info.SARRatio)
	assert.Equal(t, sps.Size{Width: 960, Height: 720}, info.PresentSize)
	assert.False(t, info.FrameRate.Fixed)
}

func TestH264Decoder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		nal  []byte
	}{
		{"empty", nil},
		{"not a SPS", []byte{0x68, 0xee, 0x3c, 0x80}},
		{"truncated", []byte{0x67, 0x64, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sps.H264Decoder{}.Decode(tt.nal)
			assert.ErrorIs(t, err, sps.ErrInvalidSPS)
		})
	}
}

func TestCodecString(t *testing.T) {
	assert.Equal(t, "avc1.4d401f", sps.CodecString(spsMain256x192))
	assert.Equal(t, "avc1.64001f", sps.CodecString(spsHigh720p))
	assert.Equal(t, "", sps.CodecString([]byte{0x67}))
}

func TestCachedDecoder(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mock.NewMockDecoder(ctrl)
	want := &sps.Info{CodecSize: sps.Size{Width: 640, Height: 360}, Profile: "High"}
	inner.EXPECT().Decode([]byte{0x67, 0x01}).Return(want, nil).Times(1)

	d := sps.NewCachedDecoder(inner, 4)
	first, err := d.Decode([]byte{0x67, 0x01})
	require.NoError(t, err)
	assert.Equal(t, want, first)

	first.Profile = "mutated"
	second, err := d.Decode([]byte{0x67, 0x01})
	require.NoError(t, err)
	assert.Equal(t, "High", second.Profile)
	assert.Equal(t, 1, d.Len())
}

func TestCachedDecoder_ErrorNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mock.NewMockDecoder(ctrl)
	boom := errors.New("boom")
	inner.EXPECT().Decode(gomock.Any()).Return(nil, boom).Times(2)

	d := sps.NewCachedDecoder(inner, 0)
	_, err := d.Decode([]byte{0x67})
	assert.ErrorIs(t, err, boom)
	_, err = d.Decode([]byte{0x67})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, d.Len())
}
