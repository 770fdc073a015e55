package flv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackSet_DrainSamples(t *testing.T) {
	d, _ := newTestDemuxer(Options{})
	feed(d, join(flvHeader(flagsBoth), aacRawTag(0, 0x21), aacRawTag(23, 0x22)))

	audio := d.Tracks().Audio
	drained := audio.DrainSamples()
	assert.Len(t, drained, 2)
	assert.Empty(t, audio.Samples)
	assert.Empty(t, audio.DrainSamples())

	feed(d, aacRawTag(46, 0x23))
	assert.Len(t, audio.Samples, 1)
	assert.Empty(t, d.Tracks().Video.DrainSamples())
}

func TestNewTrackSet_DefaultTimescale(t *testing.T) {
	ts := NewTrackSet(PlayType{HasVideo: true, HasAudio: true}, 0)
	assert.Equal(t, DefaultTimescale, ts.Video.Meta.Timescale)
	assert.Equal(t, DefaultTimescale, ts.Audio.Meta.Timescale)
	assert.Equal(t, 40, ts.Video.Meta.RefSampleDuration)
	assert.Equal(t, 23, ts.Audio.Meta.RefSampleDuration)
}
