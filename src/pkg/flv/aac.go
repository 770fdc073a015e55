package flv

import (
	"fmt"
)

// FLV AudioTagHeader 中 SoundRate 的取值
var flvSoundRates = [4]int{5500, 11025, 22050, 44100}

// AAC samplingFrequencyIndex
var aacSampleRates = [13]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// AudioSpecificConfig 解析结果，取值为 0 表示缺失
type AudioSpecificConfig struct {
	ObjectType         int
	SampleRateIndex    int
	SampleRate         int
	ChannelCount       int
	FrameLength        int
	DependsOnCoreCoder int
	ExtensionFlag      int
}

// ParseAudioSpecificConfig 解析 AAC AudioSpecificConfig 的前两个字节
func ParseAudioSpecificConfig(data []byte) (*AudioSpecificConfig, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: audio specific config has %d bytes", ErrInvalidSequenceHeader, len(data))
	}
	b0, b1 := data[0], data[1]
	asc := &AudioSpecificConfig{
		ObjectType:         int(b0 >> 3),
		SampleRateIndex:    int(b0&0x07)<<1 | int(b1>>7),
		ChannelCount:       int(b1&0x78) >> 3,
		FrameLength:        int(b1&0x04) >> 2,
		DependsOnCoreCoder: int(b1&0x02) >> 1,
		ExtensionFlag:      int(b1 & 0x01),
	}
	if asc.SampleRateIndex < len(aacSampleRates) {
		asc.SampleRate = aacSampleRates[asc.SampleRateIndex]
	}
	return asc, nil
}

func aacSampleRateIndex(rate int) (int, bool) {
	for i, r := range aacSampleRates {
		if r == rate {
			return i, true
		}
	}
	return 0, false
}

func (d *Demuxer) parseAudioTag(tag *Tag, payload []byte) {
	if len(payload) < 1 {
		d.emitError(TrackAudio, fmt.Errorf("%w: audio tag at %d", ErrTruncatedTag, tag.Offset))
		return
	}
	track := d.tracks.ensureAudio()
	info := payload[0]
	format := info >> 4
	track.Format = format
	body := payload[1:]

	if format != soundFormatAAC {
		d.emitError(TrackAudio, fmt.Errorf("%w: %d", ErrUnsupportedAudioFormat, format))
		d.pushAudioSample(track, tag, body)
		return
	}

	if !track.seeded {
		track.seeded = true
		seedAudioMeta(track.Meta, info)
	}

	if len(body) > 0 && body[0] == aacSequenceHeader {
		d.parseAACSequenceHeader(track, body[1:])
		return
	}
	if len(body) > 0 {
		body = body[1:]
	}
	d.pushAudioSample(track, tag, body)
}

// seedAudioMeta 用第一个 AAC tag 的 AudioTagHeader 预填参数，sequence header 到达后会被覆盖
func seedAudioMeta(m *AudioTrackMeta, info byte) {
	m.SampleRate = flvSoundRates[(info&0x0c)>>2]
	if idx, ok := aacSampleRateIndex(m.SampleRate); ok {
		m.SampleRateIndex = idx
	}
	m.FrameLength = int(info&0x02) >> 1
	m.ChannelCount = int(info&0x01) + 1
	m.RefSampleDuration = aacRefSampleDuration(m.SampleRate, m.Timescale)
}

func (d *Demuxer) parseAACSequenceHeader(track *AudioTrack, config []byte) {
	asc, err := ParseAudioSpecificConfig(config)
	if err != nil {
		d.emitError(TrackAudio, err)
		return
	}

	m := track.Meta
	if asc.SampleRate > 0 {
		m.SampleRate = asc.SampleRate
	}
	if asc.SampleRateIndex > 0 {
		m.SampleRateIndex = asc.SampleRateIndex
	}
	if asc.ChannelCount > 0 {
		m.ChannelCount = asc.ChannelCount
	}
	if asc.ObjectType > 0 {
		m.ObjectType = asc.ObjectType
		m.Codec = fmt.Sprintf("mp4a.40.%d", asc.ObjectType)
	}
	m.FrameLength = asc.FrameLength
	m.Config = append([]byte(nil), config...)
	m.RefSampleDuration = aacRefSampleDuration(m.SampleRate, m.Timescale)

	first := !track.HasSpecificConfig
	track.HasSpecificConfig = true
	switch {
	case first && d.metadataReady(TrackVideo):
		d.emit(Outcome{Kind: MetadataParsed, Track: TrackAudio})
	case !first:
		d.emit(Outcome{Kind: MetadataChanged, Track: TrackAudio})
	}
}

func (d *Demuxer) pushAudioSample(track *AudioTrack, tag *Tag, data []byte) {
	sample := &Sample{Timestamp: tag.Timestamp, Data: data}
	track.Samples = append(track.Samples, sample)
	d.emit(Outcome{Kind: AudioDataParsed, Track: TrackAudio, Sample: sample})
}
