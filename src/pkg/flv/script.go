package flv

import (
	"math"

	"github.com/bililive-go/flvdemux/src/pkg/amf"
)

func (d *Demuxer) parseScriptTag(payload []byte, valid bool) {
	meta, err := amf.Decode(payload)
	if err != nil {
		d.logger.WithError(err).Warn("failed to decode script data")
	}
	if valid {
		d.hasScript = true
	}
	if len(meta) == 0 {
		return
	}
	if d.metadata == nil {
		d.metadata = amf.Object{}
	}
	for k, v := range meta {
		d.metadata[k] = v
	}
	d.applyScriptMeta(meta)
}

// applyScriptMeta 在 sequence header 到达之前用 onMetaData 填充轨道参数
func (d *Demuxer) applyScriptMeta(meta amf.Object) {
	if audio := d.tracks.Audio; audio != nil && !audio.HasSpecificConfig {
		m := audio.Meta
		if rate, ok := meta.Number("audiosamplerate"); ok && rate > 0 {
			m.SampleRate = int(rate)
			switch m.SampleRate {
			case 44100:
				m.SampleRateIndex = 4
			case 22050:
				m.SampleRateIndex = 7
			case 11025:
				m.SampleRateIndex = 10
			}
		}
		if ch, ok := meta.Number("audiochannels"); ok && ch > 0 {
			m.ChannelCount = int(ch)
		}
	}

	if video := d.tracks.Video; video != nil && !video.HasSpecificConfig {
		if fr, ok := meta.Number("framerate"); ok {
			num := math.Floor(fr * 1000)
			if num > 0 && num <= math.MaxUint32 {
				video.Meta.FrameRate.Fixed = true
				video.Meta.FrameRate.FPSNum = uint32(num)
				video.Meta.FrameRate.FPSDen = 1000
				video.Meta.FrameRate.FPS = num / 1000
			}
		}
	}
}
