package flv

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bililive-go/flvdemux/src/pkg/sps"
)

var annexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}

func (d *Demuxer) parseVideoTag(tag *Tag, payload []byte, valid bool) {
	if len(payload) < videoTagHeaderSize {
		d.emitError(TrackVideo, fmt.Errorf("%w: video tag at %d", ErrTruncatedTag, tag.Offset))
		return
	}
	track := d.tracks.ensureVideo()

	frameType := payload[0] >> 4
	codecID := payload[0] & 0x0f
	packetType := payload[1]
	// SI24
	cts := int32(uint32(payload[2])<<24|uint32(payload[3])<<16|uint32(payload[4])<<8) >> 8
	data := payload[videoTagHeaderSize:]
	track.CodecID = codecID

	newSample := func(data []byte) *Sample {
		return &Sample{
			Timestamp:       tag.Timestamp,
			CompositionTime: cts,
			FrameType:       frameType,
			Keyframe:        frameType == frameTypeKeyframe,
			Data:            data,
		}
	}

	switch codecID {
	case codecIDHEVC:
		if packetType == avcSequenceHeader {
			if valid {
				track.Meta.HVCC = append([]byte(nil), data...)
				track.HasSpecificConfig = true
				d.emit(Outcome{Kind: MetadataParsed, Track: TrackVideo})
			}
			return
		}
		for _, nal := range splitLengthPrefixed(data, d.logger) {
			sample := newSample(nal)
			track.Samples = append(track.Samples, sample)
			d.emit(Outcome{Kind: MetadataParsed, Track: TrackVideo, Sample: sample})
		}

	case codecIDAVC:
		data = fixAnnexBPrefix(data)
		if packetType == avcSequenceHeader {
			if err := d.parseAVCDecoderConfig(track, data); err != nil {
				d.emitError(TrackVideo, err)
				return
			}
			if !valid {
				return
			}
			first := !track.HasSpecificConfig
			track.HasSpecificConfig = true
			switch {
			case first && d.metadataReady(TrackAudio):
				d.emit(Outcome{Kind: MetadataParsed, Track: TrackVideo})
			case !first:
				d.emit(Outcome{Kind: MetadataChanged, Track: TrackVideo})
				d.emit(Outcome{Kind: VideoMetadataChange, Track: TrackVideo})
			}
			return
		}
		sample := newSample(data)
		track.Samples = append(track.Samples, sample)
		d.emit(Outcome{Kind: DemuxComplete, Track: TrackVideo, Sample: sample})

	default:
		d.logger.WithError(ErrUnsupportedVideoCodec).WithFields(logrus.Fields{
			"codec_id": codecID,
			"offset":   tag.Offset,
		}).Warn("unknown video codec")
		sample := newSample(payload[1:])
		track.Samples = append(track.Samples, sample)
		d.emit(Outcome{Kind: DemuxComplete, Track: TrackVideo, Sample: sample})
	}
}

// fixAnnexBPrefix 处理长度字段后面又跟了一个 Annex-B 起始码的负载：
// [len][00 00 00 01][nal] 改写为 [len-4][nal]
func fixAnnexBPrefix(data []byte) []byte {
	if len(data) < 8 || !bytes.Equal(data[4:8], annexBStartCode) {
		return data
	}
	size := binary.BigEndian.Uint32(data[0:4])
	if size < 4 {
		return data
	}
	data = data[4:]
	binary.BigEndian.PutUint32(data[0:4], size-4)
	return data
}

// splitLengthPrefixed 按 4 字节大端长度切分 NAL 单元，最后一个被截断的单元保留剩余部分
func splitLengthPrefixed(data []byte, logger logrus.FieldLogger) [][]byte {
	var nals [][]byte
	for off := 0; off+4 <= len(data); {
		size := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		end := off + size
		if size < 0 || end > len(data) {
			logger.WithFields(logrus.Fields{
				"nal_size":  size,
				"remaining": len(data) - off,
			}).Warn("truncated nal unit")
			end = len(data)
		}
		nals = append(nals, data[off:end])
		off = end
	}
	return nals
}

// parseAVCDecoderConfig 解析 AVCDecoderConfigurationRecord 并更新轨道参数
func (d *Demuxer) parseAVCDecoderConfig(track *VideoTrack, data []byte) error {
	if len(data) < 6 {
		return fmt.Errorf("%w: avc decoder config has %d bytes", ErrInvalidSequenceHeader, len(data))
	}
	m := track.Meta
	m.ConfigurationVersion = data[0]
	m.AVCProfileIndication = data[1]
	m.ProfileCompatibility = data[2]
	m.AVCLevelIndication = float64(data[3]) / 10
	m.NALUnitLength = int(data[4]&0x03) + 1

	off := 6
	readNAL := func(kind string) ([]byte, error) {
		if off+2 > len(data) {
			return nil, fmt.Errorf("%w: missing %s length", ErrInvalidSequenceHeader, kind)
		}
		// 长度按 hi*255+lo 计算，小于 255 字节时与标准一致
		size := int(data[off])*255 + int(data[off+1])
		off += 2
		if off+size > len(data) {
			return nil, fmt.Errorf("%w: %s of %d bytes exceeds record", ErrInvalidSequenceHeader, kind, size)
		}
		nal := data[off : off+size]
		off += size
		return nal, nil
	}

	var info *sps.Info
	numSPS := int(data[5] & 0x1f)
	for i := 0; i < numSPS; i++ {
		nal, err := readNAL("sps")
		if err != nil {
			return err
		}
		if len(nal) >= 4 {
			m.Codec = sps.CodecString(nal)
		}
		decoded, err := d.spsDecoder.Decode(nal)
		if err != nil {
			d.logger.WithError(err).Warn("failed to decode sps")
			continue
		}
		info = decoded
	}

	if off < len(data) {
		numPPS := int(data[off])
		off++
		for i := 0; i < numPPS; i++ {
			nal, err := readNAL("pps")
			if err != nil {
				return err
			}
			track.PPS = append([]byte(nil), nal...)
		}
	}

	if info != nil {
		applySPSInfo(m, info)
	}
	m.RefSampleDuration = frameDuration(m.FrameRate, m.Timescale)
	m.AVCC = append([]byte(nil), data...)
	return nil
}

func applySPSInfo(m *VideoTrackMeta, info *sps.Info) {
	if info.CodecSize.Width > 0 && info.CodecSize.Height > 0 {
		m.CodecWidth = info.CodecSize.Width
		m.CodecHeight = info.CodecSize.Height
	}
	if info.PresentSize.Width > 0 && info.PresentSize.Height > 0 {
		m.PresentWidth = info.PresentSize.Width
		m.PresentHeight = info.PresentSize.Height
	}
	if info.Profile != "" {
		m.Profile = info.Profile
	}
	if info.Level != "" {
		m.Level = info.Level
	}
	if info.BitDepth > 0 {
		m.BitDepth = info.BitDepth
	}
	if info.ChromaFormat > 0 {
		m.ChromaFormat = info.ChromaFormat
	}
	if info.SARRatio.Width > 0 && info.SARRatio.Height > 0 {
		m.SARRatio = info.SARRatio
	}
	fr := info.FrameRate
	if fr.Fixed && fr.FPSNum > 0 && fr.FPSDen > 0 {
		m.FrameRate = fr
	}
}
