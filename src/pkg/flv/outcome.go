package flv

// OutcomeKind 解复用过程中产生的通知类型
type OutcomeKind string

const (
	DemuxError          OutcomeKind = "DEMUX_ERROR"
	MetadataParsed      OutcomeKind = "METADATA_PARSED"
	MetadataChanged     OutcomeKind = "METADATA_CHANGED"
	VideoMetadataChange OutcomeKind = "VIDEO_METADATA_CHANGE"
	AudioDataParsed     OutcomeKind = "AUDIODATA_PARSED"
	DemuxComplete       OutcomeKind = "DEMUX_COMPLETE"
)

// TrackKind 通知关联的媒体类型
type TrackKind string

const (
	TrackNone  TrackKind = ""
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Outcome 一次通知
// Sample 在 AUDIODATA_PARSED / DEMUX_COMPLETE 以及 HEVC 的逐 NAL 通知中非空
type Outcome struct {
	Kind   OutcomeKind
	Track  TrackKind
	Sample *Sample
	Err    error
}
