// Package metrics 把解复用事件和解析计数导出为 prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bililive-go/flvdemux/src/pkg/events"
	"github.com/bililive-go/flvdemux/src/pkg/flv"
)

const namespace = "flvdemux"

// StatsSource 提供解析计数，streamprobe.Prober 实现了该接口
type StatsSource interface {
	Stats() flv.Stats
}

// Collector 实现 prometheus.Collector
type Collector struct {
	source StatsSource

	events      *prometheus.CounterVec
	sampleBytes *prometheus.CounterVec

	tagsDesc           *prometheus.Desc
	resyncsDesc        *prometheus.Desc
	sizeMismatchesDesc *prometheus.Desc

	listener *events.EventListener
}

// NewCollector source 可以为 nil，此时只导出事件计数
func NewCollector(source StatsSource) *Collector {
	c := &Collector{
		source: source,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Demux outcomes by kind and track.",
		}, []string{"kind", "track"}),
		sampleBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_bytes_total",
			Help:      "Elementary stream bytes emitted as samples.",
		}, []string{"track"}),
		tagsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tags_total"),
			"Parsed FLV tags by type.",
			[]string{"type"}, nil,
		),
		resyncsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "resyncs_total"),
			"Bytes discarded while resynchronising on a tag boundary.",
			nil, nil,
		),
		sizeMismatchesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "size_mismatches_total"),
			"Tags whose trailing PreviousTagSize did not match.",
			nil, nil,
		),
	}
	c.listener = events.NewEventListener(c.handleEvent)
	return c
}

// Subscribe 监听 dispatcher 上的所有解复用事件
func (c *Collector) Subscribe(d events.Dispatcher) {
	d.AddEventListener(events.AllEvents, c.listener)
}

// Unsubscribe 取消监听
func (c *Collector) Unsubscribe(d events.Dispatcher) {
	d.RemoveEventListener(events.AllEvents, c.listener)
}

func (c *Collector) handleEvent(event *events.Event) {
	o, ok := event.Object.(flv.Outcome)
	if !ok {
		return
	}
	track := string(o.Track)
	if track == "" {
		track = "none"
	}
	c.events.WithLabelValues(string(o.Kind), track).Inc()
	if o.Sample != nil {
		c.sampleBytes.WithLabelValues(track).Add(float64(len(o.Sample.Data)))
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.events.Describe(ch)
	c.sampleBytes.Describe(ch)
	ch <- c.tagsDesc
	ch <- c.resyncsDesc
	ch <- c.sizeMismatchesDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.events.Collect(ch)
	c.sampleBytes.Collect(ch)
	if c.source == nil {
		return
	}
	s := c.source.Stats()
	for _, tag := range []struct {
		name  string
		value uint64
	}{
		{flv.TagTypeAudio.String(), s.AudioTags},
		{flv.TagTypeVideo.String(), s.VideoTags},
		{flv.TagTypeScript.String(), s.ScriptTags},
		{flv.TagTypeEncrypted.String(), s.EncryptedTags},
	} {
		ch <- prometheus.MustNewConstMetric(c.tagsDesc, prometheus.CounterValue, float64(tag.value), tag.name)
	}
	ch <- prometheus.MustNewConstMetric(c.resyncsDesc, prometheus.CounterValue, float64(s.Resyncs))
	ch <- prometheus.MustNewConstMetric(c.sizeMismatchesDesc, prometheus.CounterValue, float64(s.SizeMismatches))
}

// NewRegistry 创建包含 Collector 以及进程、Go 运行时指标的 registry
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 /metrics 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
