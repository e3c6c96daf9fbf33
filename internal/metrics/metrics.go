// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process counters. The atomic fields are updated on hot
// paths; Prometheus reads them lazily at scrape time.
type Metrics struct {
	FramesRead      atomic.Uint64
	FramesProcessed atomic.Uint64
	FramesDropped   atomic.Uint64
	DetectErrors    atomic.Uint64
	EventsApplied   atomic.Uint64
	EventsRejected  atomic.Uint64

	DetectLatencyMs atomic.Uint64

	ActiveClients   atomic.Int64
	CameraRunning   atomic.Bool
	RecordingActive atomic.Bool
	RecordingBytes  atomic.Uint64

	effects    *prometheus.CounterVec
	handFrames *prometheus.CounterVec
	voice      *prometheus.CounterVec
	zoom       prometheus.Gauge
	registry   *prometheus.Registry
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abhinaya_effects_total",
			Help: "Side effects produced by the interaction machine",
		}, []string{"effect", "source"}),
		handFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abhinaya_hand_frames_total",
			Help: "Hand tracker results by number of hands",
		}, []string{"hands"}),
		voice: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abhinaya_voice_commands_total",
			Help: "Recognized voice commands",
		}, []string{"command"}),
		zoom: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "abhinaya_zoom",
			Help: "Overlay scale currently shown",
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	counter := func(name, help string, v *atomic.Uint64) {
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: name, Help: help},
			func() float64 { return float64(v.Load()) },
		))
	}
	gauge := func(name, help string, fn func() float64) {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help}, fn,
		))
	}

	counter("abhinaya_frames_read_total", "Frames read from the camera", &m.FramesRead)
	counter("abhinaya_frames_processed_total", "Frames passed through the landmark detector", &m.FramesProcessed)
	counter("abhinaya_frames_dropped_total", "Frames skipped because the detector was busy", &m.FramesDropped)
	counter("abhinaya_detect_errors_total", "Landmark detector failures", &m.DetectErrors)
	counter("abhinaya_events_applied_total", "Events applied to the interaction machine", &m.EventsApplied)
	counter("abhinaya_events_rejected_total", "Inbound client messages that failed to decode", &m.EventsRejected)

	gauge("abhinaya_detect_latency_ms", "Latency of the last detector call in milliseconds",
		func() float64 { return float64(m.DetectLatencyMs.Load()) })
	gauge("abhinaya_clients", "Connected event stream clients",
		func() float64 { return float64(m.ActiveClients.Load()) })
	gauge("abhinaya_camera_running", "Camera running (0 or 1)",
		func() float64 { return boolFloat(m.CameraRunning.Load()) })
	gauge("abhinaya_recording_active", "Recording active (0 or 1)",
		func() float64 { return boolFloat(m.RecordingActive.Load()) })
	gauge("abhinaya_recording_bytes", "Bytes received for the current recording",
		func() float64 { return float64(m.RecordingBytes.Load()) })

	m.registry.MustRegister(m.effects, m.handFrames, m.voice, m.zoom)
	m.zoom.Set(1)
}

// ObserveEffect counts one produced effect.
func (m *Metrics) ObserveEffect(effect, source string) {
	m.effects.WithLabelValues(effect, source).Inc()
}

// ObserveHands counts one hand tracker result.
func (m *Metrics) ObserveHands(n int) {
	m.handFrames.WithLabelValues(strconv.Itoa(n)).Inc()
}

// ObserveVoice counts one recognized voice command.
func (m *Metrics) ObserveVoice(command string) {
	m.voice.WithLabelValues(command).Inc()
}

// SetZoom records the scale the overlay is drawn at.
func (m *Metrics) SetZoom(scale float64) {
	m.zoom.Set(scale)
}

// UpdateDetectLatency records how long the last detector call took.
func (m *Metrics) UpdateDetectLatency(d time.Duration) {
	m.DetectLatencyMs.Store(uint64(d.Milliseconds()))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
