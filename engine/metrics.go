// SPDX-License-Identifier: EPL-2.0

package engine

import "github.com/prometheus/client_golang/prometheus"

const namespace = "playsched"

// Metrics counts what a session's producer and consumer do. Every update is
// a lock-free atomic, so the consumer callback may use them.
type Metrics struct {
	Slices          prometheus.Counter
	FramesProduced  prometheus.Counter
	SilenceFrames   prometheus.Counter
	FramesPlayed    prometheus.Counter
	UnderrunFrames  prometheus.Counter
	LoopRestarts    prometheus.Counter
	Seeks           *prometheus.CounterVec
	CapturedFrames  *prometheus.CounterVec
	TrackTime       prometheus.Gauge
	BufferedSeconds prometheus.Gauge
}

// NewMetrics creates the session metrics and registers them with reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Slices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_slices_total",
			Help:      "Playback slices fetched by the producer.",
		}),
		FramesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_produced_total",
			Help:      "Frames of mixed audio written to the playback buffer.",
		}),
		SilenceFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "silence_frames_total",
			Help:      "Frames of padding silence written to the playback buffer.",
		}),
		FramesPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_played_total",
			Help:      "Frames handed to the output callback.",
		}),
		UnderrunFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "underrun_frames_total",
			Help:      "Frames the output callback had to fill with silence.",
		}),
		LoopRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_restarts_total",
			Help:      "Times a looping session wrapped back to its start.",
		}),
		Seeks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seeks_total",
			Help:      "Seek requests by result.",
		}, []string{"result"}),
		CapturedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captured_frames_total",
			Help:      "Recorded frames by what the recording schedule did with them.",
		}, []string{"action"}),
		TrackTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "track_time_seconds",
			Help:      "Track time of the audio last played.",
		}),
		BufferedSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffered_seconds",
			Help:      "Audio queued in the playback buffer after the last fill.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Slices,
			m.FramesProduced,
			m.SilenceFrames,
			m.FramesPlayed,
			m.UnderrunFrames,
			m.LoopRestarts,
			m.Seeks,
			m.CapturedFrames,
			m.TrackTime,
			m.BufferedSeconds,
		)
	}
	return m
}
