package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Writer metrics
	EventsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logvault_events_written_total",
			Help: "Event records appended to date partitions",
		},
		[]string{"category"},
	)
	WritesDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logvault_writes_degraded_total",
			Help: "Writes diverted to the fallback channel",
		},
	)

	// Parser metrics
	LinesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logvault_lines_parsed_total",
			Help: "Raw lines successfully structured, per parser",
		},
		[]string{"parser"},
	)
	LinesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logvault_lines_skipped_total",
			Help: "Raw lines that did not match the format, per parser",
		},
		[]string{"parser"},
	)
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logvault_events_dropped_total",
			Help: "Structured events dropped by filter rules",
		},
		[]string{"rule"},
	)

	// Tailing metrics
	RotationsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logvault_rotations_detected_total",
			Help: "Source file rotations or truncations detected, per parser",
		},
		[]string{"parser"},
	)

	// Retention metrics
	PartitionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logvault_partitions_swept_total",
			Help: "Date partitions removed by the retention sweeper",
		},
	)
)
