// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type entrylogMetrics struct {
	bytesWritten       prometheus.Counter
	entriesWritten     prometheus.Counter
	appends            prometheus.Counter
	entryBytesRead     prometheus.Counter
	entriesRead        prometheus.Counter
	segmentRollovers   prometheus.Counter
	gcCycles           prometheus.Counter
	gcLedgersDeleted   prometheus.Counter
	gcSegmentsDeleted  prometheus.Counter
	gcCycleDuration    prometheus.Histogram
	activeSegmentBytes prometheus.Gauge
}

func newEntrylogMetrics(reg prometheus.Registerer) *entrylogMetrics {
	return &entrylogMetrics{
		bytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_bytes_written",
			Help: "entrylog_bytes_written counts the payload bytes appended, not" +
				" including the frame length prefix or segment header.",
		}),
		entriesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_entries_written",
			Help: "entrylog_entries_written counts the number of addEntry calls that succeeded.",
		}),
		appends: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_appends_total",
			Help: "entrylog_appends_total counts calls to addEntry including any that triggered a rollover.",
		}),
		entryBytesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_entry_bytes_read",
			Help: "entrylog_entry_bytes_read counts payload bytes returned by readEntry.",
		}),
		entriesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_entries_read",
			Help: "entrylog_entries_read counts readEntry calls that returned an entry.",
		}),
		segmentRollovers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_segment_rollovers",
			Help: "entrylog_segment_rollovers counts how many times a new active segment was created.",
		}),
		gcCycles: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_gc_cycles_total",
			Help: "entrylog_gc_cycles_total counts completed garbage collection cycles.",
		}),
		gcLedgersDeleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_gc_ledgers_deleted_total",
			Help: "entrylog_gc_ledgers_deleted_total counts ledgers the active ledger manager reported dead and the ledger index deleted without error.",
		}),
		gcSegmentsDeleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "entrylog_gc_segments_deleted_total",
			Help: "entrylog_gc_segments_deleted_total counts segment files unlinked because their ledger set became empty.",
		}),
		gcCycleDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "entrylog_gc_cycle_duration_seconds",
			Help: "entrylog_gc_cycle_duration_seconds observes how long each completed GC cycle took.",
		}),
		activeSegmentBytes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "entrylog_active_segment_bytes",
			Help: "entrylog_active_segment_bytes is the logical size of the current active segment.",
		}),
	}
}
