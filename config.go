// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookie-io/entrylog/types"
)

// DefaultEntryLogSizeLimit is used if Config.EntryLogSizeLimit is zero.
const DefaultEntryLogSizeLimit = 1 * 1024 * 1024 * 1024 // 1 GiB

// DefaultGCWaitTime is used if Config.GCWaitTime is zero.
const DefaultGCWaitTime = 5 * time.Minute

// Config is the configuration surface consumed by Open. Loading it from
// a file, flags or environment variables is a concern of the host
// process, not of this package.
type Config struct {
	// LedgerDirs is the ordered set of storage directories new segments
	// are created in.
	LedgerDirs []string

	// EntryLogSizeLimit is the size threshold, in bytes, that triggers a
	// rollover to a new segment.
	EntryLogSizeLimit int64

	// GCWaitTime is the interval between garbage collection cycles.
	GCWaitTime time.Duration
}

// Validate rejects an unusable configuration before Open does any I/O.
func (c Config) Validate() error {
	if len(c.LedgerDirs) == 0 {
		return fmt.Errorf("entrylog: at least one ledger directory is required")
	}
	for _, d := range c.LedgerDirs {
		if d == "" {
			return fmt.Errorf("entrylog: empty ledger directory path")
		}
	}
	if c.EntryLogSizeLimit < 0 {
		return fmt.Errorf("entrylog: entry log size limit must not be negative")
	}
	if c.GCWaitTime < 0 {
		return fmt.Errorf("entrylog: gc wait time must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.EntryLogSizeLimit == 0 {
		c.EntryLogSizeLimit = DefaultEntryLogSizeLimit
	}
	if c.GCWaitTime == 0 {
		c.GCWaitTime = DefaultGCWaitTime
	}
	return c
}

// Option configures optional collaborators and instrumentation on a
// Store.
type Option func(*Store)

// WithLogger sets the structured logger used for warnings and errors
// emitted by the scanner, GC, read path and shutdown. Defaults to a
// no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetricsRegisterer registers the store's prometheus metrics with
// reg. Without it the metrics are created but never registered, which
// keeps repeated Opens in one process from colliding.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(s *Store) { s.reg = reg }
}

// WithActiveLedgerManager injects the Active Ledger Manager collaborator
// the garbage collector queries for ledger liveness.
func WithActiveLedgerManager(m types.ActiveLedgerManager) Option {
	return func(s *Store) { s.activeLedgers = m }
}

// WithLedgerIndex injects the Ledger Index collaborator notified when a
// ledger is garbage collected.
func WithLedgerIndex(li types.LedgerIndex) Option {
	return func(s *Store) { s.ledgerIndex = li }
}

// WithCoordinationClient injects the readiness gate for the GC loop.
func WithCoordinationClient(c types.CoordinationClient) Option {
	return func(s *Store) { s.coordination = c }
}
