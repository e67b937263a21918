// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/stretchr/testify/require"

	"github.com/bookie-io/entrylog"
)

var randomData = func() []byte {
	b := make([]byte, 1024*1024)
	rand.New(rand.NewSource(1)).Read(b)
	return b
}()

func openStore(b *testing.B) (*entrylog.Store, func()) {
	b.Helper()
	dir, err := os.MkdirTemp("", "entrylog-bench-*")
	require.NoError(b, err)

	// Keep segments small so rollover is on the hot path and the benchmark
	// profiles rotation as well as raw disk throughput.
	s, err := entrylog.Open(entrylog.Config{
		LedgerDirs:        []string{dir},
		EntryLogSizeLimit: 4 * 1024 * 1024,
	})
	require.NoError(b, err)

	return s, func() {
		s.Close()
		os.RemoveAll(dir)
	}
}

func BenchmarkAddEntry(b *testing.B) {
	sizes := []int{10, 1024, 100 * 1024, 1024 * 1024}
	sizeNames := []string{"10", "1k", "100k", "1m"}
	batchSizes := []int{1, 10}

	for i, size := range sizes {
		for _, batch := range batchSizes {
			b.Run(fmt.Sprintf("entrySize=%s/batchSize=%d", sizeNames[i], batch), func(b *testing.B) {
				s, done := openStore(b)
				defer done()
				runAddEntryBench(b, s, size, batch)
			})
		}
	}
}

func runAddEntryBench(b *testing.B, s *entrylog.Store, size, batch int) {
	hist := hdrhistogram.New(1, int64(time.Second), 3)

	b.ResetTimer()
	entryID := uint64(0)
	for i := 0; i < b.N; i++ {
		for j := 0; j < batch; j++ {
			start := time.Now()
			_, err := s.AddEntry(1, entryID, randomData[:size])
			elapsed := time.Since(start)
			entryID++
			if err != nil {
				b.Fatalf("error appending: %s", err)
			}
			hist.RecordValue(int64(elapsed))
		}
	}
	b.StopTimer()

	b.ReportMetric(float64(hist.ValueAtQuantile(50)), "p50-ns")
	b.ReportMetric(float64(hist.ValueAtQuantile(99)), "p99-ns")
}

func BenchmarkReadEntry(b *testing.B) {
	sizes := []int{1000, 1_000_000}
	sizeNames := []string{"1k", "1m"}

	for i, n := range sizes {
		b.Run(fmt.Sprintf("numEntries=%s", sizeNames[i]), func(b *testing.B) {
			s, done := openStore(b)
			defer done()
			locs := populateEntries(b, s, n, 128)
			runReadEntryBench(b, s, locs)
		})
	}
}

func populateEntries(b *testing.B, s *entrylog.Store, n, size int) []entrylog.Location {
	locs := make([]entrylog.Location, 0, n)
	start := time.Now()
	for i := 0; i < n; i++ {
		loc, err := s.AddEntry(1, uint64(i), randomData[:size])
		require.NoError(b, err)
		locs = append(locs, loc)
	}
	require.NoError(b, s.Flush())
	b.Logf("populateTime=%s", time.Since(start))
	return locs
}

func runReadEntryBench(b *testing.B, s *entrylog.Store, locs []entrylog.Location) {
	hist := hdrhistogram.New(1, int64(time.Second), 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx := i % len(locs)
		start := time.Now()
		_, err := s.ReadEntry(1, uint64(idx), locs[idx])
		elapsed := time.Since(start)
		require.NoError(b, err)
		hist.RecordValue(int64(elapsed))
	}
	b.StopTimer()

	b.ReportMetric(float64(hist.ValueAtQuantile(50)), "p50-ns")
	b.ReportMetric(float64(hist.ValueAtQuantile(99)), "p99-ns")
}
