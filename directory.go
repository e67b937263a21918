// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package entrylog

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	atomicfile "github.com/natefinch/atomic"
	multierror "github.com/hashicorp/go-multierror"
)

const lastIDFileName = "lastId"

const logFileSuffix = ".log"

// segmentFileName returns the on-disk name for segmentID, per the
// "hex(segmentId) + .log" naming rule.
func segmentFileName(segmentID uint64) string {
	return strconv.FormatUint(segmentID, 16) + logFileSuffix
}

// segmentPath locates segmentID's file across dirs, returning its full
// path and true if found in any of them.
func segmentPath(dirs []string, segmentID uint64) (string, bool) {
	name := segmentFileName(segmentID)
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// pickDirectory selects a storage directory for a new segment uniformly
// at random. This spreads load but is blind to fill levels.
func pickDirectory(dirs []string) string {
	return dirs[rand.Intn(len(dirs))]
}

// loadLastSegmentID reads every directory's lastId marker and returns
// the highest value found, plus whether any marker existed at all.
// Directories may legitimately disagree after a crash, since rollover
// rewrites the markers one directory at a time.
func loadLastSegmentID(dirs []string) (uint64, bool, error) {
	found := false
	var max uint64
	for _, dir := range dirs {
		p := filepath.Join(dir, lastIDFileName)
		b, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, false, fmt.Errorf("entrylog: reading %s: %w", p, err)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(string(b)), 16, 64)
		if err != nil {
			return 0, false, fmt.Errorf("entrylog: parsing %s: %w", p, err)
		}
		if !found || id > max {
			max = id
		}
		found = true
	}
	return max, found, nil
}

// persistLastID rewrites the lastId marker in every configured
// directory to segmentID. Each write is individually best-effort atomic
// (write-then-rename); there is no cross-directory transaction, so a
// crash partway through can leave directories disagreeing, which
// loadLastSegmentID's max-of-all-markers read tolerates. Per-directory
// failures are combined into a single returned error, since a rollover
// I/O failure must propagate to the caller of AddEntry.
func persistLastID(dirs []string, segmentID uint64) error {
	content := []byte(strconv.FormatUint(segmentID, 16) + "\n")
	var result *multierror.Error
	for _, dir := range dirs {
		p := filepath.Join(dir, lastIDFileName)
		if err := atomicfile.WriteFile(p, bytes.NewReader(content)); err != nil {
			result = multierror.Append(result, fmt.Errorf("writing %s: %w", p, err))
		}
	}
	return result.ErrorOrNil()
}
