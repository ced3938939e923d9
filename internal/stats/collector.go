// Package stats tracks commit outcome counters.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks commit statistics using lock-free atomic counters.
type Collector struct {
	filesReassembled atomic.Int64
	filesSkipped     atomic.Int64
	groupsDropped    atomic.Int64
	bytesReassembled atomic.Int64
	entriesDeleted   atomic.Int64
	bulkDeleteCalls  atomic.Int64
	dirsPreserved    atomic.Int64
	tempFilesRemoved atomic.Int64
	startTime        time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddFilesReassembled(n int64) { c.filesReassembled.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)     { c.filesSkipped.Add(n) }
func (c *Collector) AddGroupsDropped(n int64)    { c.groupsDropped.Add(n) }
func (c *Collector) AddBytesReassembled(n int64) { c.bytesReassembled.Add(n) }
func (c *Collector) AddEntriesDeleted(n int64)   { c.entriesDeleted.Add(n) }
func (c *Collector) AddBulkDeleteCalls(n int64)  { c.bulkDeleteCalls.Add(n) }
func (c *Collector) AddDirsPreserved(n int64)    { c.dirsPreserved.Add(n) }
func (c *Collector) AddTempFilesRemoved(n int64) { c.tempFilesRemoved.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesReassembled int64
	FilesSkipped     int64
	GroupsDropped    int64
	BytesReassembled int64
	EntriesDeleted   int64
	BulkDeleteCalls  int64
	DirsPreserved    int64
	TempFilesRemoved int64
	Elapsed          time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesReassembled: c.filesReassembled.Load(),
		FilesSkipped:     c.filesSkipped.Load(),
		GroupsDropped:    c.groupsDropped.Load(),
		BytesReassembled: c.bytesReassembled.Load(),
		EntriesDeleted:   c.entriesDeleted.Load(),
		BulkDeleteCalls:  c.bulkDeleteCalls.Load(),
		DirsPreserved:    c.dirsPreserved.Load(),
		TempFilesRemoved: c.tempFilesRemoved.Load(),
		Elapsed:          c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"reassembled=%d skipped=%d dropped=%d deleted=%d preserved=%d temps=%d",
		s.FilesReassembled, s.FilesSkipped, s.GroupsDropped,
		s.EntriesDeleted, s.DirsPreserved, s.TempFilesRemoved,
	)
}
