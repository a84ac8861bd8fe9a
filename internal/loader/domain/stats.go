package domain

import (
	"errors"

	"github.com/smallbiznis/sparkify/internal/source"
)

// FileStats describes what one file contributed. Counts are only set once the
// file transaction has committed.
type FileStats struct {
	Path        string
	Kind        source.Kind
	RowsRead    int
	RowsSkipped int

	Songs       int64
	Artists     int64
	TimeBuckets int64
	Users       int64
	Songplays   int64

	Resolved   int
	Unresolved int
}

func (s FileStats) RowsLoaded() int64 {
	return s.Songs + s.Artists + s.TimeBuckets + s.Users + s.Songplays
}

type RunOptions struct {
	// Reset drops and recreates every table before loading.
	Reset bool
}

// RunSummary aggregates one or more directory loads.
type RunSummary struct {
	RunID          string
	FilesFound     int
	FilesProcessed int
	FilesFailed    int
	RowsLoaded     int64
	RowsSkipped    int
	Resolved       int
	Unresolved     int

	// Err joins every per-file failure. Failed files do not stop the run.
	Err error
}

func (s *RunSummary) AddFile(stats FileStats) {
	s.FilesProcessed++
	s.RowsLoaded += stats.RowsLoaded()
	s.RowsSkipped += stats.RowsSkipped
	s.Resolved += stats.Resolved
	s.Unresolved += stats.Unresolved
}

func (s *RunSummary) Merge(other RunSummary) {
	s.FilesFound += other.FilesFound
	s.FilesProcessed += other.FilesProcessed
	s.FilesFailed += other.FilesFailed
	s.RowsLoaded += other.RowsLoaded
	s.RowsSkipped += other.RowsSkipped
	s.Resolved += other.Resolved
	s.Unresolved += other.Unresolved
	if other.Err != nil {
		s.Err = errors.Join(s.Err, other.Err)
	}
}
