package lmhist

import (
	"fmt"
	"time"
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

// ErrInvalidWindow is returned when tstart > tstop. It is raised before
// any I/O happens.
type ErrInvalidWindow struct {
	Tstart time.Duration
	Tstop  time.Duration
}

func (e *ErrInvalidWindow) Error() string {
	return fmt.Sprintf("invalid time window: tstart %v > tstop %v", e.Tstart, e.Tstop)
}

// ErrTruncatedStream is returned when the list-mode file ends in the middle
// of an event word or a read fails mid-stream. Unlike a malformed event this
// is fatal for the whole run.
type ErrTruncatedStream struct {
	Filename string
	Words    int64
	Err      error
}

func (e *ErrTruncatedStream) Error() string {
	return fmt.Sprintf("truncated list-mode stream %q after %d words: %v", e.Filename, e.Words, e.Err)
}

// ErrUnknownFormat represents an unsupported list-mode format version.
type ErrUnknownFormat struct {
	Version uint16
}

func (e *ErrUnknownFormat) Error() string {
	return fmt.Sprintf("unknown list-mode format version %d", e.Version)
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}
