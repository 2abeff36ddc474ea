package driver

import "time"

// PhaseStatus reports where a file is in the pipeline.
type PhaseStatus int

const (
	// PhaseStart indicates that a pipeline phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// FileDone and FileFailed close a file in directory runs; Name is empty.
	FileDone
	FileFailed
)

// PhaseEvent describes a phase boundary of one file.
type PhaseEvent struct {
	File    string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during DiagnoseWithOptions.
// Directory runs call it from several goroutines.
type PhaseObserver func(PhaseEvent)
