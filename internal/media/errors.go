package media

import "fmt"

// AcquireOp identifies the acquisition stage that failed.
type AcquireOp string

const (
	OpDownload AcquireOp = "download"
	OpFetch    AcquireOp = "fetch"
	OpRemux    AcquireOp = "remux"
	OpCompress AcquireOp = "compress"
)

// AcquireError is a stage-aware acquisition failure with command context.
type AcquireError struct {
	Op         AcquireOp
	Message    string
	CommandLog CommandLog
	Err        error
}

// Error formats acquisition failures for logs and error reports.
func (e *AcquireError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Op,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *AcquireError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SizeStage names which ceiling a too-large rejection refers to.
type SizeStage string

const (
	SizeStageTransport     SizeStage = "transport"
	SizeStageTranscription SizeStage = "transcription"
)

// TooLargeError reports media that exceeds one of the two size ceilings.
type TooLargeError struct {
	Stage SizeStage
	Size  int64
	Limit int64
}

// Error formats the exceeded ceiling with both sizes in MiB.
func (e *TooLargeError) Error() string {
	return fmt.Sprintf(
		"media too large for %s: %d MiB exceeds the %d MiB limit",
		e.Stage,
		e.Size>>20,
		e.Limit>>20,
	)
}
