package transcribe

import (
	"context"
	"fmt"
	"time"
)

// EventKind distinguishes the two progress emissions from an engine run.
type EventKind string

const (
	EventPartial EventKind = "partial"
	EventFinal   EventKind = "final"
)

// Event is one emission from a running transcription. A run yields zero or
// more partial events and terminates with exactly one final event; engine
// failures surface as the Transcribe return error instead of an event.
type Event struct {
	Kind       EventKind
	Text       string      // partial progress text, forwarded verbatim
	Transcript *Transcript // set when Kind is EventFinal
}

// Transcript is the completed output of one transcription run.
type Transcript struct {
	Text     string
	Language string
	ModelID  string
	Elapsed  time.Duration
}

// Request describes one transcription run.
type Request struct {
	AudioPath string
	Language  string
	OnEvent   func(Event)
}

// Transcriber converts one audio file into a transcript, emitting ordered
// progress events along the way. No timeout is imposed here; a run may take
// as long as the engine needs.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) error
}

// EngineError reports a transcription engine failure.
type EngineError struct {
	ModelID string
	Message string
	Err     error
}

// Error formats engine failures for logs and error reports.
func (e *EngineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("model %s: %s", e.ModelID, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// emitPartial forwards one partial progress line when a callback is set.
func emitPartial(req Request, text string) {
	if req.OnEvent != nil {
		req.OnEvent(Event{Kind: EventPartial, Text: text})
	}
}

// emitFinal forwards the terminal transcript event when a callback is set.
func emitFinal(req Request, transcript *Transcript) {
	if req.OnEvent != nil {
		req.OnEvent(Event{Kind: EventFinal, Transcript: transcript})
	}
}
