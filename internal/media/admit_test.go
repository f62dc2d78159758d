package media

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"voicescribe/internal/domain"
)

// fakeFileInfo reports a fixed size for admission checks.
type fakeFileInfo struct {
	size int64
}

func (f fakeFileInfo) Name() string       { return "audio.ogg" }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0o644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

// TestAdmitSourceRejectsOversizedAttachment checks the transport ceiling.
func TestAdmitSourceRejectsOversizedAttachment(t *testing.T) {
	gate := NewGate()

	err := gate.AdmitSource(domain.Source{
		Kind: domain.SourceVoice,
		Size: MaxTransportDownloadBytes + 1,
	})

	var tooLarge *TooLargeError
	if !errors.As(err, &tooLarge) || tooLarge.Stage != SizeStageTransport {
		t.Fatalf("error = %v, want transport TooLargeError", err)
	}
}

// TestAdmitSourceAcceptsSmallAttachmentAndURLs checks the accept paths.
func TestAdmitSourceAcceptsSmallAttachmentAndURLs(t *testing.T) {
	gate := NewGate()

	if err := gate.AdmitSource(domain.Source{Kind: domain.SourceVoice, Size: 2 << 20}); err != nil {
		t.Fatalf("small attachment rejected: %v", err)
	}
	if err := gate.AdmitSource(domain.Source{Kind: domain.SourceURL, Size: MaxTransportDownloadBytes * 10}); err != nil {
		t.Fatalf("URL source should skip the transport ceiling: %v", err)
	}
}

// TestEnsureTranscribableSmallFilePassesThrough checks the no-op path.
func TestEnsureTranscribableSmallFilePassesThrough(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		t.Fatalf("unexpected command: %s", name)
		return commandResult{}, nil
	}}
	stat := func(name string) (os.FileInfo, error) {
		return fakeFileInfo{size: 1 << 20}, nil
	}

	gate := NewGateForTests(runner, "ffmpeg", stat)
	got, err := gate.EnsureTranscribable(context.Background(), "/tmp/audio.ogg", nil)
	if err != nil {
		t.Fatalf("EnsureTranscribable() error = %v", err)
	}
	if got != "/tmp/audio.ogg" {
		t.Fatalf("path = %q, want original", got)
	}
}

// TestEnsureTranscribableCompressesOversizedAudio checks the single retry.
func TestEnsureTranscribableCompressesOversizedAudio(t *testing.T) {
	ffmpegCalls := 0
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		ffmpegCalls++
		return commandResult{ExitCode: 0}, nil
	}}
	stat := func(name string) (os.FileInfo, error) {
		if name == compressedPath("/tmp/audio.ogg") {
			return fakeFileInfo{size: 4 << 20}, nil
		}
		return fakeFileInfo{size: MaxTranscriptionBytes + 1}, nil
	}

	gate := NewGateForTests(runner, "ffmpeg", stat)
	var logs []CommandLog
	got, err := gate.EnsureTranscribable(context.Background(), "/tmp/audio.ogg", func(log CommandLog) {
		logs = append(logs, log)
	})
	if err != nil {
		t.Fatalf("EnsureTranscribable() error = %v", err)
	}
	if got != compressedPath("/tmp/audio.ogg") {
		t.Fatalf("path = %q, want compressed output", got)
	}
	if ffmpegCalls != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", ffmpegCalls)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
}

// TestEnsureTranscribableFailsWhenStillTooLarge checks single-attempt policy.
func TestEnsureTranscribableFailsWhenStillTooLarge(t *testing.T) {
	ffmpegCalls := 0
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		ffmpegCalls++
		return commandResult{ExitCode: 0}, nil
	}}
	stat := func(name string) (os.FileInfo, error) {
		return fakeFileInfo{size: MaxTranscriptionBytes + 1}, nil
	}

	gate := NewGateForTests(runner, "ffmpeg", stat)
	_, err := gate.EnsureTranscribable(context.Background(), "/tmp/audio.ogg", nil)

	var tooLarge *TooLargeError
	if !errors.As(err, &tooLarge) || tooLarge.Stage != SizeStageTranscription {
		t.Fatalf("error = %v, want transcription TooLargeError", err)
	}
	if ffmpegCalls != 1 {
		t.Fatalf("ffmpeg calls = %d, want exactly one compression attempt", ffmpegCalls)
	}
}
