package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"voicescribe/internal/domain"
)

// Gate enforces the two size ceilings around acquisition. The transport
// ceiling applies to declared attachment sizes before any download; the
// transcription ceiling applies to the normalized audio file, with exactly
// one compression attempt allowed.
type Gate struct {
	runner     commandRunner
	ffmpegPath string
	stat       func(name string) (os.FileInfo, error)
}

// NewGate constructs the production gate with OS dependencies.
func NewGate() *Gate {
	return &Gate{
		runner:     &execRunner{},
		ffmpegPath: "ffmpeg",
		stat:       os.Stat,
	}
}

// AdmitSource rejects attachments whose declared size exceeds the transport
// download ceiling. URL sources skip this check: they are fetched outside
// the transport's file API.
func (g *Gate) AdmitSource(src domain.Source) error {
	if src.Kind == domain.SourceURL {
		return nil
	}
	if src.Size > MaxTransportDownloadBytes {
		return &TooLargeError{
			Stage: SizeStageTransport,
			Size:  src.Size,
			Limit: MaxTransportDownloadBytes,
		}
	}
	return nil
}

// EnsureTranscribable returns a path whose size fits the engine ceiling.
// Oversized audio is re-encoded once to mono low-bitrate Opus; if the result
// is still over the ceiling the job fails without invoking any engine.
func (g *Gate) EnsureTranscribable(ctx context.Context, audioPath string, onLog func(CommandLog)) (string, error) {
	size, err := g.fileSize(audioPath)
	if err != nil {
		return "", err
	}
	if size <= MaxTranscriptionBytes {
		return audioPath, nil
	}

	compressed, err := g.compress(ctx, audioPath, onLog)
	if err != nil {
		return "", err
	}

	size, err = g.fileSize(compressed)
	if err != nil {
		return "", err
	}
	if size > MaxTranscriptionBytes {
		return "", &TooLargeError{
			Stage: SizeStageTranscription,
			Size:  size,
			Limit: MaxTranscriptionBytes,
		}
	}
	return compressed, nil
}

// compress re-encodes audio as mono 16 kbps Opus next to the original.
func (g *Gate) compress(ctx context.Context, audioPath string, onLog func(CommandLog)) (string, error) {
	compressCtx, cancel := context.WithTimeout(ctx, compressTimeout)
	defer cancel()

	outPath := compressedPath(audioPath)
	args := buildCompressArgs(audioPath, outPath)

	result, runErr := g.runner.Run(compressCtx, g.ffmpegPath, args...)
	log := logFor(g.ffmpegPath, args, result)
	emitLog(onLog, log)
	if runErr != nil {
		return "", &AcquireError{
			Op:         OpCompress,
			Message:    "ffmpeg compression failed",
			CommandLog: log,
			Err:        runErr,
		}
	}
	return outPath, nil
}

// fileSize returns the on-disk size of one file.
func (g *Gate) fileSize(path string) (int64, error) {
	info, err := g.stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// compressedPath derives the compression output path from the input path.
func compressedPath(audioPath string) string {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	return base + ".compressed.ogg"
}

// buildCompressArgs builds ffmpeg args for mono low-bitrate Opus output.
func buildCompressArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-c:a", "libopus",
		"-b:a", "16k",
		outPath,
	}
}

// NewGateForTests constructs a gate with injectable dependencies.
func NewGateForTests(
	runner commandRunner,
	ffmpegPath string,
	stat func(name string) (os.FileInfo, error),
) *Gate {
	return &Gate{
		runner:     runner,
		ffmpegPath: ffmpegPath,
		stat:       stat,
	}
}
