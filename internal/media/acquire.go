package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voicescribe/internal/domain"
)

const (
	// MaxTransportDownloadBytes is the inbound attachment ceiling imposed by
	// the chat transport's file API.
	MaxTransportDownloadBytes = 20 << 20

	// MaxTranscriptionBytes is the input ceiling of the transcription engines.
	MaxTranscriptionBytes = 50 << 20

	fetchTimeout    = time.Hour
	compressTimeout = 10 * time.Minute
)

// Downloader fetches one chat attachment into a local file.
type Downloader interface {
	Download(ctx context.Context, fileID string, destPath string) error
}

// Request couples one media source with its job identity and log callback.
type Request struct {
	JobID  string
	Source domain.Source
	OnLog  func(CommandLog)
}

// Acquisition owns the job's media files until Cleanup removes them. All
// artifacts live in one job-unique temporary directory, so no two jobs can
// ever collide on a shared filename.
type Acquisition struct {
	AudioPath string
	Logs      []CommandLog
	tempDir   string
	removeAll func(path string) error
}

// Cleanup removes the job's temporary directory and everything in it.
func (a *Acquisition) Cleanup() error {
	if a == nil || a.tempDir == "" {
		return nil
	}

	if err := a.removeAll(a.tempDir); err != nil {
		return err
	}
	a.tempDir = ""
	return nil
}

// TempDir returns the job workspace directory while the acquisition is live.
func (a *Acquisition) TempDir() string {
	return a.tempDir
}

// Acquirer resolves inbound media descriptors into local audio files.
type Acquirer struct {
	downloader Downloader
	runner     commandRunner
	ffmpegPath string
	fetchPath  string
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error
	remove     func(name string) error
	stat       func(name string) (os.FileInfo, error)
	readDir    func(name string) ([]os.DirEntry, error)
}

// NewAcquirer constructs the production acquirer with OS dependencies.
func NewAcquirer(downloader Downloader) *Acquirer {
	return &Acquirer{
		downloader: downloader,
		runner:     &execRunner{},
		ffmpegPath: "ffmpeg",
		fetchPath:  "yt-dlp",
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		remove:     os.Remove,
		stat:       os.Stat,
		readDir:    os.ReadDir,
	}
}

// Acquire resolves one media source into a normalized local audio file inside
// a fresh job-unique temporary directory. On failure the directory is removed
// before returning.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (*Acquisition, error) {
	tempDir, err := a.mkdirTemp("", "voicescribe-"+req.JobID+"-*")
	if err != nil {
		return nil, &AcquireError{
			Op:      OpDownload,
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}

	acq := &Acquisition{tempDir: tempDir, removeAll: a.removeAll}
	audioPath, err := a.acquireInto(ctx, tempDir, req, acq)
	if err != nil {
		_ = a.removeAll(tempDir)
		return nil, err
	}

	acq.AudioPath = audioPath
	return acq, nil
}

// acquireInto runs the kind-specific acquisition steps inside tempDir.
func (a *Acquirer) acquireInto(ctx context.Context, tempDir string, req Request, acq *Acquisition) (string, error) {
	onLog := func(log CommandLog) {
		acq.Logs = append(acq.Logs, log)
		emitLog(req.OnLog, log)
	}

	switch req.Source.Kind {
	case domain.SourceVoice, domain.SourceAudio:
		dest := filepath.Join(tempDir, "source"+sourceExt(req.Source.FileName, ".oga"))
		if err := a.download(ctx, req.Source.FileID, dest); err != nil {
			return "", err
		}
		if !needsRemux(dest) {
			return dest, nil
		}
		return a.remux(ctx, tempDir, dest, onLog)

	case domain.SourceVideoNote:
		dest := filepath.Join(tempDir, "source"+sourceExt(req.Source.FileName, ".mp4"))
		if err := a.download(ctx, req.Source.FileID, dest); err != nil {
			return "", err
		}
		return a.remux(ctx, tempDir, dest, onLog)

	case domain.SourceURL:
		fetched, err := a.fetch(ctx, tempDir, req.Source.URL, onLog)
		if err != nil {
			return "", err
		}
		if !needsRemux(fetched) {
			return fetched, nil
		}
		return a.remux(ctx, tempDir, fetched, onLog)

	default:
		return "", &AcquireError{
			Op:      OpDownload,
			Message: fmt.Sprintf("unsupported media source: %s", req.Source.Kind),
		}
	}
}

// download pulls one attachment through the chat transport's file API.
func (a *Acquirer) download(ctx context.Context, fileID, destPath string) error {
	if err := a.downloader.Download(ctx, fileID, destPath); err != nil {
		return &AcquireError{
			Op:      OpDownload,
			Message: "attachment download failed",
			Err:     err,
		}
	}
	return nil
}

// fetch shells out to the URL fetch tool with a long ceiling and returns the
// path of the fetched file.
func (a *Acquirer) fetch(ctx context.Context, tempDir, url string, onLog func(CommandLog)) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	args := []string{
		"--no-playlist",
		"-o", filepath.Join(tempDir, "fetched.%(ext)s"),
		url,
	}
	result, runErr := a.runner.Run(fetchCtx, a.fetchPath, args...)
	log := logFor(a.fetchPath, args, result)
	emitLog(onLog, log)
	if runErr != nil {
		return "", &AcquireError{
			Op:         OpFetch,
			Message:    "remote media fetch failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	fetched, err := a.findFetched(tempDir)
	if err != nil {
		return "", &AcquireError{
			Op:         OpFetch,
			Message:    "fetch tool completed but produced no file",
			CommandLog: log,
			Err:        err,
		}
	}
	return fetched, nil
}

// findFetched locates the single fetched.* file the fetch tool wrote.
func (a *Acquirer) findFetched(tempDir string) (string, error) {
	entries, err := a.readDir(tempDir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "fetched.") {
			return filepath.Join(tempDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no fetched file in %s", tempDir)
}

// remux extracts the audio track into an Opus/Ogg file and deletes the
// source immediately after a successful extraction. A failed extraction
// removes its partial output so it can never be mistaken for valid audio.
func (a *Acquirer) remux(ctx context.Context, tempDir, srcPath string, onLog func(CommandLog)) (string, error) {
	outPath := filepath.Join(tempDir, "audio.ogg")
	args := buildRemuxArgs(srcPath, outPath)

	result, runErr := a.runner.Run(ctx, a.ffmpegPath, args...)
	log := logFor(a.ffmpegPath, args, result)
	emitLog(onLog, log)
	if runErr != nil {
		_ = a.remove(outPath)
		return "", &AcquireError{
			Op:         OpRemux,
			Message:    "ffmpeg audio extraction failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	if _, err := a.stat(outPath); err != nil {
		return "", &AcquireError{
			Op:         OpRemux,
			Message:    "ffmpeg completed but output file is missing",
			CommandLog: log,
			Err:        err,
		}
	}

	_ = a.remove(srcPath)
	return outPath, nil
}

// buildRemuxArgs builds ffmpeg args for audio-only Opus/Ogg extraction.
func buildRemuxArgs(srcPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", srcPath,
		"-vn",
		"-acodec", "libopus",
		"-b:a", "48k",
		outPath,
	}
}

// sourceExt picks a filename extension for the downloaded attachment.
func sourceExt(fileName, fallback string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return fallback
	}
	return ext
}

// needsRemux reports whether the file looks like anything but plain audio.
func needsRemux(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg", ".oga", ".opus", ".mp3", ".m4a", ".aac", ".wav", ".flac", ".wma", ".amr":
		return false
	default:
		return true
	}
}

// NewAcquirerForTests constructs an acquirer with injectable dependencies.
func NewAcquirerForTests(
	downloader Downloader,
	runner commandRunner,
	ffmpegPath string,
	fetchPath string,
	mkdirTemp func(dir, pattern string) (string, error),
) *Acquirer {
	return &Acquirer{
		downloader: downloader,
		runner:     runner,
		ffmpegPath: ffmpegPath,
		fetchPath:  fetchPath,
		mkdirTemp:  mkdirTemp,
		removeAll:  os.RemoveAll,
		remove:     os.Remove,
		stat:       os.Stat,
		readDir:    os.ReadDir,
	}
}
