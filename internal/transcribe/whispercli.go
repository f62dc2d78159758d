package transcribe

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// whisper.cpp segment lines look like "[00:00:00.000 --> 00:00:04.500] text";
// with --print-progress the engine also logs "... progress = NN%" lines.
var (
	segmentLineRe  = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}[.,]\d{3} -->`)
	progressLineRe = regexp.MustCompile(`progress\s*=\s*\d+%`)
)

// WhisperCLI shells out to a whisper.cpp binary and forwards its segment and
// progress lines as partial events while the engine runs. The transcript is
// read from the engine's .txt export next to the input audio.
type WhisperCLI struct {
	binPath   string
	modelPath string
	modelID   string
}

// NewWhisperCLI constructs a local whisper.cpp engine.
func NewWhisperCLI(binPath, modelPath, modelID string) *WhisperCLI {
	return &WhisperCLI{
		binPath:   binPath,
		modelPath: modelPath,
		modelID:   modelID,
	}
}

// ResolveWhisperBinary finds a whisper.cpp executable on PATH, accepting the
// names common across packagings.
func ResolveWhisperBinary() (string, error) {
	candidates := []string{"whisper-cli", "whisper.cpp", "whisper-cpp", "main"}
	var lastErr error
	for _, candidate := range candidates {
		path, err := exec.LookPath(candidate)
		if err == nil {
			return path, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// Transcribe runs whisper.cpp on one audio file, streaming progress lines
// from both output pipes in emission order.
func (w *WhisperCLI) Transcribe(ctx context.Context, req Request) error {
	start := time.Now()
	outBase := strings.TrimSuffix(req.AudioPath, filepath.Ext(req.AudioPath))
	args := buildWhisperArgs(w.modelPath, req.AudioPath, outBase, req.Language)

	cmd := exec.CommandContext(ctx, w.binPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &EngineError{ModelID: w.modelID, Message: "attach stdout pipe", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &EngineError{ModelID: w.modelID, Message: "attach stderr pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &EngineError{ModelID: w.modelID, Message: "start whisper.cpp", Err: err}
	}

	// Both pipes can carry progress lines; serialize emissions so the
	// status stream stays ordered.
	var emitMu sync.Mutex
	emit := func(line string) {
		emitMu.Lock()
		emitPartial(req, line)
		emitMu.Unlock()
	}

	var stderrTail bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		forwardProgress(stdout, emit, nil)
	}()
	go func() {
		defer wg.Done()
		forwardProgress(stderr, emit, &stderrTail)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return &EngineError{
			ModelID: w.modelID,
			Message: "whisper.cpp failed: " + tailOf(stderrTail.String(), 500),
			Err:     err,
		}
	}

	textPath := outBase + ".txt"
	content, err := os.ReadFile(textPath)
	if err != nil {
		return &EngineError{
			ModelID: w.modelID,
			Message: "whisper.cpp completed but transcript file is missing",
			Err:     err,
		}
	}

	emitFinal(req, &Transcript{
		Text:     strings.TrimSpace(string(content)),
		Language: req.Language,
		ModelID:  w.modelID,
		Elapsed:  time.Since(start),
	})
	return nil
}

// forwardProgress scans one pipe line by line, forwarding recognized
// segment/progress lines verbatim and optionally retaining raw output.
func forwardProgress(r io.Reader, emit func(string), raw *bytes.Buffer) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if raw != nil {
			raw.WriteString(line)
			raw.WriteString("\n")
		}
		if isProgressLine(line) {
			emit(line)
		}
	}
}

// isProgressLine reports whether a line is a segment or percentage update.
func isProgressLine(line string) bool {
	if line == "" {
		return false
	}
	return segmentLineRe.MatchString(line) || progressLineRe.MatchString(line)
}

// buildWhisperArgs builds whisper.cpp args for txt transcript export with
// progress logging enabled.
func buildWhisperArgs(modelPath, audioPath, outBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outBase,
		"-otxt",
		"--print-progress",
	}

	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}

	return args
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// tailOf returns at most n trailing bytes of s for compact error messages.
func tailOf(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
