package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"voicescribe/internal/domain"
)

// Checker validates external tools and required filesystem paths at startup.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report. A failed
// item is logged and shown by /status but does not stop the bot; jobs that
// need the missing piece fail with a clear error instead.
func (c *Checker) Run(modelsDir string, settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ffmpeg"),
		c.checkTool("yt-dlp"),
		c.checkWhisperBinary(),
		c.checkModelFile(modelsDir, settings.Model),
		c.checkDataDir(filepath.Dir(modelsDir)),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name string) domain.DiagnosticItem {
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install it and ensure the binary is available on PATH before starting a transcription job.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkWhisperBinary accepts any of the executable names whisper.cpp ships
// under across packagings.
func (c *Checker) checkWhisperBinary() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_whisper",
		Name: "whisper.cpp",
	}

	candidates := []string{"whisper-cli", "whisper.cpp", "whisper-cpp", "main"}
	for _, candidate := range candidates {
		if path, err := c.lookPath(candidate); err == nil {
			item.Status = domain.DiagnosticStatusPass
			item.Message = fmt.Sprintf("Found at %s", path)
			return item
		}
	}

	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("No whisper.cpp executable found in PATH (tried: %s)", strings.Join(candidates, ", "))
	item.Hint = "Install whisper.cpp; local transcription is unavailable without it."
	return item
}

// checkModelFile verifies the selected local model has been downloaded.
// Cloud model IDs have no local file and always pass.
func (c *Checker) checkModelFile(modelsDir, modelID string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "model_file",
		Name: "Model file",
	}

	model, found := lookupLocalModel(modelID)
	if !found {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Model %s needs no local file.", modelID)
		return item
	}

	path := filepath.Join(modelsDir, model)
	info, err := c.stat(path)
	if err != nil || info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Model file missing: %s", path)
		item.Hint = "The model is downloaded automatically before the first local transcription."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Model file found: %s", path)
	return item
}

// checkDataDir validates data directory existence and write access. Job
// workspaces and settings live under it.
func (c *Checker) checkDataDir(dataDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "data_dir",
		Name: "Data directory",
	}

	if strings.TrimSpace(dataDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Data directory is empty."
		item.Hint = "Set DATA_DIR to a writable location."
		return item
	}

	if err := c.mkdirAll(dataDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create data directory: %s", dataDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dataDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Data directory is not writable: %s", dataDir)
		item.Hint = "Choose a writable directory for settings and models."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dataDir)
	return item
}

// lookupLocalModel maps a whisper.cpp model ID to its ggml filename.
func lookupLocalModel(modelID string) (string, bool) {
	switch strings.TrimSpace(modelID) {
	case "tiny", "base", "small", "medium", "large-v3", "large-v3-turbo":
		return "ggml-" + strings.TrimSpace(modelID) + ".bin", true
	}
	return "", false
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
