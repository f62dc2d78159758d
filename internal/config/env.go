package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Env holds credentials and fixed policy loaded from the environment.
// User-mutable runtime settings live in the JSON store instead.
type Env struct {
	BotToken     string
	AllowedUsers []string
	OpenAIAPIKey string
	GeminiAPIKey string
	DataDir      string
}

// EnvFromOS reads and validates required process configuration.
func EnvFromOS() (Env, error) {
	env := Env{
		BotToken:     strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		AllowedUsers: splitUsernames(os.Getenv("ALLOWED_USERNAMES")),
		OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		DataDir:      strings.TrimSpace(os.Getenv("DATA_DIR")),
	}

	if env.BotToken == "" {
		return Env{}, fmt.Errorf("BOT_TOKEN is required")
	}
	if len(env.AllowedUsers) == 0 {
		return Env{}, fmt.Errorf("ALLOWED_USERNAMES is required")
	}

	if env.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Env{}, fmt.Errorf("resolve user home: %w", err)
		}
		env.DataDir = filepath.Join(homeDir, ".voicescribe")
	}

	return env, nil
}

// SettingsPath returns the JSON settings file location under the data dir.
func (e Env) SettingsPath() string {
	return filepath.Join(e.DataDir, "settings.json")
}

// ModelsDir returns the local whisper model directory under the data dir.
func (e Env) ModelsDir() string {
	return filepath.Join(e.DataDir, "models")
}

// splitUsernames parses a comma-separated allow-list into normalized names.
func splitUsernames(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "@")))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
