package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"voicescribe/internal/chat"
	"voicescribe/internal/config"
	"voicescribe/internal/diagnostics"
	"voicescribe/internal/domain"
	"voicescribe/internal/jobs"
	"voicescribe/internal/logging"
	"voicescribe/internal/media"
	"voicescribe/internal/transcribe"
)

// acquirer isolates media acquisition behind an interface for tests.
type acquirer interface {
	Acquire(ctx context.Context, req media.Request) (*media.Acquisition, error)
}

// admission isolates the size gate behind an interface for tests.
type admission interface {
	AdmitSource(source domain.Source) error
	EnsureTranscribable(ctx context.Context, audioPath string, onLog func(media.CommandLog)) (string, error)
}

// App wires configuration, the chat transport, the job slot, and the
// transcription engines into the running bot.
type App struct {
	env       config.Env
	store     config.Store
	transport chat.Transport
	jobs      *jobs.Manager
	events    *jobs.EventBus
	registry  *transcribe.Registry
	acquirer  acquirer
	gate      admission
	checker   *diagnostics.Checker
	allowed   map[string]struct{}

	diagnostics domain.DiagnosticReport
}

// New builds the application with persisted settings and startup diagnostics.
func New(env config.Env, transport chat.Transport) (*App, error) {
	store := config.NewJSONStore(env.SettingsPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(env.ModelsDir(), settings)

	registry := buildRegistry(env)
	if settings.Model != "" {
		// A stale settings file may name a model that is no longer
		// registered; fall back to the registry default.
		if selectErr := registry.Select(settings.Model); selectErr != nil {
			settings.Model = registry.CurrentID()
		}
	}

	allowed := make(map[string]struct{}, len(env.AllowedUsers))
	for _, name := range env.AllowedUsers {
		allowed[name] = struct{}{}
	}

	return &App{
		env:         env,
		store:       store,
		transport:   transport,
		jobs:        jobs.NewManager(),
		events:      jobs.NewEventBus(1000),
		registry:    registry,
		acquirer:    media.NewAcquirer(transport),
		gate:        media.NewGate(),
		checker:     checker,
		allowed:     allowed,
		diagnostics: report,
	}, nil
}

// buildRegistry registers all local whisper.cpp models plus the cloud engines
// whose API keys are configured.
func buildRegistry(env config.Env) *transcribe.Registry {
	registry := transcribe.NewRegistry()
	modelsDir := env.ModelsDir()

	for _, model := range transcribe.CatalogModels(modelsDir) {
		model := model
		registry.Register(transcribe.ModelInfo{
			ID:        model.ID,
			Name:      model.Name,
			SizeLabel: model.SizeLabel,
			Local:     true,
			Ready:     model.Downloaded,
		}, func(ctx context.Context) (transcribe.Transcriber, error) {
			binPath, err := transcribe.ResolveWhisperBinary()
			if err != nil {
				return nil, fmt.Errorf("whisper.cpp is not installed: %w", err)
			}
			modelPath, err := transcribe.EnsureModel(modelsDir, model.ID)
			if err != nil {
				return nil, err
			}
			return transcribe.NewWhisperCLI(binPath, modelPath, model.ID), nil
		})
	}

	if env.OpenAIAPIKey != "" {
		for _, id := range []string{"gpt-4o-transcribe", "whisper-1"} {
			id := id
			registry.Register(transcribe.ModelInfo{ID: id, Name: id, Ready: true},
				func(ctx context.Context) (transcribe.Transcriber, error) {
					return transcribe.NewOpenAI(env.OpenAIAPIKey, id), nil
				})
		}
	}

	if env.GeminiAPIKey != "" {
		for _, id := range []string{"gemini-2.5-flash", "gemini-2.5-pro"} {
			id := id
			registry.Register(transcribe.ModelInfo{ID: id, Name: id, Ready: true},
				func(ctx context.Context) (transcribe.Transcriber, error) {
					return transcribe.NewGemini(env.GeminiAPIKey, id), nil
				})
		}
	}

	return registry
}

// Run registers the command menu and dispatches inbound updates until ctx is
// cancelled or the update stream closes. Each actionable update is handled on
// its own goroutine; jobs still serialize on the single slot.
func (a *App) Run(ctx context.Context, updates <-chan chat.Inbound) error {
	log := logging.NewLogger(ctx)

	if err := a.transport.RegisterCommands(ctx, botCommands()); err != nil {
		log.Warnf("register command menu: %v", err)
	}

	a.logDiagnostics(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case inbound, ok := <-updates:
			if !ok {
				return nil
			}
			if !a.authorized(inbound.Username) {
				// Unauthorized senders get no reply at all.
				log.Debugf("dropping update from unauthorized user %q", inbound.Username)
				continue
			}
			go a.handle(ctx, inbound)
		}
	}
}

// handle routes one authorized update, converting panics into error reports
// so a broken handler never kills the process.
func (a *App) handle(ctx context.Context, inbound chat.Inbound) {
	defer func() {
		if r := recover(); r != nil {
			a.report(ctx, inbound.ChatID, fmt.Errorf("panic: %v", r))
		}
	}()

	switch {
	case inbound.Command != "":
		a.handleCommand(ctx, inbound)
	case inbound.Source != nil:
		a.handleMedia(ctx, inbound)
	}
}

// authorized checks the sender against the allow-list, case-insensitively.
func (a *App) authorized(username string) bool {
	_, ok := a.allowed[strings.ToLower(strings.TrimSpace(username))]
	return ok
}

// logDiagnostics writes the startup check results to the log.
func (a *App) logDiagnostics(ctx context.Context) {
	log := logging.NewLogger(ctx)
	for _, item := range a.diagnostics.Items {
		if item.Status == domain.DiagnosticStatusFail {
			log.Warnf("diagnostic %s: %s", item.ID, item.Message)
		} else {
			log.Infof("diagnostic %s: %s", item.ID, item.Message)
		}
	}
}

// botCommands is the menu advertised to the chat client.
func botCommands() []chat.Command {
	return []chat.Command{
		{Name: "start", Description: "Show what the bot does"},
		{Name: "help", Description: "Usage instructions"},
		{Name: "model", Description: "List or switch transcription models"},
		{Name: "language", Description: "Show or set the transcription language"},
		{Name: "status", Description: "Current job and recent activity"},
	}
}
