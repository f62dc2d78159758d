package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicescribe/internal/chat"
	"voicescribe/internal/domain"
	"voicescribe/internal/jobs"
	"voicescribe/internal/logging"
	"voicescribe/internal/media"
	"voicescribe/internal/transcribe"
)

const startText = `I turn voice messages, video notes, audio files, and media links into text.

Send me any of those and I reply with the transcript. Use /model to pick the transcription model and /help for details.`

const helpText = `Send one of:
- a voice message or video note
- an audio file (as audio or as a document)
- a link to a video or audio page

Attachments over 20 MiB cannot be downloaded; send a link instead.

Commands:
/model - list models or switch: /model <id>
/language - show or set language: /language <code|auto>
/status - current job and recent activity`

// handleCommand routes one slash command.
func (a *App) handleCommand(ctx context.Context, inbound chat.Inbound) {
	switch inbound.Command {
	case "start":
		a.send(ctx, inbound.ChatID, startText)
	case "help":
		a.send(ctx, inbound.ChatID, helpText)
	case "model":
		a.handleModel(ctx, inbound)
	case "language":
		a.handleLanguage(ctx, inbound)
	case "status":
		a.handleStatus(ctx, inbound)
	default:
		a.send(ctx, inbound.ChatID, "Unknown command. Try /help.")
	}
}

// handleModel lists the registry or switches and persists the selection.
func (a *App) handleModel(ctx context.Context, inbound chat.Inbound) {
	arg := strings.TrimSpace(inbound.CommandArgs)
	if arg == "" {
		a.send(ctx, inbound.ChatID, a.formatModelList())
		return
	}

	if err := a.registry.Select(arg); err != nil {
		a.send(ctx, inbound.ChatID, fmt.Sprintf("Unknown model %q. Send /model to see the list.", arg))
		return
	}

	if err := a.updateSettings(func(s *domain.Settings) { s.Model = arg }); err != nil {
		a.report(ctx, inbound.ChatID, err)
		return
	}
	a.send(ctx, inbound.ChatID, "Model switched to "+arg+". Jobs already running keep their model.")
}

// handleLanguage shows or persists the transcription language.
func (a *App) handleLanguage(ctx context.Context, inbound chat.Inbound) {
	arg := strings.TrimSpace(inbound.CommandArgs)
	if arg == "" {
		settings, err := a.store.Load()
		if err != nil {
			a.report(ctx, inbound.ChatID, err)
			return
		}
		a.send(ctx, inbound.ChatID, fmt.Sprintf("Language: %s. Switch with /language <code> or /language auto.", settings.Language))
		return
	}

	if err := a.updateSettings(func(s *domain.Settings) { s.Language = strings.ToLower(arg) }); err != nil {
		a.report(ctx, inbound.ChatID, err)
		return
	}
	a.send(ctx, inbound.ChatID, "Language set to "+strings.ToLower(arg)+".")
}

// handleStatus summarizes the current job, recent events, and diagnostics.
func (a *App) handleStatus(ctx context.Context, inbound chat.Inbound) {
	var b strings.Builder

	job := a.jobs.Current()
	if job.ID == "" {
		b.WriteString("No job yet.\n")
	} else {
		fmt.Fprintf(&b, "Job %s: %s (%s, model %s)\n", job.ID, job.Status, job.FileName, job.Model)
	}

	if tail := a.events.Tail(5); len(tail) > 0 {
		b.WriteString("\nRecent activity:\n")
		for _, event := range tail {
			fmt.Fprintf(&b, "- [%s] %s\n", event.Type, event.Message)
		}
	}

	failures := 0
	for _, item := range a.diagnostics.Items {
		if item.Status == domain.DiagnosticStatusFail {
			failures++
			fmt.Fprintf(&b, "\n⚠ %s: %s", item.Name, item.Message)
		}
	}
	if failures == 0 {
		b.WriteString("\nAll startup checks passed.")
	}

	a.send(ctx, inbound.ChatID, b.String())
}

// formatModelList renders the registry with the current selection marked.
func (a *App) formatModelList() string {
	var b strings.Builder
	b.WriteString("Models (switch with /model <id>):\n")
	currentID := a.registry.CurrentID()
	for _, info := range a.registry.List() {
		marker := "  "
		if info.ID == currentID {
			marker = "* "
		}
		b.WriteString(marker + info.ID)
		if info.Local {
			if info.SizeLabel != "" {
				b.WriteString(" (local, " + info.SizeLabel + ")")
			} else {
				b.WriteString(" (local)")
			}
			if !info.Ready {
				b.WriteString(" [downloads on first use]")
			}
		} else {
			b.WriteString(" (cloud)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// handleMedia admits, queues, and runs one transcription job end to end.
func (a *App) handleMedia(ctx context.Context, inbound chat.Inbound) {
	source := *inbound.Source

	if err := a.gate.AdmitSource(source); err != nil {
		var tooLarge *media.TooLargeError
		if errors.As(err, &tooLarge) {
			a.send(ctx, inbound.ChatID, fmt.Sprintf(
				"This file is %d MiB; I can only download attachments up to %d MiB. Send a link to the media instead.",
				tooLarge.Size>>20, tooLarge.Limit>>20))
			return
		}
		a.report(ctx, inbound.ChatID, err)
		return
	}

	// The model is pinned when the user sends the media, so a /model switch
	// while this job waits for the slot has no effect on it.
	modelID, factory, err := a.registry.Current()
	if err != nil {
		a.report(ctx, inbound.ChatID, err)
		return
	}

	settings, err := a.store.Load()
	if err != nil {
		a.report(ctx, inbound.ChatID, err)
		return
	}

	job := domain.Job{
		ID:       uuid.NewString(),
		ChatID:   inbound.ChatID,
		FileName: jobFileName(source),
		Model:    modelID,
	}

	err = a.jobs.RunExclusive(job, func() error {
		return a.runJob(ctx, job, source, factory, settings.Language)
	})
	if err != nil {
		var tooLarge *media.TooLargeError
		if errors.As(err, &tooLarge) {
			a.send(ctx, inbound.ChatID, fmt.Sprintf(
				"Even after compression the audio is %d MiB, over the %d MiB transcription limit.",
				tooLarge.Size>>20, tooLarge.Limit>>20))
			return
		}
		a.report(ctx, inbound.ChatID, err)
	}
}

// runJob is the job body executed inside the exclusive slot.
func (a *App) runJob(ctx context.Context, job domain.Job, source domain.Source, factory transcribe.Factory, language string) error {
	log := logging.NewLogger(ctx)
	a.publishStatus(job.ID, domain.JobStatusAcquiring, "Acquiring media: "+job.FileName)

	acq, err := a.acquirer.Acquire(ctx, media.Request{
		JobID:  job.ID,
		Source: source,
		OnLog:  a.commandLogger(job.ID),
	})
	if err != nil {
		return err
	}
	defer func() {
		if cleanupErr := acq.Cleanup(); cleanupErr != nil {
			log.Errorf("cleanup job %s workspace: %v", job.ID, cleanupErr)
			a.events.Publish(jobs.Event{
				JobID:   job.ID,
				Type:    jobs.EventTypeError,
				Message: fmt.Sprintf("cleanup temporary files: %v", cleanupErr),
			})
		}
	}()

	audioPath, err := a.gate.EnsureTranscribable(ctx, acq.AudioPath, a.commandLogger(job.ID))
	if err != nil {
		return err
	}

	if err := a.jobs.Transition(domain.JobStatusTranscribing); err == nil {
		a.publishStatus(job.ID, domain.JobStatusTranscribing, "Transcribing with "+job.Model)
	}

	engine, err := factory(ctx)
	if err != nil {
		return err
	}

	transcript, err := a.orchestrate(ctx, job, engine, audioPath, language)
	if err != nil {
		return err
	}

	if err := a.jobs.Transition(domain.JobStatusDelivering); err == nil {
		a.publishStatus(job.ID, domain.JobStatusDelivering, "Delivering transcript")
	}

	if err := a.deliverTranscript(ctx, job, transcript); err != nil {
		return err
	}

	a.events.Publish(jobs.Event{
		JobID:   job.ID,
		Type:    jobs.EventTypeResult,
		Status:  domain.JobStatusDone,
		Message: fmt.Sprintf("Transcript delivered (%d chars, %s)", len(transcript.Text), transcript.Elapsed.Round(time.Second)),
	})
	return nil
}

// commandLogger records external command completions on the event bus.
func (a *App) commandLogger(jobID string) func(media.CommandLog) {
	return func(log media.CommandLog) {
		a.events.Publish(jobs.Event{
			JobID:    jobID,
			Type:     jobs.EventTypeLog,
			Message:  "Command completed",
			Command:  log.Command,
			ExitCode: log.ExitCode,
			Stderr:   log.Stderr,
		})
	}
}

// publishStatus records one lifecycle moment on the event bus.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.events.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// send delivers a plain message, logging and swallowing transport failures.
func (a *App) send(ctx context.Context, chatID int64, text string) {
	if _, err := a.transport.Send(ctx, chatID, text, chat.SendOptions{}); err != nil {
		logging.NewLogger(ctx).Warnf("send to chat %d: %v", chatID, err)
	}
}

// updateSettings applies one mutation to the persisted settings.
func (a *App) updateSettings(mutate func(*domain.Settings)) error {
	settings, err := a.store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	mutate(&settings)
	if err := a.store.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// jobFileName derives the display filename for a source; URL sources use the
// last path segment of the link.
func jobFileName(source domain.Source) string {
	if source.FileName != "" {
		return source.FileName
	}
	if source.Kind == domain.SourceURL {
		if parsed, err := url.Parse(source.URL); err == nil {
			if segment := path.Base(parsed.Path); segment != "" && segment != "/" && segment != "." {
				return segment
			}
			return parsed.Host
		}
		return source.URL
	}
	return "media"
}
