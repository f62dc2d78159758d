package bootstrap

import (
	"context"

	"voicescribe/internal/chat"
	"voicescribe/internal/domain"
	"voicescribe/internal/logging"
	"voicescribe/internal/transcribe"
)

// orchestrate runs one engine while mirroring its progress into a single
// status message. Partials replace the message text in place; the message is
// deleted once the run ends, successful or not. Edit and delete failures are
// logged and swallowed so a flaky transport cannot abort a good run.
func (a *App) orchestrate(ctx context.Context, job domain.Job, engine transcribe.Transcriber, audioPath, language string) (*transcribe.Transcript, error) {
	log := logging.NewLogger(ctx)

	statusID, err := a.transport.Send(ctx, job.ChatID, "Transcribing "+job.FileName+" with "+job.Model+"...", chat.SendOptions{})
	if err != nil {
		return nil, err
	}

	var final *transcribe.Transcript
	runErr := engine.Transcribe(ctx, transcribe.Request{
		AudioPath: audioPath,
		Language:  language,
		OnEvent: func(event transcribe.Event) {
			switch event.Kind {
			case transcribe.EventPartial:
				if editErr := a.transport.Edit(ctx, job.ChatID, statusID, event.Text); editErr != nil {
					log.Warnf("edit status message for job %s: %v", job.ID, editErr)
				}
			case transcribe.EventFinal:
				final = event.Transcript
			}
		},
	})

	if delErr := a.transport.Delete(ctx, job.ChatID, statusID); delErr != nil {
		log.Warnf("delete status message for job %s: %v", job.ID, delErr)
	}

	if runErr != nil {
		return nil, runErr
	}
	if final == nil {
		return nil, &transcribe.EngineError{
			ModelID: job.Model,
			Message: "engine finished without a final transcript",
		}
	}
	return final, nil
}
