package bootstrap

import (
	"context"
	"html"
	"runtime/debug"

	"voicescribe/internal/chat"
	"voicescribe/internal/jobs"
	"voicescribe/internal/logging"
)

// stackChunkRunes leaves headroom under the message ceiling for HTML escaping
// and the surrounding pre/code tags.
const stackChunkRunes = 3500

// report sends the failure and the reporting goroutine's stack trace to the
// chat, HTML-escaped inside code blocks. Send failures here are logged and
// swallowed; error reporting must never raise.
func (a *App) report(ctx context.Context, chatID int64, err error) {
	log := logging.NewLogger(ctx)
	log.Errorf("reporting failure to chat %d: %v", chatID, err)

	a.events.Publish(jobs.Event{
		Type:    jobs.EventTypeError,
		Message: err.Error(),
	})

	header := "⚠️ <pre><code>" + html.EscapeString(err.Error()) + "</code></pre>"
	if _, sendErr := a.transport.Send(ctx, chatID, header, chat.SendOptions{HTML: true}); sendErr != nil {
		log.Warnf("send error report: %v", sendErr)
	}

	for _, chunk := range chunkText(string(debug.Stack()), stackChunkRunes) {
		body := "<pre><code>" + html.EscapeString(chunk) + "</code></pre>"
		if _, sendErr := a.transport.Send(ctx, chatID, body, chat.SendOptions{HTML: true}); sendErr != nil {
			log.Warnf("send stack trace chunk: %v", sendErr)
		}
	}
}
