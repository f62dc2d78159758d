package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"voicescribe/internal/chat"
	"voicescribe/internal/domain"
	"voicescribe/internal/transcribe"
)

// maxMessageRunes is the chat transport's per-message text ceiling.
const maxMessageRunes = 4095

// deliverTranscript sends the transcript in order as plain chunks, then the
// summary label as a reply to the first chunk. An empty transcript produces
// only a labeled notice so the user still gets closure.
func (a *App) deliverTranscript(ctx context.Context, job domain.Job, transcript *transcribe.Transcript) error {
	label := resultLabel(job.Model, job.FileName)

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		_, err := a.transport.Send(ctx, job.ChatID, label+" (empty transcript)", chat.SendOptions{})
		return err
	}

	firstID := 0
	for i, chunk := range chunkText(text, maxMessageRunes) {
		id, err := a.transport.Send(ctx, job.ChatID, chunk, chat.SendOptions{})
		if err != nil {
			return fmt.Errorf("send transcript chunk %d: %w", i+1, err)
		}
		if i == 0 {
			firstID = id
		}
	}

	if _, err := a.transport.Send(ctx, job.ChatID, label, chat.SendOptions{ReplyTo: firstID}); err != nil {
		return fmt.Errorf("send result label: %w", err)
	}
	return nil
}

// resultLabel builds the `#result #<model> <filename>` summary line.
func resultLabel(modelID, fileName string) string {
	return "#result #" + hashtagSafe(modelID) + " " + fileName
}

// hashtagSafe rewrites a model ID so the whole tag stays clickable; hashtags
// break on anything outside letters, digits, and underscores.
func hashtagSafe(modelID string) string {
	var b strings.Builder
	for _, r := range modelID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// chunkText splits text into rune-bounded chunks, never bytes, so multibyte
// characters cannot be cut in half.
func chunkText(text string, limit int) []string {
	if limit <= 0 || text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
