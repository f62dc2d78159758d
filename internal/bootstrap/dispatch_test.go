package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"voicescribe/internal/domain"
	"voicescribe/internal/transcribe"
)

// TestChunkTextRuneBoundaries checks that chunking counts runes, not bytes.
func TestChunkTextRuneBoundaries(t *testing.T) {
	text := strings.Repeat("ж", 10)
	chunks := chunkText(text, 4)

	require.Len(t, chunks, 3)
	require.Equal(t, "жжжж", chunks[0])
	require.Equal(t, "жжжж", chunks[1])
	require.Equal(t, "жж", chunks[2])
	require.Equal(t, text, strings.Join(chunks, ""))
}

// TestChunkTextShortInput checks the single-chunk case.
func TestChunkTextShortInput(t *testing.T) {
	chunks := chunkText("hello", maxMessageRunes)
	require.Equal(t, []string{"hello"}, chunks)
	require.Nil(t, chunkText("", maxMessageRunes))
}

// TestResultLabel checks hashtag sanitization for model IDs.
func TestResultLabel(t *testing.T) {
	require.Equal(t, "#result #base voice_message.ogg", resultLabel("base", "voice_message.ogg"))
	require.Equal(t, "#result #large_v3_turbo talk.mp3", resultLabel("large-v3-turbo", "talk.mp3"))
	require.Equal(t, "#result #gpt_4o_transcribe a.ogg", resultLabel("gpt-4o-transcribe", "a.ogg"))
}

// TestDeliverTranscriptChunksAndLabel checks chunk order and the label reply.
func TestDeliverTranscriptChunksAndLabel(t *testing.T) {
	transport := &fakeTransport{}
	app := newTestApp(t, transport, nil)
	job := domain.Job{ID: "j1", ChatID: 10, FileName: "talk.mp3", Model: "base"}

	text := strings.Repeat("a", maxMessageRunes) + strings.Repeat("b", 100)
	err := app.deliverTranscript(context.Background(), job, &transcribe.Transcript{Text: text})
	require.NoError(t, err)

	sent := transport.messages()
	require.Len(t, sent, 3)

	require.Len(t, []rune(sent[0].text), maxMessageRunes)
	require.True(t, strings.HasPrefix(sent[0].text, "a"))
	require.Equal(t, strings.Repeat("b", 100), sent[1].text)

	require.Equal(t, "#result #base talk.mp3", sent[2].text)
	require.Equal(t, 1, sent[2].opts.ReplyTo, "label must reply to the first chunk")
	require.Zero(t, sent[0].opts.ReplyTo)
	require.Zero(t, sent[1].opts.ReplyTo)
}

// TestDeliverTranscriptEmpty checks the labeled notice for empty output.
func TestDeliverTranscriptEmpty(t *testing.T) {
	transport := &fakeTransport{}
	app := newTestApp(t, transport, nil)
	job := domain.Job{ID: "j1", ChatID: 10, FileName: "quiet.ogg", Model: "base"}

	err := app.deliverTranscript(context.Background(), job, &transcribe.Transcript{Text: "   \n"})
	require.NoError(t, err)

	sent := transport.messages()
	require.Len(t, sent, 1)
	require.Equal(t, "#result #base quiet.ogg (empty transcript)", sent[0].text)
	require.Zero(t, sent[0].opts.ReplyTo)
}
