package chat

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"voicescribe/internal/domain"
)

func messageUpdate(msg *tgbotapi.Message) tgbotapi.Update {
	msg.Chat = &tgbotapi.Chat{ID: 42}
	msg.MessageID = 7
	msg.From = &tgbotapi.User{UserName: "Alice"}
	return tgbotapi.Update{Message: msg}
}

// TestClassifyUpdateVoice checks the synthetic voice filename.
func TestClassifyUpdateVoice(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		Voice: &tgbotapi.Voice{FileID: "voice-1", FileSize: 1024},
	})

	inbound, ok := classifyUpdate(update)
	if !ok || inbound.Source == nil {
		t.Fatalf("voice message not classified: %+v", inbound)
	}
	if inbound.Source.Kind != domain.SourceVoice {
		t.Fatalf("Kind = %q, want voice", inbound.Source.Kind)
	}
	if inbound.Source.FileName != "voice_message.ogg" {
		t.Fatalf("FileName = %q, want voice_message.ogg", inbound.Source.FileName)
	}
	if inbound.Source.Size != 1024 {
		t.Fatalf("Size = %d, want 1024", inbound.Source.Size)
	}
	if inbound.ChatID != 42 || inbound.MessageID != 7 || inbound.Username != "Alice" {
		t.Fatalf("message metadata not carried: %+v", inbound)
	}
}

// TestClassifyUpdateVideoNote checks the synthetic video note filename.
func TestClassifyUpdateVideoNote(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		VideoNote: &tgbotapi.VideoNote{FileID: "note-1", FileSize: 2048},
	})

	inbound, ok := classifyUpdate(update)
	if !ok || inbound.Source == nil || inbound.Source.Kind != domain.SourceVideoNote {
		t.Fatalf("video note not classified: %+v", inbound)
	}
	if inbound.Source.FileName != "video_note.mp4" {
		t.Fatalf("FileName = %q, want video_note.mp4", inbound.Source.FileName)
	}
}

// TestClassifyUpdateAudio checks original filename preservation and fallback.
func TestClassifyUpdateAudio(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		Audio: &tgbotapi.Audio{FileID: "audio-1", FileSize: 4096, FileName: "lecture.mp3"},
	})
	inbound, ok := classifyUpdate(update)
	if !ok || inbound.Source == nil || inbound.Source.FileName != "lecture.mp3" {
		t.Fatalf("audio with filename not classified: %+v", inbound)
	}

	update = messageUpdate(&tgbotapi.Message{
		Audio: &tgbotapi.Audio{FileID: "audio-2", FileSize: 4096},
	})
	inbound, ok = classifyUpdate(update)
	if !ok || inbound.Source == nil || inbound.Source.FileName != "audio.mp3" {
		t.Fatalf("audio without filename should get a fallback name: %+v", inbound)
	}
}

// TestClassifyUpdateMediaDocument checks generic document attachments.
func TestClassifyUpdateMediaDocument(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		Document: &tgbotapi.Document{FileID: "doc-1", FileSize: 512, FileName: "meeting.m4a", MimeType: "audio/mp4"},
	})
	inbound, ok := classifyUpdate(update)
	if !ok || inbound.Source == nil || inbound.Source.Kind != domain.SourceAudio {
		t.Fatalf("audio document not classified: %+v", inbound)
	}

	update = messageUpdate(&tgbotapi.Message{
		Document: &tgbotapi.Document{FileID: "doc-2", FileSize: 512, FileName: "report.pdf", MimeType: "application/pdf"},
	})
	if _, ok := classifyUpdate(update); ok {
		t.Fatalf("non-media document should be ignored")
	}
}

// TestClassifyUpdateURL checks single-link text messages.
func TestClassifyUpdateURL(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{Text: "https://example.com/talk"})
	inbound, ok := classifyUpdate(update)
	if !ok || inbound.Source == nil || inbound.Source.Kind != domain.SourceURL {
		t.Fatalf("URL message not classified: %+v", inbound)
	}
	if inbound.Source.URL != "https://example.com/talk" {
		t.Fatalf("URL = %q", inbound.Source.URL)
	}

	for _, text := range []string{"hello there", "visit https://example.com now", "ftp://example.com"} {
		update = messageUpdate(&tgbotapi.Message{Text: text})
		if _, ok := classifyUpdate(update); ok {
			t.Errorf("text %q should not be actionable", text)
		}
	}
}

// TestClassifyUpdateCommand checks command extraction.
func TestClassifyUpdateCommand(t *testing.T) {
	update := messageUpdate(&tgbotapi.Message{
		Text:     "/model base",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	})

	inbound, ok := classifyUpdate(update)
	if !ok || inbound.Command != "model" || inbound.CommandArgs != "base" {
		t.Fatalf("command not classified: %+v", inbound)
	}
}

// TestClassifyUpdateNonMessage checks that other update kinds are dropped.
func TestClassifyUpdateNonMessage(t *testing.T) {
	if _, ok := classifyUpdate(tgbotapi.Update{}); ok {
		t.Fatalf("empty update should not be actionable")
	}
}
