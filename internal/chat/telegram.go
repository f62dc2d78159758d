package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"voicescribe/internal/domain"
)

// Attachments carry no usable original name, so downstream naming uses these.
const (
	voiceFileName     = "voice_message.ogg"
	videoNoteFileName = "video_note.mp4"
)

// Telegram adapts the Telegram Bot API to the Transport interface.
type Telegram struct {
	bot   *tgbotapi.BotAPI
	token string
}

// NewTelegram connects to the Telegram Bot API.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return &Telegram{bot: bot, token: token}, nil
}

// BotUsername returns the authenticated bot account name.
func (t *Telegram) BotUsername() string {
	return t.bot.Self.UserName
}

// Send delivers one message, optionally HTML-formatted or as a reply.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if opts.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if opts.ReplyTo != 0 {
		msg.ReplyToMessageID = opts.ReplyTo
	}
	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// Edit replaces the text of a previously sent message.
func (t *Telegram) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := t.bot.Send(edit); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}
	return nil
}

// Delete removes a previously sent message.
func (t *Telegram) Delete(ctx context.Context, chatID int64, messageID int) error {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

// Download fetches a chat attachment into destPath via the bot file API.
func (t *Telegram) Download(ctx context.Context, fileID, destPath string) error {
	file, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(t.token), nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file %s: unexpected HTTP status %s", fileID, resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(destPath)
		return fmt.Errorf("close %s: %w", destPath, closeErr)
	}
	return nil
}

// RegisterCommands publishes the bot command menu.
func (t *Telegram) RegisterCommands(ctx context.Context, commands []Command) error {
	botCommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		botCommands = append(botCommands, tgbotapi.BotCommand{
			Command:     c.Name,
			Description: c.Description,
		})
	}
	if _, err := t.bot.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

// Updates converts the long-poll update stream into normalized Inbound
// values. The channel closes when ctx is cancelled.
func (t *Telegram) Updates(ctx context.Context) <-chan Inbound {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.bot.GetUpdatesChan(cfg)

	out := make(chan Inbound)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				inbound, actionable := classifyUpdate(update)
				if !actionable {
					continue
				}
				select {
				case out <- inbound:
				case <-ctx.Done():
					t.bot.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}

// classifyUpdate maps one raw update to an Inbound, reporting whether it
// carries anything worth handling.
func classifyUpdate(update tgbotapi.Update) (Inbound, bool) {
	msg := update.Message
	if msg == nil {
		return Inbound{}, false
	}

	inbound := Inbound{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if msg.From != nil {
		inbound.Username = msg.From.UserName
	}

	if msg.IsCommand() {
		inbound.Command = msg.Command()
		inbound.CommandArgs = msg.CommandArguments()
		return inbound, true
	}

	if source, ok := classifyMedia(msg); ok {
		inbound.Source = &source
		return inbound, true
	}

	if url, ok := extractURL(msg.Text); ok {
		inbound.Source = &domain.Source{Kind: domain.SourceURL, URL: url}
		return inbound, true
	}

	return inbound, false
}

// classifyMedia extracts a downloadable media source from one message.
func classifyMedia(msg *tgbotapi.Message) (domain.Source, bool) {
	switch {
	case msg.Voice != nil:
		return domain.Source{
			Kind:     domain.SourceVoice,
			FileID:   msg.Voice.FileID,
			FileName: voiceFileName,
			Size:     int64(msg.Voice.FileSize),
		}, true
	case msg.VideoNote != nil:
		return domain.Source{
			Kind:     domain.SourceVideoNote,
			FileID:   msg.VideoNote.FileID,
			FileName: videoNoteFileName,
			Size:     int64(msg.VideoNote.FileSize),
		}, true
	case msg.Audio != nil:
		name := msg.Audio.FileName
		if name == "" {
			name = "audio.mp3"
		}
		return domain.Source{
			Kind:     domain.SourceAudio,
			FileID:   msg.Audio.FileID,
			FileName: name,
			Size:     int64(msg.Audio.FileSize),
		}, true
	case msg.Document != nil && isMediaDocument(msg.Document.MimeType, msg.Document.FileName):
		return domain.Source{
			Kind:     domain.SourceAudio,
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			Size:     int64(msg.Document.FileSize),
		}, true
	}
	return domain.Source{}, false
}

// isMediaDocument reports whether a generic document attachment is audio or
// video sent without Telegram's media typing.
func isMediaDocument(mimeType, fileName string) bool {
	if strings.HasPrefix(mimeType, "audio/") || strings.HasPrefix(mimeType, "video/") {
		return true
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "ogg", "oga", "opus", "mp3", "wav", "m4a", "aac", "flac", "mp4", "mov", "mkv", "webm", "avi":
		return true
	}
	return false
}

// extractURL accepts messages that consist of a single http(s) link.
func extractURL(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") {
		return "", false
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, true
	}
	return "", false
}
