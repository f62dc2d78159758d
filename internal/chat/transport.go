package chat

import (
	"context"

	"voicescribe/internal/domain"
)

// SendOptions controls formatting and threading of an outbound message.
type SendOptions struct {
	ReplyTo int // message ID to reply to; zero means no reply
	HTML    bool
}

// Command is one slash command advertised to the chat client.
type Command struct {
	Name        string
	Description string
}

// Inbound is one normalized incoming update. Either Command or Source is set
// for actionable updates; plain unrecognized text leaves both empty.
type Inbound struct {
	ChatID      int64
	MessageID   int
	Username    string
	Text        string
	Command     string
	CommandArgs string
	Source      *domain.Source
}

// Transport abstracts the chat service so handlers and tests never touch the
// bot API client directly.
type Transport interface {
	// Send delivers a message and returns its message ID.
	Send(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
	// Edit replaces the text of a previously sent message.
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
	// Delete removes a previously sent message.
	Delete(ctx context.Context, chatID int64, messageID int) error
	// Download fetches a chat attachment into a local file.
	Download(ctx context.Context, fileID, destPath string) error
	// RegisterCommands publishes the command menu.
	RegisterCommands(ctx context.Context, commands []Command) error
}
