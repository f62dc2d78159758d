package bootstrap

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"voicescribe/internal/chat"
	"voicescribe/internal/config"
	"voicescribe/internal/domain"
	"voicescribe/internal/jobs"
	"voicescribe/internal/media"
	"voicescribe/internal/transcribe"
)

type sentMessage struct {
	chatID int64
	text   string
	opts   chat.SendOptions
}

// fakeTransport records outbound traffic and hands out sequential message IDs.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   []string
	deleted []int
	nextID  int

	sendErr error
	editErr error
}

func (f *fakeTransport) Send(ctx context.Context, chatID int64, text string, opts chat.SendOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, opts: opts})
	return f.nextID, nil
}

func (f *fakeTransport) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeTransport) Delete(ctx context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) Download(ctx context.Context, fileID, destPath string) error {
	return nil
}

func (f *fakeTransport) RegisterCommands(ctx context.Context, commands []chat.Command) error {
	return nil
}

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// fakeAcquirer returns a fixed acquisition without touching the filesystem.
type fakeAcquirer struct {
	audioPath string
	err       error
	calls     int
}

func (f *fakeAcquirer) Acquire(ctx context.Context, req media.Request) (*media.Acquisition, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &media.Acquisition{AudioPath: f.audioPath}, nil
}

// fakeGate passes everything through unless told otherwise.
type fakeGate struct {
	admitErr  error
	ensureErr error
}

func (f *fakeGate) AdmitSource(source domain.Source) error {
	return f.admitErr
}

func (f *fakeGate) EnsureTranscribable(ctx context.Context, audioPath string, onLog func(media.CommandLog)) (string, error) {
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	return audioPath, nil
}

// scriptedEngine replays a fixed event sequence.
type scriptedEngine struct {
	partials []string
	final    *transcribe.Transcript
	err      error
}

func (s *scriptedEngine) Transcribe(ctx context.Context, req transcribe.Request) error {
	for _, text := range s.partials {
		if req.OnEvent != nil {
			req.OnEvent(transcribe.Event{Kind: transcribe.EventPartial, Text: text})
		}
	}
	if s.err != nil {
		return s.err
	}
	if s.final != nil && req.OnEvent != nil {
		req.OnEvent(transcribe.Event{Kind: transcribe.EventFinal, Transcript: s.final})
	}
	return nil
}

func engineFactory(engine transcribe.Transcriber) transcribe.Factory {
	return func(ctx context.Context) (transcribe.Transcriber, error) {
		return engine, nil
	}
}

// newTestApp builds an app with fakes and one registered model.
func newTestApp(t *testing.T, transport chat.Transport, engine transcribe.Transcriber) *App {
	t.Helper()

	registry := transcribe.NewRegistry()
	registry.Register(transcribe.ModelInfo{ID: "base", Name: "Base", Local: true, Ready: true}, engineFactory(engine))

	return &App{
		store:     config.NewJSONStore(filepath.Join(t.TempDir(), "settings.json")),
		transport: transport,
		jobs:      jobs.NewManager(),
		events:    jobs.NewEventBus(100),
		registry:  registry,
		acquirer:  &fakeAcquirer{audioPath: "/tmp/audio.ogg"},
		gate:      &fakeGate{},
		allowed:   map[string]struct{}{"alice": {}},
	}
}
