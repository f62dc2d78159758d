package transcribe

import (
	"context"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// OpenAI transcribes audio through the OpenAI audio transcriptions API.
// The API returns the full transcript in one response, so the run emits a
// single coarse partial while the upload is in flight.
type OpenAI struct {
	client  openai.Client
	modelID string
}

// NewOpenAI constructs a cloud engine for one OpenAI transcription model.
func NewOpenAI(apiKey, modelID string) *OpenAI {
	return &OpenAI{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		modelID: modelID,
	}
}

// Transcribe uploads the audio file and emits the transcript as final.
func (o *OpenAI) Transcribe(ctx context.Context, req Request) error {
	start := time.Now()
	emitPartial(req, "uploading audio to "+o.modelID+"...")

	file, err := os.Open(req.AudioPath)
	if err != nil {
		return &EngineError{ModelID: o.modelID, Message: "open audio file", Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(o.modelID),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if lang := normalizeLanguage(req.Language); lang != "" {
		params.Language = param.NewOpt(lang)
	}

	response, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return &EngineError{ModelID: o.modelID, Message: "audio transcription request failed", Err: err}
	}
	if response == nil {
		return &EngineError{ModelID: o.modelID, Message: "audio transcriptions API returned nil response"}
	}

	emitFinal(req, &Transcript{
		Text:     strings.TrimSpace(response.Text),
		Language: req.Language,
		ModelID:  o.modelID,
		Elapsed:  time.Since(start),
	})
	return nil
}
