package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/genai"
)

const geminiTranscriptionPrompt = "Transcribe this audio accurately. Return only the transcript text."

// Gemini transcribes audio by sending it inline to a Gemini model with a
// transcription prompt. Like the OpenAI engine it emits one coarse partial.
type Gemini struct {
	apiKey  string
	modelID string
}

// NewGemini constructs a cloud engine for one Gemini model.
func NewGemini(apiKey, modelID string) *Gemini {
	return &Gemini{
		apiKey:  apiKey,
		modelID: modelID,
	}
}

// Transcribe sends the audio bytes to Gemini and emits the reply as final.
func (g *Gemini) Transcribe(ctx context.Context, req Request) error {
	start := time.Now()
	emitPartial(req, "uploading audio to "+g.modelID+"...")

	audioBytes, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return &EngineError{ModelID: g.modelID, Message: "read audio file", Err: err}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &EngineError{ModelID: g.modelID, Message: "create gemini client", Err: err}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(geminiTranscriptionPrompt),
				genai.NewPartFromBytes(audioBytes, audioMIMEType(req.AudioPath)),
			},
			genai.RoleUser,
		),
	}

	response, err := client.Models.GenerateContent(ctx, g.modelID, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return &EngineError{ModelID: g.modelID, Message: "transcription request failed", Err: err}
	}

	emitFinal(req, &Transcript{
		Text:     strings.TrimSpace(response.Text()),
		Language: req.Language,
		ModelID:  g.modelID,
		Elapsed:  time.Since(start),
	})
	return nil
}

// audioMIMEType maps the audio file extension to a MIME type Gemini accepts.
func audioMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg", ".oga", ".opus":
		return "audio/ogg"
	case ".mp3":
		return "audio/mp3"
	case ".wav":
		return "audio/wav"
	case ".m4a", ".aac":
		return "audio/aac"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/ogg"
	}
}
