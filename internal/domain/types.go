package domain

// JobStatus tracks each stage of a single transcription job.
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusAcquiring    JobStatus = "acquiring"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusDelivering   JobStatus = "delivering"
	JobStatusDone         JobStatus = "done"
	JobStatusFailed       JobStatus = "failed"
)

// SourceKind classifies one inbound media artifact.
type SourceKind string

const (
	SourceVoice     SourceKind = "voice"
	SourceVideoNote SourceKind = "video_note"
	SourceAudio     SourceKind = "audio"
	SourceURL       SourceKind = "url"
)

// Source describes one inbound media artifact before acquisition.
// Attachments carry a FileID and declared Size; URL sources carry URL only.
type Source struct {
	Kind     SourceKind
	FileID   string
	FileName string
	URL      string
	Size     int64
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	Model    string `json:"model"`
	Language string `json:"language"`
}

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID       string    `json:"id"`
	Status   JobStatus `json:"status"`
	ChatID   int64     `json:"chatId"`
	FileName string    `json:"fileName"`
	Model    string    `json:"model"`
}
