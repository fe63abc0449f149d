package domain

import "time"

// Processing status values stored in responses.processing_status
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Record kind eligible for transcription
const KindVideo = "video"

// Keys inside the response data document
const (
	DataKeyType        = "type"
	DataKeyVideoURL    = "video_url"
	DataKeyVideoBase64 = "video_base64"

	DataKeyTranscript         = "transcript"
	DataKeyTimedTranscript    = "timestamped_transcript"
	DataKeyTranscriptionMeth  = "transcription_method"
	DataKeyTranscribedAt      = "transcribed_at"
	DataKeyTranscriptionError = "transcription_error"
	DataKeyFailedAt           = "failed_at"
)

// Transcription method tags written to the data document
const (
	MethodWhisper      = "openai_whisper"
	MethodMockFallback = "mock_fallback"
)

// RecordData is the opaque structured payload of a response record.
// Output fields are merged into it once processing finishes.
type RecordData map[string]any

// Record is one video response awaiting transcription. It is owned by the
// record store; the worker only holds it for the duration of one attempt.
type Record struct {
	ID               string     `db:"id"`
	Data             RecordData `db:"-"`
	ProcessingStatus *string    `db:"processing_status"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// Status returns the record's processing status. A NULL column is reported
// as pending: webhook-triggered records may predate the status migration.
func (r *Record) Status() string {
	if r.ProcessingStatus == nil {
		return StatusPending
	}
	return *r.ProcessingStatus
}

// IsVideo reports whether the record is a video response.
func (r *Record) IsVideo() bool {
	kind, _ := r.Data[DataKeyType].(string)
	return kind == KindVideo
}

// VideoURL returns the fetchable media reference, if any.
func (r *Record) VideoURL() string {
	url, _ := r.Data[DataKeyVideoURL].(string)
	return url
}

// VideoBase64 returns the embedded encoded media, if any.
func (r *Record) VideoBase64() string {
	enc, _ := r.Data[DataKeyVideoBase64].(string)
	return enc
}
