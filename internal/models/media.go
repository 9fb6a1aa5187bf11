package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Media kinds, derived from the detected MIME type on upload.
const (
	MediaImage    = "image"
	MediaAudio    = "audio"
	MediaVideo    = "video"
	MediaDocument = "document"
)

// Media processing status. Uploads start pending and are moved through
// processing/completed by the critique worker.
const (
	MediaPending    = "pending"
	MediaProcessing = "processing"
	MediaCompleted  = "completed"
	MediaFailed     = "failed"
)

type MediaFile struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Kind         string          `json:"kind"`   // "image" | "audio" | "video" | "document"
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	FilePath     string          `json:"file_path"`
	OriginalName string          `json:"original_name"`
	MimeType     string          `json:"mime_type"`
	SizeBytes    int64           `json:"size_bytes"`
	Title        string          `json:"title"`
	MetadataJSON json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MediaKindForMime maps a detected MIME type onto a MediaFile kind.
// Anything textual or office-like counts as a document.
func MediaKindForMime(mime string) string {
	switch {
	case len(mime) >= 6 && mime[:6] == "image/":
		return MediaImage
	case len(mime) >= 6 && mime[:6] == "audio/":
		return MediaAudio
	case len(mime) >= 6 && mime[:6] == "video/":
		return MediaVideo
	default:
		return MediaDocument
	}
}
