package domain

import "time"

// MediaKind classifies what kind of media a catalog record holds.
type MediaKind string

const (
	MediaDocument MediaKind = "document"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
)

// ContentRecord is one indexed media item available for retrieval.
//
// Ref is a short, stable reference assigned at ingestion and safe to embed
// in buttons and links. FileID is the platform-assigned key used to re-send
// the content; it is unique but too long for link payloads.
type ContentRecord struct {
	Ref       string    `bson:"_id"`
	FileID    string    `bson:"file_id"`
	Name      string    `bson:"file_name"`
	Size      int64     `bson:"file_size"`
	Kind      MediaKind `bson:"kind"`
	MimeType  string    `bson:"mime_type,omitempty"`
	Caption   string    `bson:"caption,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}
