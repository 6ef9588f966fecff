// internal/models/video.go
package models

// VideoSession is the ingestion result required before any video query.
// A new ingestion replaces the session wholesale, never merges.
type VideoSession struct {
	VideoID      string `json:"video_id"`
	CanonicalURL string `json:"url"`
	ChunkCount   int    `json:"chunk_count"`
	Title        string `json:"title,omitempty"`
}
