package model

import "time"

// Circular is a published document record. FileURLs holds one entry per
// rendered PDF page (in page order) or exactly one entry for images; the
// order is fixed at creation and never changes.
type Circular struct {
	ID          int64     `json:"id"`
	Headline    string    `json:"headline"`
	FileURLs    []string  `json:"file_urls"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	// HasEmbedding reports whether the async embedding step has completed.
	// A circular is valid and visible without it.
	HasEmbedding bool `json:"has_embedding"`
}
