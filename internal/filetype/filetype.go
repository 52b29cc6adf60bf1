package filetype

import "github.com/gabriel-vasile/mimetype"

// Kind is a content type inferred from byte signatures. Caller-supplied
// filenames and declared content types are never consulted; this is the
// security boundary against disguised-extension uploads.
type Kind string

const (
	KindPDF     Kind = "application/pdf"
	KindJPEG    Kind = "image/jpeg"
	KindPNG     Kind = "image/png"
	KindUnknown Kind = "unknown"
)

// Detect classifies raw bytes by magic number. Same bytes always yield the
// same Kind.
func Detect(data []byte) Kind {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return KindPDF
	case mt.Is("image/jpeg"):
		return KindJPEG
	case mt.Is("image/png"):
		return KindPNG
	default:
		return KindUnknown
	}
}

// IsImage reports whether the kind routes through the image sanitizer.
func IsImage(k Kind) bool {
	return k == KindJPEG || k == KindPNG
}
