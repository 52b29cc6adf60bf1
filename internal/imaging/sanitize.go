package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
)

// Sanitize fully decodes an untrusted JPEG/PNG payload and re-encodes the
// pixel data as a fresh PNG. Only pixels survive the round trip: EXIF,
// ancillary chunks and anything else riding in the original container is
// discarded. Returns ErrInvalidFile when the bytes do not decode as a raster
// image.
func Sanitize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", appErr.ErrInvalidFile, err)
	}
	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
