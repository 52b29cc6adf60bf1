package pdf

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"

	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
)

// DefaultScale is the render scale relative to the page's native size.
const DefaultScale = 1.5

// baseDPI is the PDF native resolution; MuPDF scales renders by dpi/72.
const baseDPI = 72.0

// Rasterizer renders PDF pages to PNG buffers at a fixed scale.
type Rasterizer struct {
	scale float64
}

func NewRasterizer(scale float64) *Rasterizer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Rasterizer{scale: scale}
}

// RenderPages opens the document and calls fn once per page, in strictly
// increasing page order (1-based), with that page rendered as PNG. The first
// error from rendering or from fn stops the walk. The document handle and all
// page surfaces are released before returning. Each call re-renders from the
// original bytes; nothing is cached between calls.
//
// Returns ErrInvalidFile when the bytes do not parse as a PDF.
func (r *Rasterizer) RenderPages(data []byte, fn func(page int, img []byte) error) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("%w: open pdf: %v", appErr.ErrInvalidFile, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return 0, fmt.Errorf("%w: pdf has no pages", appErr.ErrInvalidFile)
	}
	dpi := baseDPI * r.scale
	for i := 0; i < total; i++ {
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return total, fmt.Errorf("render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return total, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		if err := fn(i+1, buf.Bytes()); err != nil {
			return total, err
		}
	}
	return total, nil
}

// ExtractText pulls the text layer of every page and concatenates it with
// all whitespace runs collapsed to single spaces. A document with no text
// layer yields an empty string, not an error; only an unopenable document
// fails.
func ExtractText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", appErr.ErrInvalidFile, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			continue
		}
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(pageText)
	}
	return strings.Join(strings.Fields(sb.String()), " "), nil
}
