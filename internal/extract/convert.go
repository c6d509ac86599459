package extract

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PassthroughConverter hands the photo to the agent unchanged.
type PassthroughConverter struct{}

func (PassthroughConverter) Convert(_ context.Context, img Image) (Image, error) {
	return img, nil
}

// PDFConverter wraps a raster photo in a single-page A4 PDF, scaled to fit.
type PDFConverter struct{}

func (PDFConverter) Convert(ctx context.Context, img Image) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	imageType, err := fpdfImageType(img.MediaType)
	if err != nil {
		return Image{}, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader("photo", opts, bytes.NewReader(img.Data))
	if err := pdf.Error(); err != nil {
		return Image{}, fmt.Errorf("pdf: register image: %w", err)
	}

	pageW, pageH := pdf.GetPageSize()
	w, h := info.Width(), info.Height()
	scale := math.Min(pageW/w, pageH/h)
	pdf.ImageOptions("photo", 0, 0, w*scale, h*scale, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Image{}, fmt.Errorf("pdf: write: %w", err)
	}
	return Image{
		Name:      pdfName(img.Name),
		MediaType: "application/pdf",
		Data:      buf.Bytes(),
	}, nil
}

// NewConverter returns the converter for an ATTACHMENT_FORMAT value.
func NewConverter(format string) (Converter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "image":
		return PassthroughConverter{}, nil
	case "pdf":
		return PDFConverter{}, nil
	default:
		return nil, fmt.Errorf("unknown attachment format %q", format)
	}
}

func fpdfImageType(mediaType string) (string, error) {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return "JPG", nil
	case "image/png":
		return "PNG", nil
	case "image/gif":
		return "GIF", nil
	}
	return "", fmt.Errorf("pdf: unsupported image type %q", mediaType)
}

func pdfName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if name == "" {
		name = "image"
	}
	return name + ".pdf"
}
