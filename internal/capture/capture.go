// Package capture takes screenshots of host windows and the primary display.
package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/godotshot/internal/script"
)

// Format is an output image encoding.
type Format string

const (
	PNG Format = "png"
	JPG Format = "jpg"
)

// ParseFormat accepts png, jpg and jpeg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (want png or jpg)", s)
	}
}

// MimeType returns the media type reported to clients.
func (f Format) MimeType() string {
	if f == JPG {
		return "image/jpeg"
	}
	return "image/png"
}

// Extension is the file extension used for temp images.
func (f Format) Extension() string {
	if f == JPG {
		return "jpg"
	}
	return "png"
}

func (f Format) script() script.ImageFormat {
	if f == JPG {
		return script.JPG
	}
	return script.PNG
}

// Options tune a single capture. Zero values take the service defaults.
type Options struct {
	Format        Format
	AlternateTool *bool
}

func (o Options) alternate() bool {
	return o.AlternateTool != nil && *o.AlternateTool
}

// Result is an encoded screenshot. Width and Height are read from the image
// header and are zero when it could not be decoded.
type Result struct {
	Base64 string `json:"base64"`
	Format Format `json:"format"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// MimeType of the encoded image.
func (r *Result) MimeType() string {
	return r.Format.MimeType()
}

// Backend produces raw encoded image bytes.
type Backend interface {
	// CaptureWindow raises the window titled title (exact match first, then
	// substring) and grabs its rectangle.
	CaptureWindow(ctx context.Context, title string, opts Options) ([]byte, error)

	// CaptureScreen grabs the primary display.
	CaptureScreen(ctx context.Context, opts Options) ([]byte, error)

	// Name returns a human-readable name for this backend
	Name() string
}
