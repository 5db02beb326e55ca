package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/window"
	"golang.org/x/image/draw"
)

// settleDelay gives the window manager time to repaint a raised window.
const settleDelay = 200 * time.Millisecond

// X11Backend captures windows on a native X11 display.
type X11Backend struct {
	lister  *window.X11Lister
	quality int
	sleeper func(context.Context, time.Duration) error

	mu sync.Mutex
}

// NewX11Backend shares the lister's connection. quality applies to jpg.
func NewX11Backend(lister *window.X11Lister, quality int) *X11Backend {
	return &X11Backend{
		lister:  lister,
		quality: quality,
		sleeper: defaultSleeper,
	}
}

// Name returns the backend name
func (c *X11Backend) Name() string {
	return "x11"
}

// CaptureWindow implements Backend
func (c *X11Backend) CaptureWindow(ctx context.Context, title string, opts Options) ([]byte, error) {
	log := logger.WithComponent("x11-capturer")

	windows, err := c.lister.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := window.FindByTitle(windows, title, true)
	if err != nil {
		rec, err = window.FindByTitle(windows, title, false)
		if err != nil {
			return nil, err
		}
	}

	if err := c.lister.Activate(rec.Handle); err != nil {
		log.Warn().Err(err).Str("handle", rec.Handle).Msg("Failed to activate window, capturing anyway")
	}
	if err := c.sleeper(ctx, settleDelay); err != nil {
		return nil, err
	}

	bounds, err := c.lister.Bounds(rec.Handle)
	if err != nil {
		return nil, err
	}
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("invalid window dimensions: %d x %d", bounds.Dx(), bounds.Dy())
	}

	log.Debug().
		Str("handle", rec.Handle).
		Str("title", rec.Title).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("Capturing window")

	img, err := c.captureRegion(bounds)
	if err != nil {
		return nil, err
	}
	return encode(img, opts.Format, c.quality)
}

// CaptureScreen implements Backend
func (c *X11Backend) CaptureScreen(ctx context.Context, opts Options) ([]byte, error) {
	screen := c.lister.Screen()
	img, err := c.captureRegion(image.Rect(0, 0, int(screen.WidthInPixels), int(screen.HeightInPixels)))
	if err != nil {
		return nil, err
	}
	return encode(img, opts.Format, c.quality)
}

// captureRegion grabs the root window and crops it to region, clipped to the
// screen.
func (c *X11Backend) captureRegion(region image.Rectangle) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	screen := c.lister.Screen()
	full := image.Rect(0, 0, int(screen.WidthInPixels), int(screen.HeightInPixels))
	region = region.Intersect(full)
	if region.Empty() {
		return nil, fmt.Errorf("window is outside the visible screen")
	}

	reply, err := xproto.GetImage(
		c.lister.Conn(),
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.lister.Root()),
		0, 0,
		uint16(full.Dx()), uint16(full.Dy()),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	src := convertBGRA(reply.Data, full.Dx(), full.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Copy(dst, image.Point{}, src, region, draw.Src, nil)
	return dst, nil
}

// convertBGRA converts 24/32-bit ZPixmap data to RGBA
func convertBGRA(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i+3 < len(data) && i < len(img.Pix); i += 4 {
		img.Pix[i] = data[i+2]
		img.Pix[i+1] = data[i+1]
		img.Pix[i+2] = data[i]
		img.Pix[i+3] = 255
	}
	return img
}

func encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == JPG {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
