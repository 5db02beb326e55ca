package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bryanchriswhite/godotshot/internal/logger"
)

// Service runs captures through a backend, spaced by a throttle.
type Service struct {
	backend  Backend
	throttle *Throttle
	defaults Options
}

// NewService creates a capture service. defaults fill in unset Options.
func NewService(backend Backend, throttle *Throttle, defaults Options) *Service {
	if throttle == nil {
		throttle = NewThrottle(MinInterval, nil, nil)
	}
	if defaults.Format == "" {
		defaults.Format = PNG
	}
	return &Service{
		backend:  backend,
		throttle: throttle,
		defaults: defaults,
	}
}

// Backend returns the backend in use.
func (s *Service) Backend() Backend {
	return s.backend
}

// CaptureWindow screenshots the window whose title matches title.
func (s *Service) CaptureWindow(ctx context.Context, title string, opts Options) (*Result, error) {
	opts = s.merge(opts)
	if err := s.throttle.Wait(ctx); err != nil {
		return nil, &Error{Title: title, Err: err}
	}

	logger.WithComponent("capture").Info().
		Str("title", title).
		Str("format", string(opts.Format)).
		Str("backend", s.backend.Name()).
		Msg("Capturing window")

	data, err := s.backend.CaptureWindow(ctx, title, opts)
	if err != nil {
		return nil, &Error{Title: title, Err: err}
	}
	return newResult(data, opts.Format), nil
}

// CaptureScreen screenshots the primary display.
func (s *Service) CaptureScreen(ctx context.Context, opts Options) (*Result, error) {
	opts = s.merge(opts)
	if err := s.throttle.Wait(ctx); err != nil {
		return nil, &Error{Err: err}
	}

	logger.WithComponent("capture").Info().
		Str("format", string(opts.Format)).
		Str("backend", s.backend.Name()).
		Msg("Capturing screen")

	data, err := s.backend.CaptureScreen(ctx, opts)
	if err != nil {
		return nil, &Error{Err: err}
	}
	return newResult(data, opts.Format), nil
}

func (s *Service) merge(opts Options) Options {
	if opts.Format == "" {
		opts.Format = s.defaults.Format
	}
	if opts.AlternateTool == nil {
		opts.AlternateTool = s.defaults.AlternateTool
	}
	return opts
}

func newResult(data []byte, format Format) *Result {
	res := &Result{
		Base64: base64.StdEncoding.EncodeToString(data),
		Format: format,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		res.Width = cfg.Width
		res.Height = cfg.Height
	}
	return res
}

// Decode returns the raw image bytes of a result.
func (r *Result) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.Base64)
}
