// Package render turns entries into code images and scan logs into chart
// series.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/corp-qr-hub/internal/config"
	"github.com/corp-qr-hub/internal/domain/entry"
)

var (
	ErrEmptyText          = errors.New("nothing to encode")
	errUnsupportedLogoURL = errors.New("logo must be an inline data URL")
)

type Renderer struct {
	logger      *slog.Logger
	defaultSize int
	maxSize     int
}

func NewRenderer(logger *slog.Logger, cfg *config.RenderConfig) *Renderer {
	return &Renderer{
		logger:      logger.With("component", "renderer"),
		defaultSize: cfg.DefaultSize,
		maxSize:     cfg.MaxSize,
	}
}

// Size resolves a requested edge length: non-positive picks the default and
// anything above the maximum is clamped.
func (r *Renderer) Size(requested int) int {
	switch {
	case requested <= 0:
		return r.defaultSize
	case requested > r.maxSize:
		return r.maxSize
	default:
		return requested
	}
}

func recoveryLevel(l entry.Level) qrcode.RecoveryLevel {
	switch l {
	case entry.LevelLow:
		return qrcode.Low
	case entry.LevelQuartile:
		return qrcode.High
	case entry.LevelHigh:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

func rgba(hex string) (color.RGBA, error) {
	r, g, b, err := entry.RGB(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// PNG renders text as a code image styled by s. A logo that cannot be
// decoded is skipped with a warning; the code itself still renders.
func (r *Renderer) PNG(text string, size int, s entry.Style) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	size = r.Size(size)

	fg, err := rgba(s.FgColor)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	bg, err := rgba(s.BgColor)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	q, err := qrcode.New(text, recoveryLevel(s.Level))
	if err != nil {
		return nil, fmt.Errorf("failed to encode code: %w", err)
	}
	q.ForegroundColor = fg
	q.BackgroundColor = bg

	src := q.Image(size)
	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	if s.IncludeLogo && s.LogoURL != "" && s.LogoSize > 0 {
		logo, err := decodeLogo(s.LogoURL)
		if err != nil {
			r.logger.Warn("Skipping logo", "error", err)
		} else {
			overlayLogo(canvas, logo, s.LogoSize, bg)
		}
	}
	if s.BorderRadius > 0 {
		roundCorners(canvas, s.BorderRadius)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeLogo reads an image from a data URL such as
// data:image/png;base64,....
func decodeLogo(raw string) (image.Image, error) {
	if !strings.HasPrefix(raw, entry.LogoURLPrefix) {
		return nil, errUnsupportedLogoURL
	}
	meta, data, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}

	var payload []byte
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decode logo data: %w", err)
		}
		payload = b
	} else {
		s, err := url.PathUnescape(data)
		if err != nil {
			return nil, fmt.Errorf("decode logo data: %w", err)
		}
		payload = []byte(s)
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode logo image: %w", err)
	}
	return img, nil
}

// overlayLogo clears a centered square of percent% of the edge and draws the
// scaled logo into it.
func overlayLogo(canvas *image.RGBA, logo image.Image, percent int, bg color.RGBA) {
	b := canvas.Bounds()
	side := b.Dx() * percent / 100
	if side <= 0 {
		return
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	area := image.Rect(x0, y0, x0+side, y0+side)

	draw.Draw(canvas, area, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(canvas, area, logo, logo.Bounds(), draw.Over, nil)
}

// roundCorners makes the pixels outside rounded corners transparent. percent
// is relative to half the edge, so 50 yields a circle-ish badge at most.
func roundCorners(canvas *image.RGBA, percent int) {
	b := canvas.Bounds()
	radius := b.Dx() / 2 * percent / 100
	if radius <= 0 {
		return
	}
	r2 := radius * radius
	for y := 0; y < radius; y++ {
		for x := 0; x < radius; x++ {
			dx := radius - x
			dy := radius - y
			if dx*dx+dy*dy <= r2 {
				continue
			}
			canvas.SetRGBA(b.Min.X+x, b.Min.Y+y, color.RGBA{})
			canvas.SetRGBA(b.Max.X-1-x, b.Min.Y+y, color.RGBA{})
			canvas.SetRGBA(b.Min.X+x, b.Max.Y-1-y, color.RGBA{})
			canvas.SetRGBA(b.Max.X-1-x, b.Max.Y-1-y, color.RGBA{})
		}
	}
}
