// Package snapshot saves an annotated screenshot of the page after a run.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// Options configures the snapshot
type Options struct {
	Path     string
	MaxWidth uint // 0 keeps the captured width
}

// Source captures the page.
type Source interface {
	Screenshot(ctx context.Context) ([]byte, error)
	// ViewportWidth is the page width in CSS pixels, used to map element
	// boxes onto device pixels.
	ViewportWidth(ctx context.Context) (int, error)
}

// Boxer is implemented by elements that know their on-page bounds.
type Boxer interface {
	Box(ctx context.Context) (image.Rectangle, error)
}

// Capture screenshots src, outlines target unless it is nil, and writes the
// result to opts.Path. It returns the file size.
func Capture(ctx context.Context, src Source, target Boxer, opts Options) (int64, error) {
	raw, err := src.Screenshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("screenshot: %w", err)
	}
	shot, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("decode screenshot: %w", err)
	}

	var box image.Rectangle
	if target != nil {
		if r, err := target.Box(ctx); err == nil {
			box = r
			if w, err := src.ViewportWidth(ctx); err == nil && w > 0 {
				box = scaleRect(box, float64(shot.Bounds().Dx())/float64(w))
			}
		}
	}
	return Write(opts.Path, Render(shot, box, opts.MaxWidth))
}

// Render outlines box on a copy of shot and resizes it to maxWidth,
// keeping the aspect ratio. An empty box draws nothing.
func Render(shot image.Image, box image.Rectangle, maxWidth uint) image.Image {
	bounds := shot.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, shot, bounds.Min, draw.Src)
	if !box.Empty() {
		highlight(canvas, box.Add(bounds.Min))
	}

	if maxWidth == 0 || uint(bounds.Dx()) <= maxWidth {
		return canvas
	}
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	height := uint(float64(maxWidth) * aspectRatio)
	return resize.Resize(maxWidth, height, canvas, resize.Lanczos3)
}

// Write encodes img by the path's extension (.gif, otherwise PNG) and
// returns the file size. A failed write leaves no file behind.
func Write(path string, img image.Image) (size int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			size = 0
			_ = os.Remove(path)
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".gif") {
		paletted := image.NewPaletted(img.Bounds(), palette(img))
		draw.FloydSteinberg.Draw(paletted, img.Bounds(), img, img.Bounds().Min)
		err = gif.Encode(f, paletted, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func scaleRect(r image.Rectangle, k float64) image.Rectangle {
	if k == 1 {
		return r
	}
	return image.Rect(
		int(float64(r.Min.X)*k), int(float64(r.Min.Y)*k),
		int(float64(r.Max.X)*k), int(float64(r.Max.Y)*k),
	)
}
