// Package compress shrinks user-selected photos before upload: images are
// resized to a bounded longer side and re-encoded as JPEG, stepping the
// quality down until the output fits the target size. Compression failures
// are terminal for the file; they are never retried.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

var ErrTooLarge = errors.New("file exceeds the maximum allowed size")

type Config struct {
	MaxRawBytes  int64 // reject before compressing, default 5 MB
	MaxDimension uint  // longer side after resize, default 1600
	TargetBytes  int   // desired output ceiling, default ~1 MB
}

const (
	DefaultMaxRawBytes  = 5 * 1024 * 1024
	DefaultMaxDimension = 1600
	DefaultTargetBytes  = 1024 * 1024

	startQuality = 85
	minQuality   = 40
	qualityStep  = 10
)

func (c Config) withDefaults() Config {
	if c.MaxRawBytes == 0 {
		c.MaxRawBytes = DefaultMaxRawBytes
	}
	if c.MaxDimension == 0 {
		c.MaxDimension = DefaultMaxDimension
	}
	if c.TargetBytes == 0 {
		c.TargetBytes = DefaultTargetBytes
	}
	return c
}

// Result is a compressed, upload-ready image.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Quality     int
}

// File compresses the image at path, rejecting files over the raw size cap
// before any decoding happens.
func File(path string, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > cfg.MaxRawBytes {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Bytes(data, cfg)
}

// Bytes compresses an in-memory image.
func Bytes(data []byte, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	if int64(len(data)) > cfg.MaxRawBytes {
		return nil, fmt.Errorf("%d bytes: %w", len(data), ErrTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = clamp(img, cfg.MaxDimension)
	bounds := img.Bounds()

	quality := startQuality
	var buf bytes.Buffer
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if buf.Len() <= cfg.TargetBytes || quality <= minQuality {
			break
		}
		quality -= qualityStep
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Quality:     quality,
	}, nil
}

// clamp resizes so the longer side is at most max, preserving aspect ratio.
// Images already inside the bound pass through untouched.
func clamp(img image.Image, max uint) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if uint(w) <= max && uint(h) <= max {
		return img
	}
	if w >= h {
		return resize.Resize(max, 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, max, img, resize.Lanczos3)
}
