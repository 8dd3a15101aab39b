package compress

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), uint8((x + y) % 256), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestBytesResizesLongSide(t *testing.T) {
	data := encodePNG(t, 3200, 1600)

	res, err := Bytes(data, Config{MaxRawBytes: 64 * 1024 * 1024})
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	if res.Width != 1600 {
		t.Errorf("width = %d; want 1600", res.Width)
	}
	if res.Height != 800 {
		t.Errorf("height = %d; want 800", res.Height)
	}
	if res.ContentType != "image/jpeg" {
		t.Errorf("content type = %s; want image/jpeg", res.ContentType)
	}
}

func TestBytesPortraitUsesHeightBound(t *testing.T) {
	data := encodePNG(t, 1000, 2000)

	res, err := Bytes(data, Config{MaxRawBytes: 64 * 1024 * 1024})
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if res.Height != 1600 {
		t.Errorf("height = %d; want 1600", res.Height)
	}
	if res.Width != 800 {
		t.Errorf("width = %d; want 800", res.Width)
	}
}

func TestBytesSmallImageNotUpscaled(t *testing.T) {
	data := encodePNG(t, 640, 480)

	res, err := Bytes(data, Config{})
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if res.Width != 640 || res.Height != 480 {
		t.Errorf("dimensions = %dx%d; want 640x480 untouched", res.Width, res.Height)
	}
}

func TestBytesRejectsOversizedInput(t *testing.T) {
	data := encodePNG(t, 200, 200)

	_, err := Bytes(data, Config{MaxRawBytes: 10})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestBytesRejectsGarbage(t *testing.T) {
	if _, err := Bytes([]byte("definitely not an image"), Config{}); err == nil {
		t.Fatal("expected decode error for garbage input")
	}
}

func TestBytesQualitySteppingStopsAtFloor(t *testing.T) {
	data := encodePNG(t, 1600, 1600)

	res, err := Bytes(data, Config{MaxRawBytes: 64 * 1024 * 1024, TargetBytes: 1})
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if res.Quality != minQuality {
		t.Errorf("quality = %d; want floor %d", res.Quality, minQuality)
	}
}
