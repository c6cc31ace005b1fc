package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lumen/session"
)

func writeImage(t *testing.T, dir, name string, w, h int) session.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch filepath.Ext(name) {
	case ".jpg":
		err = jpeg.Encode(&buf, img, nil)
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return session.File{Name: name, Path: path, Size: int64(buf.Len())}
}

func collect(t *testing.T, ch <-chan Result) []Result {
	t.Helper()
	var results []Result
	timeout := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return results
			}
			results = append(results, r)
		case <-timeout:
			t.Fatalf("loader did not finish")
		}
	}
}

func TestDecodeFormats(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()

	cases := []struct {
		name string
		mime string
	}{
		{"a.png", "image/png"},
		{"b.jpg", "image/jpeg"},
		{"c.gif", "image/gif"},
	}

	for i, c := range cases {
		file := writeImage(t, dir, c.name, 32, 8)
		p := l.decode(context.Background(), i, file)

		if p.Err != nil {
			t.Fatalf("%s: %v", c.name, p.Err)
		}
		if p.MimeType != c.mime {
			t.Errorf("%s: expected %s, got %s", c.name, c.mime, p.MimeType)
		}
		if !strings.HasPrefix(p.DataURL, "data:"+c.mime+";base64,") {
			t.Errorf("%s: bad data url prefix %.30s", c.name, p.DataURL)
		}
		if p.Width != 32 || p.Height != 8 {
			t.Errorf("%s: expected 32x8, got %dx%d", c.name, p.Width, p.Height)
		}
		if p.Thumbnail.Width != 16 || p.Thumbnail.Height != 4 {
			t.Errorf("%s: expected 16x4 thumbnail, got %dx%d", c.name, p.Thumbnail.Width, p.Thumbnail.Height)
		}
		if len(p.Thumbnail.Pixels) != 16*4 {
			t.Errorf("%s: pixel count %d", c.name, len(p.Thumbnail.Pixels))
		}
		if p.Index != i || p.Decoded.IsZero() {
			t.Errorf("%s: index or decode time not set", c.name)
		}
	}
}

func TestDecodeWithoutDataURL(t *testing.T) {
	l := NewLoader()
	l.DataURLs = false

	file := writeImage(t, t.TempDir(), "a.png", 8, 8)
	p := l.decode(context.Background(), 0, file)

	if p.Err != nil {
		t.Fatalf("decode failed: %v", p.Err)
	}
	if p.DataURL != "" {
		t.Errorf("expected no data url, got %.30s", p.DataURL)
	}
	if p.Thumbnail.Width == 0 || p.MimeType != "image/png" {
		t.Errorf("expected thumbnail and mime type, got %dx%d %s", p.Thumbnail.Width, p.Thumbnail.Height, p.MimeType)
	}
}

func TestDecodeFailures(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()

	text := filepath.Join(dir, "notes.png")
	os.WriteFile(text, []byte("definitely not a picture"), 0644)

	p := l.decode(context.Background(), 0, session.File{Name: "notes.png", Path: text})
	if !errors.Is(p.Err, ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", p.Err)
	}

	p = l.decode(context.Background(), 1, session.File{Name: "gone.png", Path: filepath.Join(dir, "gone.png")})
	if p.Err == nil || !errors.Is(p.Err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", p.Err)
	}

	big := writeImage(t, dir, "big.png", 64, 64)
	l.MaxBytes = 10
	p = l.decode(context.Background(), 2, big)
	if !errors.Is(p.Err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", p.Err)
	}
}

func TestFit(t *testing.T) {
	cases := []struct{ w, h, mw, mh, ew, eh int }{
		{100, 100, 16, 16, 16, 16},
		{200, 100, 16, 16, 16, 8},
		{100, 200, 16, 16, 8, 16},
		{1000, 1, 16, 16, 16, 1},
		{4, 4, 16, 16, 16, 16},
		{0, 10, 16, 16, 0, 0},
	}
	for _, c := range cases {
		w, h := Fit(c.w, c.h, c.mw, c.mh)
		if w != c.ew || h != c.eh {
			t.Errorf("Fit(%d,%d) = %dx%d, want %dx%d", c.w, c.h, w, h, c.ew, c.eh)
		}
	}
}

func TestPickerTypes(t *testing.T) {
	types := PickerTypes()
	if len(types) != 2*len(Extensions) {
		t.Fatalf("expected %d types, got %d", 2*len(Extensions), len(types))
	}
	for _, name := range []string{"IMG_0001.JPG", "PHOTO.PNG", "scan.tiff"} {
		matched := false
		for _, ext := range types {
			if strings.HasSuffix(name, ext) {
				matched = true
			}
		}
		if !matched {
			t.Errorf("%s is not matched by %v", name, types)
		}
	}
}

func TestIsImageName(t *testing.T) {
	for _, name := range []string{"a.png", "B.JPG", "c.jpeg", "d.webp", "e.tiff"} {
		if !IsImageName(name) {
			t.Errorf("%s should be an image name", name)
		}
	}
	for _, name := range []string{"a.txt", "png", "archive.png.zip"} {
		if IsImageName(name) {
			t.Errorf("%s should not be an image name", name)
		}
	}
}

func TestLoadEmitsOneResultPerFile(t *testing.T) {
	dir := t.TempDir()
	var files []session.File
	for i := 0; i < 3; i++ {
		files = append(files, writeImage(t, dir, fmt.Sprintf("img%d.png", i), 10, 10))
	}
	files = append(files, session.File{Name: "missing.png", Path: filepath.Join(dir, "missing.png")})

	l := NewLoader()
	l.Workers = 2
	results := collect(t, l.Load(context.Background(), 7, files))

	if len(results) != len(files) {
		t.Fatalf("expected %d results, got %d", len(files), len(results))
	}

	seen := map[int]bool{}
	failed := 0
	for _, r := range results {
		if r.Epoch != 7 {
			t.Errorf("result has epoch %d", r.Epoch)
		}
		seen[r.Preview.Index] = true
		if r.Preview.Failed() {
			failed++
		}
	}
	if len(seen) != len(files) {
		t.Errorf("expected distinct indexes, got %v", seen)
	}
	if failed != 1 {
		t.Errorf("expected one failed preview, got %d", failed)
	}
}

func TestLoadStopsOnCancel(t *testing.T) {
	block := make(chan struct{})
	l := NewLoader()
	l.Workers = 1
	l.open = func(string) (io.ReadCloser, error) {
		<-block
		return nil, errors.New("unreachable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	files := make([]session.File, 5)
	ch := l.Load(ctx, 1, files)

	cancel()
	close(block)

	results := collect(t, ch)
	if len(results) != 0 {
		t.Errorf("expected no results after cancel, got %d", len(results))
	}
}

func TestSelectionToPreviews(t *testing.T) {
	dir := t.TempDir()
	var files []session.File
	for i := 0; i < 3; i++ {
		files = append(files, writeImage(t, dir, fmt.Sprintf("p%d.png", i), 12, 6))
	}

	s := session.New(session.Options{})
	defer s.Close()

	ctx, epoch, err := s.Select(files)
	if err != nil {
		t.Fatal(err)
	}

	for r := range NewLoader().Load(ctx, epoch, files) {
		if !s.AddPreview(r.Epoch, r.Preview) {
			t.Errorf("preview %d rejected", r.Preview.Index)
		}
	}

	if got := len(s.Previews()); got != 3 {
		t.Errorf("expected 3 previews, got %d", got)
	}
	if s.Pending() != 0 {
		t.Errorf("expected nothing pending")
	}
}
