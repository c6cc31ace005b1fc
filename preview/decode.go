// Package preview turns selected image files into previews: a small
// thumbnail for the terminal and, when asked for, a base64 data URL for
// backends that send the selection along.
package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"lumen/session"
)

var (
	ErrNotImage = errors.New("not an image")
	ErrTooLarge = errors.New("file too large")
)

// Extensions are the file types the picker offers.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// DefaultMaxBytes matches the largest input image the OpenAI APIs accept.
const DefaultMaxBytes = 20 << 20

type opener func(path string) (io.ReadCloser, error)

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// PickerTypes is Extensions plus their upper case forms. File pickers match
// suffixes case-sensitively; IsImageName covers mixed case.
func PickerTypes() []string {
	types := make([]string, 0, 2*len(Extensions))
	for _, e := range Extensions {
		types = append(types, e, strings.ToUpper(e))
	}
	return types
}

// IsImageName reports whether the file name has one of Extensions.
func IsImageName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func sniffMime(name string, data []byte) string {
	detected := http.DetectContentType(data)
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	if strings.HasPrefix(detected, "image/") {
		return detected
	}

	// tiff is not sniffed by net/http
	byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if i := strings.IndexByte(byExt, ';'); i >= 0 {
		byExt = byExt[:i]
	}
	if strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	return detected
}

func readAll(open opener, path string, maxBytes int64) ([]byte, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}

// decode builds the preview for one file. Failures are reported on the
// preview itself so every file yields exactly one preview.
func (l *Loader) decode(ctx context.Context, index int, file session.File) (p session.Preview) {
	p = session.Preview{Index: index, Name: file.Name}
	defer func() { p.Decoded = time.Now() }()

	if err := ctx.Err(); err != nil {
		p.Err = err
		return p
	}

	data, err := readAll(l.open, file.Path, l.maxBytes())
	if err != nil {
		p.Err = fmt.Errorf("reading %s: %w", file.Name, err)
		return p
	}

	mimeType := sniffMime(file.Name, data)
	if !strings.HasPrefix(mimeType, "image/") {
		p.Err = fmt.Errorf("%s: %w (%s)", file.Name, ErrNotImage, mimeType)
		return p
	}
	p.MimeType = mimeType

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		p.Err = fmt.Errorf("%s: %w: %v", file.Name, ErrNotImage, err)
		return p
	}

	bounds := img.Bounds()
	p.Width = bounds.Dx()
	p.Height = bounds.Dy()
	p.Thumbnail = Thumbnail(img, l.thumbWidth(), l.thumbHeight())
	if l.DataURLs {
		p.DataURL = DataURL(mimeType, data)
	}

	return p
}

func DataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
