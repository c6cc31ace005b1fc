package generator

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lumen/logger"
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// imageFromBytes builds an Image from raw bytes. With an output dir the bytes
// are written to disk and Ref is the file path, otherwise Ref is a data URL.
func imageFromBytes(backend string, data []byte, outputDir string) (*Image, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: got %s", ErrNoImage, mimeType)
	}

	img := &Image{
		MimeType: mimeType,
		Data:     data,
		Backend:  backend,
		Created:  time.Now(),
	}

	if outputDir == "" {
		img.Ref = fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
		return img, nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output dir: %w", err)
	}

	ext, ok := extensions[mimeType]
	if !ok {
		ext = ".img"
	}
	name := fmt.Sprintf("%s-%s%s", img.Created.Format("20060102-150405"), uuid.NewString()[:8], ext)
	path := filepath.Join(outputDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("could not write image: %w", err)
	}
	logger.Debug.Printf("saved generated image to %s", path)

	img.Ref = path
	return img, nil
}

func decodeBase64Image(backend, b64, outputDir string) (*Image, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("cannot decode b64 image: %w", err)
	}
	return imageFromBytes(backend, data, outputDir)
}
