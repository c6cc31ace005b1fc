package services

import (
	"sync"

	"github.com/atotto/clipboard"
	imageclipboard "golang.design/x/clipboard"

	"lumen/generator"
	"lumen/logger"
)

var (
	imageClipboardOnce sync.Once
	imageClipboardErr  error
)

func initImageClipboard() error {
	imageClipboardOnce.Do(func() {
		imageClipboardErr = imageclipboard.Init()
	})
	return imageClipboardErr
}

// CopyResult puts a generated image on the clipboard. PNG bytes are copied as
// an image when the platform clipboard supports it, otherwise the reference
// is copied as text. It returns what was copied, "image" or "reference".
func CopyResult(img *generator.Image) (string, error) {
	if img.MimeType == "image/png" && len(img.Data) > 0 {
		err := initImageClipboard()
		if err == nil {
			imageclipboard.Write(imageclipboard.FmtImage, img.Data)
			return "image", nil
		}
		logger.Debug.Printf("image clipboard unavailable: %v", err)
	}

	if err := clipboard.WriteAll(img.Ref); err != nil {
		return "", err
	}
	return "reference", nil
}
