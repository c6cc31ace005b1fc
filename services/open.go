package services

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/skratchdot/open-golang/open"

	"lumen/generator"
)

// OpenResult shows a generated image with the OS default handler. Data URL
// results are written to a temp file first.
func OpenResult(img *generator.Image) error {
	target, err := openTarget(img, os.TempDir())
	if err != nil {
		return err
	}
	return open.Start(target)
}

func openTarget(img *generator.Image, tmpDir string) (string, error) {
	if !strings.HasPrefix(img.Ref, "data:") {
		return img.Ref, nil
	}

	data := img.Data
	if len(data) == 0 {
		comma := strings.IndexByte(img.Ref, ',')
		if comma < 0 {
			return "", fmt.Errorf("malformed data url")
		}
		decoded, err := base64.StdEncoding.DecodeString(img.Ref[comma+1:])
		if err != nil {
			return "", fmt.Errorf("cannot decode data url: %w", err)
		}
		data = decoded
	}

	f, err := os.CreateTemp(tmpDir, "lumen-*.png")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return f.Name(), nil
}
