package session

import (
	"image/color"
	"time"
)

// File is a user-chosen image file.
type File struct {
	Name string
	Path string
	Size int64
}

// Epoch identifies one accepted selection. Work started for an older epoch is stale.
type Epoch uint64

// Thumbnail is a small RGBA grid, row-major, Width*Height pixels.
type Thumbnail struct {
	Width  int
	Height int
	Pixels []color.RGBA
}

func (t Thumbnail) At(x, y int) color.RGBA {
	return t.Pixels[y*t.Width+x]
}

// Preview is the decoded, displayable form of one selected file.
type Preview struct {
	Index     int
	Name      string
	MimeType  string
	DataURL   string
	Width     int
	Height    int
	Thumbnail Thumbnail
	Err       error
	Decoded   time.Time
}

func (p Preview) Failed() bool {
	return p.Err != nil
}

type PreviewOrder int

const (
	// OrderArrival shows previews in the order their decodes completed.
	OrderArrival PreviewOrder = iota
	// OrderInput keeps previews sorted by their position in the selection.
	OrderInput
)

func ParseOrder(s string) PreviewOrder {
	if s == "input" {
		return OrderInput
	}
	return OrderArrival
}

func (o PreviewOrder) String() string {
	if o == OrderInput {
		return "input"
	}
	return "arrival"
}
