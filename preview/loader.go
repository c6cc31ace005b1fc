package preview

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"lumen/logger"
	"lumen/session"
)

// Result is one finished decode, tagged with the selection it was started for.
type Result struct {
	Epoch   session.Epoch
	Preview session.Preview
}

// Loader decodes a selection concurrently. The zero value is not usable, use NewLoader.
type Loader struct {
	Workers     int
	ThumbWidth  int
	ThumbHeight int
	MaxBytes    int64
	// DataURLs keeps a base64 data URL of every decoded file on its preview.
	DataURLs bool

	open opener
}

func NewLoader() *Loader {
	return &Loader{
		Workers:     runtime.NumCPU(),
		ThumbWidth:  16,
		ThumbHeight: 16,
		MaxBytes:    DefaultMaxBytes,
		DataURLs:    true,
		open:        openFile,
	}
}

func (l *Loader) workers() int {
	if l.Workers <= 0 {
		return 4
	}
	return l.Workers
}

func (l *Loader) thumbWidth() int {
	if l.ThumbWidth <= 0 {
		return 16
	}
	return l.ThumbWidth
}

func (l *Loader) thumbHeight() int {
	if l.ThumbHeight <= 0 {
		return 16
	}
	return l.ThumbHeight
}

func (l *Loader) maxBytes() int64 {
	if l.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return l.MaxBytes
}

// Load starts one decode per file and emits results in completion order.
// The channel closes when every decode has finished or ctx is cancelled;
// after cancellation the remaining files produce no result.
func (l *Loader) Load(ctx context.Context, epoch session.Epoch, files []session.File) <-chan Result {
	out := make(chan Result, len(files))

	go func() {
		defer close(out)

		g := new(errgroup.Group)
		g.SetLimit(l.workers())

		for i, file := range files {
			if ctx.Err() != nil {
				break
			}
			i, file := i, file
			g.Go(func() error {
				p := l.decode(ctx, i, file)
				if ctx.Err() != nil {
					return nil
				}
				if p.Err != nil {
					logger.Debug.Printf("preview %d failed: %v", i, p.Err)
				}
				out <- Result{Epoch: epoch, Preview: p}
				return nil
			})
		}

		g.Wait()
		logger.Debug.Printf("loader finished epoch %d", epoch)
	}()

	return out
}
