// Package session owns the state of one image board view: the selection,
// its previews, the last generated image, the busy flag and the display mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"lumen/generator"
	"lumen/logger"
	"lumen/theme"
)

// MaxFiles is the largest selection Select accepts.
const MaxFiles = 50

// LimitWarning is shown to the user when a selection is over MaxFiles.
const LimitWarning = "You can upload up to 50 images"

var (
	ErrTooManyFiles = errors.New("too many files selected")
	ErrClosed       = errors.New("session closed")
)

type Options struct {
	Order   PreviewOrder
	Mode    theme.Mode
	Surface theme.Surface
}

// Session is created when the view mounts and closed when it unmounts.
// All methods are safe for concurrent use.
type Session struct {
	mu sync.RWMutex

	files    []File
	previews []Preview
	epoch    Epoch
	order    PreviewOrder

	generated *generator.Image
	lastErr   error
	busy      bool

	mode    theme.Mode
	surface theme.Surface

	ctx          context.Context
	cancel       context.CancelFunc
	selectCancel context.CancelFunc
	closed       bool
}

func New(opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		order:   opts.Order,
		mode:    opts.Mode,
		surface: opts.Surface,
		ctx:     ctx,
		cancel:  cancel,
	}
	if s.surface != nil {
		s.surface.Apply(s.mode)
	}
	return s
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Select replaces the selection. More than MaxFiles files is rejected without
// touching any state. On success the previews are cleared, in-flight decodes
// of the previous selection are cancelled, and the returned context and epoch
// belong to the new selection.
func (s *Session) Select(files []File) (context.Context, Epoch, error) {
	if len(files) > MaxFiles {
		logger.Debug.Printf("rejected selection of %d files", len(files))
		return nil, 0, fmt.Errorf("%w: %d, the limit is %d", ErrTooManyFiles, len(files), MaxFiles)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, 0, ErrClosed
	}

	if s.selectCancel != nil {
		s.selectCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.selectCancel = cancel

	s.files = append([]File(nil), files...)
	s.previews = make([]Preview, 0, len(files))
	s.epoch++

	logger.Debug.Printf("selection epoch %d with %d files", s.epoch, len(files))
	return ctx, s.epoch, nil
}

// AddPreview records a decoded preview. Previews from an older epoch are
// dropped and false is returned.
func (s *Session) AddPreview(epoch Epoch, p Preview) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || epoch != s.epoch {
		logger.Debug.Printf("dropping stale preview %q (epoch %d, current %d)", p.Name, epoch, s.epoch)
		return false
	}

	if s.order == OrderArrival {
		s.previews = append(s.previews, p)
		return true
	}

	i := sort.Search(len(s.previews), func(i int) bool {
		return s.previews[i].Index > p.Index
	})
	s.previews = append(s.previews, Preview{})
	copy(s.previews[i+1:], s.previews[i:])
	s.previews[i] = p
	return true
}

func (s *Session) Files() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]File(nil), s.files...)
}

func (s *Session) Previews() []Preview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Preview(nil), s.previews...)
}

func (s *Session) Epoch() Epoch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Pending is the number of selected files whose preview has not arrived yet.
func (s *Session) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files) - len(s.previews)
}

// References returns the data URLs of the successfully decoded previews.
// Previews loaded without a data URL are skipped.
func (s *Session) References() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]string, 0, len(s.previews))
	for _, p := range s.previews {
		if p.Failed() || p.DataURL == "" {
			continue
		}
		refs = append(refs, p.DataURL)
	}
	return refs
}

// BeginGeneration marks the session busy. It returns false if a generation
// is already running.
func (s *Session) BeginGeneration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy || s.closed {
		return false
	}
	s.busy = true
	return true
}

// FinishGeneration stores the outcome and clears the busy flag. A failure
// keeps the previous image.
func (s *Session) FinishGeneration(img *generator.Image, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	if err != nil {
		s.lastErr = err
		return
	}
	s.generated = img
	s.lastErr = nil
}

func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *Session) Generated() *generator.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generated
}

func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ToggleDisplayMode flips dark and light and applies the new mode to the surface.
func (s *Session) ToggleDisplayMode() theme.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = s.mode.Toggle()
	if s.surface != nil && !s.closed {
		s.surface.Apply(s.mode)
	}
	return s.mode
}

func (s *Session) DisplayMode() theme.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Close cancels all in-flight work and restores the surface. It is safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	if s.surface != nil {
		s.surface.Restore()
	}
}
