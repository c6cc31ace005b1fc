// Package generator turns a prompt and a set of reference images into a
// generated image. Backends are reached asynchronously and fail with typed
// errors, so the view never depends on a concrete service.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lumen/logger"
)

// PlaceholderURL is what the placeholder backend always returns.
const PlaceholderURL = "https://via.placeholder.com/300"

// DefaultPrompt is sent to real backends when the user left the prompt empty.
const DefaultPrompt = "Generate a new image inspired by the attached reference images."

var (
	ErrTimeout       = errors.New("generation timed out")
	ErrNoImage       = errors.New("backend returned no image")
	ErrMissingAPIKey = errors.New("missing api key")
	ErrUnknown       = errors.New("unknown generator")
)

// Error is a failed call to a backend.
type Error struct {
	Backend string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Backend, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Request struct {
	Prompt string
	// References are data URLs of the selected images.
	References []string
	Size       string
}

func (r Request) prompt() string {
	if r.Prompt == "" {
		return DefaultPrompt
	}
	return r.Prompt
}

// Image is a generated result. Ref is a URL or a local file path.
type Image struct {
	Ref           string
	MimeType      string
	Data          []byte
	RevisedPrompt string
	Backend       string
	Created       time.Time
}

type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Image, error)
}

// Config is shared by the backends; each one reads what it needs.
type Config struct {
	APIKey     string
	Model      string
	Size       string
	OutputDir  string
	BaseURL    string
	HTTPClient *http.Client
}

// referencing is implemented by backends that send the selected images along
// with the prompt.
type referencing interface {
	UsesReferences() bool
}

// UsesReferences reports whether g reads Request.References.
func UsesReferences(g Generator) bool {
	r, ok := g.(referencing)
	return ok && r.UsesReferences()
}

// Names lists the backends New understands.
func Names() []string {
	return []string{"placeholder", "openai", "responses"}
}

func New(name string, cfg Config) (Generator, error) {
	switch name {
	case "", "placeholder":
		return Placeholder{}, nil
	case "openai":
		return NewOpenAIImages(cfg)
	case "responses":
		return NewResponses(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
}

// Run calls g with a deadline and normalises every failure into an *Error.
// A successful run always returns a non-nil image.
func Run(ctx context.Context, g Generator, req Request, timeout time.Duration) (*Image, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	img, err := g.Generate(ctx, req)
	logger.Debug.Printf("generator %s finished in %s (err: %v)", g.Name(), time.Since(started), err)

	if err == nil && img == nil {
		err = ErrNoImage
	}
	if err != nil {
		return nil, normalise(g.Name(), err)
	}

	if img.Backend == "" {
		img.Backend = g.Name()
	}
	if img.Created.IsZero() {
		img.Created = time.Now()
	}
	return img, nil
}

func normalise(backend string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Backend: backend, Err: ErrTimeout}
	}
	var genErr *Error
	if errors.As(err, &genErr) {
		return err
	}
	return &Error{Backend: backend, Err: err}
}
