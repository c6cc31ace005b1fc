package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"lumen/logger"
)

// OpenAIImages calls the OpenAI Images API. It only sends the prompt, the
// generations endpoint does not take reference images.
type OpenAIImages struct {
	client    *openai.Client
	model     string
	size      string
	outputDir string
}

func NewOpenAIImages(cfg Config) (*OpenAIImages, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Backend: "openai", Err: ErrMissingAPIKey}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	size := cfg.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	return &OpenAIImages{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		size:      size,
		outputDir: cfg.OutputDir,
	}, nil
}

func (g *OpenAIImages) Name() string {
	return "openai"
}

func (g *OpenAIImages) Generate(ctx context.Context, req Request) (*Image, error) {
	request := openai.ImageRequest{
		Prompt: req.prompt(),
		Model:  g.model,
		N:      1,
		Size:   g.size,
	}
	if req.Size != "" {
		request.Size = req.Size
	}
	// gpt-image models always answer with base64 and reject the field
	if strings.HasPrefix(g.model, "dall-e") {
		request.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	logger.Debug.Printf("openai image request model=%s size=%s", request.Model, request.Size)
	resp, err := g.client.CreateImage(ctx, request)
	if err != nil {
		return nil, g.wrap(err)
	}

	if len(resp.Data) == 0 {
		return nil, &Error{Backend: g.Name(), Err: ErrNoImage}
	}
	data := resp.Data[0]

	var img *Image
	switch {
	case data.B64JSON != "":
		img, err = decodeBase64Image(g.Name(), data.B64JSON, g.outputDir)
		if err != nil {
			return nil, &Error{Backend: g.Name(), Err: err}
		}
	case data.URL != "":
		img = &Image{Ref: data.URL, Backend: g.Name()}
	default:
		return nil, &Error{Backend: g.Name(), Err: ErrNoImage}
	}

	img.RevisedPrompt = data.RevisedPrompt
	return img, nil
}

func (g *OpenAIImages) wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Backend: g.Name(), Err: ErrTimeout}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Backend: g.Name(), Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Backend: g.Name(), Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &Error{Backend: g.Name(), Err: err}
}
