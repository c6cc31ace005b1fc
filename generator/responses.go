package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lumen/logger"
)

const defaultResponsesURL = "https://api.openai.com/v1"

// Responses calls the OpenAI Responses API with the image_generation tool.
// The selected images are attached as input images.
type Responses struct {
	apiKey    string
	baseURL   string
	model     string
	size      string
	outputDir string
	client    *http.Client
}

func NewResponses(cfg Config) (*Responses, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Backend: "responses", Err: ErrMissingAPIKey}
	}

	g := &Responses{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		size:      cfg.Size,
		outputDir: cfg.OutputDir,
		client:    cfg.HTTPClient,
	}
	if g.baseURL == "" {
		g.baseURL = defaultResponsesURL
	}
	if g.model == "" {
		g.model = "gpt-4.1"
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	return g, nil
}

func (g *Responses) Name() string {
	return "responses"
}

func (g *Responses) UsesReferences() bool {
	return true
}

func (g *Responses) createPayload(req Request) responsesPayload {
	content := []responsesContent{{Type: "input_text", Text: req.prompt()}}
	for _, ref := range req.References {
		content = append(content, responsesContent{Type: "input_image", ImageURL: ref})
	}

	size := g.size
	if req.Size != "" {
		size = req.Size
	}

	return responsesPayload{
		Model: g.model,
		Input: []responsesInput{{Role: "user", Content: content}},
		Tools: []responsesTool{{Type: "image_generation", Size: size}},
	}
}

func (g *Responses) createRequest(ctx context.Context, payload responsesPayload) (*http.Request, error) {
	jsonpayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/responses", bytes.NewBuffer(jsonpayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.apiKey))
	return req, nil
}

func (g *Responses) Generate(ctx context.Context, req Request) (*Image, error) {
	payload := g.createPayload(req)
	logger.Debug.Printf("responses request model=%s references=%d", payload.Model, len(req.References))

	httpReq, err := g.createRequest(ctx, payload)
	if err != nil {
		return nil, &Error{Backend: g.Name(), Err: err}
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Backend: g.Name(), Err: ErrTimeout}
		}
		return nil, &Error{Backend: g.Name(), Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Backend: g.Name(), Status: resp.StatusCode, Err: fmt.Errorf("error reading response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Debug.Printf("responses non-OK body: %s", body)
		return nil, &Error{Backend: g.Name(), Status: resp.StatusCode, Err: fmt.Errorf("received non-OK response status: %s", strings.TrimSpace(string(body)))}
	}

	return g.handleBodyBytes(body)
}

func (g *Responses) handleBodyBytes(body []byte) (*Image, error) {
	var apiResponse responsesResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, &Error{Backend: g.Name(), Err: fmt.Errorf("error unmarshalling response body: %w", err)}
	}
	if apiResponse.Error != nil {
		return nil, &Error{Backend: g.Name(), Err: fmt.Errorf("%s: %s", apiResponse.Error.Code, apiResponse.Error.Message)}
	}

	text := ""
	for _, output := range apiResponse.Output {
		switch v := output.(type) {
		case imageGenerationCall:
			if v.Result == "" {
				continue
			}
			img, err := decodeBase64Image(g.Name(), v.Result, g.outputDir)
			if err != nil {
				return nil, &Error{Backend: g.Name(), Err: err}
			}
			img.RevisedPrompt = v.RevisedPrompt
			return img, nil

		case outputMessage:
			for _, content := range v.Content {
				text += content.Text
			}
		}
	}

	logger.Debug.Printf("responses answered without an image: %s", text)
	if text != "" {
		return nil, &Error{Backend: g.Name(), Err: fmt.Errorf("%w: %s", ErrNoImage, text)}
	}
	return nil, &Error{Backend: g.Name(), Err: ErrNoImage}
}
