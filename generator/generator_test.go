package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type slowGenerator struct{}

func (slowGenerator) Name() string { return "slow" }

func (slowGenerator) Generate(ctx context.Context, _ Request) (*Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return &Image{Ref: "late"}, nil
	}
}

type emptyGenerator struct{}

func (emptyGenerator) Name() string { return "empty" }

func (emptyGenerator) Generate(context.Context, Request) (*Image, error) { return nil, nil }

func TestPlaceholderAlwaysReturnsImage(t *testing.T) {
	for i := 0; i < 3; i++ {
		img, err := Run(context.Background(), Placeholder{}, Request{}, time.Second)
		if err != nil {
			t.Fatalf("placeholder failed: %v", err)
		}
		if img == nil || img.Ref != PlaceholderURL {
			t.Fatalf("unexpected image %+v", img)
		}
		if img.Backend != "placeholder" || img.Created.IsZero() {
			t.Errorf("run did not fill backend and created: %+v", img)
		}
	}
}

func TestRunTimeout(t *testing.T) {
	_, err := Run(context.Background(), slowGenerator{}, Request{}, 10*time.Millisecond)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Backend != "slow" {
		t.Errorf("expected *Error for backend slow, got %#v", err)
	}
}

func TestRunNilImage(t *testing.T) {
	_, err := Run(context.Background(), emptyGenerator{}, Request{}, time.Second)
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}

func TestNew(t *testing.T) {
	g, err := New("", Config{})
	if err != nil || g.Name() != "placeholder" {
		t.Errorf("expected placeholder default, got %v %v", g, err)
	}

	if _, err := New("stable-diffusion", Config{}); !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}

	for _, name := range []string{"openai", "responses"} {
		if _, err := New(name, Config{}); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("%s: expected ErrMissingAPIKey, got %v", name, err)
		}
	}
}

func TestUsesReferences(t *testing.T) {
	responses, err := NewResponses(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}
	images, err := NewOpenAIImages(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}

	if !UsesReferences(responses) {
		t.Error("responses should send references")
	}
	if UsesReferences(images) || UsesReferences(Placeholder{}) {
		t.Error("only the responses backend sends references")
	}
}

func TestOpenAIImagesSavesImage(t *testing.T) {
	raw := pngBytes(t)
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data": []map[string]any{{
				"b64_json":       base64.StdEncoding.EncodeToString(raw),
				"revised_prompt": "a red square",
			}},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	g, err := NewOpenAIImages(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	img, err := Run(context.Background(), g, Request{Prompt: "red square"}, 5*time.Second)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if gotBody["prompt"] != "red square" {
		t.Errorf("unexpected prompt %v", gotBody["prompt"])
	}
	if gotBody["response_format"] != "b64_json" {
		t.Errorf("expected b64_json response format, got %v", gotBody["response_format"])
	}

	if !strings.HasPrefix(img.Ref, dir) {
		t.Errorf("expected image saved under %s, got %s", dir, img.Ref)
	}
	saved, err := os.ReadFile(img.Ref)
	if err != nil || !bytes.Equal(saved, raw) {
		t.Errorf("saved image differs from response (err %v)", err)
	}
	if img.MimeType != "image/png" || img.RevisedPrompt != "a red square" {
		t.Errorf("unexpected image metadata %+v", img)
	}
}

func TestOpenAIImagesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	g, _ := NewOpenAIImages(Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
	_, err := Run(context.Background(), g, Request{}, 5*time.Second)

	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if genErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", genErr.Status)
	}
}

func TestResponsesSendsReferencesAndDecodesImage(t *testing.T) {
	raw := pngBytes(t)
	var payload responsesPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "resp_1",
			"status": "completed",
			"output": []map[string]any{
				{"type": "reasoning", "id": "rs_1"},
				{"type": "image_generation_call", "id": "ig_1", "status": "completed", "result": base64.StdEncoding.EncodeToString(raw), "revised_prompt": "remix"},
				{"type": "message", "role": "assistant", "content": []map[string]any{{"type": "output_text", "text": "done"}}},
			},
		})
	}))
	defer srv.Close()

	g, err := NewResponses(Config{APIKey: "k", BaseURL: srv.URL, Size: "1024x1024"})
	if err != nil {
		t.Fatal(err)
	}

	refs := []string{"data:image/png;base64,AAA", "data:image/jpeg;base64,BBB"}
	img, err := Run(context.Background(), g, Request{References: refs}, 5*time.Second)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	content := payload.Input[0].Content
	if len(content) != 3 {
		t.Fatalf("expected prompt plus 2 images, got %d parts", len(content))
	}
	if content[0].Text != DefaultPrompt {
		t.Errorf("expected default prompt, got %q", content[0].Text)
	}
	if content[1].Type != "input_image" || content[1].ImageURL != refs[0] {
		t.Errorf("unexpected first reference %+v", content[1])
	}
	if payload.Tools[0].Type != "image_generation" || payload.Tools[0].Size != "1024x1024" {
		t.Errorf("unexpected tools %+v", payload.Tools)
	}

	if !strings.HasPrefix(img.Ref, "data:image/png;base64,") {
		t.Errorf("expected data url ref without output dir, got %.40s", img.Ref)
	}
	if img.RevisedPrompt != "remix" {
		t.Errorf("unexpected revised prompt %q", img.RevisedPrompt)
	}
}

func TestResponsesWithoutImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"r","output":[{"type":"message","content":[{"type":"output_text","text":"I cannot do that"}]}]}`)
	}))
	defer srv.Close()

	g, _ := NewResponses(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := Run(context.Background(), g, Request{Prompt: "x"}, 5*time.Second)

	if !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}

func TestResponsesNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key"}}`)
	}))
	defer srv.Close()

	g, _ := NewResponses(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := Run(context.Background(), g, Request{}, 5*time.Second)

	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 *Error, got %v", err)
	}
}

func TestResponsesTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g, _ := NewResponses(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := Run(context.Background(), g, Request{}, 20*time.Millisecond)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestImageFromBytesRejectsNonImage(t *testing.T) {
	_, err := imageFromBytes("test", []byte("hello world"), "")
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}
