package generator

import (
	"encoding/json"
)

type responsesPayload struct {
	Model string           `json:"model"`
	Input []responsesInput `json:"input"`
	Tools []responsesTool  `json:"tools"`
}

type responsesInput struct {
	Role    string             `json:"role"`
	Content []responsesContent `json:"content"`
}

type responsesContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type responsesTool struct {
	Type string `json:"type"`
	Size string `json:"size,omitempty"`
}

type responsesError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type responsesResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  *responsesError `json:"error"`
	Model  string          `json:"model"`
	Output []outputItem    `json:"output"`
}

type outputItem interface {
	itemType() string
}

type imageGenerationCall struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	OutputFormat  string `json:"output_format"`
	Result        string `json:"result"`
	RevisedPrompt string `json:"revised_prompt"`
	Size          string `json:"size"`
}

func (i imageGenerationCall) itemType() string { return i.Type }

type outputMessage struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (m outputMessage) itemType() string { return m.Type }

// UnmarshalJSON picks the concrete output item by its type field. Item types
// this package does not use are skipped.
func (r *responsesResponse) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID     string            `json:"id"`
		Status string            `json:"status"`
		Error  *responsesError   `json:"error"`
		Model  string            `json:"model"`
		Output []json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	r.ID = temp.ID
	r.Status = temp.Status
	r.Error = temp.Error
	r.Model = temp.Model
	r.Output = make([]outputItem, 0, len(temp.Output))

	for _, raw := range temp.Output {
		var typeCheck struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &typeCheck); err != nil {
			return err
		}

		switch typeCheck.Type {
		case "image_generation_call":
			var img imageGenerationCall
			if err := json.Unmarshal(raw, &img); err != nil {
				return err
			}
			r.Output = append(r.Output, img)

		case "message":
			var msg outputMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				return err
			}
			r.Output = append(r.Output, msg)
		}
	}

	return nil
}
