package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// StagePrompt is the fixed prompt template used for every growth-stage image.
func StagePrompt(common, stage string) string {
	return fmt.Sprintf(
		"A single %s plant at the %s growth stage, flat vector illustration style, centered, plain white background, no text",
		common, stage,
	)
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage renders a prompt into raster bytes via the image-generation
// API (base64 response, decoded here).
func GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	model := os.Getenv("IMAGEGEN_MODEL")
	if model == "" {
		model = "gpt-image-1"
	}

	body, err := json.Marshal(imageRequest{
		Model:  model,
		Prompt: prompt,
		Size:   "1024x1024",
		N:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("IMAGEGEN_API_KEY"))
	req.Header.Set("Content-Type", "application/json")

	res, err := httpCli.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image generation http %d", res.StatusCode)
	}

	var resp imageResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image generation returned no data")
	}
	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}
