package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	Client     *genai.Client
	FlashModel *genai.GenerativeModel
	ProModel   *genai.GenerativeModel
}

func NewGenAIClient(ctx context.Context, apiKey, flashModelName, proModelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	flash := client.GenerativeModel(flashModelName)
	flash.ResponseMIMEType = "application/json"
	flash.SetTemperature(0.2)

	return &GeminiClient{
		Client:     client,
		FlashModel: flash,
		ProModel:   client.GenerativeModel(proModelName),
	}, nil
}

// NewClientsFromKeys builds one client per API key, skipping keys that fail to initialise.
func NewClientsFromKeys(ctx context.Context, keys []string, flashModelName, proModelName string) []GeminiClient {
	clients := make([]GeminiClient, 0, len(keys))
	for i, key := range keys {
		c, err := NewGenAIClient(ctx, key, flashModelName, proModelName)
		if err != nil {
			slog.Error("skipping Gemini key", "index", i, "error", err)
			continue
		}
		clients = append(clients, *c)
	}
	return clients
}

// SendAIWithImage sends a prompt and a single photo to the flash model and
// decodes the JSON object it answers with.
func (g *GeminiClient) SendAIWithImage(ctx context.Context, prompt string, image []byte) (map[string]any, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}

	resp, err := g.FlashModel.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: DetectImageMIMEType(image), Data: image},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with image: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no content returned from AI")
	}

	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}
	return ParseJSONResponse(string(textPart))
}

// ParseJSONResponse strips an optional markdown fence and decodes the object.
func ParseJSONResponse(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI response to JSON: %w. Raw response was: %s", err, text)
	}
	return result, nil
}

// DetectImageMIMEType sniffs the common photo formats by magic bytes.
func DetectImageMIMEType(data []byte) string {
	if len(data) < 8 {
		return "image/jpeg"
	}

	switch {
	case data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png"
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38:
		return "image/gif"
	case data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		len(data) > 11 && data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50:
		return "image/webp"
	case data[0] == 0x42 && data[1] == 0x4D:
		return "image/bmp"
	}
	return "image/jpeg"
}

func (g *GeminiClient) Close() error {
	if g.Client == nil {
		return nil
	}
	return g.Client.Close()
}
