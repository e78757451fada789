package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// ErrEmptyResponse is returned when Gemini answers without any text.
var ErrEmptyResponse = errors.New("empty response from Gemini")

const ocrPrompt = "Transcribe all text visible in this image exactly as written, one line per printed line. Return only the text, without commentary or markdown. If there is no text, return an empty response."

// Client is a client for the Gemini API.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: client.GenerativeModel(model)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateImageHash calculates the SHA256 hash of the image data.
func GenerateImageHash(imageData []byte) string {
	hash := sha256.Sum256(imageData)
	return hex.EncodeToString(hash[:])
}

// Generate sends a text prompt and returns the answer text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return responseText(resp)
}

// Recognize returns the text found in an image. format is the image subtype,
// e.g. "png" or "jpeg".
func (c *Client) Recognize(ctx context.Context, imageData []byte, format string) (string, error) {
	prompt := []genai.Part{
		genai.ImageData(format, imageData),
		genai.Text(ocrPrompt),
	}
	resp, err := c.model.GenerateContent(ctx, prompt...)
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}
	text, err := responseText(resp)
	if errors.Is(err, ErrEmptyResponse) {
		return "", nil // No text in the image
	}
	return text, err
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(sb.String()), nil
}
