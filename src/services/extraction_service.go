package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/username/subtrack/backend/src/invoice"
	"github.com/username/subtrack/backend/src/logger"
)

const extractionPrompt = `Analyze this invoice document. Extract the invoice date, vendor name, net/base amount, VAT amount, total amount, and a list of line items (description and amount for each).
Respond with a single JSON object using exactly these keys:
{"date": "YYYY-MM-DD or null", "vendorName": "string or null", "baseAmount": number or null, "vatAmount": number or null, "totalAmount": number or null, "items": [{"description": "string", "amount": number}]}
Use null for anything you cannot determine. Do not include any other text.`

// ExtractorConfig configures the vision-model extraction client.
type ExtractorConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional OpenAI-compatible endpoint
}

type openAIExtractor struct {
	client *openai.Client
	model  string
}

// noopExtractor stands in when no API key is configured; every upload then
// proceeds with an empty shell.
type noopExtractor struct{}

func (noopExtractor) ExtractInvoice(context.Context, []byte, string) (*invoice.ExtractedInvoice, error) {
	return nil, nil
}

// NewDocumentExtractor builds the extraction client. With an empty API key it
// returns a no-op extractor rather than an error, so the upload flow keeps
// working without AI.
func NewDocumentExtractor(cfg ExtractorConfig) DocumentExtractor {
	if cfg.APIKey == "" {
		if logger.L != nil {
			logger.L.Warn("Document extraction disabled: no API key configured")
		}
		return noopExtractor{}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAIExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// ExtractInvoice sends the document inline as a base64 data URL and decodes
// the model's JSON answer. Any failure is reported to the caller, which
// degrades to an empty invoice shell; extraction never blocks an upload.
func (e *openAIExtractor) ExtractInvoice(ctx context.Context, data []byte, mimeType string) (*invoice.ExtractedInvoice, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		MaxTokens:   1500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}

	content := stripJSONFences(resp.Choices[0].Message.Content)
	var ext invoice.ExtractedInvoice
	if err := json.Unmarshal([]byte(content), &ext); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	return &ext, nil
}

// stripJSONFences removes a markdown code fence some models wrap around JSON
// answers despite the response-format hint.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
