// Package openai extracts receipts from document images with an OpenAI chat model.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
)

const (
	temperature = 0.2
	schemaName  = "receipts_extraction"
)

const prompt = `Extract every receipt visible in this document.
Return one entry per receipt. Dates are YYYY-MM-DD.
category must be one of: %s.
Amounts, quantities and prices are plain numbers without currency symbols.
Use an empty string for any text you cannot read and 0 for any number you cannot read.
If the document contains no receipt, return an empty receipts list.`

// Gateway implements ports.ExtractionGateway over the chat completions API.
type Gateway struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
	schema  jsonschema.Definition
}

var _ ports.ExtractionGateway = (*Gateway)(nil)

// NewGateway creates a gateway. An empty baseURL uses the public API; a zero timeout leaves calls unbounded.
func NewGateway(apiKey, model, baseURL string, timeout time.Duration) *Gateway {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Gateway{
		client:  goopenai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		schema:  receiptsSchema(),
	}
}

func receiptsSchema() jsonschema.Definition {
	str := jsonschema.Definition{Type: jsonschema.String}
	num := jsonschema.Definition{Type: jsonschema.Number}

	item := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"item":          str,
			"quantity":      num,
			"unit":          str,
			"unitPrice":     num,
			"discountPrice": num,
			"notes":         str,
		},
		Required:             []string{"item", "quantity", "unit", "unitPrice", "discountPrice", "notes"},
		AdditionalProperties: false,
	}
	receipt := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"description": str,
			"date":        str,
			"category":    {Type: jsonschema.String, Enum: categoryNames()},
			"amount":      num,
			"notes":       str,
			"details":     {Type: jsonschema.Array, Items: &item},
		},
		Required:             []string{"description", "date", "category", "amount", "notes", "details"},
		AdditionalProperties: false,
	}
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"receipts": {Type: jsonschema.Array, Items: &receipt},
		},
		Required:             []string{"receipts"},
		AdditionalProperties: false,
	}
}

func categoryNames() []string {
	names := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		names = append(names, string(c))
	}
	return names
}

func (g *Gateway) request(imageURL string) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{
						Type: goopenai.ChatMessagePartTypeText,
						Text: fmt.Sprintf(prompt, strings.Join(categoryNames(), ", ")),
					},
					{
						Type:     goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{URL: imageURL, Detail: goopenai.ImageURLDetailAuto},
					},
				},
			},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &g.schema,
				Strict: true,
			},
		},
	}
}

// Extract asks the model for every receipt in the image at imageURL.
func (g *Gateway) Extract(ctx context.Context, imageURL string) ([]domain.ExtractedReceipt, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, g.request(imageURL))
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			logger.Error("Extraction API returned an error", slog.Int("status", apiErr.HTTPStatusCode), slog.String("error", apiErr.Message))
		}
		return nil, fmt.Errorf("%w: %w", ports.ErrExtractionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ports.ErrExtractionFailed)
	}

	receipts, err := parseContent(resp.Choices[0].Message.Content)
	if err != nil {
		logger.Warn("Extraction response was not valid JSON", slog.String("content", resp.Choices[0].Message.Content))
		return nil, err
	}

	logger.Info("Extraction finished",
		slog.String("model", resp.Model),
		slog.Int("receipts", len(receipts)),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
		slog.Duration("latency", time.Since(start)),
	)
	return receipts, nil
}

type extractionResponse struct {
	Receipts []domain.ExtractedReceipt `json:"receipts"`
}

// stripFences removes a markdown code fence some models wrap around JSON output.
func stripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop a language tag such as "json"
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseContent decodes the model's message. JSON nulls decode to zero values.
func parseContent(content string) ([]domain.ExtractedReceipt, error) {
	body := stripFences(content)
	if body == "" {
		return nil, fmt.Errorf("%w: empty content", ports.ErrExtractionFailed)
	}

	var out extractionResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("%w: decode content: %w", ports.ErrExtractionFailed, err)
	}
	if out.Receipts == nil {
		return []domain.ExtractedReceipt{}, nil
	}
	for i := range out.Receipts {
		if out.Receipts[i].Details == nil {
			out.Receipts[i].Details = []domain.ExtractedItem{}
		}
	}
	return out.Receipts, nil
}
