package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini-backed provider.
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GeminiClient implements Provider on top of the genai SDK.
type GeminiClient struct {
	client *genai.Client
	logger *slog.Logger
}

var _ Provider = (*GeminiClient)(nil)

// NewGeminiClient constructs a client. Only local validation happens here; a bad
// key is reported by the service on the first real call.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client, logger: logger}, nil
}

// GeminiFactory returns a Factory producing GeminiClients that share base settings.
func GeminiFactory(base GeminiConfig) Factory {
	return func(ctx context.Context, apiKey string) (Provider, error) {
		cfg := base
		cfg.APIKey = apiKey
		return NewGeminiClient(ctx, cfg)
	}
}

// GenerateContent implements Provider.
func (c *GeminiClient) GenerateContent(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), toGenaiConfig(req.Config))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Gemini content generated", "model", req.Model, "candidates", len(resp.Candidates))
	return fromGenaiResponse(resp), nil
}

// CreateChat implements Provider.
func (c *GeminiClient) CreateChat(ctx context.Context, cfg ChatConfig) (ChatSession, error) {
	chat, err := c.client.Chats.Create(ctx, cfg.Model, toGenaiConfig(cfg.Config), nil)
	if err != nil {
		return nil, err
	}
	return &geminiChat{chat: chat}, nil
}

type geminiChat struct {
	chat *genai.Chat
}

func (s *geminiChat) Send(ctx context.Context, text string) (*Response, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return nil, err
	}
	return fromGenaiResponse(resp), nil
}

func toGenaiConfig(cfg GenerateConfig) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{}
	if cfg.SystemInstruction != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.SystemInstruction}}}
	}
	for _, t := range cfg.Tools {
		if t.Search {
			out.Tools = append(out.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		}
	}
	for _, s := range cfg.SafetySettings {
		out.SafetySettings = append(out.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	if cfg.ThinkingBudget != nil {
		budget := *cfg.ThinkingBudget
		out.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	return out
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	out.Text = resp.Text()
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return out
	}
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out.Citations = append(out.Citations, Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}
