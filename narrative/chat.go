package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"airfare-insights/models"
	"airfare-insights/utils"
)

const (
	systemPrompt = "You are an expert airline industry analyst. Provide clear, actionable insights based on the data provided."
	maxKeyPoints = 5
)

var keyPointWords = []string{"trend", "increase", "decrease", "recommend", "opportunity", "risk"}

var kindPrompts = map[string]string{
	KindTrends: `Analyze the following airline booking data and provide insights about market trends.
Please provide: key market trends, seasonal patterns or anomalies, price trend analysis for each route,
recommendations for travelers and businesses, and future market predictions based on current patterns.`,
	KindPricing: `Analyze the following airline pricing data and provide pricing insights.
Please provide: pricing patterns, price volatility analysis, optimal booking timing recommendations,
price comparison across routes, and factors affecting pricing decisions.`,
	KindDemand: `Analyze the following airline demand data and provide demand insights.
Please provide: demand patterns and drivers, high-demand vs low-demand routes, seasonal demand variations,
demand forecasting insights, and business opportunities based on demand patterns.`,
	KindGeneral: `Provide a comprehensive analysis of the following airline booking data.
Please provide: an overall market overview, key insights and patterns, business implications,
recommendations for different stakeholders, and risk factors and opportunities.`,
}

// ChatConfig configures the chat-completion endpoint. URL is the API base
// (https://api.openai.com/v1); a full .../chat/completions URL is accepted too.
type ChatConfig struct {
	APIKey     string
	URL        string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// ChatGenerator asks an OpenAI-compatible chat-completion endpoint for a
// narrative and falls back to the deterministic generator on any failure.
type ChatGenerator struct {
	cfg      ChatConfig
	client   *openai.Client
	fallback Generator
	logger   *utils.Logger
}

func NewChatGenerator(cfg ChatConfig, fallback Generator, logger *utils.Logger) *ChatGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSuffix(strings.TrimRight(cfg.URL, "/"), "/chat/completions"); base != "" {
		clientCfg.BaseURL = base
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &ChatGenerator{
		cfg:      cfg,
		client:   openai.NewClientWithConfig(clientCfg),
		fallback: fallback,
		logger:   logger,
	}
}

func (g *ChatGenerator) Generate(ctx context.Context, report *models.AnalysisReport, kind string) (*Insight, error) {
	if report == nil {
		return nil, errNoReport()
	}
	kind = ParseKind(kind)

	content, err := g.complete(ctx, report, kind)
	if err != nil {
		g.logger.Warn("Chat analysis failed, using fallback: %v", err)
		return g.fallback.Generate(ctx, report, kind)
	}

	insight, err := g.fallback.Generate(ctx, report, kind)
	if err != nil {
		return nil, err
	}
	insight.Source = SourceChat
	insight.Analysis = content
	insight.KeyPoints = ExtractKeyPoints(content)
	return insight, nil
}

func (g *ChatGenerator) complete(ctx context.Context, report *models.AnalysisReport, kind string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", fmt.Errorf("no API key configured")
	}
	data, err := json.MarshalIndent(Summarize(report), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	req := openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: kindPrompts[kind] + "\n\nData Summary:\n" + string(data)},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}

	var content string
	err = utils.RetryWithBackoff(ctx, g.cfg.MaxRetries, func() error {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("chat completion rejected (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
			}
			return fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return fmt.Errorf("empty completion")
		}
		content = resp.Choices[0].Message.Content
		return nil
	}, g.logger)
	return content, err
}

// ExtractKeyPoints returns up to five sentences mentioning trends, changes,
// recommendations, opportunities or risks.
func ExtractKeyPoints(text string) []string {
	points := []string{}
	for _, sentence := range strings.Split(text, ". ") {
		lower := strings.ToLower(sentence)
		for _, w := range keyPointWords {
			if strings.Contains(lower, w) {
				points = append(points, strings.TrimSpace(sentence))
				break
			}
		}
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}
