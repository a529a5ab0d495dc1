package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andrewyy141/market-intel-bot/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	// classifications below this model confidence are reported as Neutral
	minModelScore = 0.6
	maxPromptLen  = 2000
)

// GeminiConfig holds the settings for the Gemini-backed analyzer.
type GeminiConfig struct {
	APIKey              string
	Model               string
	BaseURL             string
	MaxRequestPerMinute int
}

// GeminiAnalyzer asks the Gemini API to classify financial text. The genai
// client is used for token accounting; generation goes through the REST
// generateContent endpoint.
type GeminiAnalyzer struct {
	cfg            GeminiConfig
	client         *http.Client
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
	logger         *logger.Logger
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiClassification struct {
	Direction string  `json:"direction"`
	Score     float64 `json:"score"`
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer.
func NewGeminiAnalyzer(ctx context.Context, cfg GeminiConfig, log *logger.Logger) (*GeminiAnalyzer, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.MaxRequestPerMinute <= 0 {
		cfg.MaxRequestPerMinute = 15
	}

	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)
	return &GeminiAnalyzer{
		cfg:            cfg,
		client:         &http.Client{Timeout: 30 * time.Second},
		genAiClient:    genAiClient,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		logger:         log,
	}, nil
}

// Direction classifies text. Low-confidence classifications come back
// Neutral.
func (a *GeminiAnalyzer) Direction(ctx context.Context, text string) (Direction, error) {
	if len(text) > maxPromptLen {
		text = text[:maxPromptLen]
	}
	prompt := buildSentimentPrompt(text)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	tokenResp, err := a.genAiClient.Models.CountTokens(ctx, a.cfg.Model, contents, nil)
	if err == nil {
		a.logger.Debug("Gemini token count", logger.IntField("total_tokens", int(tokenResp.TotalTokens)))
	}

	if err := a.requestLimiter.Wait(ctx); err != nil {
		return Neutral, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return Neutral, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", a.cfg.BaseURL, a.cfg.Model, a.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return Neutral, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Neutral, fmt.Errorf("failed to call Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Neutral, fmt.Errorf("non-OK response from Gemini API: %d - %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return Neutral, fmt.Errorf("failed to decode response: %w", err)
	}

	return parseClassification(&geminiResp)
}

func parseClassification(resp *geminiResponse) (Direction, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Neutral, fmt.Errorf("no content in Gemini response")
	}

	jsonString := strings.Trim(resp.Candidates[0].Content.Parts[0].Text, "`json\n`")

	var classification geminiClassification
	if err := json.Unmarshal([]byte(jsonString), &classification); err != nil {
		return Neutral, fmt.Errorf("failed to unmarshal classification: %w", err)
	}

	if classification.Score < minModelScore {
		return Neutral, nil
	}

	switch strings.ToLower(classification.Direction) {
	case "positive", "bullish":
		return Bullish, nil
	case "negative", "bearish":
		return Bearish, nil
	default:
		return Neutral, nil
	}
}

func buildSentimentPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Classify the market sentiment of the following financial text.\n")
	b.WriteString("Respond with JSON only, no prose, in the shape ")
	b.WriteString(`{"direction": "positive|negative|neutral", "score": 0.0-1.0}`)
	b.WriteString(" where score is your confidence in the classification.\n\nText:\n")
	b.WriteString(text)
	return b.String()
}
