package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loan-forecast/internal/domain/amortization"
)

const systemPrompt = "You are a financial advisor."

type OpenAIConfig struct {
	APIURL      string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type OpenAIGenerator struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

var _ Generator = (*OpenAIGenerator)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai report provider requires an API key")
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("openai report provider requires an API URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGenerator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, rows []amortization.InstallmentRow) (string, error) {
	reqBody := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(rows)},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response from model")
	}

	return out.Choices[0].Message.Content, nil
}

func buildPrompt(rows []amortization.InstallmentRow) string {
	var b strings.Builder
	b.WriteString("Given the following loan repayment schedule, generate:\n")
	b.WriteString("1. Summary of total principal, interest, and penalty.\n")
	b.WriteString("2. Identify any patterns.\n")
	b.WriteString("3. Provide tips to optimize repayment.\n\n")
	b.WriteString("Schedule:\n")
	for _, row := range rows {
		if row.EarlyClosure {
			fmt.Fprintf(&b, "%s\n", row.Note)
			continue
		}
		fmt.Fprintf(&b, "Installment %d: Due %s, Principal %s, Interest %s, Penalty %s, Amount Due %s\n",
			row.Sequence,
			row.DueDate.Format("2006-01-02"),
			row.Principal.StringFixed(2),
			row.Interest.StringFixed(2),
			row.Penalty.StringFixed(2),
			row.AmountDue.StringFixed(2),
		)
	}
	return b.String()
}
