package explore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const insightPrompt = `You are a short-video trend analyst. A keyword exploration starting from the seed term %q discovered the related keywords below, each with how it was reached and its reach/engagement signals.

Group the discoveries into a few coherent themes and note anything striking about the keyword space (emerging niches, saturated areas, surprising connections).

Discoveries:
%s

Respond with a JSON object:
{"themes":[{"name":"short theme label","keywords":["kw1","kw2"]}],"observations":["one sentence each"]}

Return ONLY the JSON object, no other text.`

// Theme is one named grouping of discovered keywords.
type Theme struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Insights is the categorized narrative summary of an exploration run.
type Insights struct {
	Themes       []Theme  `json:"themes"`
	Observations []string `json:"observations"`
}

// InsightSynthesizer summarizes discoveries via an external text-generation
// provider. It is always optional: any failure degrades to "no insights".
type InsightSynthesizer struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
}

// NewInsightSynthesizer creates a synthesizer for the given provider.
func NewInsightSynthesizer(provider, model, apiKey, baseURL string) *InsightSynthesizer {
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}
	return &InsightSynthesizer{
		client:   &http.Client{Timeout: 60 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

// Synthesize produces insights over a discovery list.
func (s *InsightSynthesizer) Synthesize(ctx context.Context, seed string, discoveries []Discovery) (*Insights, error) {
	if len(discoveries) == 0 {
		return nil, fmt.Errorf("no discoveries to summarize")
	}

	var lines []string
	for _, d := range discoveries {
		lines = append(lines, fmt.Sprintf("- %s | depth %d | via %s | videos %d | views %d | engagement %.2f%%",
			d.Keyword, d.Depth, d.Relation, d.Videos, d.TotalViews, d.AvgEngagement))
	}
	prompt := fmt.Sprintf(insightPrompt, seed, strings.Join(lines, "\n"))

	var raw string
	var err error
	switch s.provider {
	case "anthropic":
		raw, err = s.callAnthropic(ctx, prompt)
	default:
		raw, err = s.callOpenAI(ctx, prompt)
	}
	if err != nil {
		return nil, err
	}

	raw = stripCodeFence(raw)

	var insights Insights
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		return nil, fmt.Errorf("parse insight response: %w", err)
	}
	if len(insights.Themes) == 0 && len(insights.Observations) == 0 {
		return nil, fmt.Errorf("provider returned nothing usable")
	}
	return &insights, nil
}

// stripCodeFence removes a wrapping markdown code block, which chat models
// add despite instructions.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw[3:], "\n"); idx >= 0 {
			raw = raw[3+idx+1:]
		}
		if strings.HasSuffix(raw, "```") {
			raw = raw[:len(raw)-3]
		}
		raw = strings.TrimSpace(raw)
	}
	return raw
}

func (s *InsightSynthesizer) callOpenAI(ctx context.Context, prompt string) (string, error) {
	baseURL := s.baseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("openai status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (s *InsightSynthesizer) callAnthropic(ctx context.Context, prompt string) (string, error) {
	baseURL := s.baseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	payload := map[string]any{
		"model":      s.model,
		"max_tokens": 2048,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("anthropic status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: no content returned")
	}
	return result.Content[0].Text, nil
}
