// Package verifier implements the cognitive tier: the escalation decision
// engine, the OpenAI-compatible client that consults a remote model about
// ambiguous messages, response parsing with anti-hallucination validation,
// the double-pass controller and per-tier cost accounting. A failed or
// invalid verifier call is never an error for the pipeline; it degrades to
// heuristic-only scoring.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/httputil"
)

// Response is the validated verdict of one verifier pass. Constructed only
// after schema validation succeeds; an invalid raw response is discarded,
// never fused.
type Response struct {
	FraudProbability     int
	PrimaryCategory      string
	Subtype              string
	ManipulationLevel    int
	DetectedIntent       string
	TechnicalExplanation string
	ModelTier            config.VerifierTier
	TokensIn             int
	TokensOut            int
	CostUSD              float64
	LatencyMS            int64
}

// Client calls an OpenAI-compatible chat completions endpoint. Concurrency
// is bounded by a shared semaphore so a burst of ambiguous messages cannot
// stampede the upstream.
type Client struct {
	baseURL    string
	apiKey     string
	basicModel string
	deepModel  string
	timeout    time.Duration
	httpClient *http.Client
	sem        *httputil.Semaphore
}

// NewClient builds a verifier client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.VerifierBaseURL,
		apiKey:     cfg.VerifierAPIKey,
		basicModel: cfg.VerifierBasicModel,
		deepModel:  cfg.VerifierDeepModel,
		timeout:    time.Duration(cfg.VerifierTimeoutMs) * time.Millisecond,
		httpClient: httputil.MediumClient(),
		sem:        httputil.NewSemaphore(16),
	}
}

func (c *Client) modelFor(tier config.VerifierTier) string {
	if tier == config.TierDeep {
		return c.deepModel
	}
	return c.basicModel
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Verify runs one pass at the given tier. Any transport, parse or
// validation failure returns a nil Response with the error; callers treat
// nil as "verifier unavailable" and fall back to the heuristic score.
func (c *Client) Verify(ctx context.Context, text string, tier config.VerifierTier) (*Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("verifier: no API key configured")
	}
	if err := c.sem.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("verifier: concurrency slot: %w", err)
	}
	defer c.sem.Release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: c.modelFor(tier),
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(text, tier)},
		},
		Temperature: 0,
		MaxTokens:   600,
	})
	if err != nil {
		return nil, fmt.Errorf("verifier: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("verifier: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifier: %s call: %w", tier, err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := httputil.ReadErrorBody(resp.Body)
		return nil, fmt.Errorf("verifier: %s returned %d: %s", tier, resp.StatusCode, string(body))
	}

	body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("verifier: reading response: %w", err)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("verifier: decoding envelope: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("verifier: empty choices")
	}

	verdict, err := ParseVerdict(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("verifier: %s verdict rejected: %w", tier, err)
	}

	verdict.ModelTier = tier
	verdict.TokensIn = chat.Usage.PromptTokens
	verdict.TokensOut = chat.Usage.CompletionTokens
	verdict.CostUSD = Cost(tier, verdict.TokensIn, verdict.TokensOut)
	verdict.LatencyMS = time.Since(start).Milliseconds()

	log.Printf("verifier_pass | tier=%s prob=%d manip=%d latency_ms=%d cost_usd=%.6f",
		tier, verdict.FraudProbability, verdict.ManipulationLevel, verdict.LatencyMS, verdict.CostUSD)
	return verdict, nil
}
