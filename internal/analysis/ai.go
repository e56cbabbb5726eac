package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vxvxzs/RaceSpace/internal/config"
)

const promptExcerptLimit = 1500

// Narrator produces a structured report from a natural-language prompt.
// The AI completion endpoint is an opaque collaborator: any schema
// deviation in its reply counts as failure and the caller falls back to
// the synthetic narrative.
type Narrator interface {
	Summarize(ctx context.Context, prompt string) (Report, error)
}

type AIClient struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	http     *http.Client
}

func NewAIClient(cfg config.Config) *AIClient {
	timeout := time.Duration(cfg.AITimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &AIClient{
		endpoint: cfg.AIEndpoint,
		apiKey:   cfg.AIAPIKey,
		model:    cfg.AIModel,
		timeout:  timeout,
		http:     &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize posts the prompt to the chat-completion endpoint. One attempt,
// explicit timeout, no retries: on failure the request falls through to
// the synthetic path instead of hanging or erroring out.
func (c *AIClient) Summarize(ctx context.Context, prompt string) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Report{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Report{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("ai endpoint returned status %d", resp.StatusCode)
	}

	var reply chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Report{}, err
	}
	if len(reply.Choices) == 0 {
		return Report{}, errors.New("ai reply has no choices")
	}

	var report Report
	if err := json.Unmarshal([]byte(reply.Choices[0].Message.Content), &report); err != nil {
		return Report{}, fmt.Errorf("ai reply is not a report object: %w", err)
	}
	return report, nil
}

// buildPrompt embeds a truncated excerpt of the raw upload so the model
// sees real column names and magnitudes without the full file.
func buildPrompt(data []byte, problemCount int) string {
	excerpt := string(data)
	if len(excerpt) > promptExcerptLimit {
		excerpt = excerpt[:promptExcerptLimit]
	}
	return fmt.Sprintf(
		"You are a racing driving coach. A telemetry scan flagged %d potential mistakes. "+
			"Summarize the lap and reply with a single JSON object with fields: "+
			"lap_time (\"m:ss.mmm\"), top_speed (number), sectors (array of {number, time, mistakes}), "+
			"turns (array of {turn, entry_speed, apex_speed, braking}), recommendations (array of strings).\n\n"+
			"Telemetry excerpt:\n%s",
		problemCount, excerpt)
}
