package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
)

type Analysis struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// AnalyzerClient calls the summarization and keyword service.
type AnalyzerClient interface {
	Analyze(ctx context.Context, text, title string) (*Analysis, error)
}

type analyzerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAnalyzerClient(cfg config.ServiceConfig) AnalyzerClient {
	return &analyzerClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *analyzerClient) Analyze(ctx context.Context, text, title string) (*Analysis, error) {
	var analysis Analysis
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/analyze", map[string]string{
		"text":  text,
		"title": title,
	}, &analysis); err != nil {
		return nil, fmt.Errorf("failed to analyze %q: %w", title, err)
	}
	return &analysis, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
