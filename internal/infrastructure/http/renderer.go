package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
)

// RendererClient asks the word-cloud service to render and upload an image.
type RendererClient interface {
	Render(ctx context.Context, text, title, artist string) (string, error)
}

type rendererClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRendererClient(cfg config.ServiceConfig) RendererClient {
	return &rendererClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type renderResponse struct {
	URL string `json:"url"`
}

func (c *rendererClient) Render(ctx context.Context, text, title, artist string) (string, error) {
	var out renderResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/render", map[string]string{
		"text":   text,
		"title":  title,
		"artist": artist,
	}, &out); err != nil {
		return "", fmt.Errorf("failed to render word cloud for %q: %w", title, err)
	}

	if out.URL == "" {
		return "", errors.New("renderer returned an empty url")
	}
	return out.URL, nil
}
