package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

const (
	providerName    = "genius"
	minHitScore     = 0.75
	titleWeight     = 0.7
	artistWeight    = 0.3
	maxPageBodySize = 4 << 20
)

type LyricsProvider interface {
	// Search returns nil without error when the provider has no matching song.
	Search(ctx context.Context, title, artist string) (*domain.LyricsDocument, error)
}

type geniusProvider struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *log.Logger
}

func NewGeniusProvider(cfg config.GeniusConfig, logger *log.Logger) (LyricsProvider, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
		logger.Info("genius requests use proxy", "host", proxy.Host)
	}

	var limiter *rate.Limiter
	if cfg.RequestRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestRate), 1)
	}

	return &geniusProvider{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: limiter,
		logger:  logger,
	}, nil
}

type geniusSearchResponse struct {
	Response struct {
		Hits []geniusHit `json:"hits"`
	} `json:"response"`
}

type geniusHit struct {
	Type   string `json:"type"`
	Result struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		PrimaryArtist struct {
			Name string `json:"name"`
		} `json:"primary_artist"`
	} `json:"result"`
}

func (p *geniusProvider) Search(ctx context.Context, title, artist string) (*domain.LyricsDocument, error) {
	hit, err := p.searchSong(ctx, title, artist)
	if err != nil || hit == nil {
		return nil, err
	}

	lyrics, err := p.fetchLyrics(ctx, hit.Result.URL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(lyrics) == "" {
		p.logger.Debug("song page has no lyrics", "url", hit.Result.URL)
		return nil, nil
	}

	return &domain.LyricsDocument{
		Title:  hit.Result.Title,
		Artist: hit.Result.PrimaryArtist.Name,
		URL:    hit.Result.URL,
		Lyrics: lyrics,
	}, nil
}

func (p *geniusProvider) searchSong(ctx context.Context, title, artist string) (*geniusHit, error) {
	endpoint := p.baseURL + "/search?q=" + url.QueryEscape(title+" "+artist)

	body, err := p.get(ctx, "search", endpoint, true)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var result geniusSearchResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, domain.NewProviderError(providerName, "search", 0, fmt.Errorf("failed to decode response: %w", err))
	}

	return bestHit(result.Response.Hits, title, artist), nil
}

// bestHit prefers an exact title match by the requested artist, then the
// highest weighted Jaro-Winkler similarity above minHitScore.
func bestHit(hits []geniusHit, title, artist string) *geniusHit {
	wantTitle := normalizeForCompare(title)
	wantArtist := normalizeForCompare(artist)
	jw := metrics.NewJaroWinkler()

	var best *geniusHit
	bestScore := 0.0

	for i := range hits {
		hit := &hits[i]
		if hit.Type != "song" || hit.Result.URL == "" {
			continue
		}

		gotTitle := normalizeForCompare(hit.Result.Title)
		gotArtist := normalizeForCompare(hit.Result.PrimaryArtist.Name)

		if gotTitle == wantTitle && gotArtist != "" && strings.Contains(wantArtist, gotArtist) {
			return hit
		}

		score := titleWeight*strutil.Similarity(wantTitle, gotTitle, jw) +
			artistWeight*strutil.Similarity(wantArtist, gotArtist, jw)
		if score > bestScore {
			best, bestScore = hit, score
		}
	}

	if bestScore < minHitScore {
		return nil
	}
	return best
}

func normalizeForCompare(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func (p *geniusProvider) fetchLyrics(ctx context.Context, pageURL string) (string, error) {
	body, err := p.get(ctx, "lyrics", pageURL, false)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := html.Parse(io.LimitReader(body, maxPageBodySize))
	if err != nil {
		return "", domain.NewProviderError(providerName, "lyrics", 0, fmt.Errorf("failed to parse page: %w", err))
	}

	return extractLyrics(doc), nil
}

func (p *geniusProvider) get(ctx context.Context, op, endpoint string, authorized bool) (io.ReadCloser, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, domain.NewProviderError(providerName, op, 0, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewProviderError(providerName, op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+p.accessToken)
		req.Header.Set("Accept", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(providerName, op, 0, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, domain.NewProviderError(providerName, op, resp.StatusCode, domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, domain.NewProviderError(providerName, op, resp.StatusCode, errors.New(strings.TrimSpace(string(snippet))))
	}

	return resp.Body, nil
}

// extractLyrics concatenates every lyrics container on a song page.
func extractLyrics(doc *html.Node) string {
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && attr(n, "data-lyrics-container") == "true" {
			var buf strings.Builder
			writeText(n, &buf)
			parts = append(parts, buf.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func writeText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "br" {
			buf.WriteString("\n")
			return
		}
		if attr(n, "data-exclude-from-selection") == "true" {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, buf)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
