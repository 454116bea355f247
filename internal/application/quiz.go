package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/dynamodb"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/http"
)

type QuizItem struct {
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Lyrics   string   `json:"lyrics"`
}

// QuizService enriches stored documents after a crawl. Analysis results are
// written back so repeated quiz requests do not hit the analyzer again.
type QuizService interface {
	QuizData(ctx context.Context, docID string) ([]QuizItem, error)
	AnalyzeTrack(ctx context.Context, docID, title string) (*http.Analysis, error)
	WordCloud(ctx context.Context, docID, title string) (string, error)
}

type quizService struct {
	repo     dynamodb.PlaylistRepository
	analyzer http.AnalyzerClient
	renderer http.RendererClient
	logger   *log.Logger
	now      func() time.Time
}

func NewQuizService(
	repo dynamodb.PlaylistRepository,
	analyzer http.AnalyzerClient,
	renderer http.RendererClient,
	logger *log.Logger,
) QuizService {
	return &quizService{
		repo:     repo,
		analyzer: analyzer,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *quizService) QuizData(ctx context.Context, docID string) ([]QuizItem, error) {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	items := make([]QuizItem, 0, len(doc.Tracks))
	needsUpdate := false

	for _, track := range doc.Tracks {
		lyrics := strings.TrimSpace(track.LyricsCleaned)
		if lyrics == "" {
			continue
		}

		if track.Summary == "" {
			analysis, err := s.analyzer.Analyze(ctx, lyrics, track.Key())
			if err != nil {
				s.logger.Warn("skipping track, analysis failed", "doc", docID, "title", track.Key(), "err", err)
				continue
			}
			track.Summary = analysis.Summary
			track.Keywords = analysis.Keywords
			needsUpdate = true
		}

		if !track.IsAnalyzed() {
			s.logger.Warn("skipping track with empty analysis", "doc", docID, "title", track.Key())
			continue
		}

		items = append(items, QuizItem{
			Title:    track.Key(),
			Artist:   track.Artist,
			Summary:  track.Summary,
			Keywords: track.Keywords,
			Lyrics:   lyrics,
		})
	}

	if needsUpdate {
		doc.MarkAnalyzed(s.now().UTC())
		if err := s.repo.UpdateTracks(ctx, doc.ID, doc.Tracks, doc.Status, doc.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("failed to save analysis: %w", err)
		}
	}

	return items, nil
}

func (s *quizService) AnalyzeTrack(ctx context.Context, docID, title string) (*http.Analysis, error) {
	_, track, err := s.findTrack(ctx, docID, title)
	if err != nil {
		return nil, err
	}
	if !track.IsResolved() {
		return nil, fmt.Errorf("%w: track %q has no lyrics", domain.ErrInvalidInput, title)
	}

	return s.analyzer.Analyze(ctx, track.LyricsCleaned, track.Key())
}

func (s *quizService) WordCloud(ctx context.Context, docID, title string) (string, error) {
	doc, track, err := s.findTrack(ctx, docID, title)
	if err != nil {
		return "", err
	}
	if track.WordCloudURL != "" {
		return track.WordCloudURL, nil
	}
	if !track.IsResolved() {
		return "", fmt.Errorf("%w: track %q has no lyrics", domain.ErrInvalidInput, title)
	}

	url, err := s.renderer.Render(ctx, track.LyricsCleaned, track.Key(), track.Artist)
	if err != nil {
		return "", fmt.Errorf("failed to render word cloud: %w", err)
	}

	track.WordCloudURL = url
	if err := s.repo.UpdateTracks(ctx, doc.ID, doc.Tracks, doc.Status, doc.AnalyzedAt); err != nil {
		s.logger.Warn("failed to save word cloud url", "doc", docID, "title", title, "err", err)
	}

	return url, nil
}

func (s *quizService) findTrack(ctx context.Context, docID, title string) (*domain.PlaylistDocument, *domain.TrackRecord, error) {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document: %w", err)
	}

	track, err := doc.FindTrack(title)
	if err != nil {
		return nil, nil, err
	}
	return doc, track, nil
}
