package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

func resolvedRecord(title, artist, cleaned string) *domain.TrackRecord {
	track, _ := domain.NewCatalogTrack(title, artist)
	record := domain.NewTrackRecord(track, domain.NewMatchQuery(track))
	record.Resolve(cleaned)
	return record
}

func unresolvedRecord(title, artist string) *domain.TrackRecord {
	track, _ := domain.NewCatalogTrack(title, artist)
	return domain.NewTrackRecord(track, domain.NewMatchQuery(track))
}

func testDocument() *domain.PlaylistDocument {
	return &domain.PlaylistDocument{
		ID:         "doc-1",
		PlaylistID: "abc123",
		Status:     domain.DocumentStatusCrawled,
		Tracks: []*domain.TrackRecord{
			resolvedRecord("Stay (feat. Justin Bieber)", "The Kid LAROI", "I do the same thing"),
			resolvedRecord("Peaches", "Justin Bieber", "I got my peaches"),
			unresolvedRecord("Unknown", "Nobody"),
		},
	}
}

func newTestQuiz(repo *fakeRepo, analyzer *fakeAnalyzer, renderer *fakeRenderer) QuizService {
	s := NewQuizService(repo, analyzer, renderer, testLogger()).(*quizService)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestQuizService_QuizDataAnalyzesLazily(t *testing.T) {
	repo := newFakeRepo(testDocument())
	analyzer := &fakeAnalyzer{}
	quiz := newTestQuiz(repo, analyzer, &fakeRenderer{})

	items, err := quiz.QuizData(context.Background(), "doc-1")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Stay", items[0].Title)
	assert.Equal(t, "about Stay", items[0].Summary)
	assert.Equal(t, "I do the same thing", items[0].Lyrics)
	assert.Equal(t, []string{"Stay", "Peaches"}, analyzer.calls)

	stored, _ := repo.Get(context.Background(), "doc-1")
	assert.Equal(t, domain.DocumentStatusAnalyzed, stored.Status)
	require.NotNil(t, stored.AnalyzedAt)
	assert.Equal(t, 1, repo.updates)

	// already analyzed tracks are served from the document
	_, err = quiz.QuizData(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Len(t, analyzer.calls, 2)
	assert.Equal(t, 1, repo.updates)
}

func TestQuizService_QuizDataSkipsFailedAnalysis(t *testing.T) {
	repo := newFakeRepo(testDocument())
	quiz := newTestQuiz(repo, &fakeAnalyzer{err: errors.New("model offline")}, &fakeRenderer{})

	items, err := quiz.QuizData(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, repo.updates)
}

func TestQuizService_QuizDataMissingDocument(t *testing.T) {
	quiz := newTestQuiz(newFakeRepo(), &fakeAnalyzer{}, &fakeRenderer{})

	_, err := quiz.QuizData(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestQuizService_AnalyzeTrack(t *testing.T) {
	repo := newFakeRepo(testDocument())
	analyzer := &fakeAnalyzer{}
	quiz := newTestQuiz(repo, analyzer, &fakeRenderer{})

	analysis, err := quiz.AnalyzeTrack(context.Background(), "doc-1", "Peaches")
	require.NoError(t, err)
	assert.Equal(t, "about Peaches", analysis.Summary)
	assert.Zero(t, repo.updates)

	_, err = quiz.AnalyzeTrack(context.Background(), "doc-1", "Unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = quiz.AnalyzeTrack(context.Background(), "doc-1", "Missing")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestQuizService_WordCloud(t *testing.T) {
	repo := newFakeRepo(testDocument())
	renderer := &fakeRenderer{url: "https://cdn.example.com/stay.png"}
	quiz := newTestQuiz(repo, &fakeAnalyzer{}, renderer)

	url, err := quiz.WordCloud(context.Background(), "doc-1", "Stay")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/stay.png", url)
	assert.Equal(t, 1, repo.updates)

	stored, _ := repo.Get(context.Background(), "doc-1")
	track, err := stored.FindTrack("Stay")
	require.NoError(t, err)
	assert.Equal(t, url, track.WordCloudURL)

	again, err := quiz.WordCloud(context.Background(), "doc-1", "Stay")
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Equal(t, 1, renderer.calls)
}

func TestQuizService_WordCloudRenderError(t *testing.T) {
	repo := newFakeRepo(testDocument())
	quiz := newTestQuiz(repo, &fakeAnalyzer{}, &fakeRenderer{err: errors.New("503")})

	_, err := quiz.WordCloud(context.Background(), "doc-1", "Peaches")

	require.Error(t, err)
	assert.Zero(t, repo.updates)
}
