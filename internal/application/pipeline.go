package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/metrics"
)

type Stage string

const (
	StageStart      Stage = "START"
	StageNormalized Stage = "NORMALIZED"
	StageMatched    Stage = "MATCHED"
	StageCleaned    Stage = "CLEANED"
	StageDone       Stage = "DONE"
	StageSkipped    Stage = "SKIPPED"
)

var errMissingPayload = errors.New("track payload is missing")

type TrackResult struct {
	Record *domain.TrackRecord
	Stage  Stage
	Err    error
}

func (r TrackResult) Skipped() bool {
	return r.Stage == StageSkipped
}

func skipped(err error) TrackResult {
	return TrackResult{Stage: StageSkipped, Err: err}
}

type TrackProcessor interface {
	// Process never panics and never returns a batch-level error; anything
	// unrecoverable yields a Skipped result.
	Process(ctx context.Context, track *domain.CatalogTrack) TrackResult
}

type trackProcessor struct {
	matcher LyricMatcher
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewTrackProcessor(matcher LyricMatcher, m *metrics.Metrics, logger *log.Logger) TrackProcessor {
	return &trackProcessor{matcher: matcher, metrics: m, logger: logger}
}

func (p *trackProcessor) Process(ctx context.Context, track *domain.CatalogTrack) (result TrackResult) {
	stage := StageStart

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while processing track", "stage", stage, "panic", r)
			result = skipped(fmt.Errorf("panic at %s: %v", stage, r))
		}
		p.metrics.TrackProcessed(outcomeOf(result))
	}()

	if track == nil {
		p.logger.Warn("skipping track", "err", errMissingPayload)
		return skipped(errMissingPayload)
	}
	if track.Title == "" || track.Artist == "" {
		p.logger.Warn("skipping track without title or artist", "id", track.ID)
		return skipped(errMissingPayload)
	}

	query := domain.NewMatchQuery(track)
	record := domain.NewTrackRecord(track, query)
	stage = StageNormalized

	match := p.matcher.Match(ctx, query)
	stage = StageMatched

	if match.Found {
		record.Resolve(domain.CleanLyrics(match.Lyrics))
		stage = StageCleaned
	}

	return TrackResult{Record: record, Stage: StageDone}
}

func outcomeOf(r TrackResult) string {
	switch {
	case r.Skipped() || r.Record == nil:
		return metrics.OutcomeSkipped
	case r.Record.IsResolved():
		return metrics.OutcomeResolved
	default:
		return metrics.OutcomeUnresolved
	}
}
