package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/application"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
	awsclient "github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/aws"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/dynamodb"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/file"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/http"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/redis"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/sqs"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/metrics"
)

// runner owns the configuration and builds collaborators for each command.
type runner struct {
	config *config.Config
	logger *log.Logger
	output io.Writer
}

func newRunner(cfg *config.Config, logger *log.Logger, output io.Writer) *runner {
	return &runner{config: cfg, logger: logger, output: output}
}

// services are the connections shared by every command.
type services struct {
	redis    redis.Client
	repo     dynamodb.PlaylistRepository
	queue    sqs.JobQueue
	status   redis.StatusStore
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (s *services) Close() error {
	return s.redis.Close()
}

func (r *runner) connect(ctx context.Context) (*services, error) {
	redisClient, err := redis.NewClient(r.config.Redis)
	if err != nil {
		return nil, err
	}
	if err := redisClient.Ping(ctx); err != nil {
		redisClient.Close()
		return nil, err
	}
	r.logger.Debug("connected to redis", "addr", redisClient.GetRDB().Options().Addr)

	awsCfg, err := awsclient.LoadConfig(ctx, r.config.AWS)
	if err != nil {
		redisClient.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &services{
		redis:    redisClient,
		repo:     dynamodb.NewPlaylistRepository(awsclient.NewDynamoDB(awsCfg, r.config.AWS), r.config.AWS.DocumentsTable),
		queue:    sqs.NewJobQueue(awsclient.NewSQS(awsCfg, r.config.AWS), r.config.AWS.QueueURL, r.config.Worker.VisibilityTimeout()),
		status:   redis.NewStatusStore(redisClient),
		registry: registry,
		metrics:  metrics.New(registry),
	}, nil
}

func (r *runner) batchRunner(ctx context.Context, svc *services) (application.BatchRunner, error) {
	catalog, err := http.NewSpotifyCatalog(ctx, r.config.Spotify, r.logger.WithPrefix("spotify"))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	genius, err := http.NewGeniusProvider(r.config.Genius, r.logger.WithPrefix("genius"))
	if err != nil {
		return nil, fmt.Errorf("failed to create lyrics provider: %w", err)
	}
	provider := application.NewCachedProvider(genius, redis.NewLyricsCache(svc.redis, r.config.Redis.CacheTTL), r.logger)

	failures, err := file.NewFailureLog(r.config.Matcher.FailedLogPath)
	if err != nil {
		return nil, err
	}

	matcher := application.NewLyricMatcher(provider, failures, svc.metrics, r.config.Matcher, r.logger.WithPrefix("matcher"))
	processor := application.NewTrackProcessor(matcher, svc.metrics, r.logger)

	return application.NewBatchRunner(catalog, processor, svc.repo, svc.status, svc.metrics, r.config.Batch, r.logger), nil
}

func (r *runner) quizService(svc *services) application.QuizService {
	return application.NewQuizService(
		svc.repo,
		http.NewAnalyzerClient(r.config.Services.Analyzer),
		http.NewRendererClient(r.config.Services.Renderer),
		r.logger.WithPrefix("quiz"),
	)
}

func (r *runner) requireQueue() error {
	if r.config.AWS.QueueURL == "" {
		return errors.New("CRAWL_QUEUE_URL is not set")
	}
	return nil
}

func (r *runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
