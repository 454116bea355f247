package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/application"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/server"
)

func (r *runner) register() []*cli.Command {
	playlistFlag := &cli.StringFlag{
		Name:     "playlist",
		Aliases:  []string{"p"},
		Usage:    "Playlist URL or ID",
		Required: true,
	}
	originFlag := &cli.StringFlag{
		Name:  "origin",
		Usage: "Requester origin recorded on the document",
		Value: "cli",
	}
	docFlag := &cli.StringFlag{
		Name:     "doc",
		Aliases:  []string{"d"},
		Usage:    "Document (request) ID",
		Required: true,
	}
	titleFlag := &cli.StringFlag{
		Name:     "title",
		Aliases:  []string{"t"},
		Usage:    "Normalized track title",
		Required: true,
	}

	return []*cli.Command{
		{
			Name:   "run",
			Usage:  "Consume crawl jobs from the queue and serve ops endpoints",
			Action: r.Run,
		},
		{
			Name:   "crawl",
			Usage:  "Process one playlist now and store the document",
			Flags:  []cli.Flag{playlistFlag, originFlag},
			Action: r.Crawl,
		},
		{
			Name:   "enqueue",
			Usage:  "Queue a playlist for the worker",
			Flags:  []cli.Flag{playlistFlag, originFlag},
			Action: r.Enqueue,
		},
		{
			Name:  "status",
			Usage: "Show the progress of a crawl",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "Request ID", Required: true},
			},
			Action: r.Status,
		},
		{
			Name:   "quiz",
			Usage:  "Build quiz data for a document, analyzing tracks as needed",
			Flags:  []cli.Flag{docFlag},
			Action: r.Quiz,
		},
		{
			Name:   "analyze",
			Usage:  "Analyze one track without saving the result",
			Flags:  []cli.Flag{docFlag, titleFlag},
			Action: r.Analyze,
		},
		{
			Name:   "wordcloud",
			Usage:  "Render a word cloud for one track",
			Flags:  []cli.Flag{docFlag, titleFlag},
			Action: r.WordCloud,
		},
	}
}

// Run is the default action: the queue consumer plus the ops server.
func (r *runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireQueue(); err != nil {
		return err
	}

	svc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	batch, err := r.batchRunner(ctx, svc)
	if err != nil {
		return err
	}

	ops := server.New(svc.status, svc.redis, svc.registry, r.logger.WithPrefix("ops"))
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- ops.ListenAndServe(ctx, r.config.Metrics.Address)
	}()

	application.NewWorker(svc.queue, batch, r.config.Worker, r.logger.WithPrefix("worker")).Run(ctx)

	if err := <-serverErr; err != nil {
		return fmt.Errorf("ops server: %w", err)
	}
	r.logger.Info("worker stopped")
	return nil
}

func (r *runner) Crawl(ctx context.Context, cmd *cli.Command) error {
	job, err := domain.NewCrawlJob(cmd.String("playlist"), cmd.String("origin"))
	if err != nil {
		return err
	}

	svc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	batch, err := r.batchRunner(ctx, svc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Worker.JobTimeout)
	defer cancel()

	doc, err := batch.Run(ctx, job)
	if err != nil {
		return err
	}

	return r.writeJSON(map[string]any{
		"doc_id":                doc.ID,
		"original_track_count":  doc.OriginalTrackCount,
		"processed_track_count": doc.ProcessedTrackCount,
		"resolved_track_count":  doc.ResolvedCount(),
	})
}

func (r *runner) Enqueue(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireQueue(); err != nil {
		return err
	}

	job, err := domain.NewCrawlJob(cmd.String("playlist"), cmd.String("origin"))
	if err != nil {
		return err
	}

	svc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.queue.Push(ctx, job); err != nil {
		return err
	}

	r.logger.Info("crawl queued", "request_id", job.RequestID, "playlist", job.PlaylistID)
	return r.writeJSON(map[string]string{"doc_id": job.RequestID})
}

func (r *runner) Status(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	status, err := svc.status.Get(ctx, cmd.String("id"))
	if err != nil {
		return err
	}
	if status == nil {
		return fmt.Errorf("no status for crawl %s", cmd.String("id"))
	}
	return r.writeJSON(status)
}

func (r *runner) Quiz(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	items, err := r.quizService(svc).QuizData(ctx, cmd.String("doc"))
	if err != nil {
		return err
	}
	return r.writeJSON(items)
}

func (r *runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	analysis, err := r.quizService(svc).AnalyzeTrack(ctx, cmd.String("doc"), cmd.String("title"))
	if err != nil {
		return err
	}
	return r.writeJSON(analysis)
}

func (r *runner) WordCloud(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	url, err := r.quizService(svc).WordCloud(ctx, cmd.String("doc"), cmd.String("title"))
	if err != nil {
		return err
	}
	return r.writeJSON(map[string]string{"wordcloud_url": url})
}
