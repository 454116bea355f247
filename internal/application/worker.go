package application

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/sqs"
)

const (
	pollErrorBackoff = 5 * time.Second
	ackTimeout       = 10 * time.Second
)

type Worker interface {
	Run(ctx context.Context)
}

type worker struct {
	queue  sqs.JobQueue
	runner BatchRunner
	config config.WorkerConfig
	logger *log.Logger
	sleep  sleepFunc
}

func NewWorker(
	queue sqs.JobQueue,
	runner BatchRunner,
	cfg config.WorkerConfig,
	logger *log.Logger,
) Worker {
	return &worker{
		queue:  queue,
		runner: runner,
		config: cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

func (w *worker) Run(ctx context.Context) {
	w.logger.Info("worker started", "poll_wait", w.config.PollWait, "job_timeout", w.config.JobTimeout)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return
		default:
		}

		if err := w.processNextJob(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("error polling queue", "err", err)
			_ = w.sleep(ctx, pollErrorBackoff)
		}
	}
}

func (w *worker) processNextJob(ctx context.Context) error {
	delivery, err := w.queue.Pop(ctx, w.config.PollWait)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}

	job := delivery.Job
	w.logger.Info("received job", "request_id", job.RequestID, "playlist", job.PlaylistID, "origin", job.ClientOrigin)

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	if doc, err := w.runner.Run(jobCtx, job); err != nil {
		w.logger.Error("job failed", "request_id", job.RequestID, "err", err)
	} else {
		w.logger.Info("job completed", "request_id", job.RequestID, "document", doc.ID, "tracks", len(doc.Tracks))
	}

	// Failed runs are terminal, so the message is removed either way.
	ackCtx, ackCancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer ackCancel()

	if err := w.queue.Ack(ackCtx, delivery); err != nil {
		w.logger.Error("failed to ack job", "request_id", job.RequestID, "err", err)
	}
	return nil
}
