package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

// API is the subset of the SQS client used by the queue.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

const (
	maxWaitSeconds       = 20
	maxVisibilitySeconds = 12 * 60 * 60
)

// Delivery is a received job together with the handle needed to ack it.
type Delivery struct {
	Job           *domain.CrawlJob
	ReceiptHandle string
}

type JobQueue interface {
	Push(ctx context.Context, job *domain.CrawlJob) error
	Pop(ctx context.Context, wait time.Duration) (*Delivery, error)
	Ack(ctx context.Context, delivery *Delivery) error
	Len(ctx context.Context) (int64, error)
}

type jobQueue struct {
	api        API
	queueURL   string
	visibility int32
}

// NewJobQueue hides each received job for visibility, which must outlast the
// job's processing time or the message is redelivered while still running.
// Zero keeps the queue's default.
func NewJobQueue(api API, queueURL string, visibility time.Duration) JobQueue {
	seconds := int32(visibility.Seconds())
	if seconds > maxVisibilitySeconds {
		seconds = maxVisibilitySeconds
	}
	return &jobQueue{api: api, queueURL: queueURL, visibility: seconds}
}

func (q *jobQueue) Push(ctx context.Context, job *domain.CrawlJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("failed to push job to queue: %w", err)
	}

	return nil
}

// Pop long-polls for a single job. It returns nil when the wait elapses with
// no message. Undecodable messages are deleted so they are not redelivered.
func (q *jobQueue) Pop(ctx context.Context, wait time.Duration) (*Delivery, error) {
	seconds := int32(wait.Seconds())
	if seconds > maxWaitSeconds {
		seconds = maxWaitSeconds
	}

	out, err := q.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     seconds,
		VisibilityTimeout:   q.visibility,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pop job from queue: %w", err)
	}

	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	delivery := &Delivery{ReceiptHandle: aws.ToString(msg.ReceiptHandle)}

	var job domain.CrawlJob
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &job); err != nil {
		if ackErr := q.Ack(ctx, delivery); ackErr != nil {
			return nil, fmt.Errorf("failed to discard malformed job: %w", ackErr)
		}
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", aws.ToString(msg.MessageId), err)
	}

	delivery.Job = &job
	return delivery, nil
}

func (q *jobQueue) Ack(ctx context.Context, delivery *Delivery) error {
	_, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(delivery.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete job from queue: %w", err)
	}
	return nil
}

func (q *jobQueue) Len(ctx context.Context) (int64, error) {
	out, err := q.api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(q.queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}

	raw := out.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessages)]
	if raw == "" {
		return 0, nil
	}

	length, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse queue length: %w", err)
	}
	return length, nil
}
