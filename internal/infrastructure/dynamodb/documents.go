package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

// API is the subset of the DynamoDB client used by the repository.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

var ErrDocumentExists = errors.New("document already exists")

type PlaylistRepository interface {
	Create(ctx context.Context, doc *domain.PlaylistDocument) error
	Get(ctx context.Context, id string) (*domain.PlaylistDocument, error)
	UpdateTracks(ctx context.Context, id string, tracks []*domain.TrackRecord, status string, analyzedAt *time.Time) error
}

type playlistRepository struct {
	api   API
	table string
}

func NewPlaylistRepository(api API, table string) PlaylistRepository {
	return &playlistRepository{api: api, table: table}
}

func documentKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (r *playlistRepository) Create(ctx context.Context, doc *domain.PlaylistDocument) error {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return fmt.Errorf("%w: %s", ErrDocumentExists, doc.ID)
		}
		return fmt.Errorf("failed to put document: %w", err)
	}

	return nil
}

func (r *playlistRepository) Get(ctx context.Context, id string) (*domain.PlaylistDocument, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            documentKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}

	var doc domain.PlaylistDocument
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return &doc, nil
}

func (r *playlistRepository) UpdateTracks(ctx context.Context, id string, tracks []*domain.TrackRecord, status string, analyzedAt *time.Time) error {
	tracksAV, err := attributevalue.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to marshal tracks: %w", err)
	}

	expr := "SET tracks = :tracks, #status = :status"
	values := map[string]types.AttributeValue{
		":tracks": tracksAV,
		":status": &types.AttributeValueMemberS{Value: status},
	}
	if analyzedAt != nil {
		expr += ", analyzed_at = :analyzed_at"
		values[":analyzed_at"] = &types.AttributeValueMemberS{Value: analyzedAt.UTC().Format(time.RFC3339Nano)}
	}

	_, err = r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       documentKey(id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		return fmt.Errorf("failed to update tracks: %w", err)
	}

	return nil
}
