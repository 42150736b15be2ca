package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/kmeansgo/blobstore"
)

// DDBClient is the subset of the DynamoDB API the registry uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentPublish is returned when another writer published a snapshot
// version concurrently. The caller should re-read the current version and
// retry.
var ErrConcurrentPublish = errors.New("concurrent snapshot publish detected")

// Registry tracks which snapshot blob is the current model, backed by a
// DynamoDB table for atomic version advancement. S3 has no compare-and-swap,
// so the pointer lives in DynamoDB while the snapshot bytes stay in the blob
// store.
//
// Table schema:
//   - Partition key: model_id (string)
//   - Sort key: version (number), monotonically increasing
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name kmeans-models \
//	  --attribute-definitions AttributeName=model_id,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=model_id,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Registry struct {
	ddbClient DDBClient
	tableName string
}

// NewRegistry creates a registry over the given DynamoDB table.
func NewRegistry(ddbClient DDBClient, tableName string) *Registry {
	return &Registry{
		ddbClient: ddbClient,
		tableName: tableName,
	}
}

// Publish records snapshotName as the next version of modelID. The
// conditional write fails with ErrConcurrentPublish if another writer claimed
// the same version first.
func (r *Registry) Publish(ctx context.Context, modelID, snapshotName string) (uint64, error) {
	current, _, err := r.latest(ctx, modelID)
	if err != nil {
		return 0, err
	}
	next := current + 1

	_, err = r.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]ddbtypes.AttributeValue{
			"model_id": &ddbtypes.AttributeValueMemberS{Value: modelID},
			"version":  &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"snapshot": &ddbtypes.AttributeValueMemberS{Value: snapshotName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentPublish
		}
		return 0, fmt.Errorf("publish version %d: %w", next, err)
	}

	return next, nil
}

// Current returns the latest published version and snapshot name for modelID.
// A model with no published versions reports blobstore.ErrNotFound.
func (r *Registry) Current(ctx context.Context, modelID string) (uint64, string, error) {
	version, snapshot, err := r.latest(ctx, modelID)
	if err != nil {
		return 0, "", err
	}
	if version == 0 {
		return 0, "", blobstore.ErrNotFound
	}
	return version, snapshot, nil
}

func (r *Registry) latest(ctx context.Context, modelID string) (uint64, string, error) {
	resp, err := r.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("model_id = :id"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":id": &ddbtypes.AttributeValueMemberS{Value: modelID},
		},
		ScanIndexForward: aws.Bool(false), // descending, newest first
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query registry: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute")
	}
	snapshotAttr, ok := item["snapshot"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid snapshot attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse version: %w", err)
	}

	return version, snapshotAttr.Value, nil
}
