package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-registrar-portal/internal/domain"
)

// RequestLogRepo stores per-request history rows. Append-only: the repo
// deliberately exposes no update or delete operations.
// PK: log_id. GSI: request-index (document_request_id).
type RequestLogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRequestLogRepo(client *dynamodb.Client, tableName string) *RequestLogRepo {
	return &RequestLogRepo{client: client, tableName: tableName}
}

func (r *RequestLogRepo) Append(ctx context.Context, l *domain.RequestLog) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal request log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(log_id)"),
	})
	return err
}

// ListByRequest returns a request's history in creation order (log_id is a ULID).
func (r *RequestLogRepo) ListByRequest(ctx context.Context, documentRequestID string) ([]domain.RequestLog, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("request-index"),
		KeyConditionExpression: aws.String("#a = :v"),
		ExpressionAttributeNames: map[string]string{
			"#a": "document_request_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: documentRequestID},
		},
	})
	if err != nil {
		return nil, err
	}
	var logs []domain.RequestLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
