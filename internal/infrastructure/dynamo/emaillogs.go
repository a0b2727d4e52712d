package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-registrar-portal/internal/domain"
)

// EmailLogRepo records outbound mail attempts.
// PK: email_id.
type EmailLogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEmailLogRepo(client *dynamodb.Client, tableName string) *EmailLogRepo {
	return &EmailLogRepo{client: client, tableName: tableName}
}

func (r *EmailLogRepo) Append(ctx context.Context, l *domain.EmailLog) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal email log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ScanPage returns a page of email log entries for the superadmin view.
func (r *EmailLogRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.EmailLog, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		emailID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("email_id", emailID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var logs []domain.EmailLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["email_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return logs, nextCursor, nil
}

// DeleteCreatedBefore removes entries older than the cutoff. Retention only.
func (r *EmailLogRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#ca < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#ca": "created_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339Nano)},
		},
		ProjectionExpression: aws.String("email_id"),
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range out.Items {
		idAttr, ok := item["email_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("email_id", idAttr.Value),
		})
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
