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

// AuditLogRepo stores the generic audit trail. Append-only outside the
// retention pruner.
// PK: audit_id (ULID, so scans page in rough time order).
type AuditLogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAuditLogRepo(client *dynamodb.Client, tableName string) *AuditLogRepo {
	return &AuditLogRepo{client: client, tableName: tableName}
}

func (r *AuditLogRepo) Append(ctx context.Context, l *domain.AuditLog) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(audit_id)"),
	})
	return err
}

// ScanPage returns a page of audit entries for the superadmin view.
func (r *AuditLogRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.AuditLog, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		auditID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("audit_id", auditID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var logs []domain.AuditLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["audit_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return logs, nextCursor, nil
}

// DeleteCreatedBefore removes entries older than the cutoff. Retention only.
func (r *AuditLogRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#ca < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#ca": "created_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339Nano)},
		},
		ProjectionExpression: aws.String("audit_id"),
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range out.Items {
		idAttr, ok := item["audit_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("audit_id", idAttr.Value),
		})
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
