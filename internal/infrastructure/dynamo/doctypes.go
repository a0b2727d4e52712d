package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-registrar-portal/internal/domain"
)

// DocTypeRepo provides typed DynamoDB operations for the document_types table.
// PK: document_type_id.
type DocTypeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDocTypeRepo(client *dynamodb.Client, tableName string) *DocTypeRepo {
	return &DocTypeRepo{client: client, tableName: tableName}
}

func (r *DocTypeRepo) Put(ctx context.Context, dt *domain.DocumentType) error {
	item, err := attributevalue.MarshalMap(dt)
	if err != nil {
		return fmt.Errorf("marshal document type: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DocTypeRepo) Get(ctx context.Context, documentTypeID string) (*domain.DocumentType, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("document_type_id", documentTypeID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("document type not found: %w", domain.ErrNotFound)
	}
	var dt domain.DocumentType
	if err := attributevalue.UnmarshalMap(out.Item, &dt); err != nil {
		return nil, err
	}
	return &dt, nil
}

// Scan returns every document type. The table holds a handful of rows, so a
// full scan is fine.
func (r *DocTypeRepo) Scan(ctx context.Context) ([]domain.DocumentType, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var dts []domain.DocumentType
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &dts); err != nil {
		return nil, err
	}
	return dts, nil
}

func (r *DocTypeRepo) Update(ctx context.Context, documentTypeID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("document_type_id", documentTypeID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *DocTypeRepo) HardDelete(ctx context.Context, documentTypeID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("document_type_id", documentTypeID),
	})
	return err
}
