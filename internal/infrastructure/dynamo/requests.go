package dynamo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-registrar-portal/internal/domain"
)

// RequestRepo provides typed DynamoDB operations for the document_requests table.
// PK: request_id. GSIs: tracking_id-index, email-index.
type RequestRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRequestRepo(client *dynamodb.Client, tableName string) *RequestRepo {
	return &RequestRepo{client: client, tableName: tableName}
}

// Put persists a new request. The write is conditional on the primary key not
// existing, so a generated ID can never silently overwrite another request.
func (r *RequestRepo) Put(ctx context.Context, dr *domain.DocumentRequest) error {
	item, err := attributevalue.MarshalMap(dr)
	if err != nil {
		return fmt.Errorf("marshal document request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(request_id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("request id already exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *RequestRepo) Get(ctx context.Context, requestID string) (*domain.DocumentRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("request_id", requestID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("document request not found: %w", domain.ErrNotFound)
	}
	var dr domain.DocumentRequest
	if err := attributevalue.UnmarshalMap(out.Item, &dr); err != nil {
		return nil, err
	}
	return &dr, nil
}

func (r *RequestRepo) GetByTrackingID(ctx context.Context, trackingID string) (*domain.DocumentRequest, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("tracking_id-index"),
		KeyConditionExpression: aws.String("#a = :v"),
		ExpressionAttributeNames: map[string]string{
			"#a": "tracking_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: trackingID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("document request not found: %w", domain.ErrNotFound)
	}
	var dr domain.DocumentRequest
	if err := attributevalue.UnmarshalMap(out.Items[0], &dr); err != nil {
		return nil, err
	}
	return &dr, nil
}

// TrackingIDExists reports whether any request (deleted or not) holds trackingID.
func (r *RequestRepo) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("tracking_id-index"),
		KeyConditionExpression: aws.String("#a = :v"),
		ExpressionAttributeNames: map[string]string{
			"#a": "tracking_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: trackingID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

// ListByEmail returns all non-deleted requests for an email, newest first.
func (r *RequestRepo) ListByEmail(ctx context.Context, email string) ([]domain.DocumentRequest, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-index"),
		KeyConditionExpression: aws.String("#em = :e"),
		FilterExpression:       aws.String("attribute_not_exists(deleted_at)"),
		ExpressionAttributeNames: map[string]string{
			"#em": "email",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var requests []domain.DocumentRequest
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// HasRecentPending reports whether the email already has a Pending request for
// the document type created at or after the cutoff. Backs the
// duplicate-submission business rule; enforced here at read time, not by a
// storage constraint.
func (r *RequestRepo) HasRecentPending(ctx context.Context, email, documentTypeID string, since time.Time) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-index"),
		KeyConditionExpression: aws.String("#em = :e"),
		FilterExpression: aws.String(
			"#dt = :dt AND #st = :pending AND #ca >= :since AND attribute_not_exists(deleted_at)"),
		ExpressionAttributeNames: map[string]string{
			"#em": "email",
			"#dt": "document_type_id",
			"#st": "status",
			"#ca": "created_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e":       &types.AttributeValueMemberS{Value: email},
			":dt":      &types.AttributeValueMemberS{Value: documentTypeID},
			":pending": &types.AttributeValueMemberS{Value: domain.StatusPending},
			":since":   &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

func (r *RequestRepo) Update(ctx context.Context, requestID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("request_id", requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *RequestRepo) SoftDelete(ctx context.Context, requestID string) error {
	return r.Update(ctx, requestID, map[string]interface{}{
		fieldDeletedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Restore clears the soft-delete marker.
func (r *RequestRepo) Restore(ctx context.Context, requestID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("request_id", requestID),
		UpdateExpression: aws.String("REMOVE #da SET #ua = :now"),
		ExpressionAttributeNames: map[string]string{
			"#da": fieldDeletedAt,
			"#ua": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	return err
}

// ScanPage returns a page of requests for the admin listing.
// cursor is a base64-encoded request_id used as ExclusiveStartKey. The filter
// selects the live or trash view and optionally narrows by exact status and a
// substring search over tracking ID, email, and name.
func (r *RequestRepo) ScanPage(ctx context.Context, limit int32, cursor string, f domain.RequestFilter) ([]domain.DocumentRequest, string, error) {
	filter := "attribute_not_exists(deleted_at)"
	if f.Deleted {
		filter = "attribute_exists(deleted_at)"
	}
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	if f.Status != "" {
		filter += " AND #st = :st"
		names["#st"] = "status"
		values[":st"] = &types.AttributeValueMemberS{Value: f.Status}
	}
	if f.Search != "" {
		filter += " AND (contains(tracking_id, :q) OR contains(email, :q)" +
			" OR contains(first_name, :q) OR contains(last_name, :q))"
		values[":q"] = &types.AttributeValueMemberS{Value: f.Search}
	}
	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String(filter),
		Limit:            aws.Int32(limit),
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}
	if cursor != "" {
		requestID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("request_id", requestID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var requests []domain.DocumentRequest
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &requests); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["request_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return requests, nextCursor, nil
}

func encodeCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
