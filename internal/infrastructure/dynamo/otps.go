package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-registrar-portal/internal/domain"
)

// OtpRepo manages one-time codes.
// PK: email, SK: purpose + "#" + otp_id.
type OtpRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Put(ctx context.Context, o *domain.OtpCode) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByPurpose returns every stored code for (email, purpose), newest last.
// The SK embeds a ULID, so rows come back in creation order.
func (r *OtpRepo) ListByPurpose(ctx context.Context, email, purpose string) ([]domain.OtpCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#em = :e AND begins_with(#sk, :p)"),
		ExpressionAttributeNames: map[string]string{
			"#em": "email",
			"#sk": "sk",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":p": &types.AttributeValueMemberS{Value: purpose + "#"},
		},
	})
	if err != nil {
		return nil, err
	}
	var codes []domain.OtpCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// MarkUsed unconditionally invalidates a code. Used when a newer code for the
// same (email, purpose) supersedes it.
func (r *OtpRepo) MarkUsed(ctx context.Context, email, sk string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldUsed: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("email", email, "sk", sk),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// Consume atomically marks a code used, but only while it is still unused,
// unexpired, and the submitted code matches. The condition expression is the
// single compare-and-swap gate: two concurrent calls for the same code cannot
// both succeed. Returns domain.ErrConflict when the condition fails.
func (r *OtpRepo) Consume(ctx context.Context, email, sk, code string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("email", email, "sk", sk),
		UpdateExpression:    aws.String("SET #u = :t"),
		ConditionExpression: aws.String("#c = :c AND #u = :f AND #exp > :now"),
		ExpressionAttributeNames: map[string]string{
			"#u":   fieldUsed,
			"#c":   "code",
			"#exp": "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   &types.AttributeValueMemberBOOL{Value: true},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":c":   &types.AttributeValueMemberS{Value: code},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("otp consume rejected: %w", domain.ErrConflict)
	}
	return err
}

// DeleteExpiredBefore removes codes whose expiry predates the cutoff.
// Retention only; consumed codes inside the window stay for audit.
func (r *OtpRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#exp < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#exp": "expires_at",
			"#em":  "email",
			"#sk":  "sk",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.Unix(), 10)},
		},
		ProjectionExpression: aws.String("#em, #sk"),
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range out.Items {
		emailAttr, ok1 := item["email"].(*types.AttributeValueMemberS)
		skAttr, ok2 := item["sk"].(*types.AttributeValueMemberS)
		if !ok1 || !ok2 {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("email", emailAttr.Value, "sk", skAttr.Value),
		})
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
