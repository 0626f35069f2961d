package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RecipientRepository struct {
	client         DynamoAPI
	tableName      string
	createdByIndex string
	logger         *logrus.Logger
}

func NewRecipientRepository(client DynamoAPI, tableName, createdByIndex string, logger *logrus.Logger) *RecipientRepository {
	return &RecipientRepository{
		client:         client,
		tableName:      tableName,
		createdByIndex: createdByIndex,
		logger:         logger,
	}
}

func (r *RecipientRepository) Create(ctx context.Context, recipient *models.Recipient) error {
	if recipient.ID == "" {
		recipient.ID = uuid.New().String()
	}
	recipient.CreatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(recipient)
	if err != nil {
		return fmt.Errorf("failed to marshal recipient: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: recipient.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: recipient.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrConflict
		}
		r.logger.WithError(err).Error("Failed to create recipient in DynamoDB")
		return fmt.Errorf("failed to create recipient: %w", err)
	}

	return nil
}

func (r *RecipientRepository) GetByID(ctx context.Context, id string) (*models.Recipient, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey((&models.Recipient{ID: id}).GetPK()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var recipient models.Recipient
	if err := attributevalue.UnmarshalMap(result.Item, &recipient); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipient: %w", err)
	}

	return &recipient, nil
}

// ListByCreator pages through the created_by index and returns every
// recipient owned by ownerID.
func (r *RecipientRepository) ListByCreator(ctx context.Context, ownerID string) ([]models.Recipient, error) {
	recipients := []models.Recipient{}
	var startKey map[string]types.AttributeValue

	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(r.createdByIndex),
			KeyConditionExpression: aws.String("created_by = :created_by"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":created_by": &types.AttributeValueMemberS{Value: ownerID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			r.logger.WithError(err).Error("Failed to query recipients")
			return nil, fmt.Errorf("failed to list recipients: %w", err)
		}

		var page []models.Recipient
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
		}
		recipients = append(recipients, page...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return recipients, nil
}
