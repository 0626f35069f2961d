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

type RoleRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewRoleRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *RoleRepository {
	return &RoleRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*models.Role, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey((&models.Role{ID: id}).GetPK()),
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get role from DynamoDB")
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var role models.Role
	if err := attributevalue.UnmarshalMap(result.Item, &role); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role: %w", err)
	}

	return &role, nil
}

// Create stores role together with a name marker so role names stay unique.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	now := time.Now().UTC()
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	role.CreatedAt = now
	role.UpdatedAt = now

	item, err := attributevalue.MarshalMap(role)
	if err != nil {
		return fmt.Errorf("failed to marshal role: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: role.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: role.GetSK()}

	marker := itemKey(role.NamePK())
	marker["uid"] = &types.AttributeValueMemberS{Value: role.ID}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                marker,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		},
	})
	if err != nil {
		switch {
		case canceledByCondition(err, 1):
			return ErrRoleExists
		case canceledByCondition(err, 0):
			return ErrConflict
		}
		r.logger.WithError(err).Error("Failed to create role in DynamoDB")
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}
