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

type UserRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewUserRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey((&models.User{ID: id}).GetPK()),
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get user from DynamoDB")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if result.Item == nil {
		return nil, nil // User not found
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Item, &user); err != nil {
		r.logger.WithError(err).Error("Failed to unmarshal user from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &user, nil
}

// GetByEmail follows the email marker item to the user it points at.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey((&models.User{Email: email}).EmailPK()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get email marker: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var marker struct {
		UID string `dynamodbav:"uid"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &marker); err != nil {
		return nil, fmt.Errorf("failed to unmarshal email marker: %w", err)
	}

	return r.GetByID(ctx, marker.UID)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	item, err := r.marshal(user)
	if err != nil {
		return err
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                emailMarker(user),
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		},
	})
	if err != nil {
		switch {
		case canceledByCondition(err, 1):
			return ErrEmailTaken
		case canceledByCondition(err, 0):
			return ErrConflict
		}
		r.logger.WithError(err).Error("Failed to create user in DynamoDB")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update overwrites an existing user. When the email changed, the marker
// for previousEmail is swapped for the new one in the same transaction.
// It returns ErrNotFound when the user no longer exists and ErrEmailTaken
// when another account holds the new email.
func (r *UserRepository) Update(ctx context.Context, user *models.User, previousEmail string) error {
	user.UpdatedAt = time.Now().UTC()

	item, err := r.marshal(user)
	if err != nil {
		return err
	}

	writes := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_exists(PK)"),
		}},
	}

	if previousEmail != "" && previousEmail != user.Email {
		writes = append(writes,
			types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       itemKey((&models.User{Email: previousEmail}).EmailPK()),
			}},
			types.TransactWriteItem{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                emailMarker(user),
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		switch {
		case canceledByCondition(err, 0):
			return ErrNotFound
		case len(writes) > 1 && canceledByCondition(err, len(writes)-1):
			return ErrEmailTaken
		}
		r.logger.WithError(err).Error("Failed to update user in DynamoDB")
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, user *models.User) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       itemKey(user.GetPK()),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       itemKey(user.EmailPK()),
			}},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete user from DynamoDB")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// AssignRole sets the user's role reference. It returns (nil, nil) when the user does not exist.
func (r *UserRepository) AssignRole(ctx context.Context, userID, roleID string) (*models.User, error) {
	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 itemKey((&models.User{ID: userID}).GetPK()),
		UpdateExpression:    aws.String("SET role_uid = :role_uid, updated_at = :updated_at"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":role_uid":   &types.AttributeValueMemberS{Value: roleID},
			":updated_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, nil
		}
		r.logger.WithError(err).Error("Failed to assign role in DynamoDB")
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Attributes, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) marshal(user *models.User) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal user for DynamoDB")
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: user.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: user.GetSK()}
	return item, nil
}

func emailMarker(user *models.User) map[string]types.AttributeValue {
	item := itemKey(user.EmailPK())
	item["uid"] = &types.AttributeValueMemberS{Value: user.ID}
	return item
}
