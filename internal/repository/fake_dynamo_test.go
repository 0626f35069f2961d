package repository

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// fakeDynamo is an in-memory single table that understands the handful of
// expressions the repositories send.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	err      error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func attrString(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func storageKey(item map[string]types.AttributeValue) string {
	return attrString(item, "PK") + "|" + attrString(item, "SK")
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (f *fakeDynamo) checkCondition(cond *string, key string) error {
	if cond == nil {
		return nil
	}
	_, exists := f.items[key]
	switch *cond {
	case "attribute_not_exists(PK)":
		if exists {
			return &types.ConditionalCheckFailedException{Message: aws.String("item exists")}
		}
	case "attribute_exists(PK)":
		if !exists {
			return &types.ConditionalCheckFailedException{Message: aws.String("item missing")}
		}
	default:
		return errors.New("fakeDynamo: unsupported condition " + *cond)
	}
	return nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	item, ok := f.items[storageKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	key := storageKey(params.Item)
	if err := f.checkCondition(params.ConditionExpression, key); err != nil {
		return nil, err
	}
	f.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	delete(f.items, storageKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// UpdateItem supports "SET a = :a, b = :b" expressions only.
func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	key := storageKey(params.Key)
	if err := f.checkCondition(params.ConditionExpression, key); err != nil {
		return nil, err
	}

	item, ok := f.items[key]
	if !ok {
		item = copyItem(params.Key)
	}
	for _, assignment := range strings.Split(strings.TrimPrefix(aws.ToString(params.UpdateExpression), "SET "), ",") {
		name, placeholder, found := strings.Cut(assignment, "=")
		if !found {
			return nil, errors.New("fakeDynamo: unsupported update expression")
		}
		item[strings.TrimSpace(name)] = params.ExpressionAttributeValues[strings.TrimSpace(placeholder)]
	}
	f.items[key] = item

	out := &dynamodb.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

// Query supports equality on a single attribute, as sent through a GSI.
func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	name, placeholder, found := strings.Cut(aws.ToString(params.KeyConditionExpression), "=")
	if !found {
		return nil, errors.New("fakeDynamo: unsupported key condition")
	}
	name, placeholder = strings.TrimSpace(name), strings.TrimSpace(placeholder)
	want := attrString(params.ExpressionAttributeValues, placeholder)

	keys := make([]string, 0, len(f.items))
	for k, item := range f.items {
		if attrString(item, name) == want {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if params.ExclusiveStartKey != nil {
		after := storageKey(params.ExclusiveStartKey)
		i := sort.SearchStrings(keys, after)
		if i < len(keys) && keys[i] == after {
			i++
		}
		keys = keys[i:]
	}

	out := &dynamodb.QueryOutput{}
	for _, k := range keys {
		if f.pageSize > 0 && len(out.Items) == f.pageSize {
			last := out.Items[len(out.Items)-1]
			out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
			break
		}
		out.Items = append(out.Items, copyItem(f.items[k]))
	}
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	// every item gets a reason, as DynamoDB reports them
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	canceled := false
	for i, w := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		if w.Put == nil {
			continue
		}
		if err := f.checkCondition(w.Put.ConditionExpression, storageKey(w.Put.Item)); err != nil {
			if !isConditionFailed(err) {
				return nil, err
			}
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed"), Message: aws.String(err.Error())}
			canceled = true
		}
	}
	if canceled {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled, please refer cancellation reasons for specific reasons"),
			CancellationReasons: reasons,
		}
	}

	for _, w := range params.TransactItems {
		switch {
		case w.Put != nil:
			f.items[storageKey(w.Put.Item)] = copyItem(w.Put.Item)
		case w.Delete != nil:
			delete(f.items, storageKey(w.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) has(pk string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[pk+"|"+metadataSK]
	return ok
}
