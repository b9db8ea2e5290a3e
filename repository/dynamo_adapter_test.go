package repository_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/na4oman/samsung-shop/pkg/retry"
	"github.com/na4oman/samsung-shop/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in memory keyed by product_id.
type fakeDynamo struct {
	items  map[string]map[string]types.AttributeValue
	putErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(key map[string]types.AttributeValue) string {
	var k struct {
		ProductID string `dynamodbav:"product_id"`
	}
	_ = attributevalue.UnmarshalMap(key, &k)
	return k.ProductID
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	id := keyOf(in.Key)
	item, ok := f.items[id]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	for placeholder, attr := range in.ExpressionAttributeNames {
		item[attr] = in.ExpressionAttributeValues[":"+placeholder[1:]]
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	id := keyOf(in.Key)
	if _, ok := f.items[id]; !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	out := &dynamodb.ScanOutput{}
	for _, it := range f.items {
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func TestDynamo_CreateListUpdateDelete(t *testing.T) {
	ddb := newFakeDynamo()
	repo := repository.NewDynamoAdapter(ddb, "Products")
	ctx := context.Background()

	created, err := repo.Create(ctx, newRecord("SM-S921B-AMOLED-VIO"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Galaxy S24", got.Model)
	assert.Empty(t, got.Description)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	rec := newRecord("SM-S921B-AMOLED-VIO")
	rec.Description = "Refurbished panel"
	updated, err := repo.Update(ctx, created.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, "Refurbished panel", updated.Description)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDynamo_MissingItems(t *testing.T) {
	repo := repository.NewDynamoAdapter(newFakeDynamo(), "Products")
	ctx := context.Background()

	_, err := repo.Update(ctx, "nope", newRecord("X-1"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), repository.ErrNotFound)
}

func TestDynamo_ThrottledPutIsTransient(t *testing.T) {
	ddb := newFakeDynamo()
	ddb.putErr = &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down", Fault: smithy.FaultClient}
	repo := repository.NewDynamoAdapter(ddb, "Products")

	_, err := repo.Create(context.Background(), newRecord("SM-1"))
	require.Error(t, err)
	var se *repository.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, retry.KindTransient, se.Kind)
	assert.Equal(t, "dynamodb PutItem", se.Op)
}
