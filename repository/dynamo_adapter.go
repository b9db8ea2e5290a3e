package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/na4oman/samsung-shop/models"
)

// DynamoAPI is the subset of the DynamoDB client the adapter uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoAdapter stores products in a table keyed by `product_id` (string).
type DynamoAdapter struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

func NewDynamoAdapter(client DynamoAPI, table string) *DynamoAdapter {
	return &DynamoAdapter{client: client, table: table, now: time.Now}
}

type ddbProduct struct {
	ProductID   string  `dynamodbav:"product_id"`
	Name        string  `dynamodbav:"name"`
	Model       string  `dynamodbav:"model"`
	Category    string  `dynamodbav:"category"`
	Color       string  `dynamodbav:"color"`
	Description *string `dynamodbav:"description,omitempty"`
	Price       float64 `dynamodbav:"price"`
	Image       *string `dynamodbav:"image,omitempty"`
	PartNumber  string  `dynamodbav:"part_number"`
	CreatedAt   string  `dynamodbav:"created_at"`
	UpdatedAt   string  `dynamodbav:"updated_at"`
}

func (dp ddbProduct) toModel() models.Product {
	p := models.Product{
		ID:         dp.ProductID,
		Name:       dp.Name,
		Model:      dp.Model,
		Category:   models.Category(dp.Category),
		Color:      dp.Color,
		Price:      dp.Price,
		PartNumber: dp.PartNumber,
	}
	if dp.Description != nil {
		p.Description = *dp.Description
	}
	if dp.Image != nil {
		p.Image = *dp.Image
	}
	if t, err := time.Parse(time.RFC3339, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

func productKey(id string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (d *DynamoAdapter) FindByID(ctx context.Context, id string) (*models.Product, error) {
	key, err := productKey(id)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, classifyDynamo("dynamodb GetItem", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	p := dp.toModel()
	return &p, nil
}

// List scans the whole table.
func (d *DynamoAdapter) List(ctx context.Context) ([]models.Product, error) {
	var results []models.Product
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyDynamo("dynamodb Scan", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			results = append(results, dp.toModel())
		}
	}
	return results, nil
}

// Find scans the table and filters in memory.
func (d *DynamoAdapter) Find(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	all, err := d.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	page, total := applyFilter(all, filter)
	return page, total, nil
}

func (d *DynamoAdapter) Create(ctx context.Context, rec models.ProductRecord) (*models.Product, error) {
	now := d.now().UTC().Truncate(time.Second)
	dp := recordToDynamo(uuid.New().String(), rec, now, now)

	item, err := attributevalue.MarshalMap(dp)
	if err != nil {
		return nil, clientError("marshal product", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if err != nil {
		return nil, classifyDynamo("dynamodb PutItem", err)
	}
	p := dp.toModel()
	return &p, nil
}

// Update replaces every mutable attribute of an existing product.
func (d *DynamoAdapter) Update(ctx context.Context, id string, rec models.ProductRecord) (*models.Product, error) {
	key, err := productKey(id)
	if err != nil {
		return nil, err
	}
	now := d.now().UTC().Truncate(time.Second)
	values, err := attributevalue.MarshalMap(map[string]interface{}{
		":name":        rec.Name,
		":model":       rec.Model,
		":category":    string(rec.Category),
		":color":       rec.Color,
		":description": rec.Description,
		":price":       rec.Price,
		":image":       rec.Image,
		":part_number": rec.PartNumber,
		":updated_at":  now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, clientError("marshal update value", err)
	}
	fields := []string{"name", "model", "category", "color", "description", "price", "image", "part_number", "updated_at"}
	names := make(map[string]string, len(fields))
	expr := "SET "
	for i, f := range fields {
		if i > 0 {
			expr += ", "
		}
		expr += fmt.Sprintf("#%s = :%s", f, f)
		names["#"+f] = f
	}

	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.table,
		Key:                       key,
		UpdateExpression:          &expr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(product_id)"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrNotFound
		}
		return nil, classifyDynamo("dynamodb UpdateItem", err)
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Attributes, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	p := dp.toModel()
	return &p, nil
}

func (d *DynamoAdapter) Delete(ctx context.Context, id string) error {
	key, err := productKey(id)
	if err != nil {
		return err
	}
	_, err = d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return classifyDynamo("dynamodb DeleteItem", err)
	}
	return nil
}

func (d *DynamoAdapter) EnsureIndexes(ctx context.Context) error {
	// Table creation is handled by infrastructure init.
	return nil
}

func recordToDynamo(id string, rec models.ProductRecord, createdAt, updatedAt time.Time) ddbProduct {
	dp := ddbProduct{
		ProductID:  id,
		Name:       rec.Name,
		Model:      rec.Model,
		Category:   string(rec.Category),
		Color:      rec.Color,
		Price:      rec.Price,
		PartNumber: rec.PartNumber,
		CreatedAt:  createdAt.Format(time.RFC3339),
		UpdatedAt:  updatedAt.Format(time.RFC3339),
	}
	if rec.Description != "" {
		dp.Description = &rec.Description
	}
	if rec.Image != "" {
		dp.Image = &rec.Image
	}
	return dp
}
