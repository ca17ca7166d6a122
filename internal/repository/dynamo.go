package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
	pkgconfig "github.com/aleixjf/ms-orders-management-sub000/pkg/config"
)

const (
	skMetadata    = "METADATA"
	batchGetLimit = 100
	attrPK        = "PK"
	attrSK        = "SK"
)

// DynamoOrderRepository stores each order and its line items as one item:
// PK ORDER#<id>, SK METADATA, with a GSI on the customer for listings.
type DynamoOrderRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoDBClient(ctx context.Context, cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}

func NewDynamoOrderRepository(client *dynamodb.Client, tableName string) *DynamoOrderRepository {
	return &DynamoOrderRepository{
		client:    client,
		tableName: tableName,
	}
}

type productRecord struct {
	ProductID   string   `dynamodbav:"product_id"`
	Quantity    int      `dynamodbav:"quantity"`
	Name        *string  `dynamodbav:"name,omitempty"`
	Description *string  `dynamodbav:"description,omitempty"`
	Price       *float64 `dynamodbav:"price,omitempty"`
}

type orderRecord struct {
	OrderID      string          `dynamodbav:"order_id"`
	CustomerID   string          `dynamodbav:"customer_id"`
	OrderDate    int64           `dynamodbav:"order_date"`
	DeliveryDate int64           `dynamodbav:"delivery_date"`
	Status       string          `dynamodbav:"status"`
	Products     []productRecord `dynamodbav:"products"`
	Price        float64         `dynamodbav:"price"`
	Version      int64           `dynamodbav:"version"`
}

func toRecord(order *domain.Order) orderRecord {
	products := order.Products()
	records := make([]productRecord, 0, len(products))
	for _, p := range products {
		rec := productRecord{ProductID: p.ID().String(), Quantity: p.Quantity().Int()}
		if name, ok := p.Name(); ok {
			s := name.String()
			rec.Name = &s
		}
		if desc, ok := p.Description(); ok {
			s := desc.String()
			rec.Description = &s
		}
		if price, ok := p.Price(); ok {
			v := price
			rec.Price = &v
		}
		records = append(records, rec)
	}
	return orderRecord{
		OrderID:      order.ID().String(),
		CustomerID:   order.CustomerID().String(),
		OrderDate:    order.OrderDate().Millis(),
		DeliveryDate: order.DeliveryDate().Millis(),
		Status:       string(order.Status()),
		Products:     records,
		Price:        order.Price(),
		Version:      order.Version(),
	}
}

func fromRecord(rec orderRecord) (*domain.Order, error) {
	id, err := domain.ParseOrderID(rec.OrderID)
	if err != nil {
		return nil, fmt.Errorf("restore order id: %w", err)
	}
	customerID, err := domain.ParseCustomerID(rec.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("restore customer id: %w", err)
	}
	orderDate, err := domain.NewOrderDate(rec.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("restore order date: %w", err)
	}
	deliveryDate, err := domain.NewOrderDate(rec.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("restore delivery date: %w", err)
	}

	products := make([]domain.Product, 0, len(rec.Products))
	for _, p := range rec.Products {
		productID, err := domain.ParseProductID(p.ProductID)
		if err != nil {
			return nil, fmt.Errorf("restore product id: %w", err)
		}
		quantity, err := domain.NewProductQuantity(p.Quantity)
		if err != nil {
			return nil, fmt.Errorf("restore product quantity: %w", err)
		}
		var name *domain.ProductName
		if p.Name != nil {
			n, err := domain.NewProductName(*p.Name)
			if err != nil {
				return nil, fmt.Errorf("restore product name: %w", err)
			}
			name = &n
		}
		var description *domain.ProductDescription
		if p.Description != nil {
			d, err := domain.NewProductDescription(*p.Description)
			if err != nil {
				return nil, fmt.Errorf("restore product description: %w", err)
			}
			description = &d
		}
		products = append(products, domain.NewProduct(productID, quantity, name, description, p.Price))
	}

	return domain.RestoreOrder(id, customerID, orderDate, deliveryDate,
		domain.OrderStatus(rec.Status), products, rec.Version), nil
}

func orderKey(id domain.OrderID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "ORDER#" + id.String()},
		attrSK: &types.AttributeValueMemberS{Value: skMetadata},
	}
}

// Save upserts the aggregate with a monotonic-version condition so a stale
// writer fails with ErrVersionConflict instead of silently losing an update.
func (r *DynamoOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	av, err := attributevalue.MarshalMap(toRecord(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	for k, v := range orderKey(order.ID()) {
		av[k] = v
	}
	av["GSI1PK"] = &types.AttributeValueMemberS{Value: "CUSTOMER#" + order.CustomerID().String()}
	av["GSI1SK"] = &types.AttributeValueMemberS{Value: "ORDER#" + order.ID().String()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR #v < :version"),
		ExpressionAttributeNames: map[string]string{
			"#v": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", order.Version())},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("save order %s: %w", order.ID(), ErrVersionConflict)
		}
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

func (r *DynamoOrderRepository) FindByID(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            orderKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrOrderNotFound
	}

	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func (r *DynamoOrderRepository) FindByIDs(ctx context.Context, ids []domain.OrderID) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(ids))
	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, orderKey(id))
		}

		for len(keys) > 0 {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					r.tableName: {Keys: keys},
				},
			})
			if err != nil {
				return nil, err
			}
			for _, item := range out.Responses[r.tableName] {
				var rec orderRecord
				if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
					return nil, err
				}
				order, err := fromRecord(rec)
				if err != nil {
					return nil, err
				}
				orders = append(orders, order)
			}
			keys = out.UnprocessedKeys[r.tableName].Keys
		}
	}
	return orders, nil
}

func (r *DynamoOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	var orders []*domain.Order
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("SK = :sk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":sk": &types.AttributeValueMemberS{Value: skMetadata},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			var rec orderRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, err
			}
			order, err := fromRecord(rec)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return orders, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (r *DynamoOrderRepository) Delete(ctx context.Context, id domain.OrderID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       orderKey(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
