package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/rodrigolyusei/mynextflight/internal/domain"
)

// Attribute names match the table layout the bot has always used.
const (
	attrOwnerID = "user_id"
	attrAlertID = "alert_id"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Client wraps the alerts table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// alertItem is the persisted shape of a domain.Alert. MaxPrice travels as a
// DynamoDB number without passing through float64.
type alertItem struct {
	OwnerID     string                `dynamodbav:"user_id"`
	AlertID     string                `dynamodbav:"alert_id"`
	Origin      string                `dynamodbav:"origin"`
	Destination string                `dynamodbav:"destination"`
	Date        string                `dynamodbav:"date"`
	MaxPrice    attributevalue.Number `dynamodbav:"max_price"`
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// ListByOwner returns every alert owned by ownerID. An owner without alerts
// yields an empty slice.
func (c *Client) ListByOwner(ctx context.Context, ownerID string) ([]domain.Alert, error) {
	p := dynamodb.NewQueryPaginator(c.api, c.ownerQuery(ownerID))

	alerts := make([]domain.Alert, 0, domain.MaxAlertsPerOwner)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, unavailable("ListByOwner", err)
		}
		alerts = append(alerts, itemsToAlerts("ListByOwner", out.Items)...)
	}
	return alerts, nil
}

// CountByOwner returns how many alerts ownerID currently has.
func (c *Client) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	in := c.ownerQuery(ownerID)
	in.Select = types.SelectCount
	p := dynamodb.NewQueryPaginator(c.api, in)

	total := 0
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, unavailable("CountByOwner", err)
		}
		total += int(out.Count)
	}
	return total, nil
}

// Insert persists a new alert. It never overwrites: an existing
// (owner, alert id) pair yields domain.ErrAlreadyExists.
func (c *Client) Insert(ctx context.Context, alert domain.Alert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("repository: Insert: %w", err)
	}
	item, err := attributevalue.MarshalMap(toItem(alert))
	if err != nil {
		return fmt.Errorf("repository: Insert marshal: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#owner) AND attribute_not_exists(#alert)"),
		ExpressionAttributeNames: map[string]string{
			"#owner": attrOwnerID,
			"#alert": attrAlertID,
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("repository: Insert: %w", domain.ErrAlreadyExists)
		}
		return unavailable("Insert", err)
	}
	return nil
}

// Delete removes one alert and returns its prior values, or
// domain.ErrNotFound when nothing was stored under that key.
func (c *Client) Delete(ctx context.Context, ownerID, alertID string) (domain.Alert, error) {
	if ownerID == "" || alertID == "" {
		return domain.Alert{}, errors.New("repository: Delete: owner and alert id are required")
	}

	out, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(c.tableName),
		Key:          alertKey(ownerID, alertID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return domain.Alert{}, unavailable("Delete", err)
	}
	if out == nil || len(out.Attributes) == 0 {
		return domain.Alert{}, fmt.Errorf("repository: Delete %s/%s: %w", ownerID, alertID, domain.ErrNotFound)
	}

	prior, err := itemToAlert(out.Attributes)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("repository: Delete decode: %w", err)
	}
	return prior, nil
}

// ScanAll reads the whole table, following pagination until exhausted.
func (c *Client) ScanAll(ctx context.Context) ([]domain.Alert, error) {
	p := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName: aws.String(c.tableName),
	})

	var alerts []domain.Alert
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, unavailable("ScanAll", err)
		}
		alerts = append(alerts, itemsToAlerts("ScanAll", out.Items)...)
	}
	return alerts, nil
}

func (c *Client) ownerQuery(ownerID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": attrOwnerID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	}
}

// alertKey builds the composite primary key for one alert.
func alertKey(ownerID, alertID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrOwnerID: &types.AttributeValueMemberS{Value: ownerID},
		attrAlertID: &types.AttributeValueMemberS{Value: alertID},
	}
}

func toItem(a domain.Alert) alertItem {
	return alertItem{
		OwnerID:     a.OwnerID,
		AlertID:     a.AlertID,
		Origin:      a.Origin,
		Destination: a.Destination,
		Date:        a.Date,
		MaxPrice:    attributevalue.Number(a.MaxPrice.String()),
	}
}

func itemToAlert(av map[string]types.AttributeValue) (domain.Alert, error) {
	var item alertItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return domain.Alert{}, err
	}
	price, err := decimal.NewFromString(string(item.MaxPrice))
	if err != nil {
		return domain.Alert{}, fmt.Errorf("alert %s/%s: max_price %q: %w", item.OwnerID, item.AlertID, item.MaxPrice, err)
	}
	return domain.Alert{
		OwnerID:     item.OwnerID,
		AlertID:     item.AlertID,
		Origin:      item.Origin,
		Destination: item.Destination,
		Date:        item.Date,
		MaxPrice:    price,
	}, nil
}

// itemsToAlerts decodes a page of items. Records that do not decode into a
// valid alert are logged and left out so one bad row cannot hide the rest.
func itemsToAlerts(op string, items []map[string]types.AttributeValue) []domain.Alert {
	alerts := make([]domain.Alert, 0, len(items))
	for _, item := range items {
		a, err := itemToAlert(item)
		if err == nil {
			err = a.Validate()
		}
		if err != nil {
			slog.Warn("repository: skipping malformed alert record", "op", op, "err", err)
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}

func unavailable(op string, err error) error {
	return fmt.Errorf("repository: %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
