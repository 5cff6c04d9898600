package db

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"

	"github.com/jsphweid/stemviz/model"
)

type DynamoStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// NewDynamoStore connects to DynamoDB. An empty endpoint uses the regular
// AWS endpoint resolution, "http://localhost:8000" talks to DynamoDB Local.
func NewDynamoStore(region, endpoint, table string) (*DynamoStore, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Could not create a new DynamoDB session")
	}
	return NewDynamoStoreWithClient(dynamodb.New(sess), table), nil
}

func NewDynamoStoreWithClient(client dynamodbiface.DynamoDBAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (d *DynamoStore) Save(ctx context.Context, job model.Job) error {
	_, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			"PK":        {S: aws.String(job.ID)},
			"Source":    {S: aws.String(job.Source)},
			"CreatedAt": {S: aws.String(job.CreatedAt.UTC().Format(time.RFC3339Nano))},
		},
	})
	return errors.Wrap(err, "Error from DynamoDB")
}

func (d *DynamoStore) Get(ctx context.Context, id string) (model.Job, error) {
	var job model.Job
	out, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(id)},
		},
	})
	if err != nil {
		return job, errors.Wrap(err, "Error from DynamoDB")
	}
	if len(out.Item) == 0 {
		return job, ErrJobNotFound
	}

	job.ID = aws.StringValue(out.Item["PK"].S)
	if v, ok := out.Item["Source"]; ok {
		job.Source = aws.StringValue(v.S)
	}
	if v, ok := out.Item["CreatedAt"]; ok {
		created, err := time.Parse(time.RFC3339Nano, aws.StringValue(v.S))
		if err != nil {
			return job, errors.Wrapf(err, "bad CreatedAt for job %v", id)
		}
		job.CreatedAt = created
	}
	return job, nil
}
