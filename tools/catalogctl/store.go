package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/na4oman/samsung-shop/database"
	awspkg "github.com/na4oman/samsung-shop/pkg/aws"
	"github.com/na4oman/samsung-shop/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// storeOptions selects and addresses one catalog store.
type storeOptions struct {
	kind       string
	table      string
	mongoURI   string
	mongoDB    string
	collection string
	region     string
	endpoint   string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// bind registers the store flags under prefix ("" or e.g. "from-").
func (o *storeOptions) bind(cmd *cobra.Command, prefix, defaultKind string) {
	f := cmd.Flags()
	f.StringVar(&o.kind, prefix+"store", defaultKind, "Catalog store: dynamodb, mongo or fixture")
	f.StringVar(&o.table, prefix+"table", envOr("DDB_TABLE_PRODUCTS", "Products"), "DynamoDB table name")
	f.StringVar(&o.mongoURI, prefix+"mongo-uri", os.Getenv("MONGO_URI"), "MongoDB URI")
	f.StringVar(&o.mongoDB, prefix+"mongo-db", envOr("MONGO_DB", "samsung_shop"), "MongoDB database name")
	f.StringVar(&o.collection, prefix+"collection", envOr("MONGO_COLLECTION", "products"), "MongoDB collection")
	f.StringVar(&o.region, prefix+"region", envOr("AWS_REGION", "us-east-1"), "AWS region")
	f.StringVar(&o.endpoint, prefix+"endpoint", os.Getenv("AWS_ENDPOINT"), "Custom AWS endpoint (LocalStack)")
}

// openStore connects to the selected store. The returned func releases it.
func openStore(ctx context.Context, o storeOptions, log *zap.Logger) (repository.ProductRepo, func(), error) {
	noop := func() {}
	switch o.kind {
	case "fixture":
		return repository.NewFixtureAdapter(repository.SampleProducts()), noop, nil
	case "mongo":
		if o.mongoURI == "" {
			return nil, noop, fmt.Errorf("mongo store requires --mongo-uri or MONGO_URI")
		}
		client, db, err := database.ConnectMongo(ctx, o.mongoURI, o.mongoDB, log)
		if err != nil {
			return nil, noop, err
		}
		release := func() {
			if err := database.DisconnectMongo(client); err != nil {
				log.Warn("mongo disconnect", zap.Error(err))
			}
		}
		return repository.NewMongoAdapter(db, o.collection), release, nil
	case "dynamodb":
		cfg, err := awspkg.LoadAWSConfig(ctx, awspkg.Options{
			Region:          o.region,
			Endpoint:        o.endpoint,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
		if err != nil {
			return nil, noop, fmt.Errorf("aws config: %w", err)
		}
		return repository.NewDynamoAdapter(dynamodb.NewFromConfig(cfg), o.table), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q", o.kind)
	}
}
