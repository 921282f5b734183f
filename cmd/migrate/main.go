package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/audience-console/internal/config"
)

// Provisions the DynamoDB table the console stores everything in: a
// single table keyed PK/SK, on-demand billing. Safe to run repeatedly.
func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if profile := cfg.AWS.GetProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	client := dynamodb.NewFromConfig(awsCfg)

	if listOnly {
		out, err := client.ListTables(ctx, &dynamodb.ListTablesInput{})
		if err != nil {
			log.Fatalf("list tables: %v", err)
		}
		for _, t := range out.TableNames {
			fmt.Println(" ", t)
		}
		fmt.Printf("Total: %d tables\n", len(out.TableNames))
		return
	}

	table := cfg.AWS.DynamoDBTable
	_, err = client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err == nil {
		log.Printf("Table %s already exists, nothing to do", table)
		return
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		log.Fatalf("describe table %s: %v", table, err)
	}

	log.Printf("Creating table %s in %s...", table, cfg.AWS.Region)
	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		log.Fatalf("create table %s: %v", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}, 2*time.Minute); err != nil {
		log.Fatalf("waiting for table %s: %v", table, err)
	}

	log.Printf("Table %s is active", table)
	log.Println("Provisioning complete")
}
