package main

import (
	"context"
	"log/slog"
	"maps"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/fusex/algolia"
	"github.com/letmevibethatforyou/fusex/internal/backend"
	"github.com/letmevibethatforyou/fusex/internal/ddb"
)

// objectWriter is the part of *algolia.Client the handler needs.
type objectWriter interface {
	SaveObject(ctx context.Context, indexName string, object map[string]interface{}) error
	DeleteObject(ctx context.Context, indexName string, objectID string) error
}

// Handler mirrors catalog documents from a DynamoDB stream into Algolia so
// the algolia matcher can search them.
type Handler struct {
	tableName string
	writer    objectWriter
}

func NewHandler(tableName string, writer objectWriter) *Handler {
	return &Handler{
		tableName: tableName,
		writer:    writer,
	}
}

func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e events.DynamoDBEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records), "table", h.tableName)

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Error processing record", "event_id", record.EventID, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	change, err := ddb.DecodeRecord(record)
	if err != nil {
		slog.WarnContext(ctx, "Failed to decode record, skipping", "event_id", record.EventID, "event_type", record.EventName, "error", err)
		return nil
	}

	r := change.Record
	if r.ID == "" || r.IndexName == "" {
		slog.WarnContext(ctx, "Missing ID (pk) or IndexName (sk) in record, skipping record", "event_id", record.EventID)
		return nil
	}

	switch change.Operation {
	case ddb.OperationTypeRemove:
		slog.InfoContext(ctx, "Deleting object from Algolia", "object_id", r.ID, "index", r.IndexName)
		return h.writer.DeleteObject(ctx, r.IndexName, r.ID)
	default:
		if r.Object == nil {
			slog.WarnContext(ctx, "Missing Object in record, skipping record", "id", r.ID, "index", r.IndexName)
			return nil
		}

		object := maps.Clone(r.Object)
		object["objectID"] = r.ID

		slog.InfoContext(ctx, "Saving object to Algolia", "object_id", r.ID, "index", r.IndexName)
		return h.writer.SaveObject(ctx, r.IndexName, object)
	}
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "dynamodb-algolia-sync",
		Usage: "Sync catalog documents from a DynamoDB stream to Algolia",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB table name to sync from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
		}, backend.SecretFlags()...),
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")

	slog.InfoContext(ctx, "Starting DynamoDB to Algolia sync", "table", tableName, "environment", c.String("env"))

	fetchSecrets, err := backend.Secrets(ctx, c)
	if err != nil {
		return err
	}

	handler := NewHandler(tableName, algolia.NewClient(fetchSecrets))

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
		return nil
	}

	slog.InfoContext(ctx, "Running in Lambda environment")
	lambda.Start(handler.HandleDynamoDBEvent)
	return nil
}
