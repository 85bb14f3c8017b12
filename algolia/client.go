// Package algolia provides a fusex.Matcher backed by a hosted Algolia index,
// plus a lazy-loading client with configurable secret management.
package algolia

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Secrets holds the Algolia application credentials.
type Secrets struct {
	// AppID is the Algolia application ID.
	AppID string `json:"app_id"`
	// WriteApiKey is the Algolia write API key.
	WriteApiKey string `json:"write_api_key"`
}

// FetchSecrets is a function type that retrieves Algolia credentials.
// It allows for different secret retrieval strategies (static, environment variables, etc.).
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static credentials.
func StaticSecrets(appID, writeApiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			AppID:       appID,
			WriteApiKey: writeApiKey,
		}, nil
	}
}

// EnvSecrets reads credentials from ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, errors.New("ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, errors.New("ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{
			AppID:       appID,
			WriteApiKey: apiKey,
		}, nil
	}
}

// Client wraps the Algolia search client. The underlying client is created
// on first use so that secrets are only fetched when a request is made.
type Client struct {
	getClient func() (*search.Client, error)
	tracer    trace.Tracer
}

func NewClient(fetchSecrets FetchSecrets) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch secrets")
		}

		if secrets.AppID == "" {
			return nil, errors.New("AppID is empty")
		}

		if secrets.WriteApiKey == "" {
			return nil, errors.New("WriteApiKey is empty")
		}

		return search.NewClient(secrets.AppID, secrets.WriteApiKey), nil
	})

	return &Client{
		getClient: getClient,
		tracer:    otel.Tracer("fusex-algolia"),
	}
}

// index starts a span named op and resolves the index. The returned end
// function records err on the span and must be called exactly once.
func (c *Client) index(ctx context.Context, op, indexName string, attrs ...attribute.KeyValue) (*search.Index, context.Context, func(err error, msg string), error) {
	attrs = append(attrs, attribute.String("algolia.index_name", indexName))
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(attrs...))

	end := func(err error, msg string) {
		defer span.End()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, msg)
			return
		}
		span.SetStatus(codes.Ok, msg)
	}

	client, err := c.getClient()
	if err != nil {
		end(err, "failed to get Algolia client")
		return nil, ctx, nil, errors.Wrap(err, "failed to get Algolia client")
	}
	return client.InitIndex(indexName), ctx, end, nil
}

// Search runs query against indexName. ctx is forwarded to the request.
func (c *Client) Search(ctx context.Context, indexName, query string, params ...interface{}) (search.QueryRes, error) {
	index, ctx, end, err := c.index(ctx, "algolia.search", indexName,
		attribute.Int("algolia.query_length", len(query)),
	)
	if err != nil {
		return search.QueryRes{}, err
	}

	params = append(params, ctx)
	res, err := index.Search(query, params...)
	if err != nil {
		end(err, fmt.Sprintf("search failed on index %s", indexName))
		return search.QueryRes{}, errors.Wrapf(err, "failed to search Algolia index %s", indexName)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("algolia.hits", len(res.Hits)))
	end(nil, "search completed")
	return res, nil
}

// SaveObject upserts one object. The object must carry an objectID.
func (c *Client) SaveObject(ctx context.Context, indexName string, object map[string]interface{}) error {
	var attrs []attribute.KeyValue
	if id, ok := object["objectID"].(string); ok {
		attrs = append(attrs, attribute.String("algolia.object_id", id))
	}

	index, ctx, end, err := c.index(ctx, "algolia.save_object", indexName, attrs...)
	if err != nil {
		return err
	}

	if _, err := index.SaveObject(object, ctx); err != nil {
		end(err, fmt.Sprintf("failed to save object to index %s", indexName))
		return errors.Wrapf(err, "failed to save object to Algolia index %s", indexName)
	}

	end(nil, "object saved successfully")
	return nil
}

// DeleteObject removes one object by ID.
func (c *Client) DeleteObject(ctx context.Context, indexName string, objectID string) error {
	index, ctx, end, err := c.index(ctx, "algolia.delete_object", indexName,
		attribute.String("algolia.object_id", objectID),
	)
	if err != nil {
		return err
	}

	if _, err := index.DeleteObject(objectID, ctx); err != nil {
		end(err, fmt.Sprintf("failed to delete object from index %s", indexName))
		return errors.Wrapf(err, "failed to delete object from Algolia index %s", indexName)
	}

	end(nil, "object deleted successfully")
	return nil
}

// BatchSaveObjects upserts objects in a single batch.
func (c *Client) BatchSaveObjects(ctx context.Context, indexName string, objects []map[string]interface{}) error {
	if len(objects) == 0 {
		return nil
	}

	index, ctx, end, err := c.index(ctx, "algolia.batch_save_objects", indexName,
		attribute.Int("algolia.object_count", len(objects)),
	)
	if err != nil {
		return err
	}

	if _, err := index.SaveObjects(objects, ctx); err != nil {
		end(err, fmt.Sprintf("failed to batch save %d objects to index %s", len(objects), indexName))
		return errors.Wrapf(err, "failed to batch save objects to Algolia index %s", indexName)
	}

	end(nil, fmt.Sprintf("batch saved %d objects successfully", len(objects)))
	return nil
}

// BatchDeleteObjects removes objects by ID in a single batch.
func (c *Client) BatchDeleteObjects(ctx context.Context, indexName string, objectIDs []string) error {
	if len(objectIDs) == 0 {
		return nil
	}

	index, ctx, end, err := c.index(ctx, "algolia.batch_delete_objects", indexName,
		attribute.Int("algolia.object_count", len(objectIDs)),
	)
	if err != nil {
		return err
	}

	if _, err := index.DeleteObjects(objectIDs, ctx); err != nil {
		end(err, fmt.Sprintf("failed to batch delete %d objects from index %s", len(objectIDs), indexName))
		return errors.Wrapf(err, "failed to batch delete objects from Algolia index %s", indexName)
	}

	end(nil, fmt.Sprintf("batch deleted %d objects successfully", len(objectIDs)))
	return nil
}
