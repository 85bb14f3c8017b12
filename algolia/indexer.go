package algolia

import (
	"context"
	"maps"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/letmevibethatforyou/fusex"
	"github.com/letmevibethatforyou/fusex/internal/fieldpath"
)

const (
	defaultBatchSize   = 500
	defaultConcurrency = 4
)

// ObjectSaver saves a batch of objects to an index. *Client implements it.
type ObjectSaver interface {
	BatchSaveObjects(ctx context.Context, indexName string, objects []map[string]interface{}) error
}

// IndexOptions tunes IndexDocuments.
type IndexOptions struct {
	// IDKey names the document field copied into objectID.
	IDKey string
	// BatchSize is the number of objects per request.
	BatchSize int
	// Concurrency is the number of batches in flight.
	Concurrency int
}

// IndexStats reports what IndexDocuments did.
type IndexStats struct {
	Saved   int
	Skipped int
	Batches int
}

// IndexDocuments uploads docs to indexName in concurrent batches. Each
// object's objectID is taken from opts.IDKey; documents without one are
// skipped. The first failed batch cancels the rest.
func IndexDocuments(ctx context.Context, saver ObjectSaver, indexName string, docs []fusex.Document, opts IndexOptions) (IndexStats, error) {
	if opts.IDKey == "" {
		opts.IDKey = DefaultIDKey
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	path, err := fieldpath.Parse(opts.IDKey)
	if err != nil {
		return IndexStats{}, errors.WithSecondaryError(fusex.ErrInvalidOption, err)
	}

	var stats IndexStats
	objects := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		value, ok := path.Get(doc)
		if !ok {
			stats.Skipped++
			continue
		}
		id, ok := objectID(value)
		if !ok {
			stats.Skipped++
			continue
		}
		object := maps.Clone(doc)
		object["objectID"] = id
		objects = append(objects, object)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for start := 0; start < len(objects); start += opts.BatchSize {
		batch := objects[start:min(start+opts.BatchSize, len(objects))]
		stats.Batches++
		g.Go(func() error {
			return saver.BatchSaveObjects(gCtx, indexName, batch)
		})
	}

	if err := g.Wait(); err != nil {
		return IndexStats{Skipped: stats.Skipped}, errors.Wrap(err, "failed to index documents")
	}

	stats.Saved = len(objects)
	return stats, nil
}
