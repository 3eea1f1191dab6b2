package logkeeper

import (
	"bytes"
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/greforce/udm-devconnector/pkg/logger"
)

// Indexer stores one request-log entry. raw is the entry as received.
type Indexer interface {
	Index(ctx context.Context, entry logger.LogEntry, raw []byte) error
}

// ESIndexer indexes entries into an Elasticsearch index. Entries are keyed
// by service and request ID, so redelivered messages overwrite themselves.
type ESIndexer struct {
	es    *elasticsearch.Client
	index string
}

func NewESIndexer(es *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{es: es, index: index}
}

func (i *ESIndexer) Index(ctx context.Context, entry logger.LogEntry, raw []byte) error {
	res, err := i.es.Index(
		i.index,
		bytes.NewReader(raw),
		i.es.Index.WithDocumentID(documentID(entry)),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index %s: %s", i.index, res.Status())
	}
	return nil
}

func documentID(entry logger.LogEntry) string {
	return entry.Service + "-" + entry.RequestID
}
