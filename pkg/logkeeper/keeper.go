// Package logkeeper consumes request-log entries from Kafka and indexes them
// with a pool of workers.
package logkeeper

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/logger"
)

// Reader is the message source. *kafka.Reader implements it.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Keeper struct {
	r          Reader
	idx        Indexer
	numWorkers int
}

func New(r Reader, idx Indexer, numWorkers int) *Keeper {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Keeper{r: r, idx: idx, numWorkers: numWorkers}
}

// Run reads messages until ctx is cancelled, then waits for the workers to
// drain what was already read.
func (k *Keeper) Run(ctx context.Context) {
	jobs := make(chan kafka.Message, k.numWorkers*5) // buffer is needed to increase throughput
	var wg sync.WaitGroup
	wg.Add(k.numWorkers)
	for workerID := 0; workerID < k.numWorkers; workerID++ {
		go func(id int) {
			defer wg.Done()
			k.worker(ctx, jobs, id)
		}(workerID)
	}

	log.Info("[logkeeper] accepting logs...")
	for {
		msg, err := k.r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			log.Errorf("[logkeeper] failed to read message from Kafka: %v", err)
			continue
		}
		log.Debugf("[logkeeper] received message: %s", string(msg.Value))

		select {
		case jobs <- msg:
		case <-ctx.Done():
		}
	}

	close(jobs)
	wg.Wait()
}

func (k *Keeper) worker(ctx context.Context, jobs <-chan kafka.Message, workerID int) {
	for msg := range jobs {
		var entry logger.LogEntry
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			log.Errorf("[logkeeper][workerID:%d] failed to unmarshal log entry: %v", workerID, err)
			continue
		}

		// Entries read before shutdown are still indexed.
		if err := k.idx.Index(context.WithoutCancel(ctx), entry, msg.Value); err != nil {
			log.Errorf("[logkeeper][workerID:%d] failed to index document: %v", workerID, err)
			continue
		}
		log.Debugf("[logkeeper][workerID:%d][%s] log entry indexed", workerID, shorten(entry.RequestID))
	}
	log.Infof("[logkeeper][workerID:%d] jobs channel closed, exiting worker", workerID)
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
