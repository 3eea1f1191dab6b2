package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/logger"
	"github.com/greforce/udm-devconnector/pkg/logkeeper"
)

func main() {
	var (
		configPath string
		logLevel   string
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("[logkeeper] shutting down gracefully...")
		cancel()
	}()

	flag.StringVar(&configPath, "config", "cmd/logkeeper/config.toml", "Path to TOML config file")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.Parse()

	cfg, err := logkeeper.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("[logkeeper] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("[logkeeper] %v, using info", err)
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.ElasticSearchNodes})
	if err != nil {
		log.Fatalf("[logkeeper] error creating the client: %s", err)
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	defer r.Close()

	logkeeper.New(r, logkeeper.NewESIndexer(es, cfg.ElasticSearchIndex), cfg.NumWorkers).Run(ctx)
}
