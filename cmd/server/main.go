package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/api"
	"github.com/greforce/udm-devconnector/pkg/config"
	"github.com/greforce/udm-devconnector/pkg/logger"
	"github.com/greforce/udm-devconnector/pkg/mutation"
	"github.com/greforce/udm-devconnector/pkg/storage"
	"github.com/greforce/udm-devconnector/pkg/storage/memdb"
	"github.com/greforce/udm-devconnector/pkg/storage/metrics"
	"github.com/greforce/udm-devconnector/pkg/storage/mongo"
	"github.com/greforce/udm-devconnector/pkg/storage/postgres"
)

func main() {
	var (
		configPath  string
		dev         bool
		httpAddr    string
		logLevel    string
		storageKind string
		kafkaAddr   string
		kafkaTopic  string
		kafkaBatch  int
	)

	flag.StringVar(&configPath, "config", "cmd/server/config.toml", "Path to TOML config file")
	flag.BoolVar(&dev, "dev", false, "Run the server in development mode with in-memory DB.")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&storageKind, "storage", "", "Storage backend: memory, mongo, postgres.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if storageKind != "" {
		cfg.Storage = storageKind
	}
	if dev {
		cfg.Storage = config.StorageMemory
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[server] invalid config: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("[server] %v, using info", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	sdb, closeDB, err := openStorage(ctx, cfg.Storage)
	cancel()
	if err != nil {
		log.Fatalf("[server] %v", err)
	}
	defer closeDB()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts, err := cfg.ServiceOptions()
	if err != nil {
		log.Fatalf("[server] %v", err)
	}
	svc := mutation.New(metrics.Wrap(sdb, reg), opts...)
	log.Infof("[server] concurrency policy: %s", svc.Policy())

	var lw api.LogWriter
	if cfg.KafkaAddr != "" && cfg.KafkaTopic != "" {
		kafkaWriter := &kafka.Writer{
			Addr:      kafka.TCP(cfg.KafkaAddr),
			Topic:     cfg.KafkaTopic,
			BatchSize: cfg.KafkaBatch,
		}
		defer kafkaWriter.Close()
		if err := createTopic(kafkaWriter.Addr.String(), kafkaWriter.Topic); err != nil {
			log.Warnf("[server] failed to create Kafka topic: %v", err)
		}
		lw = kafkaWriter
	} else {
		log.Warnf("[server] kafka was not configured, logs will not be sent to Kafka")
	}

	api := api.New(cfg.ServiceName, svc, lw, reg)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Infof("[server] starting on %v", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}
}

// openStorage connects the configured backend. The returned func releases it.
func openStorage(ctx context.Context, kind string) (storage.Storage, func(), error) {
	switch kind {
	case config.StorageMongo:
		conf, err := mongo.NewConfig()
		if err != nil {
			return nil, nil, err
		}
		db, err := mongo.New(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Close(ctx)
		}
		if err := checkReady(ctx, db.Ping, release); err != nil {
			return nil, nil, err
		}
		log.Infof("[server] connected to mongo database %s", conf.DBName)
		return db, release, nil

	case config.StoragePostgres:
		conf := postgres.Config{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
			DBName:   os.Getenv("POSTGRES_DB"),
		}
		if !conf.IsValid() {
			return nil, nil, fmt.Errorf("invalid postgres config: %s", conf)
		}
		db, err := postgres.New(ctx, conf.ConString())
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", storage.ErrConnectDB, err)
		}
		ping := func(ctx context.Context) error {
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrDBNotResponding, err)
			}
			return nil
		}
		if err := checkReady(ctx, ping, db.Close); err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to apply postgres schema: %w", err)
		}
		log.Infof("[server] connected to postgres: %s", conf)
		return db, db.Close, nil
	}

	log.Info("[server] run with in memory DB")
	return memdb.New(), func() {}, nil
}

// checkReady pings a freshly opened store and releases it when it does not
// answer.
func checkReady(ctx context.Context, ping func(context.Context) error, release func()) error {
	if err := ping(ctx); err != nil {
		release()
		return err
	}
	return nil
}

func createTopic(broker, topic string) error {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
