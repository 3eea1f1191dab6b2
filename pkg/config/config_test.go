package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/mutation"
	"github.com/greforce/udm-devconnector/pkg/storage/memdb"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
serviceName = "devconnector-test"
storage = "mongo"
policy = "optimistic"
maxRetries = 5
requireProfile = true
kafkaAddr = "kafka:9092"
kafkaTopic = "logs"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Default()
	want.ServiceName = "devconnector-test"
	want.Storage = StorageMongo
	want.Policy = "optimistic"
	want.MaxRetries = 5
	want.RequireProfile = true
	want.KafkaAddr = "kafka:9092"
	want.KafkaTopic = "logs"
	if cfg != want {
		t.Errorf("want config\n%+v\ngot\n%+v", want, cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_unknownKey(t *testing.T) {
	path := writeConfig(t, `polcy = "optimistic"`)
	if _, err := Load(path); err == nil {
		t.Error("want error for unknown key, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "bad address", modify: func(c *Config) { c.HTTPAddr = "8080" }, wantErr: true},
		{name: "bad storage", modify: func(c *Config) { c.Storage = "redis" }, wantErr: true},
		{name: "bad policy", modify: func(c *Config) { c.Policy = "pessimistic" }, wantErr: true},
		{name: "negative retries", modify: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
		{name: "kafka topic only", modify: func(c *Config) { c.KafkaTopic = "logs" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("want error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_ServiceOptions(t *testing.T) {
	cfg := Default()
	cfg.Policy = "optimistic"
	cfg.RequireProfile = true

	opts, err := cfg.ServiceOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := mutation.New(memdb.New(), opts...)
	if svc.Policy() != mutation.Optimistic {
		t.Errorf("want optimistic policy, got %v", svc.Policy())
	}

	_, err = svc.Like(context.Background(), ident.New(), ident.New())
	if mutation.KindOf(err) != mutation.ProfileMissing {
		t.Errorf("want actor profile required, got %v", err)
	}
}
