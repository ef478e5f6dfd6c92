package config_test

import (
	"encoding/json"
	"testing"

	"github.com/flowforge/pipeline/config"
)

func TestDefaultStageConfig(t *testing.T) {
	cfg := config.DefaultStageConfig()
	if cfg.NumWorkers != 0 {
		t.Errorf("NumWorkers = %d, want 0 (auto-detect)", cfg.NumWorkers)
	}
	if cfg.ChunkSize != 1 {
		t.Errorf("ChunkSize = %d, want 1", cfg.ChunkSize)
	}
	if cfg.Observer != "slog" {
		t.Errorf("Observer = %q, want %q", cfg.Observer, "slog")
	}
}

func TestStageConfig_MergeOnlyOverridesNonZero(t *testing.T) {
	cfg := config.DefaultStageConfig()
	cfg.Merge(&config.StageConfig{ChunkSize: 25})

	if cfg.ChunkSize != 25 {
		t.Errorf("ChunkSize = %d, want 25 after merge", cfg.ChunkSize)
	}
	if cfg.Observer != "slog" {
		t.Errorf("Observer = %q, want unchanged %q", cfg.Observer, "slog")
	}
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := config.DefaultPipelineConfig()
	if cfg.MaxSize != -1 {
		t.Errorf("MaxSize = %d, want -1 (unbounded)", cfg.MaxSize)
	}
	if cfg.Name != "" {
		t.Errorf("Name = %q, want empty by default", cfg.Name)
	}
}

func TestPipelineConfig_JSONRoundTrip(t *testing.T) {
	original := config.PipelineConfig{Name: "orders", MaxSize: 64, Observer: "noop"}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var got config.PipelineConfig
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got != original {
		t.Errorf("round-tripped config = %+v, want %+v", got, original)
	}
}

func TestDefaultBrokerConfig(t *testing.T) {
	cfg := config.DefaultBrokerConfig()
	if cfg.IncomingBufferSize != 256 {
		t.Errorf("IncomingBufferSize = %d, want 256", cfg.IncomingBufferSize)
	}
	if cfg.Observer != "slog" {
		t.Errorf("Observer = %q, want %q", cfg.Observer, "slog")
	}
}

func TestBrokerConfig_MergeOnlyOverridesNonZero(t *testing.T) {
	cfg := config.DefaultBrokerConfig()
	cfg.Merge(&config.BrokerConfig{Observer: "noop"})

	if cfg.Observer != "noop" {
		t.Errorf("Observer = %q, want %q after merge", cfg.Observer, "noop")
	}
	if cfg.IncomingBufferSize != 256 {
		t.Errorf("IncomingBufferSize = %d, want unchanged 256", cfg.IncomingBufferSize)
	}
	if cfg.RelayBufferSize != 64 {
		t.Errorf("RelayBufferSize = %d, want unchanged 64", cfg.RelayBufferSize)
	}
}

func TestDefaultBrokerConfig_RelayBufferSize(t *testing.T) {
	cfg := config.DefaultBrokerConfig()
	if cfg.RelayBufferSize != 64 {
		t.Errorf("RelayBufferSize = %d, want 64", cfg.RelayBufferSize)
	}
}
