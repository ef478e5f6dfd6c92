// Package config defines the tunables for stages, pipelines, and the
// broker. Each config type follows the Default*Config / Merge pattern:
// construct defaults, unmarshal overrides, merge non-zero fields in.
package config

// StageConfig controls one stage's worker pool sizing and batching.
type StageConfig struct {
	// NumWorkers is the number of concurrent workers backing the stage.
	// <= 0 means runtime.NumCPU().
	NumWorkers int `json:"num_workers"`

	// ChunkSize is the emit threshold for outgoing batches. <= 0 means 1.
	ChunkSize int `json:"chunk_size"`

	// Observer names a registered observability.Observer ("noop", "slog", ...).
	Observer string `json:"observer"`
}

// DefaultStageConfig returns a StageConfig with auto-detected worker count,
// unit-size chunking, and structured logging.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		NumWorkers: 0,
		ChunkSize:  1,
		Observer:   "slog",
	}
}

func (c *StageConfig) Merge(source *StageConfig) {
	if source.NumWorkers != 0 {
		c.NumWorkers = source.NumWorkers
	}
	if source.ChunkSize != 0 {
		c.ChunkSize = source.ChunkSize
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
