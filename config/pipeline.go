package config

// PipelineConfig controls the inter-stage queue sizing and identity of a
// Pipeline.
type PipelineConfig struct {
	// Name is carried for configuration files and round-trips. pipeline.New
	// and pipeline.NewNamed do not read it: a pipeline is registered with
	// the default broker only through NewNamed's own name argument.
	Name string `json:"name"`

	// MaxSize bounds every inter-stage queue. <= 0 means unbounded.
	MaxSize int `json:"max_size"`

	// Observer names a registered observability.Observer ("noop", "slog", ...).
	Observer string `json:"observer"`
}

// DefaultPipelineConfig returns an unbounded, unnamed, slog-observed
// pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxSize:  -1,
		Observer: "slog",
	}
}

func (c *PipelineConfig) Merge(source *PipelineConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.MaxSize != 0 {
		c.MaxSize = source.MaxSize
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
