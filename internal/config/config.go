package config

// Config represents the full application configuration.
type Config struct {
	Git           GitConfig           `yaml:"git"`
	Lint          LintConfig          `yaml:"lint"`
	Engine        EngineConfig        `yaml:"engine"`
	Output        OutputConfig        `yaml:"output"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitConfig locates the repository under analysis.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// LintConfig describes the external lint tool and which files get fed
// to it.
type LintConfig struct {
	// Tool is the lint executable name or path.
	Tool string `yaml:"tool"`

	// Args are passed to the tool; {file} is replaced with the path of
	// the file under analysis.
	Args []string `yaml:"args"`

	// Extensions whitelists file extensions handed to the tool. Empty
	// means every changed file is eligible.
	Extensions []string `yaml:"extensions"`
}

// EngineConfig tunes the correlation pipeline.
type EngineConfig struct {
	MaxDiffBytes  int  `yaml:"maxDiffBytes"`
	AllowOversize bool `yaml:"allowOversize"`
	Concurrency   int  `yaml:"concurrency"`
}

// OutputConfig selects the rendering format.
type OutputConfig struct {
	// Format is one of text, markdown, json, sarif.
	Format string `yaml:"format"`
}

// StoreConfig configures the run-history persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`  // debug, info, warning, error
	Format  string `yaml:"format"` // json, human
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Git = chooseGit(base.Git, overlay.Git)
	result.Lint = chooseLint(base.Lint, overlay.Lint)
	result.Engine = chooseEngine(base.Engine, overlay.Engine)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

func chooseGit(base, overlay GitConfig) GitConfig {
	if overlay.RepositoryDir != "" {
		return overlay
	}
	return base
}

func chooseLint(base, overlay LintConfig) LintConfig {
	result := base
	if overlay.Tool != "" {
		result.Tool = overlay.Tool
	}
	if len(overlay.Args) > 0 {
		result.Args = overlay.Args
	}
	if len(overlay.Extensions) > 0 {
		result.Extensions = overlay.Extensions
	}
	return result
}

func chooseEngine(base, overlay EngineConfig) EngineConfig {
	if overlay.MaxDiffBytes != 0 || overlay.AllowOversize || overlay.Concurrency != 0 {
		return overlay
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Format != "" {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
