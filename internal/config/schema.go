package config

import "time"

// Config holds lmdesk configuration.
// Stored at: ~/.lmdesk/config.yaml
type Config struct {
	Backend   BackendCfg                `mapstructure:"backend" yaml:"backend"`
	Providers map[string]LLMProviderCfg `mapstructure:"providers" yaml:"providers"`
	Apps      AppsCfg                   `mapstructure:"apps" yaml:"apps"`
	Sandbox   SandboxCfg                `mapstructure:"sandbox" yaml:"sandbox"`
}

// BackendCfg holds local Ollama backend settings.
type BackendCfg struct {
	// BaseURL is the Ollama server URL (default: http://localhost:11434)
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Autostart attempts to start a local Ollama container when the
	// backend is unreachable at serve time.
	Autostart bool `mapstructure:"autostart" yaml:"autostart"`
	// ContainerName is the Docker container name (default: lmdesk-ollama)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: ollama/ollama:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 11434)
	Port string `mapstructure:"port" yaml:"port"`
	// DataPath is the host path for model storage
	DataPath string `mapstructure:"data_path" yaml:"data_path"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "ollama", "openai"
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"`     // Override endpoint (Groq etc.)
	Model     string  `mapstructure:"model" yaml:"model"`           // Default model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// AppCfg selects the provider/model pair an app talks to.
type AppCfg struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	// TimeoutSeconds bounds one model call for this app. Zero means the
	// global default.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// AppsCfg holds per-application model selections.
type AppsCfg struct {
	// Data answers CSV questions with executable analysis code.
	Data AppCfg `mapstructure:"data" yaml:"data"`
	// Suggest generates suggested questions for an uploaded dataset.
	Suggest AppCfg `mapstructure:"suggest" yaml:"suggest"`
	// Notes generates study notes, question lists, answers and quizzes.
	Notes AppCfg `mapstructure:"notes" yaml:"notes"`
	// OCR extracts text from images with a vision model.
	OCR AppCfg `mapstructure:"ocr" yaml:"ocr"`
	// Chat is the generic chatbot.
	Chat AppCfg `mapstructure:"chat" yaml:"chat"`
	// Translate translates text to a target language.
	Translate AppCfg `mapstructure:"translate" yaml:"translate"`
	// Fix rewrites malformed text.
	Fix AppCfg `mapstructure:"fix" yaml:"fix"`
	// DefaultTimeoutSeconds applies when an app has no timeout of its own.
	DefaultTimeoutSeconds int `mapstructure:"default_timeout_seconds" yaml:"default_timeout_seconds"`
}

// SandboxCfg configures the analysis-code executor.
type SandboxCfg struct {
	// Interpreter is the Python binary used to run extracted code.
	Interpreter string `mapstructure:"interpreter" yaml:"interpreter"`
	// TimeoutSeconds is the hard wall-clock limit for one execution.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns configuration with sensible defaults.
// Model selections mirror the stock local setup: a coder model for
// analysis code, gemma3 for everything conversational, qwen3 for the
// structured notes/quiz chains.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendCfg{
			BaseURL:       "http://localhost:11434",
			Autostart:     true,
			ContainerName: "lmdesk-ollama",
			Image:         "ollama/ollama:latest",
			Port:          "11434",
		},
		Providers: map[string]LLMProviderCfg{
			"ollama": {
				Type:    "ollama",
				Enabled: true,
			},
			"groq": {
				Type:    "openai",
				BaseURL: "https://api.groq.com/openai/v1",
				Model:   "qwen-qwq-32b",
				APIKey:  "${GROQ_API_KEY}",
				Enabled: false,
			},
		},
		Apps: AppsCfg{
			Data:                  AppCfg{Provider: "ollama", Model: "qwen2.5-coder:7b"},
			Suggest:               AppCfg{Provider: "ollama", Model: "gemma3"},
			Notes:                 AppCfg{Provider: "ollama", Model: "qwen3:latest", Temperature: 0.6},
			OCR:                   AppCfg{Provider: "ollama", Model: "gemma3"},
			Chat:                  AppCfg{Provider: "ollama", Model: "gemma3"},
			Translate:             AppCfg{Provider: "ollama", Model: "gemma3"},
			Fix:                   AppCfg{Provider: "ollama", Model: "gemma3"},
			DefaultTimeoutSeconds: 300,
		},
		Sandbox: SandboxCfg{
			Interpreter:    "python3",
			TimeoutSeconds: 30,
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// AppTimeout returns the model-call timeout for an app config.
func (c *Config) AppTimeout(app AppCfg) time.Duration {
	secs := app.TimeoutSeconds
	if secs <= 0 {
		secs = c.Apps.DefaultTimeoutSeconds
	}
	if secs <= 0 {
		secs = 300
	}
	return time.Duration(secs) * time.Second
}
