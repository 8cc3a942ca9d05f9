// Package config loads skinscan.yaml and SKINSCAN_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oukeidos/skinscan/internal/progress"
)

const (
	AnalyzerFunction = "function"
	AnalyzerGemini   = "gemini"

	FileName  = "skinscan"
	EnvPrefix = "SKINSCAN"
)

// Bounds applied by Normalize.
const (
	MinFrameInterval    = 10 * time.Millisecond
	MaxFrameInterval    = 500 * time.Millisecond
	MinCompleteDuration = 100 * time.Millisecond
	MaxCompleteDuration = 10 * time.Second
	MaxStepLimit        = 30 * time.Second
)

type BackendConfig struct {
	URL      string `mapstructure:"url"`
	Bucket   string `mapstructure:"bucket"`
	Function string `mapstructure:"function"`
}

type GeminiConfig struct {
	Model string `mapstructure:"model"`
}

// ProgressConfig overrides the loading animation timing.
type ProgressConfig struct {
	MinStep          time.Duration `mapstructure:"min_step"`
	MaxStep          time.Duration `mapstructure:"max_step"`
	CreepStep        time.Duration `mapstructure:"creep_step"`
	CompleteDuration time.Duration `mapstructure:"complete_duration"`
	FrameInterval    time.Duration `mapstructure:"frame_interval"`
}

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Analyzer string         `mapstructure:"analyzer"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Progress ProgressConfig `mapstructure:"progress"`
	StateDir string         `mapstructure:"state_dir"`
	LogFile  string         `mapstructure:"log_file"`
	LogLevel string         `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	t := progress.DefaultTiming()

	v.SetDefault("backend.url", "http://127.0.0.1:54321")
	v.SetDefault("backend.bucket", "scans")
	v.SetDefault("backend.function", "analyze-skin")
	v.SetDefault("analyzer", AnalyzerFunction)
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	v.SetDefault("progress.min_step", t.MinStep)
	v.SetDefault("progress.max_step", t.MaxStep)
	v.SetDefault("progress.creep_step", t.CreepStep)
	v.SetDefault("progress.complete_duration", t.CompleteDuration)
	v.SetDefault("progress.frame_interval", t.FrameInterval)

	v.SetDefault("state_dir", "")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
}

// Load reads configPath, or searches "." and $HOME/.skinscan when it is
// empty. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.skinscan")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Analyzer = strings.ToLower(strings.TrimSpace(cfg.Analyzer))
	return &cfg, nil
}

// Defaults is the configuration used when no file or environment applies.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &cfg
}

// Normalize clamps progress timings into a usable range and returns one
// note per adjustment.
func (c *Config) Normalize() []string {
	var notes []string
	clamp := func(name string, d *time.Duration, lo, hi time.Duration) {
		switch {
		case *d < lo:
			notes = append(notes, fmt.Sprintf("progress.%s raised from %s to %s", name, *d, lo))
			*d = lo
		case *d > hi:
			notes = append(notes, fmt.Sprintf("progress.%s lowered from %s to %s", name, *d, hi))
			*d = hi
		}
	}

	p := &c.Progress
	clamp("frame_interval", &p.FrameInterval, MinFrameInterval, MaxFrameInterval)
	clamp("complete_duration", &p.CompleteDuration, MinCompleteDuration, MaxCompleteDuration)
	clamp("min_step", &p.MinStep, p.FrameInterval, MaxStepLimit)
	clamp("max_step", &p.MaxStep, p.MinStep, MaxStepLimit)
	clamp("creep_step", &p.CreepStep, p.FrameInterval, MaxStepLimit)
	return notes
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	switch c.Analyzer {
	case AnalyzerFunction, AnalyzerGemini:
	default:
		return fmt.Errorf("unknown analyzer %q (want %s or %s)", c.Analyzer, AnalyzerFunction, AnalyzerGemini)
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url must be an absolute http(s) URL: %q", c.Backend.URL)
	}
	if strings.TrimSpace(c.Backend.Bucket) == "" {
		return fmt.Errorf("backend.bucket is required")
	}
	if c.Analyzer == AnalyzerFunction && strings.TrimSpace(c.Backend.Function) == "" {
		return fmt.Errorf("backend.function is required for the function analyzer")
	}
	if c.Analyzer == AnalyzerGemini && strings.TrimSpace(c.Gemini.Model) == "" {
		return fmt.Errorf("gemini.model is required for the gemini analyzer")
	}
	if err := c.Timing().Validate(); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	return nil
}

// Timing is the progress curve with the configured durations applied.
func (c *Config) Timing() progress.Timing {
	t := progress.DefaultTiming()
	t.MinStep = c.Progress.MinStep
	t.MaxStep = c.Progress.MaxStep
	t.CreepStep = c.Progress.CreepStep
	t.CompleteDuration = c.Progress.CompleteDuration
	t.FrameInterval = c.Progress.FrameInterval
	return t
}

// WriteSample writes the defaults to path. An existing file is kept unless
// force is set.
func WriteSample(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	v := viper.New()
	setDefaults(v)
	for _, key := range v.AllKeys() {
		val := v.Get(key)
		if d, ok := val.(time.Duration); ok {
			val = d.String()
		}
		v.Set(key, val)
	}
	if force {
		return v.WriteConfigAs(path)
	}
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("config file not written: %w", err)
	}
	return nil
}
