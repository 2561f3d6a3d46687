// Package config provides configuration management for the gatekeeper.
// It uses viper for loading configuration from command-line flags,
// environment variables, and defaults.
//
// Configuration priority (highest to lowest):
// 1. Command-line flags
// 2. Environment variables (with GATEKEEPER_ prefix)
// 3. Defaults
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Strategy selects how the LLM tier is reached.
const (
	// StrategyAuto picks API when ANTHROPIC_API_KEY is set, CLI otherwise.
	StrategyAuto = "auto"
	// StrategyAPI forces the Anthropic API judge.
	StrategyAPI = "api"
	// StrategyCLI forces the local CLI subprocess judge.
	StrategyCLI = "cli"
)

// Config holds all configuration values for the gatekeeper.
type Config struct {
	// Verbose enables per-tier trace output on stderr.
	Verbose bool

	// Strategy is the LLM strategy: auto, api, or cli.
	Strategy string

	// Model is the model identifier for the API judge.
	Model string

	// CLIBinary overrides the fallback CLI judge binary.
	CLIBinary string

	// TemplatePath points at a custom prompt template file; empty means
	// the built-in template.
	TemplatePath string

	// PermissionsPath is the external, read-only permission rules file.
	PermissionsPath string

	// LogPath is the append-only decision log.
	LogPath string

	// Root confines file-context reads; empty means the command's cwd.
	Root string

	// Timeout bounds one whole evaluation, including the LLM call.
	Timeout time.Duration

	// MaxFileBytes caps each file read by the context loader.
	MaxFileBytes int64

	// MaxContextBytes caps the file context embedded in the prompt.
	MaxContextBytes int

	// DenyPatternsJSON and SafePatternsJSON carry operator-supplied
	// extra patterns as JSON arrays; invalid patterns are fatal at
	// startup.
	DenyPatternsJSON string
	SafePatternsJSON string
}

// Defaults returns a Config with all default values set.
func Defaults() *Config {
	return &Config{
		Verbose:         false,
		Strategy:        StrategyAuto,
		Model:           "claude-haiku-4-5",
		CLIBinary:       "",
		TemplatePath:    "",
		PermissionsPath: "permissions.yaml",
		LogPath:         "gatekeeper-decisions.log",
		Root:            "",
		Timeout:         30 * time.Second,
		MaxFileBytes:    64 * 1024,
		MaxContextBytes: 16 * 1024,
	}
}

// LoadConfig loads and returns the configuration from viper.
// It sets up environment variable bindings with the GATEKEEPER_ prefix.
// The caller is expected to have set up viper with BindPFlag() calls
// for command-line flags before calling this function.
func LoadConfig() *Config {
	cfg := Defaults()

	viper.SetEnvPrefix("GATEKEEPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if viper.IsSet("verbose") {
		cfg.Verbose = viper.GetBool("verbose")
	}
	if viper.IsSet("strategy") {
		cfg.Strategy = viper.GetString("strategy")
	}
	if viper.IsSet("model") {
		cfg.Model = viper.GetString("model")
	}
	if viper.IsSet("cliBinary") {
		cfg.CLIBinary = viper.GetString("cliBinary")
	}
	if viper.IsSet("template") {
		cfg.TemplatePath = viper.GetString("template")
	}
	if viper.IsSet("permissions") {
		cfg.PermissionsPath = viper.GetString("permissions")
	}
	if viper.IsSet("log") {
		cfg.LogPath = viper.GetString("log")
	}
	if viper.IsSet("root") {
		cfg.Root = viper.GetString("root")
	}
	if viper.IsSet("timeout") {
		cfg.Timeout = viper.GetDuration("timeout")
	}
	if viper.IsSet("maxFileBytes") {
		cfg.MaxFileBytes = viper.GetInt64("maxFileBytes")
	}
	if viper.IsSet("maxContextBytes") {
		cfg.MaxContextBytes = viper.GetInt("maxContextBytes")
	}
	if viper.IsSet("denyPatterns") {
		cfg.DenyPatternsJSON = viper.GetString("denyPatterns")
	}
	if viper.IsSet("safePatterns") {
		cfg.SafePatternsJSON = viper.GetString("safePatterns")
	}

	return cfg
}
