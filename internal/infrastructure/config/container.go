package config

import (
	"errors"
	"fmt"
	"os"

	"command-gatekeeper/internal/application/service"
	"command-gatekeeper/internal/domain/permission"
	"command-gatekeeper/internal/domain/port"
	"command-gatekeeper/internal/domain/prompt"
	"command-gatekeeper/internal/domain/safety"
	"command-gatekeeper/internal/infrastructure/adapter/ai"
	"command-gatekeeper/internal/infrastructure/adapter/audit"
	"command-gatekeeper/internal/infrastructure/adapter/filecontext"
)

// Container holds all application dependencies wired together.
// It provides a single point of access to the evaluation pipeline and
// the audit scanner, following the dependency injection pattern.
//
// The wiring order is:
// 1. Compile the pattern tables and load external rule files
// 2. Create infrastructure adapters (judge, logger, context loader)
// 3. Create the application services (pipeline, scanner)
type Container struct {
	config *Config

	tables   *safety.Tables
	rules    permission.Rules
	template prompt.Template
	judge    port.Judge
	logger   *audit.FileLogger

	pipeline *service.Pipeline
	scanner  *service.AuditScanner
}

// NewContainer wires all dependencies from the given configuration.
// Pattern or rule compilation failures are returned as errors so the
// process refuses to serve with a broken table rather than silently
// evaluating against a partial one.
func NewContainer(cfg *Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	extraDeny, err := safety.ParseDenyPatternsJSON(cfg.DenyPatternsJSON)
	if err != nil {
		return nil, fmt.Errorf("custom deny patterns: %w", err)
	}
	extraSafe, err := safety.ParseSafeRulesJSON(cfg.SafePatternsJSON)
	if err != nil {
		return nil, fmt.Errorf("custom safe patterns: %w", err)
	}
	tables := safety.NewTables(extraDeny, extraSafe)

	rules, err := permission.Load(cfg.PermissionsPath)
	if err != nil {
		return nil, fmt.Errorf("permission rules %s: %w", cfg.PermissionsPath, err)
	}

	template, note := prompt.LoadFile(cfg.TemplatePath)
	if note != "" && cfg.Verbose {
		fmt.Fprintf(os.Stderr, "[gatekeeper] %s\n", note)
	}

	logger, err := audit.NewFileLogger(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("decision log %s: %w", cfg.LogPath, err)
	}

	judge := selectJudge(cfg)
	loader := filecontext.NewLoader(cfg.Root, cfg.MaxFileBytes)

	var trace func(format string, args ...any)
	if cfg.Verbose {
		trace = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "[gatekeeper] "+format+"\n", args...)
		}
	}

	pipeline, err := service.NewPipeline(service.PipelineParams{
		Tables:          tables,
		Permissions:     rules,
		Template:        template,
		Loader:          loader,
		Judge:           judge,
		Logger:          logger,
		MaxContextBytes: cfg.MaxContextBytes,
		Trace:           trace,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		config:   cfg,
		tables:   tables,
		rules:    rules,
		template: template,
		judge:    judge,
		logger:   logger,
		pipeline: pipeline,
		scanner:  service.NewAuditScanner(rules, logger, judge, template),
	}, nil
}

// selectJudge picks the LLM adapter for tier 3. Auto prefers the API
// when a key is present and falls back to the local CLI binary.
func selectJudge(cfg *Config) port.Judge {
	switch cfg.Strategy {
	case StrategyAPI:
		return ai.NewAnthropicJudge(cfg.Model)
	case StrategyCLI:
		return ai.NewCLIJudge(cfg.CLIBinary)
	default:
		if os.Getenv("ANTHROPIC_API_KEY") != "" {
			return ai.NewAnthropicJudge(cfg.Model)
		}
		return ai.NewCLIJudge(cfg.CLIBinary)
	}
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *Config { return c.config }

// Pipeline returns the wired evaluation pipeline.
func (c *Container) Pipeline() *service.Pipeline { return c.pipeline }

// Scanner returns the wired permission audit scanner.
func (c *Container) Scanner() *service.AuditScanner { return c.scanner }

// Tables returns the compiled pattern tables.
func (c *Container) Tables() *safety.Tables { return c.tables }

// Rules returns the loaded permission rules.
func (c *Container) Rules() permission.Rules { return c.rules }

// Logger returns the decision logger, which also reads the log back.
func (c *Container) Logger() *audit.FileLogger { return c.logger }
