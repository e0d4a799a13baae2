// Package mcp provides an MCP (Model Context Protocol) server for orbitsim.
// It exposes a live simulation to MCP clients as tools and a resource.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/orbitsim/internal/ratelimit"
	"github.com/nvandessel/orbitsim/internal/scenario"
	"github.com/nvandessel/orbitsim/internal/simulation"
)

// MaxStepsPerCall caps how many steps a single orbitsim_step call may run.
const MaxStepsPerCall = 100000

// Server wraps the MCP SDK server and owns one simulation.
type Server struct {
	server *sdk.Server

	mu       sync.Mutex
	sim      *simulation.Simulation
	scenario *scenario.Scenario
	simCfg   simulation.Config
	simOpts  []simulation.Option

	scenarioDirs []string

	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name       string             // Server name (e.g., "orbitsim")
	Version    string             // Server version
	Scenario   *scenario.Scenario // Initial scenario
	Simulation simulation.Config
	AuditDir   string // Directory for audit.jsonl; empty disables auditing

	// ScenarioDirs lists where orbitsim_reset may load scenario files from.
	// Empty disables loading files.
	ScenarioDirs []string

	Logger  *slog.Logger
	Options []simulation.Option
}

// NewServer creates a new MCP server with orbitsim tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Scenario == nil {
		return nil, errors.New("scenario is required")
	}

	sim, err := cfg.Scenario.Build(cfg.Simulation, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("failed to build scenario %q: %w", cfg.Scenario.Name, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		sim:          sim,
		scenario:     cfg.Scenario,
		simCfg:       cfg.Simulation,
		simOpts:      cfg.Options,
		scenarioDirs: cfg.ScenarioDirs,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server starting", "scenario", s.scenario.Name)
	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.Close()

	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
