package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/orbitsim/internal/pathutil"
	"github.com/nvandessel/orbitsim/internal/ratelimit"
	"github.com/nvandessel/orbitsim/internal/scenario"
	"github.com/nvandessel/orbitsim/internal/simulation"
)

// BodiesResourceURI is the URI of the live body-state resource.
const BodiesResourceURI = "orbitsim://bodies"

// registerTools registers all orbitsim tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "orbitsim_step",
		Description: "Advance the simulation by a number of fixed time steps and return the resulting body states.",
	}, s.handleOrbitStep)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "orbitsim_bodies",
		Description: "Return the current state of every body: position, velocity, mass and distance to the nearest reference body.",
	}, s.handleOrbitBodies)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "orbitsim_trail",
		Description: "Return the recorded trail of positions for one body.",
	}, s.handleOrbitTrail)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "orbitsim_reset",
		Description: "Discard the running simulation and reload it from initial conditions: the current scenario, a built-in one, or a scenario file from an allowed directory.",
	}, s.handleOrbitReset)
}

// registerResources registers MCP resources.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         BodiesResourceURI,
		Name:        "orbitsim-bodies",
		Description: "Current body states of the running simulation as JSON.",
		MIMEType:    "application/json",
	}, s.handleBodiesResource)
}

// handleBodiesResource returns the current snapshot without trails.
func (s *Server) handleBodiesResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	out := s.bodies(-1)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode bodies: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      BodiesResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

// snapshotTail maps a tool's trail argument onto Snapshot's tail argument.
func snapshotTail(trail int) int {
	if trail <= 0 {
		return -1
	}
	return trail
}

func (s *Server) bodies(tail int) OrbitBodiesOutput {
	s.mu.Lock()
	defer s.mu.Unlock()

	return OrbitBodiesOutput{
		Scenario: s.scenario.Name,
		Step:     s.sim.Steps(),
		Elapsed:  s.sim.Elapsed(),
		Energy:   finiteEnergy(s.sim.TotalEnergy()),
		Bodies:   s.sim.Snapshot(tail),
	}
}

// finiteEnergy returns nil for the infinite energy of coincident bodies,
// which JSON cannot encode.
func finiteEnergy(e float64) *float64 {
	if math.IsInf(e, 0) || math.IsNaN(e) {
		return nil
	}
	return &e
}

// handleOrbitStep implements the orbitsim_step tool.
func (s *Server) handleOrbitStep(ctx context.Context, req *sdk.CallToolRequest, args OrbitStepInput) (_ *sdk.CallToolResult, _ OrbitStepOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("orbitsim_step", start, retErr, toolParams(map[string]any{
			"steps": args.Steps, "trail": args.Trail,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "orbitsim_step"); err != nil {
		return nil, OrbitStepOutput{}, err
	}

	steps := args.Steps
	if steps == 0 {
		steps = 1
	}
	if steps < 0 || steps > MaxStepsPerCall {
		return nil, OrbitStepOutput{}, fmt.Errorf("steps must be between 1 and %d, got %d", MaxStepsPerCall, args.Steps)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sim.Run(ctx, steps, nil); err != nil {
		return nil, OrbitStepOutput{}, fmt.Errorf("simulation stopped: %w", err)
	}
	s.logger.Debug("mcp step", "steps", steps, "step", s.sim.Steps())

	return nil, OrbitStepOutput{
		Step:    s.sim.Steps(),
		Elapsed: s.sim.Elapsed(),
		Bodies:  s.sim.Snapshot(snapshotTail(args.Trail)),
	}, nil
}

// handleOrbitBodies implements the orbitsim_bodies tool.
func (s *Server) handleOrbitBodies(ctx context.Context, req *sdk.CallToolRequest, args OrbitBodiesInput) (_ *sdk.CallToolResult, _ OrbitBodiesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("orbitsim_bodies", start, retErr, toolParams(map[string]any{
			"trail": args.Trail,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "orbitsim_bodies"); err != nil {
		return nil, OrbitBodiesOutput{}, err
	}

	return nil, s.bodies(snapshotTail(args.Trail)), nil
}

// handleOrbitTrail implements the orbitsim_trail tool.
func (s *Server) handleOrbitTrail(ctx context.Context, req *sdk.CallToolRequest, args OrbitTrailInput) (_ *sdk.CallToolResult, _ OrbitTrailOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("orbitsim_trail", start, retErr, toolParams(map[string]any{
			"name": args.Name, "last": args.Last,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "orbitsim_trail"); err != nil {
		return nil, OrbitTrailOutput{}, err
	}

	if args.Name == "" {
		return nil, OrbitTrailOutput{}, fmt.Errorf("'name' parameter is required")
	}
	if args.Last < 0 {
		return nil, OrbitTrailOutput{}, fmt.Errorf("'last' must not be negative, got %d", args.Last)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.sim.Body(args.Name)
	if !ok {
		return nil, OrbitTrailOutput{}, fmt.Errorf("no body named %q", args.Name)
	}

	trail := b.Trail()
	if args.Last > 0 {
		trail = b.TrailTail(args.Last)
	}

	points := make([]TrailPoint, len(trail))
	for i, p := range trail {
		points[i] = TrailPoint{X: p.X, Y: p.Y}
	}

	return nil, OrbitTrailOutput{
		Name:   b.Name(),
		Total:  b.TrailLen(),
		Points: points,
	}, nil
}

// handleOrbitReset implements the orbitsim_reset tool.
func (s *Server) handleOrbitReset(ctx context.Context, req *sdk.CallToolRequest, args OrbitResetInput) (_ *sdk.CallToolResult, _ OrbitResetOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("orbitsim_reset", start, retErr, toolParams(map[string]any{
			"scenario": args.Scenario, "file": args.File,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "orbitsim_reset"); err != nil {
		return nil, OrbitResetOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.scenario
	switch {
	case args.File != "":
		if len(s.scenarioDirs) == 0 {
			return nil, OrbitResetOutput{}, fmt.Errorf("loading scenario files is disabled")
		}
		path, err := pathutil.Resolve(args.File, s.scenarioDirs)
		if err != nil {
			return nil, OrbitResetOutput{}, fmt.Errorf("invalid scenario file: %w", err)
		}
		sc, err = scenario.LoadFile(path)
		if err != nil {
			return nil, OrbitResetOutput{}, fmt.Errorf("failed to load scenario file %s: %w", pathutil.RedactPath(path), err)
		}
	case args.Scenario != "":
		var err error
		sc, err = scenario.Builtin(args.Scenario)
		if err != nil {
			return nil, OrbitResetOutput{}, err
		}
	}

	sim, err := sc.Build(s.simCfg, s.simOpts...)
	if err != nil {
		return nil, OrbitResetOutput{}, fmt.Errorf("failed to build scenario %q: %w", sc.Name, err)
	}
	s.sim = sim
	s.scenario = sc
	s.logger.Info("mcp reset", "scenario", sc.Name, "bodies", sim.Len())

	return nil, OrbitResetOutput{
		Scenario: sc.Name,
		Bodies:   bodyNames(sim),
	}, nil
}

func bodyNames(sim *simulation.Simulation) []string {
	names := make([]string, sim.Len())
	for i := range names {
		names[i] = sim.At(i).Name()
	}
	return names
}
