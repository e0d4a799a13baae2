package mcp

import "github.com/nvandessel/orbitsim/internal/simulation"

// OrbitStepInput defines the input for the orbitsim_step tool.
type OrbitStepInput struct {
	Steps int `json:"steps,omitempty" jsonschema:"Number of steps to advance (default 1)"`
	Trail int `json:"trail,omitempty" jsonschema:"Trail points to include per body (0 for none)"`
}

// OrbitStepOutput defines the output for the orbitsim_step tool.
type OrbitStepOutput struct {
	Step    int                    `json:"step" jsonschema:"Steps completed since the scenario was loaded"`
	Elapsed float64                `json:"elapsed" jsonschema:"Simulated seconds since the scenario was loaded"`
	Bodies  []simulation.BodyState `json:"bodies" jsonschema:"Body states after the last step"`
}

// OrbitBodiesInput defines the input for the orbitsim_bodies tool.
type OrbitBodiesInput struct {
	Trail int `json:"trail,omitempty" jsonschema:"Trail points to include per body (0 for none)"`
}

// OrbitBodiesOutput defines the output for the orbitsim_bodies tool.
type OrbitBodiesOutput struct {
	Scenario string                 `json:"scenario" jsonschema:"Name of the loaded scenario"`
	Step     int                    `json:"step" jsonschema:"Steps completed since the scenario was loaded"`
	Elapsed  float64                `json:"elapsed" jsonschema:"Simulated seconds since the scenario was loaded"`
	Energy   *float64               `json:"energy,omitempty" jsonschema:"Total mechanical energy in joules; absent when bodies coincide"`
	Bodies   []simulation.BodyState `json:"bodies" jsonschema:"Current body states"`
}

// OrbitTrailInput defines the input for the orbitsim_trail tool.
type OrbitTrailInput struct {
	Name string `json:"name" jsonschema:"Body name"`
	Last int    `json:"last,omitempty" jsonschema:"Return only the newest N points (0 for the whole trail)"`
}

// TrailPoint is one recorded position.
type TrailPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OrbitTrailOutput defines the output for the orbitsim_trail tool.
type OrbitTrailOutput struct {
	Name   string       `json:"name" jsonschema:"Body name"`
	Total  int          `json:"total" jsonschema:"Points currently held in the trail"`
	Points []TrailPoint `json:"points" jsonschema:"Trail positions, oldest first"`
}

// OrbitResetInput defines the input for the orbitsim_reset tool.
type OrbitResetInput struct {
	Scenario string `json:"scenario,omitempty" jsonschema:"Built-in scenario to load (default: reload the current one)"`
	File     string `json:"file,omitempty" jsonschema:"Scenario YAML file inside an allowed scenario directory (overrides scenario)"`
}

// OrbitResetOutput defines the output for the orbitsim_reset tool.
type OrbitResetOutput struct {
	Scenario string   `json:"scenario" jsonschema:"Name of the loaded scenario"`
	Bodies   []string `json:"bodies" jsonschema:"Body names in construction order"`
}
