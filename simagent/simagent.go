// Package simagent defines the narrow boundary the grid and path packages
// use to talk to whatever owns terrain and agents. Nothing in this package
// depends on ecsagent, raylib, or any other concrete implementation.
package simagent

// AgentID identifies a mobile entity across the event sink and the
// agent adapter. Callers are free to back it with an ECS entity, a slice
// index, or anything else stable for the lifetime of the agent.
type AgentID uint64

// Def holds the kinematic limits of an agent, sampled once per group
// potential-field solve to derive per-group speed extrema.
type Def struct {
	MinSlope        float32 // minimum terrain slope the agent treats as flat
	MaxSlope        float32 // slope beyond which topological speed bottoms out
	MaxForwardSpeed float32
	MaxAccRate      float32
	MaxDecRate      float32
	MaxTurnRate     float32 // radians/sec
}

// Terrain is the read-only heightmap view the grid initializes from.
type Terrain interface {
	GridSize() (nx, nz int)
	SquareSize() float32
	MinHeight() float32
	MaxHeight() float32
	// CenterHeight returns the height at cell (x, z) in terrain-grid space
	// (i.e. before any grid downscale is applied).
	CenterHeight(x, z int) float32
}

// AgentSource is the read side of the agent adapter: everything the grid
// needs to splat an agent and everything the path module needs to advect
// one.
type AgentSource interface {
	Position(id AgentID) (x, z float32)
	Direction(id AgentID) (x, z float32)
	CurrentForwardSpeed(id AgentID) float32
	Radius(id AgentID) float32
	Def(id AgentID) Def
}

// AgentSink is the write side: the core never mutates an agent directly,
// it only ever calls back through this interface.
type AgentSink interface {
	SetRawPhysicalState(id AgentID, x, z, dirX, dirZ, speed float32)
}

// GroupID identifies a set of agents that share a goal set and therefore
// a potential field.
type GroupID uint32
