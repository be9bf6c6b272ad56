// Package ecsagent stores agents as entities in an ark ECS world and
// adapts that world to the simagent.AgentSource/AgentSink boundary the
// grid and path packages consume.
package ecsagent

import (
	"github.com/error323/continuumcrowds/path"
	"github.com/error323/continuumcrowds/simagent"
)

// Position is an agent's world-space xz coordinate.
type Position struct {
	X, Z float32
}

// Facing is an agent's current unit heading on xz.
type Facing struct {
	X, Z float32
}

// Kinematics holds an agent's current speed plus the physical limits the
// grid's advection step clamps against. Def rarely changes after spawn.
type Kinematics struct {
	Speed  float32
	Radius float32
	Def    simagent.Def
}

// GroupMember is present only on entities currently assigned to a group;
// absent on freshly spawned, ungrouped agents.
type GroupMember struct {
	Group path.GroupID
}
