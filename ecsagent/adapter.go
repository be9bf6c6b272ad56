package ecsagent

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/error323/continuumcrowds/path"
	"github.com/error323/continuumcrowds/simagent"
)

// Adapter owns an ark ECS world of agent entities and implements
// simagent.AgentSource/AgentSink over it. simagent.AgentID is an
// adapter-assigned handle, stable across the entity's lifetime; the
// underlying ecs.Entity is never exposed past this package.
type Adapter struct {
	world *ecs.World

	mapper    *ecs.Map3[Position, Facing, Kinematics]
	posMap    *ecs.Map1[Position]
	facingMap *ecs.Map1[Facing]
	kinMap    *ecs.Map1[Kinematics]
	groupMap  *ecs.Map1[GroupMember]

	entities map[simagent.AgentID]ecs.Entity
	nextID   simagent.AgentID
}

// NewAdapter wires component maps onto world. world may already host other
// component types; ecsagent only ever touches the four it declares.
func NewAdapter(world *ecs.World) *Adapter {
	return &Adapter{
		world:     world,
		mapper:    ecs.NewMap3[Position, Facing, Kinematics](world),
		posMap:    ecs.NewMap1[Position](world),
		facingMap: ecs.NewMap1[Facing](world),
		kinMap:    ecs.NewMap1[Kinematics](world),
		groupMap:  ecs.NewMap1[GroupMember](world),
		entities:  make(map[simagent.AgentID]ecs.Entity),
		nextID:    1,
	}
}

// Spawn creates a new agent entity and returns its id.
func (a *Adapter) Spawn(x, z, dirX, dirZ, radius float32, def simagent.Def) simagent.AgentID {
	pos := Position{X: x, Z: z}
	facing := Facing{X: dirX, Z: dirZ}
	kin := Kinematics{Speed: 0, Radius: radius, Def: def}

	e := a.mapper.NewEntity(&pos, &facing, &kin)

	id := a.nextID
	a.nextID++
	a.entities[id] = e
	return id
}

// Despawn removes an agent entity. No-op if id is unknown.
func (a *Adapter) Despawn(id simagent.AgentID) {
	e, ok := a.entities[id]
	if !ok {
		return
	}
	delete(a.entities, id)
	a.world.RemoveEntity(e)
}

// SetGroup attaches or updates the GroupMember component on id.
func (a *Adapter) SetGroup(id simagent.AgentID, gid path.GroupID) {
	e, ok := a.entities[id]
	if !ok {
		return
	}
	if a.groupMap.Has(e) {
		a.groupMap.Get(e).Group = gid
		return
	}
	a.groupMap.Add(e, &GroupMember{Group: gid})
}

// ClearGroup removes the GroupMember component from id, if present.
func (a *Adapter) ClearGroup(id simagent.AgentID) {
	e, ok := a.entities[id]
	if !ok {
		return
	}
	if a.groupMap.Has(e) {
		a.groupMap.Remove(e)
	}
}

// Group reports the group an agent currently belongs to, if any.
func (a *Adapter) Group(id simagent.AgentID) (path.GroupID, bool) {
	e, ok := a.entities[id]
	if !ok || !a.groupMap.Has(e) {
		return 0, false
	}
	return a.groupMap.Get(e).Group, true
}

// Position implements simagent.AgentSource.
func (a *Adapter) Position(id simagent.AgentID) (x, z float32) {
	p := a.posMap.Get(a.entities[id])
	return p.X, p.Z
}

// Direction implements simagent.AgentSource.
func (a *Adapter) Direction(id simagent.AgentID) (x, z float32) {
	f := a.facingMap.Get(a.entities[id])
	return f.X, f.Z
}

// CurrentForwardSpeed implements simagent.AgentSource.
func (a *Adapter) CurrentForwardSpeed(id simagent.AgentID) float32 {
	return a.kinMap.Get(a.entities[id]).Speed
}

// Radius implements simagent.AgentSource.
func (a *Adapter) Radius(id simagent.AgentID) float32 {
	return a.kinMap.Get(a.entities[id]).Radius
}

// Def implements simagent.AgentSource.
func (a *Adapter) Def(id simagent.AgentID) simagent.Def {
	return a.kinMap.Get(a.entities[id]).Def
}

// SetRawPhysicalState implements simagent.AgentSink.
func (a *Adapter) SetRawPhysicalState(id simagent.AgentID, x, z, dirX, dirZ, speed float32) {
	e, ok := a.entities[id]
	if !ok {
		return
	}
	p := a.posMap.Get(e)
	p.X, p.Z = x, z

	f := a.facingMap.Get(e)
	f.X, f.Z = dirX, dirZ

	a.kinMap.Get(e).Speed = speed
}

var _ simagent.AgentSource = (*Adapter)(nil)
var _ simagent.AgentSink = (*Adapter)(nil)
