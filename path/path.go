// Package path tracks agent/group membership and goal sets and drives one
// tick of the continuum-crowds grid: reset, splat, average, per-group solve,
// advect, in that order.
package path

import (
	"fmt"
	"math"
	"sort"

	"github.com/error323/continuumcrowds/config"
	"github.com/error323/continuumcrowds/grid/cc"
	"github.com/error323/continuumcrowds/simagent"
	"github.com/error323/continuumcrowds/telemetry"
)

// GroupID identifies a set of agents sharing a goal set and a potential
// field. Alias of simagent.GroupID so callers never need to convert.
type GroupID = simagent.GroupID

// Kind tags an Event's variant.
type Kind int

const (
	ObjectCreated Kind = iota
	ObjectDestroyed
	MoveOrder
	Collision
)

// Event is a tagged variant over the four event kinds the module consumes.
// Only the fields relevant to Kind are read.
type Event struct {
	Kind Kind

	ID simagent.AgentID // ObjectCreated, ObjectDestroyed

	IDs          []simagent.AgentID // MoveOrder
	GoalX, GoalZ float32            // MoveOrder
	Queued       bool               // MoveOrder

	A, B simagent.AgentID // Collision
}

type group struct {
	members map[simagent.AgentID]struct{}
}

func newGroup() *group { return &group{members: make(map[simagent.AgentID]struct{})} }

// Module is the event sink and per-tick driver. It owns no agent state of
// its own beyond group membership; positions, velocities, and defs are
// always read live through simagent.AgentSource.
type Module struct {
	grid *cc.Grid
	cfg  *config.Config

	agents     map[simagent.AgentID]struct{}
	agentGroup map[simagent.AgentID]GroupID
	groups     map[GroupID]*group

	nextGroupID GroupID
	tick        uint64

	perf *telemetry.PerfCollector
}

// New creates a path module driving the given grid.
func New(grid *cc.Grid, cfg *config.Config) *Module {
	return &Module{
		grid:       grid,
		cfg:        cfg,
		agents:     make(map[simagent.AgentID]struct{}),
		agentGroup: make(map[simagent.AgentID]GroupID),
		groups:     make(map[GroupID]*group),
	}
}

// SetPerfCollector attaches a perf collector that Tick will time phases
// into. Passing nil detaches it; a nil collector is the default and Tick
// is timing-free in that case.
func (m *Module) SetPerfCollector(p *telemetry.PerfCollector) {
	m.perf = p
}

func (m *Module) invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("path: invariant violation: "+format, args...))
	}
}

// HandleEvent dispatches one event. src/sink are only read for Collision;
// pass nil for the other three kinds.
func (m *Module) HandleEvent(e Event, src simagent.AgentSource, sink simagent.AgentSink) {
	switch e.Kind {
	case ObjectCreated:
		m.agents[e.ID] = struct{}{}

	case ObjectDestroyed:
		delete(m.agents, e.ID)
		m.delObjectFromGroup(e.ID)

		if len(m.agents) == 0 {
			m.invariant(len(m.agentGroup) == 0, "agentGroup non-empty with no live agents")
			m.invariant(len(m.groups) == 0, "groups non-empty with no live agents")
			m.nextGroupID = 0
		}

	case MoveOrder:
		m.handleMoveOrder(e)

	case Collision:
		m.handleCollision(e, src, sink)
	}
}

// handleMoveOrder implements §4.6's MoveOrder contract. When queued is true
// and every listed agent already belongs to the same existing group, the
// goal is appended to that group instead of allocating a new one — this is
// the waypoint-queueing case. Otherwise each listed agent is pulled out of
// whatever group it is in (dissolving that group if it empties) and placed
// into a freshly allocated group with exactly the one goal.
func (m *Module) handleMoveOrder(e Event) {
	if e.Queued {
		if gid, ok := m.commonGroup(e.IDs); ok {
			m.grid.AddGoal(gid, e.GoalX, e.GoalZ)
			return
		}
	}

	gid := m.nextGroupID
	m.nextGroupID++
	m.groups[gid] = newGroup()
	m.grid.AddGroup(gid)

	for _, id := range e.IDs {
		m.delObjectFromGroup(id)
		m.addObjectToGroup(id, gid)
	}

	m.grid.AddGoal(gid, e.GoalX, e.GoalZ)
}

// commonGroup reports the group every id in ids already belongs to, if
// there is exactly one such group and ids is non-empty.
func (m *Module) commonGroup(ids []simagent.AgentID) (GroupID, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	gid, ok := m.agentGroup[ids[0]]
	if !ok {
		return 0, false
	}
	for _, id := range ids[1:] {
		g, ok := m.agentGroup[id]
		if !ok || g != gid {
			return 0, false
		}
	}
	return gid, true
}

func (m *Module) addObjectToGroup(id simagent.AgentID, gid GroupID) {
	g, ok := m.groups[gid]
	if !ok {
		g = newGroup()
		m.groups[gid] = g
		m.grid.AddGroup(gid)
	}
	g.members[id] = struct{}{}
	m.agentGroup[id] = gid
}

// delObjectFromGroup removes id from its current group, if any, dissolving
// the group when it becomes empty. Reports whether id was in a group.
func (m *Module) delObjectFromGroup(id simagent.AgentID) bool {
	gid, ok := m.agentGroup[id]
	if !ok {
		return false
	}
	delete(m.agentGroup, id)

	g := m.groups[gid]
	delete(g.members, id)
	if len(g.members) == 0 {
		delete(m.groups, gid)
		m.grid.DelGroup(gid)
	}
	return true
}

// handleCollision enforces minimum separation between two overlapping
// agents by displacing each by half the overlap along the axis between
// them (§4.6). A degenerate (coincident) pair is separated along x.
func (m *Module) handleCollision(e Event, src simagent.AgentSource, sink simagent.AgentSink) {
	if _, ok := m.agents[e.A]; !ok {
		return
	}
	if _, ok := m.agents[e.B]; !ok {
		return
	}

	ax, az := src.Position(e.A)
	bx, bz := src.Position(e.B)
	ra, rb := src.Radius(e.A), src.Radius(e.B)

	dx, dz := bx-ax, bz-az
	distSq := dx*dx + dz*dz
	minDist := ra + rb

	if distSq >= minDist*minDist {
		return
	}

	dist := float32(math.Sqrt(float64(distSq)))
	var nx, nz float32
	if dist > 1e-5 {
		nx, nz = dx/dist, dz/dist
	} else {
		nx, nz = 1, 0
	}

	overlap := minDist - dist
	half := overlap * 0.5

	adx, adz := src.Direction(e.A)
	aspeed := src.CurrentForwardSpeed(e.A)
	bdx, bdz := src.Direction(e.B)
	bspeed := src.CurrentForwardSpeed(e.B)

	sink.SetRawPhysicalState(e.A, ax-nx*half, az-nz*half, adx, adz, aspeed)
	sink.SetRawPhysicalState(e.B, bx+nx*half, bz+nz*half, bdx, bdz, bspeed)
}

// Tick runs one full cycle: reset, splat every live agent's density (and,
// for moving agents, its predictive discomfort trail), average, then for
// each group in ascending id order solve (every UpdateInterval ticks) and
// advect its members in ascending id order (§4.6, §5).
func (m *Module) Tick(src simagent.AgentSource, sink simagent.AgentSink, dt float32) {
	if m.perf != nil {
		m.perf.StartTick()
		m.perf.StartPhase(telemetry.PhaseReset)
	}
	m.grid.Reset()

	if m.perf != nil {
		m.perf.StartPhase(telemetry.PhaseSplat)
	}
	for id := range m.agents {
		x, z := src.Position(id)
		dirX, dirZ := src.Direction(id)
		speed := src.CurrentForwardSpeed(id)
		radius := src.Radius(id)

		velX, velZ := dirX*speed, dirZ*speed
		m.grid.AddDensityAndVelocity(x, z, velX, velZ, radius)
		m.grid.AddDiscomfort(x, z, velX, velZ, radius, m.cfg.Discomfort.NumFrames, float32(m.cfg.Discomfort.StepSize))
	}

	if m.perf != nil {
		m.perf.StartPhase(telemetry.PhaseAverage)
	}
	m.grid.ComputeAvgVelocity()

	interval := m.grid.UpdateInterval()
	if interval < 1 {
		interval = 1
	}
	solve := m.tick%uint64(interval) == 0

	if m.perf != nil {
		m.perf.StartPhase(telemetry.PhaseSolve)
	}
	for _, gid := range m.sortedGroupIDs() {
		g := m.groups[gid]

		if solve {
			members := make([]cc.MemberSample, 0, len(g.members))
			for id := range g.members {
				members = append(members, cc.MemberSample{Def: src.Def(id), Radius: src.Radius(id)})
			}
			m.grid.UpdateGroupPotentialField(gid, members)
		}
	}

	if m.perf != nil {
		m.perf.StartPhase(telemetry.PhaseAdvect)
	}
	for _, gid := range m.sortedGroupIDs() {
		g := m.groups[gid]
		for _, id := range m.sortedMembers(g) {
			m.grid.UpdateSimObjectLocation(gid, id, src, sink, dt)
		}
	}

	if m.perf != nil {
		m.perf.EndTick()
	}

	m.tick++
}

func (m *Module) sortedGroupIDs() []GroupID {
	ids := make([]GroupID, 0, len(m.groups))
	for gid := range m.groups {
		ids = append(ids, gid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Module) sortedMembers(g *group) []simagent.AgentID {
	ids := make([]simagent.AgentID, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GroupSize returns the current member count of gid, or 0 if it does not
// exist. Exposed for tests and telemetry.
func (m *Module) GroupSize(gid GroupID) int {
	g, ok := m.groups[gid]
	if !ok {
		return 0
	}
	return len(g.members)
}

// HasGroup reports whether gid currently exists.
func (m *Module) HasGroup(gid GroupID) bool {
	_, ok := m.groups[gid]
	return ok
}

// GroupOf returns the group id currently holding id, if any.
func (m *Module) GroupOf(id simagent.AgentID) (GroupID, bool) {
	gid, ok := m.agentGroup[id]
	return gid, ok
}
