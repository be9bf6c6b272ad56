package ecsagent

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/error323/continuumcrowds/simagent"
)

func TestSpawnAndReadBack(t *testing.T) {
	world := ecs.NewWorld()
	a := NewAdapter(&world)

	def := simagent.Def{MaxForwardSpeed: 4, MaxAccRate: 1, MaxDecRate: 2, MaxTurnRate: 3}
	id := a.Spawn(10, 20, 1, 0, 1.5, def)

	x, z := a.Position(id)
	if x != 10 || z != 20 {
		t.Fatalf("Position = (%v,%v), want (10,20)", x, z)
	}
	dx, dz := a.Direction(id)
	if dx != 1 || dz != 0 {
		t.Fatalf("Direction = (%v,%v), want (1,0)", dx, dz)
	}
	if a.Radius(id) != 1.5 {
		t.Fatalf("Radius = %v, want 1.5", a.Radius(id))
	}
	if a.Def(id) != def {
		t.Fatalf("Def = %+v, want %+v", a.Def(id), def)
	}
	if a.CurrentForwardSpeed(id) != 0 {
		t.Fatalf("CurrentForwardSpeed = %v, want 0", a.CurrentForwardSpeed(id))
	}
}

func TestSetRawPhysicalStateUpdatesAllFields(t *testing.T) {
	world := ecs.NewWorld()
	a := NewAdapter(&world)
	id := a.Spawn(0, 0, 1, 0, 1, simagent.Def{})

	a.SetRawPhysicalState(id, 5, 6, 0, 1, 3)

	x, z := a.Position(id)
	if x != 5 || z != 6 {
		t.Fatalf("Position = (%v,%v), want (5,6)", x, z)
	}
	dx, dz := a.Direction(id)
	if dx != 0 || dz != 1 {
		t.Fatalf("Direction = (%v,%v), want (0,1)", dx, dz)
	}
	if a.CurrentForwardSpeed(id) != 3 {
		t.Fatalf("CurrentForwardSpeed = %v, want 3", a.CurrentForwardSpeed(id))
	}
}

func TestGroupAssignmentRoundTrip(t *testing.T) {
	world := ecs.NewWorld()
	a := NewAdapter(&world)
	id := a.Spawn(0, 0, 1, 0, 1, simagent.Def{})

	if _, ok := a.Group(id); ok {
		t.Fatalf("freshly spawned agent already has a group")
	}

	a.SetGroup(id, 7)
	gid, ok := a.Group(id)
	if !ok || gid != 7 {
		t.Fatalf("Group = (%v,%v), want (7,true)", gid, ok)
	}

	a.SetGroup(id, 9)
	gid, ok = a.Group(id)
	if !ok || gid != 9 {
		t.Fatalf("Group after reassignment = (%v,%v), want (9,true)", gid, ok)
	}

	a.ClearGroup(id)
	if _, ok := a.Group(id); ok {
		t.Fatalf("group still present after ClearGroup")
	}
}

func TestDespawnRemovesAgent(t *testing.T) {
	world := ecs.NewWorld()
	a := NewAdapter(&world)
	id := a.Spawn(0, 0, 1, 0, 1, simagent.Def{})

	a.Despawn(id)

	if _, ok := a.entities[id]; ok {
		t.Fatalf("entity still tracked after Despawn")
	}
	// Despawning twice, or an unknown id, must not panic.
	a.Despawn(id)
	a.Despawn(simagent.AgentID(999))
}
