package telemetry

import "testing"

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1) // 10 ticks per window

	if c.ShouldFlush(5) {
		t.Fatal("should not flush before window elapses")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("should flush once window elapses")
	}
}

func TestCollectorFlushResetsCounters(t *testing.T) {
	c := NewCollector(1.0, 0.1)

	c.RecordObjectCreated(1, 1)
	c.RecordObjectCreated(1, 2)
	c.RecordMoveOrder(2, 0, 10, 10)
	c.RecordCollision(3, 1, 2)

	stats := c.Flush(10, 2, 1, []float64{0.1, 0.2, 0.9}, 0.8)

	if stats.ObjectsCreated != 2 {
		t.Errorf("ObjectsCreated = %d, want 2", stats.ObjectsCreated)
	}
	if stats.MoveOrders != 1 {
		t.Errorf("MoveOrders = %d, want 1", stats.MoveOrders)
	}
	if stats.Collisions != 1 {
		t.Errorf("Collisions = %d, want 1", stats.Collisions)
	}
	if stats.AgentCount != 2 || stats.GroupCount != 1 {
		t.Errorf("AgentCount/GroupCount = %d/%d, want 2/1", stats.AgentCount, stats.GroupCount)
	}
	if stats.OverCapacityFraction <= 0 {
		t.Errorf("OverCapacityFraction = %v, want > 0 (one sample over 0.8)", stats.OverCapacityFraction)
	}

	// A second flush with nothing recorded should report zero counters.
	second := c.Flush(20, 2, 1, nil, 0.8)
	if second.ObjectsCreated != 0 || second.MoveOrders != 0 || second.Collisions != 0 {
		t.Errorf("counters not reset after flush: %+v", second)
	}
}

func TestCollectorDrainEvents(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	c.RecordObjectCreated(1, 42)
	c.RecordCollision(2, 42, 7)

	events := c.DrainEvents()
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Type != EventObjectCreated || events[0].AgentID != 42 {
		t.Errorf("events[0] = %+v, want ObjectCreated for agent 42", events[0])
	}
	if events[1].Type != EventCollision || events[1].AgentID != 42 || events[1].OtherID != 7 {
		t.Errorf("events[1] = %+v, want Collision(42,7)", events[1])
	}

	if drained := c.DrainEvents(); len(drained) != 0 {
		t.Errorf("second drain should be empty, got %d", len(drained))
	}
}
