package telemetry

import "math"

// Collector accumulates path-module events within a tick window and
// produces a WindowStats when the window closes.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	objectsCreated   int
	objectsDestroyed int
	moveOrders       int
	collisions       int

	events []Event
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
// dt: seconds per tick, used for tick-to-time conversion.
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		windowStartTick:     0,
	}
}

// RecordObjectCreated records an ObjectCreated event.
func (c *Collector) RecordObjectCreated(tick int32, id uint64) {
	c.objectsCreated++
	c.events = append(c.events, Event{Type: EventObjectCreated, Tick: tick, AgentID: id})
}

// RecordObjectDestroyed records an ObjectDestroyed event.
func (c *Collector) RecordObjectDestroyed(tick int32, id uint64) {
	c.objectsDestroyed++
	c.events = append(c.events, Event{Type: EventObjectDestroyed, Tick: tick, AgentID: id})
}

// RecordMoveOrder records a MoveOrder event.
func (c *Collector) RecordMoveOrder(tick int32, gid uint32, goalX, goalZ float32) {
	c.moveOrders++
	c.events = append(c.events, Event{Type: EventMoveOrder, Tick: tick, GroupID: gid, GoalX: goalX, GoalZ: goalZ})
}

// RecordCollision records a Collision event.
func (c *Collector) RecordCollision(tick int32, a, b uint64) {
	c.collisions++
	c.events = append(c.events, Event{Type: EventCollision, Tick: tick, AgentID: a, OtherID: b})
}

// DrainEvents returns every event recorded since the last drain and clears
// the internal log.
func (c *Collector) DrainEvents() []Event {
	events := c.events
	c.events = nil
	return events
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the accumulated counters plus the
// caller-supplied snapshot of current population and density, then resets
// counters for the next window. densities is every touched cell's density
// at window end; overCap is normally Config.Density.RhoMax.
func (c *Collector) Flush(currentTick int32, agentCount, groupCount int, densities []float64, overCap float64) WindowStats {
	mean, p10, p50, p90, max, overFrac := ComputeDensityStats(densities, overCap)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		AgentCount: agentCount,
		GroupCount: groupCount,

		ObjectsCreated:   c.objectsCreated,
		ObjectsDestroyed: c.objectsDestroyed,
		MoveOrders:       c.moveOrders,
		Collisions:       c.collisions,

		DensityMean:          mean,
		DensityP10:           p10,
		DensityP50:           p50,
		DensityP90:           p90,
		DensityMax:           max,
		OverCapacityFraction: overFrac,
	}

	c.windowStartTick = currentTick
	c.objectsCreated = 0
	c.objectsDestroyed = 0
	c.moveOrders = 0
	c.collisions = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
