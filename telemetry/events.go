// Package telemetry samples per-tick phase timings and windowed crowd
// statistics, and exports both to CSV alongside structured log lines.
package telemetry

// EventType identifies a telemetry-logged path event.
type EventType uint8

const (
	EventObjectCreated EventType = iota
	EventObjectDestroyed
	EventMoveOrder
	EventCollision
)

// Event represents a single telemetry-logged occurrence, independent of the
// path package's own Event type so telemetry never depends on path.
type Event struct {
	Type EventType `csv:"type"`
	Tick int32     `csv:"tick"`

	AgentID uint64  `csv:"agent_id"` // ObjectCreated, ObjectDestroyed, and A of Collision
	GroupID uint32  `csv:"group_id"` // MoveOrder
	OtherID uint64  `csv:"other_id"` // B of Collision
	GoalX   float32 `csv:"goal_x"`
	GoalZ   float32 `csv:"goal_z"`
}
