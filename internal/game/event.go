package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Periodic tick summary with RNG seed
	EventTypePhaseChange
	EventTypeSpawn
	EventTypeDamage // Player took damage
	EventTypeKill
	EventTypeRecycle // Enemy returned to its pool
	EventTypePoolGrow
	EventTypeMatchResolved
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is one JSONL audit record.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	MatchID   string          `json:"matchId,omitempty"`
	Source    string          `json:"source"` // component, used for rate limiting
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypePhaseChange:
		return "phase_change"
	case EventTypeSpawn:
		return "spawn"
	case EventTypeDamage:
		return "damage"
	case EventTypeKill:
		return "kill"
	case EventTypeRecycle:
		return "recycle"
	case EventTypePoolGrow:
		return "pool_grow"
	case EventTypeMatchResolved:
		return "match_resolved"
	default:
		return "unknown"
	}
}

// MarshalText writes the type by name so logs stay readable.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TickPayload is emitted once per second of simulated time.
type TickPayload struct {
	RNGSeed     int64   `json:"rngSeed"`
	LiveEnemies int     `json:"liveEnemies"`
	PlayerHP    int     `json:"playerHp"`
	Remaining   float64 `json:"remaining"`
}

// PhasePayload records a match transition.
type PhasePayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Level int    `json:"level"`
}

// SpawnPayload records an enemy entering play.
type SpawnPayload struct {
	EnemyID int64   `json:"enemyId"`
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Z       float64 `json:"z"`
}

// DamagePayload records damage dealt to the player.
type DamagePayload struct {
	Damage   int `json:"damage"`
	PlayerHP int `json:"playerHp"`
}

// KillPayload records an enemy death.
type KillPayload struct {
	EnemyID int64  `json:"enemyId"`
	Type    string `json:"type"`
	Kills   int    `json:"kills"`
	Score   int    `json:"score"`
}

// RecyclePayload records an enemy going back to idle.
type RecyclePayload struct {
	EnemyID int64  `json:"enemyId"`
	Type    string `json:"type"`
}

// PoolGrowPayload records a pool building new enemies.
type PoolGrowPayload struct {
	Type  string `json:"type"`
	Added int    `json:"added"`
	Total int    `json:"total"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload any) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, matchID, source string, payload any) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		MatchID:   matchID,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
