package model

// Status tracks a player's progress through the match.
type Status uint8

const (
	StatusRequested Status = iota
	StatusReady
	StatusPreparing
	StatusIdle
	StatusDue
	StatusDefeated
)

func (s Status) String() string {
	switch s {
	case StatusRequested:
		return "requested"
	case StatusReady:
		return "ready"
	case StatusPreparing:
		return "preparing"
	case StatusIdle:
		return "idle"
	case StatusDue:
		return "due"
	default:
		return "defeated"
	}
}
