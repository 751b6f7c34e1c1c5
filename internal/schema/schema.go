package schema

import "time"

// EventType defines the category of a ledger event published after a committed mutation.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventTrade
	EventTransfer
	EventAssessment
	EventGameScore
)

var eventTypeNames = [...]string{
	EventUnknown:    "unknown",
	EventTrade:      "trade",
	EventTransfer:   "transfer",
	EventAssessment: "assessment",
	EventGameScore:  "game_score",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return eventTypeNames[EventUnknown]
}

// LedgerEvent is the metadata attached to every committed ledger mutation.
type LedgerEvent struct {
	Type      EventType
	AccountID string
	Seq       uint64
	At        time.Time
}

// NewEvent builds a ledger event stamped with the given time.
func NewEvent(eventType EventType, accountID string, seq uint64, at time.Time) LedgerEvent {
	return LedgerEvent{
		Type:      eventType,
		AccountID: accountID,
		Seq:       seq,
		At:        at,
	}
}
