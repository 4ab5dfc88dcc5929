package game

import "hangmantrainer/internal/models"

// EventType names a session transition
type EventType string

const (
	EventIdentity      EventType = "identity"
	EventLevelStarted  EventType = "level_started"
	EventGuess         EventType = "guess"
	EventLevelComplete EventType = "level_complete"
	EventLevelFailed   EventType = "level_failed"
	EventSessionEnded  EventType = "session_ended"
	EventExited        EventType = "exited"
)

// Event is delivered to observers after a transition has been applied
type Event struct {
	Type     EventType           `json:"type"`
	Letter   string              `json:"letter,omitempty"`
	Correct  bool                `json:"correct,omitempty"`
	Result   *models.LevelResult `json:"result,omitempty"`
	Snapshot Snapshot            `json:"snapshot"`
}

// Observer reacts to session events. Observe runs on the caller's goroutine and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Observe calls f
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

func (s *Session) notify(e Event) {
	if len(s.observers) == 0 {
		return
	}
	e.Snapshot = s.Snapshot()
	for _, o := range s.observers {
		o.Observe(e)
	}
}
