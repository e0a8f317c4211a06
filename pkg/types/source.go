package types

import "github.com/google/uuid"

// Observer is a connected user a disguise can be shown to.
type Observer interface {
	UniqueID() uuid.UUID
	Name() string
}

// Source is any principal that can issue commands: players, the console, or
// automation.
type Source interface {
	// Name identifies the source in messages and logs.
	Name() string

	// SendMessage delivers command feedback to the source.
	SendMessage(msg string)

	// Participant returns the live session participant behind this source.
	// Sources that are not connected users return false.
	Participant() (Participant, bool)
}

// Participant is a live user of the session: it has an identity, can be
// checked for permissions, and can observe other users' disguises.
type Participant interface {
	Observer

	// HasPermission reports whether the participant holds node.
	HasPermission(node string) bool
}
