package engine

import (
	"github.com/google/uuid"

	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// PacketKind identifies what a Packet does to an observer's view.
type PacketKind int

const (
	// PacketSpawn replaces the owner's appearance with the disguise.
	PacketSpawn PacketKind = iota + 1
	// PacketUpdate changes one data value of a shown disguise.
	PacketUpdate
	// PacketDestroy removes the disguise and restores the owner.
	PacketDestroy
)

func (k PacketKind) String() string {
	switch k {
	case PacketSpawn:
		return "spawn"
	case PacketUpdate:
		return "update"
	case PacketDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Packet is a view change sent to a single observer.
type Packet struct {
	Kind      PacketKind
	Owner     uuid.UUID
	OwnerName string
	Entity    string         // entity type id; spawn only
	Block     string         // block type id; falling-block spawn only
	Data      map[string]any // full data on spawn, single key on update
}

// Sink delivers packets to observers. Implementations must not block.
type Sink interface {
	Send(observer types.Observer, p Packet)
}
