package utils

import (
	"strconv"

	uuid "github.com/satori/go.uuid"
)

// Tickturn identifies one lock-step turn exchanged with remote controllers
type Tickturn struct {
	seq uint32
	id  uuid.UUID
}

func MakeTickturn() Tickturn {
	return Tickturn{
		seq: 0,
		id:  uuid.NewV4(),
	}
}

func (turn Tickturn) String() string {
	return "<TickTurn(" + strconv.Itoa(int(turn.seq)) + ")>"
}

func (turn Tickturn) Next() Tickturn {
	return Tickturn{
		seq: turn.seq + 1,
		id:  uuid.NewV4(),
	}
}

func (turn Tickturn) GetSeq() uint32 {
	return turn.seq
}

func (turn Tickturn) GetID() uuid.UUID {
	return turn.id
}
