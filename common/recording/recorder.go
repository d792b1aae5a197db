package recording

import (
	"time"

	"github.com/bytearena/skirmish/common/types/mapcontainer"
)

// Recorder stores one JSON line per frame, grouped by record UUID
type Recorder interface {
	RecordMetadata(UUID string, metadata RecordMetadata) error
	Record(UUID string, msg string) error
	Close(UUID string) error
	Stop()
}

type RecordMetadata struct {
	MapContainer *mapcontainer.MapContainer `json:"map"`
	Date         string                     `json:"date"`
	TeamSizes    [2]int                     `json:"teamsizes"`
	TickDuration float64                    `json:"tickduration"`
	Seed         int64                      `json:"seed"`
}

func MakeRecordMetadata(arena *mapcontainer.MapContainer, teamSizes [2]int, tickDuration float64, seed int64) RecordMetadata {
	return RecordMetadata{
		MapContainer: arena,
		Date:         time.Now().Format(time.RFC3339),
		TeamSizes:    teamSizes,
		TickDuration: tickDuration,
		Seed:         seed,
	}
}
