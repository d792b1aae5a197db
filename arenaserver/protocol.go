package arenaserver

import (
	"github.com/bytearena/skirmish/game/skirmish"
)

// Events posted through go-notify by the tick loop
const (
	EventFrame   = "skirmish:frame"
	EventEpisode = "skirmish:episode"
)

// Server to controller message types
const (
	MessageObservation = "observation" // asks for the action of the given tick
	MessageTerminal    = "terminal"    // last observation of an ended episode
	MessageFrame       = "frame"
	MessageEpisode     = "episode"
)

// Controller to server message types
const (
	MessageAction = "action"
)

// ServerMessage carries the reward earned since the previous message and, on terminal messages, the team's signal
type ServerMessage struct {
	Type        string                  `json:"type"`
	Tick        int                     `json:"tick"`
	Observation skirmish.Observation    `json:"observation"`
	Mask        skirmish.ActionMask     `json:"mask"`
	Reward      float64                 `json:"reward"`
	Signal      skirmish.TerminalSignal `json:"signal"`
}

type ClientMessage struct {
	Type   string          `json:"type"`
	Tick   int             `json:"tick"`
	Action skirmish.Action `json:"action"`
}

// SpectatorMessage wraps a JSON frame or episode summary
type SpectatorMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
