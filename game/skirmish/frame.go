package skirmish

import (
	"github.com/bytearena/ecs"
	uuid "github.com/satori/go.uuid"
)

// FrameAgent is one agent's line in a frame
type FrameAgent struct {
	AgentState
	Action Action  `json:"action"`
	Reward float64 `json:"reward"`
}

// Frame is the replayable summary of a tick, as recorded and streamed to spectators
type Frame struct {
	Episode     uuid.UUID         `json:"episode"`
	Tick        int               `json:"tick"`
	Agents      []FrameAgent      `json:"agents"`
	TeamRewards [2]float64        `json:"teamrewards"`
	Signals     [2]TerminalSignal `json:"signals"`
	Cause       EpisodeEnd        `json:"cause"`
	Events      []HitEvent        `json:"events"`
}

// MakeFrame describes the tick from its result and the actions submitted for it
func MakeFrame(result StepResult, actions map[ecs.EntityID]Action) Frame {
	frame := Frame{
		Episode:     result.Episode,
		Tick:        result.Tick,
		Agents:      make([]FrameAgent, 0, len(result.States)),
		TeamRewards: result.TeamRewards,
		Signals:     result.Signals,
		Cause:       result.Cause,
		Events:      result.Events,
	}

	for _, state := range result.States {
		agent := FrameAgent{
			AgentState: state,
			Reward:     result.Rewards[state.ID],
		}

		if action, ok := actions[state.ID]; ok && state.Active {
			agent.Action = action.Sanitize()
		}

		frame.Agents = append(frame.Agents, agent)
	}

	return frame
}
