package skirmish

import (
	"encoding/json"
	"testing"

	"github.com/bytearena/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/vector"
)

func TestMakeFrameDescribesTerminalTick(t *testing.T) {
	game, _ := newTestGame(t, testConfig(1, 1))
	a := member(t, game, types.TeamA, 0)
	b := member(t, game, types.TeamB, 0)

	place(game, b, 0, 0, 0)
	place(game, a, 5, 0, 0)
	episode := game.Episode().ID

	actions := map[ecs.EntityID]Action{
		a: {Move: vector.MakeVector2(0.4, 3)},
		b: {Fire: true},
	}

	result, err := game.Step(actions)
	require.NoError(t, err)
	require.True(t, result.Reset)

	frame := MakeFrame(result, actions)
	assert.Equal(t, episode, frame.Episode, "the frame belongs to the episode that ended")
	assert.Equal(t, EpisodeTeamAEliminated, frame.Cause)
	require.Len(t, frame.Agents, 2)

	assert.Equal(t, a, frame.Agents[0].ID)
	assert.False(t, frame.Agents[0].Active)
	assert.True(t, frame.Agents[0].Position.Equals(vector.MakeVector2(5, 0)), "positions are taken before the reset")
	assert.True(t, frame.Agents[0].Action.Move.IsNull(), "eliminated agents report no action")
	assert.Equal(t, -1.0, frame.Agents[0].Reward)

	assert.True(t, frame.Agents[1].Action.Fire)
	assert.Equal(t, 1.0, frame.Agents[1].Reward)
	assert.Equal(t, 29, frame.Agents[1].Ammo)

	data, err := json.Marshal(frame)
	require.NoError(t, err)

	var decoded Frame
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, frame.Signals, decoded.Signals)
	assert.Equal(t, frame.Cause, decoded.Cause)
	assert.Equal(t, frame.Episode, decoded.Episode)
	assert.Len(t, decoded.Events, 1)
}

func TestUnmarshalUnknownSignal(t *testing.T) {
	var signal TerminalSignal
	assert.Error(t, signal.UnmarshalText([]byte("draw")))

	var end EpisodeEnd
	assert.NoError(t, end.UnmarshalText([]byte("interrupted")))
	assert.Equal(t, EpisodeInterrupted, end)
}
