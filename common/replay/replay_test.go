package replay

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytearena/skirmish/common/recording"
	"github.com/bytearena/skirmish/common/types/mapcontainer"
	"github.com/bytearena/skirmish/game/skirmish"
)

func writeRecord(t *testing.T, frames []skirmish.Frame) string {
	t.Helper()

	filename := filepath.Join(t.TempDir(), "record.zip")
	recorder := recording.MakeSingleArenaRecorder(filename)
	require.NoError(t, recorder.RecordMetadata("r", recording.MakeRecordMetadata(mapcontainer.Default(), [2]int{1, 1}, 0.02, 7)))

	for _, frame := range frames {
		msg, err := json.Marshal(frame)
		require.NoError(t, err)
		require.NoError(t, recorder.Record("r", string(msg)))
	}

	require.NoError(t, recorder.Close("r"))
	return filename
}

func makeFrames() []skirmish.Frame {
	first := uuid.NewV4()
	second := uuid.NewV4()

	return []skirmish.Frame{
		{Episode: first, Tick: 1},
		{Episode: first, Tick: 2, Events: []skirmish.HitEvent{{Tick: 2}}},
		{Episode: first, Tick: 3, Cause: skirmish.EpisodeTeamBEliminated, TeamRewards: [2]float64{1, -1}, Signals: skirmish.EpisodeTeamBEliminated.Signals()},
		{Episode: second, Tick: 4},
	}
}

func TestLoadAndDigest(t *testing.T) {
	frames := makeFrames()
	replay, err := Load(writeRecord(t, frames))
	require.NoError(t, err)

	assert.Equal(t, int64(7), replay.Metadata.Seed)
	require.Len(t, replay.Frames, 4)

	episodes := replay.Episodes()
	require.Len(t, episodes, 2)

	assert.Equal(t, frames[0].Episode, episodes[0].Episode)
	assert.Equal(t, 1, episodes[0].FirstTick)
	assert.Equal(t, 3, episodes[0].LastTick)
	assert.Equal(t, 3, episodes[0].Frames)
	assert.Equal(t, 1, episodes[0].Hits)
	assert.True(t, episodes[0].Ended())
	assert.Equal(t, [2]float64{1, -1}, episodes[0].TeamRewards)

	assert.False(t, episodes[1].Ended(), "the record stopped mid-episode")
}

func TestLoadMissingRecord(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func TestPlay(t *testing.T) {
	replay := &Replay{Frames: makeFrames()}

	var ticks []int
	require.NoError(t, replay.Play(context.Background(), 0, func(frame skirmish.Frame) {
		ticks = append(ticks, frame.Tick)
	}))
	assert.Equal(t, []int{1, 2, 3, 4}, ticks)

	ctx, cancel := context.WithCancel(context.Background())
	played := 0
	err := replay.Play(ctx, time.Millisecond, func(frame skirmish.Frame) {
		played++
		cancel()
	})
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, played)
}
