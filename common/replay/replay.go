package replay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/bytearena/skirmish/common/recording"
	"github.com/bytearena/skirmish/game/skirmish"
)

// Replay is a decoded record archive
type Replay struct {
	Metadata recording.RecordMetadata
	Frames   []skirmish.Frame
}

// EpisodeDigest summarizes the frames of one episode
type EpisodeDigest struct {
	Episode     uuid.UUID
	FirstTick   int
	LastTick    int
	Frames      int
	Cause       skirmish.EpisodeEnd
	TeamRewards [2]float64
	Hits        int
}

func (d EpisodeDigest) Ended() bool {
	return d.Cause != skirmish.EpisodeRunning
}

func Load(filename string) (*Replay, error) {
	metadata, lines, err := recording.ReadArchive(filename)
	if err != nil {
		return nil, err
	}

	replay := &Replay{
		Metadata: metadata,
		Frames:   make([]skirmish.Frame, 0, len(lines)),
	}

	for i, line := range lines {
		var frame skirmish.Frame
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			return nil, errors.Wrapf(err, "could not decode frame %d of %s", i, filename)
		}

		replay.Frames = append(replay.Frames, frame)
	}

	return replay, nil
}

// Episodes groups the frames by episode, in record order; the last episode may not have ended
func (r *Replay) Episodes() []EpisodeDigest {
	digests := make([]EpisodeDigest, 0)

	for _, frame := range r.Frames {
		if len(digests) == 0 || !uuid.Equal(digests[len(digests)-1].Episode, frame.Episode) {
			digests = append(digests, EpisodeDigest{
				Episode:   frame.Episode,
				FirstTick: frame.Tick,
			})
		}

		digest := &digests[len(digests)-1]
		digest.LastTick = frame.Tick
		digest.Frames++
		digest.Hits += len(frame.Events)
		digest.Cause = frame.Cause
		digest.TeamRewards[0] += frame.TeamRewards[0]
		digest.TeamRewards[1] += frame.TeamRewards[1]
	}

	return digests
}

// Play hands every frame to fn, waiting interval between frames; a zero interval plays as fast as possible
func (r *Replay) Play(ctx context.Context, interval time.Duration, fn func(frame skirmish.Frame)) error {
	var pace <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pace = ticker.C
	}

	for _, frame := range r.Frames {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		fn(frame)
	}

	return nil
}
