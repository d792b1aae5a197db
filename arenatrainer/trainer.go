package arenatrainer

import (
	"context"
	"encoding/json"

	"github.com/bytearena/ecs"
	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/influxdb"
	"github.com/bytearena/skirmish/common/recording"
	"github.com/bytearena/skirmish/common/store"
	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/game/skirmish"
)

// Trainer drives a game with local policies, one tick at a time
type Trainer struct {
	game     *skirmish.SkirmishGame
	fallback Policy
	policies map[ecs.EntityID]Policy

	recorder recording.Recorder
	recordID string
	metrics  *influxdb.Client
	ledger   *store.Store

	episodeListeners []func(summary skirmish.EpisodeSummary)
	frameListeners   []func(frame skirmish.Frame)

	ticks *influxdb.Counter
	hits  *influxdb.Counter
}

type Option func(trainer *Trainer)

// WithPolicy overrides the fallback policy for one agent
func WithPolicy(id ecs.EntityID, policy Policy) Option {
	return func(trainer *Trainer) {
		trainer.policies[id] = policy
	}
}

// WithRecorder records every frame as a JSON line under the given record id
func WithRecorder(recorder recording.Recorder, recordID string) Option {
	return func(trainer *Trainer) {
		trainer.recorder = recorder
		trainer.recordID = recordID
	}
}

func WithMetrics(client *influxdb.Client) Option {
	return func(trainer *Trainer) {
		trainer.metrics = client
	}
}

// WithStore persists every finished episode
func WithStore(ledger *store.Store) Option {
	return func(trainer *Trainer) {
		trainer.ledger = ledger
	}
}

func OnEpisode(listener func(summary skirmish.EpisodeSummary)) Option {
	return func(trainer *Trainer) {
		trainer.episodeListeners = append(trainer.episodeListeners, listener)
	}
}

func OnFrame(listener func(frame skirmish.Frame)) Option {
	return func(trainer *Trainer) {
		trainer.frameListeners = append(trainer.frameListeners, listener)
	}
}

// NewTrainer drives every agent with the fallback policy unless overridden; a nil fallback idles
func NewTrainer(game *skirmish.SkirmishGame, fallback Policy, opts ...Option) *Trainer {
	if fallback == nil {
		fallback = Idle
	}

	trainer := &Trainer{
		game:     game,
		fallback: fallback,
		policies: make(map[ecs.EntityID]Policy),
		recorder: recording.MakeEmptyRecorder(),
		ticks:    influxdb.NewCounter(),
		hits:     influxdb.NewCounter(),
	}

	for _, opt := range opts {
		opt(trainer)
	}

	return trainer
}

func (t *Trainer) GetGame() *skirmish.SkirmishGame {
	return t.game
}

func (t *Trainer) policy(id ecs.EntityID) Policy {
	if policy, ok := t.policies[id]; ok {
		return policy
	}

	return t.fallback
}

// Actions asks every active agent's policy for its next action
func (t *Trainer) Actions() map[ecs.EntityID]skirmish.Action {
	actions := make(map[ecs.EntityID]skirmish.Action)

	for _, observation := range t.game.ObserveAll() {
		if !observation.Active {
			continue
		}

		actions[observation.ID] = t.policy(observation.ID).Act(observation, t.game.ActionMask(observation.ID))
	}

	return actions
}

func (t *Trainer) Tick() (skirmish.StepResult, error) {
	actions := t.Actions()

	result, err := t.game.Step(actions)
	if err != nil {
		return result, err
	}

	t.ticks.Add(1)
	t.hits.Add(len(result.Events))

	frame := skirmish.MakeFrame(result, actions)
	if err := t.record(frame); err != nil {
		return result, err
	}

	for _, listener := range t.frameListeners {
		listener(frame)
	}

	if result.Summary != nil {
		t.episodeEnded(*result.Summary)
	}

	return result, nil
}

func (t *Trainer) record(frame skirmish.Frame) error {
	msg, err := json.Marshal(frame)
	if err != nil {
		return errors.Wrap(err, "could not serialize frame")
	}

	return t.recorder.Record(t.recordID, string(msg))
}

func (t *Trainer) episodeEnded(summary skirmish.EpisodeSummary) {
	if t.metrics != nil {
		t.metrics.WriteAppMetric("episode", map[string]interface{}{
			"number":  summary.Number,
			"steps":   summary.Steps,
			"cause":   summary.Cause.String(),
			"rewardA": summary.TeamRewards[0],
			"rewardB": summary.TeamRewards[1],
			"hits":    summary.Hits,
			"shots":   summary.Shots,
			"reloads": summary.Reloads,
		})
	}

	if t.ledger != nil {
		if _, err := t.ledger.SaveEpisode(summary); err != nil {
			utils.Logger().Warn().Err(err).Str("service", "trainer").Msg("could not store episode")
		}
	}

	for _, policy := range append([]Policy{t.fallback}, policiesOf(t.policies)...) {
		if f, ok := policy.(interface{ Forget() }); ok {
			f.Forget()
		}
	}

	for _, listener := range t.episodeListeners {
		listener(summary)
	}
}

func policiesOf(policies map[ecs.EntityID]Policy) []Policy {
	res := make([]Policy, 0, len(policies))
	for _, policy := range policies {
		res = append(res, policy)
	}

	return res
}

// RunEpisode ticks until the current episode ends
func (t *Trainer) RunEpisode(ctx context.Context) (skirmish.EpisodeSummary, error) {
	for {
		select {
		case <-ctx.Done():
			return skirmish.EpisodeSummary{}, ctx.Err()
		default:
		}

		result, err := t.Tick()
		if err != nil {
			return skirmish.EpisodeSummary{}, err
		}

		if result.Summary != nil {
			return *result.Summary, nil
		}
	}
}

func (t *Trainer) Run(ctx context.Context, episodes int) ([]skirmish.EpisodeSummary, error) {
	summaries := make([]skirmish.EpisodeSummary, 0, episodes)

	for i := 0; i < episodes; i++ {
		summary, err := t.RunEpisode(ctx)
		if err != nil {
			return summaries, err
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ReportMetrics sends the tick and hit counts accumulated since the previous report
func (t *Trainer) ReportMetrics() {
	if t.metrics == nil {
		return
	}

	t.metrics.WriteAppMetric("trainer", map[string]interface{}{
		"ticks": t.ticks.GetAndReset(),
		"hits":  t.hits.GetAndReset(),
	})
}
