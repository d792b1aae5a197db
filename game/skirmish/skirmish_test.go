package skirmish

import (
	"math"
	"math/rand"
	"testing"

	"github.com/bytearena/ecs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/types/mapcontainer"
	"github.com/bytearena/skirmish/common/utils/vector"
	"github.com/bytearena/skirmish/game/physics"
)

func testConfig(sizeA, sizeB int) Config {
	config := DefaultConfig(18.5)
	config.TeamSizes = [2]int{sizeA, sizeB}
	config.Seed = 42
	return config
}

func newTestGame(t *testing.T, config Config, opts ...Option) (*SkirmishGame, *fakeProvider) {
	t.Helper()

	provider := newFakeProvider()
	game, err := NewSkirmishGame(config, openArena(), provider, opts...)
	require.NoError(t, err)

	return game, provider
}

func member(t *testing.T, game *SkirmishGame, team types.TeamID, index int) ecs.EntityID {
	t.Helper()

	id, ok := game.Roster().Member(team, index)
	require.True(t, ok)
	return id
}

// place puts the agent at rest at the given position and heading
func place(game *SkirmishGame, id ecs.EntityID, x, y, orientation float64) {
	game.provider.SetTransform(id, vector.MakeVector2(x, y), orientation)
	game.provider.SetVelocity(id, vector.MakeNullVector2(), 0)
}

func TestNewSkirmishGameRejectsInvalidSetups(t *testing.T) {
	t.Run("empty team", func(t *testing.T) {
		_, err := NewSkirmishGame(testConfig(0, 1), openArena(), newFakeProvider())
		assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
	})

	t.Run("oversized team", func(t *testing.T) {
		_, err := NewSkirmishGame(testConfig(1, MaxTeamSize+1), openArena(), newFakeProvider())
		assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
	})

	t.Run("no physics", func(t *testing.T) {
		_, err := NewSkirmishGame(testConfig(1, 1), openArena(), nil)
		assert.Equal(t, ErrMissingPhysics, errors.Cause(err))
	})

	t.Run("no arena", func(t *testing.T) {
		_, err := NewSkirmishGame(testConfig(1, 1), nil, newFakeProvider())
		assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
	})

	t.Run("camera outside its team", func(t *testing.T) {
		config := testConfig(1, 1)
		config.CameraTarget = CameraTarget{Team: types.TeamB, Index: 3}
		_, err := NewSkirmishGame(config, openArena(), newFakeProvider())
		assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
	})

	t.Run("unknown reward polarity", func(t *testing.T) {
		config := testConfig(1, 1)
		config.RewardPolarity = "friendly"
		_, err := NewSkirmishGame(config, openArena(), newFakeProvider())
		assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
	})
}

func TestRosterOrder(t *testing.T) {
	game, _ := newTestGame(t, testConfig(2, 3))

	roster := game.Roster()
	require.Equal(t, 5, roster.Len())

	var playerIDs []string
	for i, id := range roster.Agents() {
		assert.Equal(t, i, roster.IndexOf(id))
		playerIDs = append(playerIDs, game.AgentState(id).PlayerID)
	}

	assert.Equal(t, []string{"Team0_0", "Team0_1", "Team1_0", "Team1_1", "Team1_2"}, playerIDs)
	assert.Equal(t, 2, game.Team(types.TeamA).Size())
	assert.Equal(t, 3, game.Team(types.TeamB).Size())
	assert.Equal(t, member(t, game, types.TeamA, 0), game.Camera())

	observations := game.ObserveAll()
	require.Len(t, observations, 5)
	for i, observation := range observations {
		assert.Equal(t, playerIDs[i], observation.PlayerID)
	}

	assert.Equal(t, -1, roster.IndexOf(ecsID(9999)))
}

func TestHitEndsDuel(t *testing.T) {
	game, provider := newTestGame(t, testConfig(1, 1))
	a := member(t, game, types.TeamA, 0)
	b := member(t, game, types.TeamB, 0)

	place(game, b, 0, 0, 0) // facing +X
	place(game, a, 5, 0, math.Pi)
	episode := game.Episode()

	result, err := game.Step(map[ecs.EntityID]Action{b: {Fire: true}})
	require.NoError(t, err)

	assert.Equal(t, EpisodeTeamAEliminated, result.Cause)
	assert.Equal(t, [2]float64{-1, 1}, result.TeamRewards)
	assert.Equal(t, [2]TerminalSignal{SignalLost, SignalWon}, result.Signals)
	assert.Equal(t, 1.0, result.Rewards[b])
	assert.Equal(t, -1.0, result.Rewards[a])
	assert.True(t, result.IsEpisodeEnd())
	assert.True(t, result.Reset)

	require.Len(t, result.Events, 1)
	assert.Equal(t, b, result.Events[0].Firer)
	assert.Equal(t, a, result.Events[0].Target)
	assert.False(t, result.Events[0].SameTeam)

	require.NotNil(t, result.Summary)
	assert.Equal(t, episode.ID, result.Summary.ID)
	assert.Equal(t, [2]float64{-1, 1}, result.Summary.TeamRewards)
	assert.Equal(t, 1.0, result.Summary.AgentRewards["Team1_0"])
	assert.Equal(t, 1, result.Summary.Hits)
	assert.Equal(t, 1, result.Summary.Shots)
	assert.Equal(t, 0, result.Summary.Reloads)

	// observations describe the terminal state, before the reset
	require.Len(t, result.Observations, 2)
	assert.False(t, result.Observations[0].Active)
	assert.Empty(t, result.Observations[1].Targets)

	// the reset brought everybody back
	assert.NotEqual(t, episode.ID, game.Episode().ID)
	assert.Equal(t, episode.Number+1, game.Episode().Number)
	assert.True(t, game.AgentState(a).Active)
	assert.True(t, provider.bodies[a].enabled)
	assert.Equal(t, 1, game.Team(types.TeamA).ActiveCount())
	assert.Equal(t, 0.0, game.Team(types.TeamB).Reward())
}

func TestHitKeepsEpisodeRunningWhileTeammatesRemain(t *testing.T) {
	game, provider := newTestGame(t, testConfig(2, 2))
	a0 := member(t, game, types.TeamA, 0)
	a1 := member(t, game, types.TeamA, 1)
	b0 := member(t, game, types.TeamB, 0)
	b1 := member(t, game, types.TeamB, 1)

	place(game, b0, 0, 0, 0)
	place(game, a0, 5, 0, 0)
	place(game, a1, -10, 10, 0)
	place(game, b1, 10, -10, 0)

	result, err := game.Step(map[ecs.EntityID]Action{b0: {Fire: true}})
	require.NoError(t, err)

	assert.False(t, result.IsEpisodeEnd())
	assert.False(t, result.Reset)
	assert.Nil(t, result.Summary)
	assert.Equal(t, [2]float64{}, result.TeamRewards)

	assert.False(t, game.AgentState(a0).Active)
	assert.False(t, provider.bodies[a0].enabled)
	assert.Equal(t, 1, game.Team(types.TeamA).ActiveCount())
	assert.Equal(t, 2, game.Team(types.TeamB).ActiveCount())

	for _, team := range []types.TeamID{types.TeamA, types.TeamB} {
		active := 0
		for _, id := range game.Team(team).Members() {
			if game.AgentState(id).Active {
				active++
			}
		}
		assert.Equal(t, active, game.Team(team).ActiveCount(), "%s", team)
	}

	// the eliminated agent is no longer a target, and no longer acts
	for _, observation := range result.Observations {
		if observation.ID == a0 {
			continue
		}
		assert.Len(t, observation.Targets, 2, "%s", observation.PlayerID)
		assert.Len(t, observation.Classes, 2, "%s", observation.PlayerID)
		assert.Len(t, observation.Rays, len(DefaultRaySensorSpecs().RayAngles()))
	}

	_, _, weapon, _ := game.getAgent(a0)
	_, err = game.Step(map[ecs.EntityID]Action{a0: {Fire: true}})
	require.NoError(t, err)
	assert.Equal(t, DefaultWeaponSpecs().MaxAmmo, weapon.GetAmmo())
}

func TestFriendlyFireObservedPolarity(t *testing.T) {
	config := testConfig(1, 2)
	config.RewardPolarity = RewardPolarityObserved
	game, _ := newTestGame(t, config)

	a := member(t, game, types.TeamA, 0)
	b0 := member(t, game, types.TeamB, 0)
	b1 := member(t, game, types.TeamB, 1)

	place(game, b0, 0, 0, 0)
	place(game, b1, 5, 0, 0)
	place(game, a, -10, -10, 0)

	result, err := game.Step(map[ecs.EntityID]Action{b0: {Fire: true}})
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Rewards[b0])
	assert.Equal(t, -1.0, result.Rewards[b1])
	require.Len(t, result.Events, 1)
	assert.True(t, result.Events[0].SameTeam)
	assert.Equal(t, 1, game.Team(types.TeamB).ActiveCount())
	assert.False(t, result.IsEpisodeEnd())
}

func TestTimeout(t *testing.T) {
	config := testConfig(1, 1)
	config.MaxEnvironmentSteps = 100
	game, _ := newTestGame(t, config)

	for step := 1; step <= 100; step++ {
		result, err := game.Step(nil)
		require.NoError(t, err)
		require.False(t, result.IsEpisodeEnd(), "step %d", step)
	}

	result, err := game.Step(nil)
	require.NoError(t, err)

	assert.Equal(t, EpisodeInterrupted, result.Cause)
	assert.Equal(t, [2]TerminalSignal{SignalInterrupted, SignalInterrupted}, result.Signals)
	assert.False(t, result.Signals[0].IsTerminal())
	assert.Equal(t, [2]float64{}, result.TeamRewards)
	assert.True(t, result.Reset)
	assert.Equal(t, 101, result.Summary.Steps)
	assert.Equal(t, 0, game.Episode().Steps)
}

func TestUnlimitedEpisode(t *testing.T) {
	config := testConfig(1, 1)
	config.MaxEnvironmentSteps = 0
	game, _ := newTestGame(t, config)

	for step := 0; step < 300; step++ {
		result, err := game.Step(nil)
		require.NoError(t, err)
		require.False(t, result.IsEpisodeEnd())
	}
}

func TestEmptyMagazineForcesReload(t *testing.T) {
	game, _ := newTestGame(t, testConfig(1, 1))
	a := member(t, game, types.TeamA, 0)

	_, player, weapon, ok := game.getAgent(a)
	require.True(t, ok)
	weapon.ammo = 0

	assert.Equal(t, ActionMask{Fire: false, Reload: true}, game.ActionMask(a))

	_, err := game.Step(map[ecs.EntityID]Action{a: {Fire: true}})
	require.NoError(t, err)

	specs := DefaultWeaponSpecs()
	assert.Equal(t, specs.MaxAmmo, weapon.GetAmmo())
	assert.InDelta(t, specs.ReloadCooldown-0.02, weapon.GetCooldown(), 1e-9)
	assert.Equal(t, uint(1), player.Stats.nbReloads)
	assert.Equal(t, uint(0), player.Stats.nbShots)
	assert.Equal(t, ActionMask{}, game.ActionMask(a))
}

func TestQueueActionsLastWins(t *testing.T) {
	game, provider := newTestGame(t, testConfig(1, 1))
	a := member(t, game, types.TeamA, 0)

	require.NoError(t, game.QueueActions(a, Action{Move: vector.MakeVector2(-1, 0)}))
	require.NoError(t, game.QueueActions(a, Action{Move: vector.MakeVector2(0, 1)}))
	assert.Error(t, game.QueueActions(ecsID(9999), Action{}))

	_, err := game.Step(nil)
	require.NoError(t, err)

	assert.True(t, provider.bodies[a].lastForce.Equals(vector.MakeVector2(0, 50)))

	// without new input the agent stops pushing
	_, err = game.Step(nil)
	require.NoError(t, err)
	assert.True(t, provider.bodies[a].lastForce.IsNull())

	_, err = game.Step(map[ecs.EntityID]Action{ecsID(9999): {}})
	assert.Error(t, err)
}

func TestStepWithUnknownAgentLeavesGameUntouched(t *testing.T) {
	game, provider := newTestGame(t, testConfig(1, 1))
	a := member(t, game, types.TeamA, 0)

	tick := game.GetTick()
	steps := game.Episode().Steps

	// map order is random, so the valid action may or may not be seen first
	for i := 0; i < 20; i++ {
		_, err := game.Step(map[ecs.EntityID]Action{
			a:           {Move: vector.MakeVector2(1, 0)},
			ecsID(9999): {},
		})
		require.Error(t, err)
	}

	assert.Equal(t, tick, game.GetTick())
	assert.Equal(t, steps, game.Episode().Steps)

	result, err := game.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, tick+1, result.Tick)
	assert.True(t, provider.bodies[a].lastForce.IsNull(), "a rejected action must not leak into the next tick")
}

func TestSteering(t *testing.T) {
	game, provider := newTestGame(t, testConfig(1, 1))
	a := member(t, game, types.TeamA, 0)
	place(game, a, 0, 0, 0)

	_, err := game.Step(map[ecs.EntityID]Action{a: {
		Move: vector.MakeVector2(1, 1),
		Aim:  vector.MakeVector2(0, 1),
	}})
	require.NoError(t, err)

	motion := DefaultMotionSpecs()
	body := provider.bodies[a]
	assert.InDelta(t, motion.MaxRunForce, body.lastForce.Mag(), 1e-9, "diagonal moves are not faster")
	assert.InDelta(t, body.lastForce.GetX(), body.lastForce.GetY(), 1e-9)
	assert.InDelta(t, motion.MaxTurnTorque, body.lastTorque, 1e-9, "torque is clamped")

	_, _, weapon, _ := game.getAgent(a)
	assert.Equal(t, DefaultWeaponSpecs().MinSpread, weapon.GetSpread(), "the agent was still when it acted")

	_, err = game.Step(map[ecs.EntityID]Action{a: {
		Move: vector.MakeVector2(1, 1),
		Aim:  vector.MakeVector2(0, 1),
	}})
	require.NoError(t, err)
	assert.Greater(t, weapon.GetSpread(), DefaultWeaponSpecs().MinSpread, "running and turning widen the spread")

	// a null aim does not turn
	_, err = game.Step(map[ecs.EntityID]Action{a: {}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, body.lastTorque)
}

func TestResetIsIdempotent(t *testing.T) {
	game, _ := newTestGame(t, testConfig(2, 2))

	for i := 0; i < 10; i++ {
		_, err := game.Step(map[ecs.EntityID]Action{game.Camera(): {Fire: true, Move: vector.MakeVector2(1, 0)}})
		require.NoError(t, err)
	}

	for i := 0; i < 2; i++ {
		number := game.Episode().Number
		require.NoError(t, game.Reset())
		assert.Equal(t, number+1, game.Episode().Number)
		assert.Equal(t, 0, game.Episode().Steps)
		assert.Equal(t, 0, game.Fog().RevealedCount())

		for _, team := range []types.TeamID{types.TeamA, types.TeamB} {
			assert.Equal(t, game.Team(team).Size(), game.Team(team).ActiveCount())
			assert.Equal(t, 0.0, game.Team(team).Reward())
		}

		for _, state := range game.AgentStates() {
			assert.True(t, state.Active)
			assert.Equal(t, DefaultWeaponSpecs().MaxAmmo, state.Ammo)
			assert.Equal(t, 0.0, state.Cooldown)
			assert.Equal(t, DefaultWeaponSpecs().MinSpread, state.Spread)
			assert.True(t, state.Velocity.IsNull())
		}
	}
}

func TestFogRevealIsMonotonic(t *testing.T) {
	game, _ := newTestGame(t, testConfig(1, 1))
	camera := game.Camera()
	place(game, camera, 0, 0, 0)

	previous := game.Fog().RevealedCount()
	assert.Equal(t, 0, previous)

	for i := 0; i < 50; i++ {
		_, err := game.Step(map[ecs.EntityID]Action{camera: {
			Aim:  vector.MakeUnitVector2(float64(i) * 0.7),
			Move: vector.MakeVector2(1, 0),
		}})
		require.NoError(t, err)

		count := game.Fog().RevealedCount()
		assert.GreaterOrEqual(t, count, previous)
		previous = count
	}

	assert.Greater(t, previous, 0)

	require.NoError(t, game.Reset())
	assert.Equal(t, 0, game.Fog().RevealedCount())
}

func TestAmmoListenerFollowsCamera(t *testing.T) {
	var notified []int
	game, _ := newTestGame(t, testConfig(1, 1), WithAmmoListener(func(ammo int) {
		notified = append(notified, ammo)
	}))

	require.Equal(t, []int{30}, notified, "the reset announces a full magazine")

	a := member(t, game, types.TeamA, 0)
	b := member(t, game, types.TeamB, 0)
	place(game, a, 0, 0, 0)
	place(game, b, 0, 10, 0)

	_, err := game.Step(map[ecs.EntityID]Action{a: {Fire: true}, b: {Fire: true}})
	require.NoError(t, err)

	assert.Equal(t, []int{30, 29}, notified, "only the camera agent is reported")
}

func TestSpawnExhaustion(t *testing.T) {
	provider := newFakeProvider()
	provider.alwaysColliding = true

	_, err := NewSkirmishGame(testConfig(1, 1), openArena(), provider)
	assert.Equal(t, ErrSpawnExhausted, errors.Cause(err))
}

func TestSpawnResamplesOnCollision(t *testing.T) {
	provider := newFakeProvider()
	provider.forcedCollisions = 5

	game, err := NewSkirmishGame(testConfig(1, 1), openArena(), provider)
	require.NoError(t, err)

	assert.Equal(t, 0, provider.forcedCollisions)
	for _, state := range game.AgentStates() {
		assert.True(t, state.Active)
	}
}

func TestSpawnPoint(t *testing.T) {
	corner := func() vector.Vector2 { return vector.MakeVector2(math.Sqrt2/2, math.Sqrt2/2) }
	center := func() vector.Vector2 { return vector.MakeNullVector2() }

	a := SpawnPoint(types.TeamA, 10, 18.5, corner)
	assert.InDelta(t, 10.0, a.GetX(), 1e-9, "team A samples are stretched onto the square")
	assert.InDelta(t, 10.0, a.GetY(), 1e-9)

	b := SpawnPoint(types.TeamB, 10, 18.5, corner)
	assert.InDelta(t, 13.5, b.Mag(), 1e-9)

	assert.True(t, SpawnPoint(types.TeamB, 10, 3, corner).IsNull(), "tiny maps collapse team B spawns on the center")
	assert.True(t, SpawnPoint(types.TeamA, 10, 18.5, center).IsNull())
}

func TestAgentsStayInsideWalledArena(t *testing.T) {
	arena := mapcontainer.Default()
	config := DefaultConfig(arena.Data.Bounds)
	config.TeamSizes = [2]int{3, 3}
	config.Seed = 7
	config.MaxEnvironmentSteps = 150

	game, err := NewSkirmishGame(config, arena, physics.NewBox2DWorld(physics.DefaultBox2DOptions()))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	limit := arena.Data.Size

	for step := 0; step < 400; step++ {
		actions := make(map[ecs.EntityID]Action)
		for _, id := range game.Roster().Agents() {
			actions[id] = DecodeActionBuffers(ActionBuffers{
				Continuous: [2]float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1},
				Discrete:   [4]int{rng.Intn(3), rng.Intn(3), rng.Intn(2), rng.Intn(2)},
			})
		}

		result, err := game.Step(actions)
		require.NoError(t, err)

		for _, state := range game.AgentStates() {
			x, y := state.Position.Get()
			require.True(t, math.Abs(x) <= limit && math.Abs(y) <= limit, "step %d: %s escaped to %s", step, state.PlayerID, state.Position)
		}

		for _, observation := range result.Observations {
			for i, value := range observation.Self {
				require.True(t, value >= -1 && value <= 1, "self slot %d out of range: %v", i, value)
			}
		}
	}
}
