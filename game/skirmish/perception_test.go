package skirmish

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/vector"
)

func agentAt(id int, team types.TeamID, x, y, orientation float64) AgentState {
	return AgentState{
		ID:          ecsID(id),
		Team:        team,
		Position:    vector.MakeVector2(x, y),
		Orientation: orientation,
		Ammo:        30,
		Spread:      1,
		Active:      true,
	}
}

// sceneProvider registers the given agents in a fake provider so line casts see them
func sceneProvider(t *testing.T, agents ...AgentState) *fakeProvider {
	t.Helper()

	provider := newFakeProvider()
	for _, agent := range agents {
		require.NoError(t, provider.AddAgent(agent.ID, agent.Team.UnitTag(), 0.5))
		provider.SetTransform(agent.ID, agent.Position, agent.Orientation)
	}

	return provider
}

func testNormalization() Normalization {
	weapon := DefaultWeaponSpecs()
	motion := DefaultMotionSpecs()
	return Normalization{
		Bounds:           18.5,
		PerceptionRadius: 12,
		MaxRunSpeed:      motion.MaxRunSpeed,
		MaxTurnSpeed:     motion.MaxTurnSpeed,
		MaxAmmo:          weapon.MaxAmmo,
		MaxSpread:        weapon.MaxSpread,
		ReloadCooldown:   weapon.ReloadCooldown,
	}
}

func TestCanObserve(t *testing.T) {
	params := DefaultPerceptionParams()
	observer := agentAt(1, types.TeamA, 0, 0, 0) // facing +X

	t.Run("in cone with clear line of sight", func(t *testing.T) {
		target := agentAt(2, types.TeamB, 8, 1, 0)
		provider := sceneProvider(t, observer, target)
		assert.True(t, CanObserve(observer, target, params, provider.LineCast))
	})

	t.Run("beyond perception radius", func(t *testing.T) {
		target := agentAt(2, types.TeamB, 12.5, 0, 0)
		provider := sceneProvider(t, observer, target)
		assert.False(t, CanObserve(observer, target, params, provider.LineCast))
	})

	t.Run("outside the cone", func(t *testing.T) {
		target := agentAt(2, types.TeamB, 0, 6, 0) // 90° off forward, cone half-angle is 45°
		provider := sceneProvider(t, observer, target)
		assert.False(t, CanObserve(observer, target, params, provider.LineCast))
	})

	t.Run("behind but within proximity", func(t *testing.T) {
		target := agentAt(2, types.TeamB, -2.4, 0, 0) // distance - 1 <= 1.5
		provider := sceneProvider(t, observer, target)
		assert.True(t, CanObserve(observer, target, params, provider.LineCast))
	})

	t.Run("occluded by an obstacle", func(t *testing.T) {
		target := agentAt(2, types.TeamB, 8, 0, 0)
		provider := sceneProvider(t, observer, target)
		require.NoError(t, provider.AddObstacle(box(4, 0, 0.5, 0.5)))
		assert.False(t, CanObserve(observer, target, params, provider.LineCast))
	})

	t.Run("occluded by another agent", func(t *testing.T) {
		target := agentAt(2, types.TeamB, 8, 0, 0)
		blocker := agentAt(3, types.TeamA, 4, 0, 0)
		provider := sceneProvider(t, observer, target, blocker)
		assert.False(t, CanObserve(observer, target, params, provider.LineCast))
	})

	t.Run("obstacle does not matter within proximity", func(t *testing.T) {
		target := agentAt(2, types.TeamB, 2, 0, 0)
		provider := sceneProvider(t, observer, target)
		require.NoError(t, provider.AddObstacle(box(1, 0, 0.1, 2)))
		assert.True(t, CanObserve(observer, target, params, provider.LineCast))
	})
}

func TestClassify(t *testing.T) {
	observer := agentAt(1, types.TeamA, 0, 0, 0)
	teammate := agentAt(2, types.TeamA, 5, 5, 0)
	enemy := agentAt(3, types.TeamB, 5, 5, 0)

	assert.Equal(t, VisibilityVisible, Classify(observer, enemy, true))
	assert.Equal(t, VisibilityVisible, Classify(observer, teammate, true))
	assert.Equal(t, VisibilityOutline, Classify(observer, teammate, false))
	assert.Equal(t, VisibilityOccluded, Classify(observer, enemy, false))
}

func TestPerceiveOccludedTargetIsAllZero(t *testing.T) {
	params := DefaultPerceptionParams()
	observer := agentAt(1, types.TeamA, 0, 0, 0)
	target := agentAt(2, types.TeamB, -8, 3, 1)
	target.Velocity = vector.MakeVector2(2, 1)
	target.Cooldown = 1

	provider := sceneProvider(t, observer, target)
	class := Classify(observer, target, CanObserve(observer, target, params, provider.LineCast))
	require.Equal(t, VisibilityOccluded, class)

	assert.Equal(t, TargetVector{}, Perceive(observer, target, class, testNormalization()))

	norm := testNormalization()
	norm.RevealOccludedPositions = true

	var expected TargetVector
	expected[0], expected[1] = -8/18.5, 3/18.5
	v := Perceive(observer, target, class, norm)
	assert.InDeltaSlice(t, expected[:], v[:], 1e-9)
}

func TestPerceiveOutline(t *testing.T) {
	observer := agentAt(1, types.TeamA, 0, 0, 0)
	teammate := agentAt(2, types.TeamA, -9.25, 0, math.Pi/2)
	teammate.Velocity = vector.MakeVector2(0, -2.5)
	teammate.AngularVelocity = 1
	teammate.Cooldown = 3

	v := Perceive(observer, teammate, VisibilityOutline, testNormalization())

	assert.InDelta(t, -0.5, v[0], 1e-9)
	assert.InDelta(t, 0.0, v[1], 1e-9)
	assert.InDelta(t, 2*(9.25-1)/(12-0.5)-1, v[2], 1e-9)
	assert.InDelta(t, -1.0, v[3], 1e-9)
	assert.InDelta(t, 0.0, v[4], 1e-9)
	assert.InDelta(t, 0.0, v[5], 1e-9)
	assert.InDelta(t, -1.0, v[6], 1e-9)
	assert.InDelta(t, 0.5, v[7], 1e-9)
	assert.Equal(t, 1.0, v[8], "teammate flag")

	for i := 9; i < TargetVectorSize; i++ {
		assert.Equal(t, 0.0, v[i], "outline hides forward, turn rate and cooldown (slot %d)", i)
	}
}

func TestPerceiveVisible(t *testing.T) {
	observer := agentAt(1, types.TeamA, 0, 0, 0)
	enemy := agentAt(2, types.TeamB, 6, 6, math.Pi/4)
	enemy.AngularVelocity = -2 * math.Pi // -360 deg/s
	enemy.Cooldown = 1.5

	v := Perceive(observer, enemy, VisibilityVisible, testNormalization())

	assert.Equal(t, -1.0, v[8], "enemy flag")
	assert.InDelta(t, 1.0, v[3], 1e-9, "diagonal displacement lands on the square corner")
	assert.InDelta(t, 1.0, v[4], 1e-9)
	assert.InDelta(t, 1.0, v[9], 1e-9)
	assert.InDelta(t, 1.0, v[10], 1e-9)
	assert.Equal(t, -1.0, v[11], "turn rate is clamped")
	assert.InDelta(t, 0.0, v[12], 1e-9)

	for i, value := range v {
		assert.True(t, value >= -1 && value <= 1, "slot %d out of range: %v", i, value)
	}
}

func TestEncodeSelf(t *testing.T) {
	state := agentAt(1, types.TeamA, 37, -9.25, math.Pi)
	state.Velocity = vector.MakeVector2(10, 0)
	state.AngularVelocity = math.Pi / 2
	state.Ammo = 15
	state.Spread = 9
	state.Cooldown = 0

	v := EncodeSelf(state, testNormalization())

	assert.Equal(t, 1.0, v[0], "position is clamped to the map bounds")
	assert.InDelta(t, -0.5, v[1], 1e-9)
	assert.InDelta(t, -1.0, v[2], 1e-9)
	assert.InDelta(t, 0.0, v[3], 1e-9)
	assert.InDelta(t, 1.0, v[4], 1e-9)
	assert.InDelta(t, 0.0, v[5], 1e-9)
	assert.Equal(t, 1.0, v[6], "speed is clamped")
	assert.InDelta(t, 90.0/330.0, v[7], 1e-9)
	assert.InDelta(t, 0.0, v[8], 1e-9, "half ammo")
	assert.InDelta(t, 0.0, v[9], 1e-9, "half spread")
	assert.Equal(t, -1.0, v[10], "ready weapon")
}
