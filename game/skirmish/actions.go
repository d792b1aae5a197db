package skirmish

import (
	"math"

	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/vector"
)

// Action is the per-tick controller input of one agent
type Action struct {
	Aim    vector.Vector2 `json:"aim"`  // world-space aim direction, components within [-1, 1]; null means no turn
	Move   vector.Vector2 `json:"move"` // each axis in {-1, 0, 1}
	Fire   bool           `json:"fire"`
	Reload bool           `json:"reload"`
}

// Sanitize clamps the aim components and snaps the move axes to {-1, 0, 1}
func (a Action) Sanitize() Action {
	a.Aim = vector.MakeVector2(
		number.Clamp11(nanToZero(a.Aim.GetX())),
		number.Clamp11(nanToZero(a.Aim.GetY())),
	)
	a.Move = vector.MakeVector2(trinary(a.Move.GetX()), trinary(a.Move.GetY()))
	return a
}

func trinary(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}

	return number.Clamp(math.Round(f), -1, 1)
}

// Discrete action branches
const (
	BranchMoveX = iota
	BranchMoveY
	BranchFire
	BranchReload
)

// ActionBuffers is the flat action layout exchanged with policies: two continuous aim axes, four discrete branches
type ActionBuffers struct {
	Continuous [2]float64 `json:"continuous"`
	Discrete   [4]int     `json:"discrete"`
}

var branchSizes = [4]int{3, 3, 2, 2}

// DecodeActionBuffers clamps every value to its branch range; move branches map 0, 1, 2 to -1, 0, 1
func DecodeActionBuffers(buffers ActionBuffers) Action {
	discrete := buffers.Discrete
	for branch, size := range branchSizes {
		discrete[branch] = number.ClampInt(discrete[branch], 0, size-1)
	}

	return Action{
		Aim: vector.MakeVector2(
			number.Clamp11(nanToZero(buffers.Continuous[0])),
			number.Clamp11(nanToZero(buffers.Continuous[1])),
		),
		Move: vector.MakeVector2(
			float64(discrete[BranchMoveX]-1),
			float64(discrete[BranchMoveY]-1),
		),
		Fire:   discrete[BranchFire] == 1,
		Reload: discrete[BranchReload] == 1,
	}
}

// Buffers is the inverse of DecodeActionBuffers for sanitized actions
func (a Action) Buffers() ActionBuffers {
	a = a.Sanitize()

	buffers := ActionBuffers{}
	buffers.Continuous[0], buffers.Continuous[1] = a.Aim.Get()
	buffers.Discrete[BranchMoveX] = int(a.Move.GetX()) + 1
	buffers.Discrete[BranchMoveY] = int(a.Move.GetY()) + 1
	if a.Fire {
		buffers.Discrete[BranchFire] = 1
	}

	if a.Reload {
		buffers.Discrete[BranchReload] = 1
	}

	return buffers
}

func nanToZero(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}

	return f
}

// ActionMask tells which discrete weapon actions are currently meaningful
type ActionMask struct {
	Fire   bool `json:"fire"`
	Reload bool `json:"reload"`
}

func MakeActionMask(weapon *Weapon) ActionMask {
	return ActionMask{
		Fire:   weapon.IsReady() && weapon.GetAmmo() > 0,
		Reload: weapon.IsReady() && weapon.GetAmmo() < weapon.GetSpecs().MaxAmmo,
	}
}

// Apply drops the masked weapon inputs from the action
func (m ActionMask) Apply(action Action) Action {
	action.Fire = action.Fire && m.Fire
	action.Reload = action.Reload && m.Reload
	return action
}
