package skirmish

import (
	"fmt"

	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/types"
)

// Team membership is fixed once the roster is assembled; only the active count and the reward accumulator change
type Team struct {
	id          types.TeamID
	members     []ecs.EntityID
	activeCount int
	reward      float64
}

func (t Team) GetID() types.TeamID {
	return t.id
}

func (t Team) Members() []ecs.EntityID {
	return append([]ecs.EntityID(nil), t.members...)
}

func (t Team) Size() int {
	return len(t.members)
}

func (t Team) ActiveCount() int {
	return t.activeCount
}

// Reward is the group reward accumulated during the current episode
func (t Team) Reward() float64 {
	return t.reward
}

func (t *Team) addReward(reward float64) {
	t.reward += reward
}

func (t *Team) memberDeactivated() {
	if t.activeCount > 0 {
		t.activeCount--
	}
}

func (t *Team) reset() {
	t.activeCount = len(t.members)
	t.reward = 0
}

// Roster lists every agent once, team A first, in creation order
type Roster struct {
	agents []ecs.EntityID
	index  map[ecs.EntityID]int
	teams  [2]*Team
}

func newRoster() *Roster {
	return &Roster{
		index: make(map[ecs.EntityID]int),
		teams: [2]*Team{
			{id: types.TeamA},
			{id: types.TeamB},
		},
	}
}

func (r *Roster) add(id ecs.EntityID, team types.TeamID) {
	r.index[id] = len(r.agents)
	r.agents = append(r.agents, id)
	r.teams[team].members = append(r.teams[team].members, id)
	r.teams[team].activeCount++
}

func (r *Roster) Agents() []ecs.EntityID {
	return append([]ecs.EntityID(nil), r.agents...)
}

func (r *Roster) Len() int {
	return len(r.agents)
}

func (r *Roster) Contains(id ecs.EntityID) bool {
	_, ok := r.index[id]
	return ok
}

// IndexOf returns the agent's position in roster order, or -1
func (r *Roster) IndexOf(id ecs.EntityID) int {
	if i, ok := r.index[id]; ok {
		return i
	}

	return -1
}

func (r *Roster) Team(team types.TeamID) *Team {
	return r.teams[team]
}

// Member returns the index-th agent of the team
func (r *Roster) Member(team types.TeamID, index int) (ecs.EntityID, bool) {
	members := r.teams[team].members
	if index < 0 || index >= len(members) {
		return 0, false
	}

	return members[index], true
}

// PlayerID follows the TeamX_Y naming, X the team and Y the index within it
func PlayerID(team types.TeamID, index int) string {
	return fmt.Sprintf("Team%d_%d", int(team), index)
}
