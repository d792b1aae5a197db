package skirmish

import (
	"github.com/bytearena/skirmish/common/types"
)

type stats struct {
	nbShots   uint
	nbReloads uint
	nbHasHit  uint
}

type Player struct {
	playerID string
	team     types.TeamID
	index    int // within the team

	active bool

	// reward accumulated during the current episode
	reward float64

	Stats stats
}

func (game SkirmishGame) CastPlayer(data interface{}) *Player {
	return data.(*Player)
}

func (p Player) GetPlayerID() string {
	return p.playerID
}

func (p Player) GetTeam() types.TeamID {
	return p.team
}

func (p Player) GetIndex() int {
	return p.index
}

func (p Player) IsActive() bool {
	return p.active
}

func (p Player) GetReward() float64 {
	return p.reward
}

func (p *Player) addReward(reward float64) {
	p.reward += reward
}

func (p *Player) reset() {
	p.active = true
	p.reward = 0
	p.Stats = stats{}
}
