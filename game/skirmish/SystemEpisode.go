package skirmish

import (
	"fmt"

	uuid "github.com/satori/go.uuid"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils"
)

// systemEpisode checks, after every agent has acted, whether the episode ends.
// Elimination of team A takes precedence over elimination of team B, which takes precedence over the timeout.
func systemEpisode(game *SkirmishGame, result *StepResult) EpisodeEnd {
	teamA := game.roster.Team(types.TeamA)
	teamB := game.roster.Team(types.TeamB)

	end := EpisodeRunning

	if teamA.ActiveCount() == 0 {
		end = EpisodeTeamAEliminated
		result.TeamRewards = [2]float64{-1, 1}
	} else if teamB.ActiveCount() == 0 {
		end = EpisodeTeamBEliminated
		result.TeamRewards = [2]float64{1, -1}
	} else {
		game.episode.timer++
		if maxSteps := game.config.MaxEnvironmentSteps; maxSteps > 0 && game.episode.timer > maxSteps {
			end = EpisodeInterrupted
		}
	}

	if end == EpisodeRunning {
		return end
	}

	teamA.addReward(result.TeamRewards[types.TeamA])
	teamB.addReward(result.TeamRewards[types.TeamB])

	result.Cause = end
	result.Signals = end.Signals()
	result.Summary = game.summarize(end)

	utils.Logger().Info().
		Str("service", "skirmish").
		Str("episode", game.episode.ID.String()).
		Int("number", game.episode.Number).
		Int("steps", game.episode.Steps).
		Stringer("cause", end).
		Msg("episode ended")

	return end
}

func (game *SkirmishGame) summarize(end EpisodeEnd) *EpisodeSummary {
	summary := &EpisodeSummary{
		Episode: game.episode,
		Cause:   end,
		TeamRewards: [2]float64{
			game.roster.Team(types.TeamA).Reward(),
			game.roster.Team(types.TeamB).Reward(),
		},
		AgentRewards: make(map[string]float64),
	}

	for _, id := range game.roster.agents {
		_, playerAspect, _, ok := game.getAgent(id)
		if !ok {
			continue
		}

		summary.AgentRewards[playerAspect.GetPlayerID()] = playerAspect.GetReward()
		summary.Hits += int(playerAspect.Stats.nbHasHit)
		summary.Shots += int(playerAspect.Stats.nbShots)
		summary.Reloads += int(playerAspect.Stats.nbReloads)
	}

	return summary
}

// Reset starts a new episode: every agent respawns fully armed and active, and the fog is hidden again.
// Calling it twice in a row leaves the same invariant state.
func (game *SkirmishGame) Reset() error {
	game.episode = Episode{
		ID:     uuid.NewV4(),
		Number: game.episode.Number + 1,
	}

	for _, id := range game.roster.agents {
		physicalAspect, playerAspect, weaponAspect, ok := game.getAgent(id)
		if !ok {
			continue
		}

		playerAspect.reset()
		weaponAspect.Reset()
		physicalAspect.SetEnabled(true)

		if qr := game.getEntity(id, game.actionsComponent); qr != nil {
			game.CastActions(qr.Components[game.actionsComponent]).clear()
		}

		if err := game.spawn(physicalAspect, playerAspect.GetTeam()); err != nil {
			return err
		}

		physicalAspect.Stop()
		game.notifyAmmo(id, weaponAspect.GetAmmo())
	}

	game.roster.Team(types.TeamA).reset()
	game.roster.Team(types.TeamB).reset()
	game.fog.Reset()

	systemPerception(game)

	game.logDebug(fmt.Sprintf("episode %d (%s) reset", game.episode.Number, game.episode.ID))
	return nil
}
