package skirmish

// systemPerception recomputes every agent's observation from a single snapshot of the roster
func systemPerception(game *SkirmishGame) {
	states := game.AgentStates()
	norm := game.Normalization()
	params := game.config.Perception

	for i, observer := range states {
		qr := game.getEntity(observer.ID, game.perceptionComponent)
		if qr == nil {
			continue
		}

		perceptionAspect := game.CastPerception(qr.Components[game.perceptionComponent])
		perceptionAspect.SetObservation(computeAgentObservation(game, states, i, params, norm))
	}
}

func computeAgentObservation(game *SkirmishGame, states []AgentState, observerIndex int, params PerceptionParams, norm Normalization) Observation {
	observer := states[observerIndex]

	observation := Observation{
		ID:       observer.ID,
		PlayerID: observer.PlayerID,
		Team:     observer.Team,
		Active:   observer.Active,
		Self:     EncodeSelf(observer, norm),
		Targets:  make([]TargetVector, 0, len(states)-1),
		Classes:  make([]VisibilityClass, 0, len(states)-1),
	}

	for i, target := range states {
		if i == observerIndex || !target.Active {
			continue // one does not observe itself, nor agents out of the episode
		}

		class := Classify(observer, target, CanObserve(observer, target, params, game.provider.LineCast))
		observation.Targets = append(observation.Targets, Perceive(observer, target, class, norm))
		observation.Classes = append(observation.Classes, class)
	}

	observation.Rays = CastRays(
		observer.PointAhead(params.EyeOffset),
		observer.Orientation,
		game.config.RaySensor,
		game.provider.RayCast,
	)

	return observation
}
