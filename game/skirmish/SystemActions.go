package skirmish

// systemActions makes the last queued action of every agent current; agents without input keep still
func systemActions(game *SkirmishGame) {
	for _, id := range game.roster.agents {
		qr := game.getEntity(id, game.actionsComponent, game.playerComponent)
		if qr == nil {
			continue
		}

		actionsAspect := game.CastActions(qr.Components[game.actionsComponent])
		playerAspect := game.CastPlayer(qr.Components[game.playerComponent])

		pending := actionsAspect.PopPendingActions()
		if !playerAspect.IsActive() || len(pending) == 0 {
			actionsAspect.setCurrent(Action{})
			continue
		}

		actionsAspect.setCurrent(pending[len(pending)-1].Sanitize())
	}
}
