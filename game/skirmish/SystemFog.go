package skirmish

// systemFog reveals the cells swept by the camera agent's perception rays
func systemFog(game *SkirmishGame) {
	_, playerAspect, _, ok := game.getAgent(game.camera)
	if !ok || !playerAspect.IsActive() {
		return
	}

	game.fog.RevealAlongRays(game.Observe(game.camera).Rays)
}
