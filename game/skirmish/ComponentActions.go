package skirmish

// Actions buffers the controller input until the next tick consumes it.
// Only the goroutine stepping the game touches it.
type Actions struct {
	pending []Action
	current Action
}

func NewActions() *Actions {
	return &Actions{}
}

func (game SkirmishGame) CastActions(data interface{}) *Actions {
	return data.(*Actions)
}

func (actions *Actions) PushAction(action Action) {
	actions.pending = append(actions.pending, action)
}

func (actions *Actions) PopPendingActions() []Action {
	res := actions.pending
	actions.pending = make([]Action, 0)

	return res
}

// GetCurrent is the action applied during the last tick
func (actions *Actions) GetCurrent() Action {
	return actions.current
}

func (actions *Actions) setCurrent(action Action) {
	actions.current = action
}

func (actions *Actions) clear() {
	actions.pending = make([]Action, 0)
	actions.current = Action{}
}
