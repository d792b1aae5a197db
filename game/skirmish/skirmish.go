package skirmish

import (
	"math/rand"
	"time"

	"github.com/bytearena/ecs"
	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/types/mapcontainer"
	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/game/physics"
)

// SkirmishGame is the two-team simulation. It is not safe for concurrent use: every call happens on the tick goroutine.
type SkirmishGame struct {
	ticknum int

	config   Config
	arena    *mapcontainer.MapContainer
	provider physics.Provider
	rng      *rand.Rand
	manager  *ecs.Manager

	physicalBodyComponent *ecs.Component
	playerComponent       *ecs.Component
	weaponComponent       *ecs.Component
	perceptionComponent   *ecs.Component
	actionsComponent      *ecs.Component

	steeringView *ecs.View

	roster  *Roster
	fog     *VisibilityGrid
	camera  ecs.EntityID
	episode Episode
	log     *SkirmishGameLog

	ammoListener func(ammo int)
}

type Option func(game *SkirmishGame)

// WithRand replaces the seeded random source driving spawns and bullet spread
func WithRand(rng *rand.Rand) Option {
	return func(game *SkirmishGame) {
		game.rng = rng
	}
}

// WithAmmoListener is notified whenever the camera agent's ammo changes
func WithAmmoListener(listener func(ammo int)) Option {
	return func(game *SkirmishGame) {
		game.ammoListener = listener
	}
}

func NewSkirmishGame(config Config, arena *mapcontainer.MapContainer, provider physics.Provider, opts ...Option) (*SkirmishGame, error) {
	if provider == nil {
		return nil, ErrMissingPhysics
	}

	if arena == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "no arena map")
	}

	if err := arena.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	manager := ecs.NewManager()

	game := &SkirmishGame{
		config:   config,
		arena:    arena,
		provider: provider,
		manager:  manager,

		physicalBodyComponent: manager.NewComponent(),
		playerComponent:       manager.NewComponent(),
		weaponComponent:       manager.NewComponent(),
		perceptionComponent:   manager.NewComponent(),
		actionsComponent:      manager.NewComponent(),

		roster: newRoster(),
		fog:    NewVisibilityGrid(arena.FogGridExtent()),
		log:    NewSkirmishGameLog(),
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	game.rng = rand.New(rand.NewSource(seed))

	for _, opt := range opts {
		opt(game)
	}

	game.steeringView = manager.CreateView(
		game.actionsComponent,
		game.weaponComponent,
		game.physicalBodyComponent,
		game.playerComponent,
	)

	for _, obstacle := range arena.AllObstacles() {
		if err := game.NewEntityObstacle(obstacle); err != nil {
			return nil, errors.Wrap(ErrInvalidConfig, err.Error())
		}
	}

	for _, team := range []types.TeamID{types.TeamA, types.TeamB} {
		for i := 0; i < config.TeamSizes[team]; i++ {
			if _, err := game.NewEntityAgent(team, i); err != nil {
				return nil, err
			}
		}
	}

	camera, _ := game.roster.Member(config.CameraTarget.Team, config.CameraTarget.Index)
	game.camera = camera

	if err := game.Reset(); err != nil {
		return nil, err
	}

	return game, nil
}

func (game SkirmishGame) getEntity(id ecs.EntityID, tagelements ...interface{}) *ecs.QueryResult {
	return game.manager.GetEntityByID(id, tagelements...)
}

func (game *SkirmishGame) getAgent(id ecs.EntityID) (*PhysicalBody, *Player, *Weapon, bool) {
	qr := game.getEntity(id,
		game.physicalBodyComponent,
		game.playerComponent,
		game.weaponComponent,
	)

	if qr == nil {
		return nil, nil, nil, false
	}

	return game.CastPhysicalBody(qr.Components[game.physicalBodyComponent]),
		game.CastPlayer(qr.Components[game.playerComponent]),
		game.CastWeapon(qr.Components[game.weaponComponent]),
		true
}

func (game *SkirmishGame) GetTick() int {
	return game.ticknum
}

func (game *SkirmishGame) GetConfig() Config {
	return game.config
}

func (game *SkirmishGame) GetArena() *mapcontainer.MapContainer {
	return game.arena
}

func (game *SkirmishGame) Roster() *Roster {
	return game.roster
}

func (game *SkirmishGame) Team(team types.TeamID) *Team {
	return game.roster.Team(team)
}

// Fog is the camera agent's fog of war
func (game *SkirmishGame) Fog() *VisibilityGrid {
	return game.fog
}

// Camera returns the agent selected by the camera target
func (game *SkirmishGame) Camera() ecs.EntityID {
	return game.camera
}

func (game *SkirmishGame) Episode() Episode {
	return game.episode
}

// Normalization returns the constants used to encode observations
func (game *SkirmishGame) Normalization() Normalization {
	return Normalization{
		Bounds:           game.arena.Data.Bounds,
		PerceptionRadius: game.config.Perception.Radius,
		EyeOffset:        game.config.Perception.EyeOffset,
		MaxRunSpeed:      game.config.Motion.MaxRunSpeed,
		MaxTurnSpeed:     game.config.Motion.MaxTurnSpeed,
		MaxAmmo:          game.config.Weapon.MaxAmmo,
		MaxSpread:        game.config.Weapon.MaxSpread,
		ReloadCooldown:   game.config.Weapon.ReloadCooldown,

		RevealOccludedPositions: game.config.Perception.RevealOccludedPositions,
	}
}

// AgentState snapshots the agent; unknown ids yield a zero state
func (game *SkirmishGame) AgentState(id ecs.EntityID) AgentState {
	_, playerAspect, weaponAspect, ok := game.getAgent(id)
	if !ok {
		return AgentState{}
	}

	position, orientation := game.provider.GetTransform(id)
	velocity, angularVelocity := game.provider.GetVelocity(id)

	return AgentState{
		ID:              id,
		PlayerID:        playerAspect.GetPlayerID(),
		Team:            playerAspect.GetTeam(),
		Position:        position,
		Orientation:     orientation,
		Velocity:        velocity,
		AngularVelocity: angularVelocity,
		Ammo:            weaponAspect.GetAmmo(),
		Cooldown:        weaponAspect.GetCooldown(),
		Spread:          weaponAspect.GetSpread(),
		Active:          playerAspect.IsActive(),
	}
}

// AgentStates snapshots the whole roster, in roster order
func (game *SkirmishGame) AgentStates() []AgentState {
	states := make([]AgentState, 0, game.roster.Len())
	for _, id := range game.roster.agents {
		states = append(states, game.AgentState(id))
	}

	return states
}

func (game *SkirmishGame) ActionMask(id ecs.EntityID) ActionMask {
	_, _, weaponAspect, ok := game.getAgent(id)
	if !ok {
		return ActionMask{}
	}

	return MakeActionMask(weaponAspect)
}

// QueueActions buffers an action for the agent's next tick; the last queued action wins
func (game *SkirmishGame) QueueActions(id ecs.EntityID, action Action) error {
	qr := game.getEntity(id, game.actionsComponent)
	if qr == nil {
		return errors.Errorf("unknown agent %d", id)
	}

	game.CastActions(qr.Components[game.actionsComponent]).PushAction(action)
	return nil
}

func (game *SkirmishGame) Observe(id ecs.EntityID) Observation {
	qr := game.getEntity(id, game.perceptionComponent)
	if qr == nil {
		return Observation{}
	}

	return game.CastPerception(qr.Components[game.perceptionComponent]).GetObservation()
}

// ObserveAll returns every agent's observation in roster order, inactive agents included
func (game *SkirmishGame) ObserveAll() []Observation {
	observations := make([]Observation, 0, game.roster.Len())
	for _, id := range game.roster.agents {
		observations = append(observations, game.Observe(id))
	}

	return observations
}

// Step advances the simulation by one tick. An unknown agent id rejects the whole tick and leaves the game untouched.
func (game *SkirmishGame) Step(actions map[ecs.EntityID]Action) (StepResult, error) {
	for id := range actions {
		if !game.roster.Contains(id) {
			return StepResult{}, errors.Errorf("unknown agent %d", id)
		}
	}

	game.ticknum++
	game.episode.Steps++

	for id, action := range actions {
		if err := game.QueueActions(id, action); err != nil {
			return StepResult{}, err
		}
	}

	result := StepResult{
		Tick:    game.ticknum,
		Rewards: make(map[ecs.EntityID]float64),
	}

	///////////////////////////////////////////////////////////////////////////
	// Every active agent consumes its input, then steers and handles its weapon
	///////////////////////////////////////////////////////////////////////////
	systemActions(game)
	systemSteering(game)
	systemWeapon(game, &result)

	///////////////////////////////////////////////////////////////////////////
	// Integration happens once all agents have acted
	///////////////////////////////////////////////////////////////////////////
	systemPhysics(game)

	systemPerception(game)
	systemFog(game)

	result.Events = game.log.Flush()

	///////////////////////////////////////////////////////////////////////////
	// Termination is checked last, on the post-tick state
	///////////////////////////////////////////////////////////////////////////
	end := systemEpisode(game, &result)
	result.Episode = game.episode.ID
	result.States = game.AgentStates()
	result.Observations = game.ObserveAll()

	if end != EpisodeRunning {
		if err := game.Reset(); err != nil {
			return result, err
		}

		result.Reset = true
	}

	return result, nil
}

func systemPhysics(game *SkirmishGame) {
	game.provider.Step(game.config.TickDuration)
}

func (game *SkirmishGame) notifyAmmo(id ecs.EntityID, ammo int) {
	if game.ammoListener != nil && id == game.camera {
		game.ammoListener(ammo)
	}
}

func (game *SkirmishGame) logDebug(message string) {
	utils.Debug("skirmish", message)
}
