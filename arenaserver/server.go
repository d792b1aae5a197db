package arenaserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	notify "github.com/bitly/go-notify"
	"github.com/bytearena/ecs"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/bytearena/skirmish/arenatrainer"
	"github.com/bytearena/skirmish/common/healthcheck"
	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/game/skirmish"
)

const service = "server"

type clientAction struct {
	id     ecs.EntityID
	tick   int
	action skirmish.Action
}

type AgentStatus struct {
	PlayerID  string       `json:"playerid"`
	Team      types.TeamID `json:"team"`
	Connected bool         `json:"connected"`
	Active    bool         `json:"active"`
}

type Status struct {
	Tick      int           `json:"tick"`
	Episode   int           `json:"episode"`
	EpisodeID uuid.UUID     `json:"episodeid"`
	Agents    []AgentStatus `json:"agents"`
}

// Server steps one game in lock-step with the remote controllers attached over websocket.
// Agents nobody controls are driven by the fallback policy.
type Server struct {
	game          *skirmish.SkirmishGame
	fallback      arenatrainer.Policy
	actionTimeout time.Duration
	tickInterval  time.Duration

	// immutable once built
	players map[string]ecs.EntityID

	controllersMutex sync.Mutex
	controllers      map[ecs.EntityID]*controller

	incoming chan clientAction
	stop     chan struct{}
	stopOnce sync.Once

	// only touched by the tick loop
	rewards map[ecs.EntityID]float64
	turn    utils.Tickturn

	statusMutex sync.RWMutex
	status      Status

	upgrader websocket.Upgrader
	health   *healthcheck.HealthCheck
}

type Option func(server *Server)

// WithHealthCheck serves the checker on /health
func WithHealthCheck(health *healthcheck.HealthCheck) Option {
	return func(server *Server) {
		server.health = health
	}
}

// WithTickInterval paces the loop; zero steps as fast as the controllers answer
func WithTickInterval(interval time.Duration) Option {
	return func(server *Server) {
		server.tickInterval = interval
	}
}

func NewServer(game *skirmish.SkirmishGame, fallback arenatrainer.Policy, actionTimeout time.Duration, opts ...Option) *Server {
	if fallback == nil {
		fallback = arenatrainer.Idle
	}

	server := &Server{
		game:          game,
		fallback:      fallback,
		actionTimeout: actionTimeout,
		players:       make(map[string]ecs.EntityID),
		controllers:   make(map[ecs.EntityID]*controller),
		incoming:      make(chan clientAction, 4*game.Roster().Len()),
		stop:          make(chan struct{}),
		rewards:       make(map[ecs.EntityID]float64),
		turn:          utils.MakeTickturn(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(server)
	}

	states := game.AgentStates()
	for _, state := range states {
		server.players[state.PlayerID] = state.ID
	}

	server.setStatus(game.GetTick(), game.Episode(), states)

	return server
}

// Run ticks until the context is cancelled or the game fails
func (s *Server) Run(ctx context.Context) error {
	defer s.Stop()

	var pace <-chan time.Time
	if s.tickInterval > 0 {
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		if _, err := s.Tick(ctx); err != nil {
			return err
		}
	}
}

// Stop disconnects the controllers; the server cannot be restarted
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Tick sends the current observations, waits for the controllers' actions and steps the game
func (s *Server) Tick(ctx context.Context) (skirmish.StepResult, error) {
	s.turn = s.turn.Next()
	tick := s.game.GetTick() + 1

	connected := s.connected()
	actions := make(map[ecs.EntityID]skirmish.Action)
	waiting := make(map[ecs.EntityID]bool)

	for _, observation := range s.game.ObserveAll() {
		if !observation.Active {
			continue
		}

		mask := s.game.ActionMask(observation.ID)

		if c, ok := connected[observation.ID]; ok {
			sent := c.send(ServerMessage{
				Type:        MessageObservation,
				Tick:        tick,
				Observation: observation,
				Mask:        mask,
				Reward:      s.rewards[observation.ID],
			})

			if sent {
				delete(s.rewards, observation.ID)
				waiting[observation.ID] = true
				continue
			}
		}

		actions[observation.ID] = s.fallback.Act(observation, mask)
	}

	s.collectActions(ctx, tick, waiting, actions)

	result, err := s.game.Step(actions)
	if err != nil {
		return result, errors.Wrapf(err, "could not step %s", s.turn)
	}

	for id, reward := range result.Rewards {
		s.rewards[id] += reward
	}

	s.publish(EventFrame, skirmish.MakeFrame(result, actions))

	if result.Summary != nil {
		s.terminate(result, connected)
		s.publish(EventEpisode, *result.Summary)

		if f, ok := s.fallback.(interface{ Forget() }); ok {
			f.Forget()
		}

		utils.Logger().Debug().
			Str("service", service).
			Stringer("turn", s.turn).
			Int("episode", result.Summary.Number).
			Msg("controllers notified of the episode end")
	}

	s.setStatus(s.game.GetTick(), s.game.Episode(), s.game.AgentStates())

	return result, nil
}

// collectActions waits for every agent in waiting until the action timeout; latecomers keep still
func (s *Server) collectActions(ctx context.Context, tick int, waiting map[ecs.EntityID]bool, actions map[ecs.EntityID]skirmish.Action) {
	if len(waiting) == 0 {
		return
	}

	timer := time.NewTimer(s.actionTimeout)
	defer timer.Stop()

	for len(waiting) > 0 {
		select {
		case incoming := <-s.incoming:
			if incoming.tick != tick || !waiting[incoming.id] {
				utils.Debug(service, "dropping stale action")
				continue
			}

			actions[incoming.id] = incoming.action
			delete(waiting, incoming.id)

		case <-timer.C:
			for id := range waiting {
				utils.Logger().Warn().
					Str("service", service).
					Int("tick", tick).
					Uint32("agent", uint32(id)).
					Msg("no action before timeout")

				actions[id] = skirmish.Action{}
			}
			return

		case <-ctx.Done():
			for id := range waiting {
				actions[id] = skirmish.Action{}
			}
			return
		}
	}
}

// terminate sends every controller the observation that ended its episode and the remaining reward
func (s *Server) terminate(result skirmish.StepResult, connected map[ecs.EntityID]*controller) {
	for i, state := range result.States {
		c, ok := connected[state.ID]
		if !ok || i >= len(result.Observations) {
			continue
		}

		c.send(ServerMessage{
			Type:        MessageTerminal,
			Tick:        result.Tick,
			Observation: result.Observations[i],
			Reward:      s.rewards[state.ID],
			Signal:      result.Signals[state.Team],
		})
	}

	s.rewards = make(map[ecs.EntityID]float64)
}

func (s *Server) publish(event string, data interface{}) {
	// fails when nobody listens
	_ = notify.PostTimeout(event, data, time.Millisecond)
}

func (s *Server) connected() map[ecs.EntityID]*controller {
	s.controllersMutex.Lock()
	defer s.controllersMutex.Unlock()

	res := make(map[ecs.EntityID]*controller, len(s.controllers))
	for id, c := range s.controllers {
		res[id] = c
	}

	return res
}

func (s *Server) register(c *controller) bool {
	s.controllersMutex.Lock()
	defer s.controllersMutex.Unlock()

	if _, ok := s.controllers[c.id]; ok {
		return false
	}

	s.controllers[c.id] = c
	return true
}

func (s *Server) unregister(c *controller) {
	s.controllersMutex.Lock()
	defer s.controllersMutex.Unlock()

	if s.controllers[c.id] == c {
		delete(s.controllers, c.id)
	}
}

func (s *Server) setStatus(tick int, episode skirmish.Episode, states []skirmish.AgentState) {
	agents := make([]AgentStatus, len(states))
	for i, state := range states {
		agents[i] = AgentStatus{
			PlayerID: state.PlayerID,
			Team:     state.Team,
			Active:   state.Active,
		}
	}

	s.statusMutex.Lock()
	s.status = Status{
		Tick:      tick,
		Episode:   episode.Number,
		EpisodeID: episode.ID,
		Agents:    agents,
	}
	s.statusMutex.Unlock()
}

// GetStatus describes the last completed tick
func (s *Server) GetStatus() Status {
	s.statusMutex.RLock()
	status := s.status
	agents := make([]AgentStatus, len(status.Agents))
	copy(agents, status.Agents)
	s.statusMutex.RUnlock()

	connected := s.connected()
	for i, agent := range agents {
		_, agents[i].Connected = connected[s.players[agent.PlayerID]]
	}

	status.Agents = agents
	return status
}
