package arenaserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	notify "github.com/bitly/go-notify"
	"github.com/bytearena/ecs"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bytearena/skirmish/common/utils"
)

// controller is the remote end driving one agent
type controller struct {
	id       ecs.EntityID
	playerID string
	outbox   chan ServerMessage
	done     chan struct{}
}

func newController(id ecs.EntityID, playerID string) *controller {
	return &controller{
		id:       id,
		playerID: playerID,
		outbox:   make(chan ServerMessage, 4),
		done:     make(chan struct{}),
	}
}

// send never blocks the tick loop; a full outbox hands the agent to the fallback policy
func (c *controller) send(msg ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.outbox <- msg:
		return true
	default:
		return false
	}
}

// Handler routes the controller, spectator, status and health endpoints
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/agent/{playerid}", s.handleAgent)
	router.HandleFunc("/spectate", s.handleSpectator)
	router.HandleFunc("/status", s.handleStatus).Methods("GET")

	if s.health != nil {
		router.Handle("/health", s.health).Methods("GET")
	}

	return handlers.CombinedLoggingHandler(utils.Logger(), router)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.GetStatus()); err != nil {
		utils.Logger().Warn().Err(err).Str("service", service).Msg("could not write status")
	}
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerid"]

	id, ok := s.players[playerID]
	if !ok {
		http.Error(w, "unknown player "+playerID, http.StatusNotFound)
		return
	}

	c := newController(id, playerID)
	if !s.register(c) {
		http.Error(w, "player "+playerID+" is already controlled", http.StatusConflict)
		return
	}

	defer s.unregister(c)
	defer close(c.done)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger().Warn().Err(err).Str("service", service).Msg("could not upgrade agent connection")
		return
	}

	defer conn.Close()

	utils.Logger().Info().Str("service", service).Str("player", playerID).Msg("controller connected")

	go s.writeControllerLoop(c, conn)
	s.readControllerLoop(c, conn)

	utils.Logger().Info().Str("service", service).Str("player", playerID).Msg("controller disconnected")
}

func (s *Server) writeControllerLoop(c *controller, conn *websocket.Conn) {
	for {
		select {
		case <-c.done:
			return
		case <-s.stop:
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopped"),
				time.Now().Add(time.Second),
			)
			conn.Close()
			return
		case msg := <-c.outbox:
			if err := conn.WriteJSON(msg); err != nil {
				utils.Logger().Warn().Err(err).Str("service", service).Str("player", c.playerID).Msg("could not send message")
				conn.Close()
				return
			}
		}
	}
}

func (s *Server) readControllerLoop(c *controller, conn *websocket.Conn) {
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.Logger().Warn().Err(err).Str("service", service).Str("player", c.playerID).Msg("controller connection lost")
			}
			return
		}

		if msg.Type != MessageAction {
			utils.Debug(service, "ignoring message of type "+msg.Type)
			continue
		}

		select {
		case s.incoming <- clientAction{id: c.id, tick: msg.Tick, action: msg.Action}:
		case <-s.stop:
			return
		}
	}
}

func (s *Server) handleSpectator(w http.ResponseWriter, r *http.Request) {
	frames := make(chan interface{}, 64)
	episodes := make(chan interface{}, 8)

	notify.Start(EventFrame, frames)
	defer notify.Stop(EventFrame, frames)

	notify.Start(EventEpisode, episodes)
	defer notify.Stop(EventEpisode, episodes)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger().Warn().Err(err).Str("service", service).Msg("could not upgrade spectator connection")
		return
	}

	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	write := func(msgType string, data interface{}) bool {
		return conn.WriteJSON(SpectatorMessage{Type: msgType, Data: data}) == nil
	}

	for {
		select {
		case <-closed:
			return
		case <-s.stop:
			return
		case data := <-frames:
			if !write(MessageFrame, data) {
				return
			}
		case data := <-episodes:
			// the frame ending the episode is posted first
			for drained := false; !drained; {
				select {
				case frame := <-frames:
					if !write(MessageFrame, frame) {
						return
					}
				default:
					drained = true
				}
			}

			if !write(MessageEpisode, data) {
				return
			}
		}
	}
}

// ListenAndServe serves Handler until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.Stop()
		httpServer.Shutdown(shutdownCtx)
	}()

	utils.Logger().Info().Str("service", service).Str("addr", addr).Msg("listening")

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
