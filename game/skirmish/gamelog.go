package skirmish

import (
	"github.com/bytearena/ecs"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/bytearena/skirmish/common/types"
)

// TerminalSignal is what a team's training consumer is told at the end of a tick
type TerminalSignal int

const (
	SignalNone TerminalSignal = iota
	SignalWon
	SignalLost
	SignalInterrupted
)

func (s TerminalSignal) String() string {
	switch s {
	case SignalWon:
		return "won"
	case SignalLost:
		return "lost"
	case SignalInterrupted:
		return "interrupted"
	}

	return "none"
}

func (s TerminalSignal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TerminalSignal) UnmarshalText(text []byte) error {
	for _, candidate := range []TerminalSignal{SignalNone, SignalWon, SignalLost, SignalInterrupted} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}

	return errors.Errorf("unknown terminal signal %q", text)
}

// IsTerminal distinguishes termination (win, loss) from truncation (interruption)
func (s TerminalSignal) IsTerminal() bool {
	return s == SignalWon || s == SignalLost
}

// EpisodeEnd names the cause of an episode end; exactly one holds per ended episode
type EpisodeEnd int

const (
	EpisodeRunning EpisodeEnd = iota
	EpisodeTeamAEliminated
	EpisodeTeamBEliminated
	EpisodeInterrupted
)

func (e EpisodeEnd) String() string {
	switch e {
	case EpisodeTeamAEliminated:
		return "teamA-eliminated"
	case EpisodeTeamBEliminated:
		return "teamB-eliminated"
	case EpisodeInterrupted:
		return "interrupted"
	}

	return "running"
}

func (e EpisodeEnd) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EpisodeEnd) UnmarshalText(text []byte) error {
	for _, candidate := range []EpisodeEnd{EpisodeRunning, EpisodeTeamAEliminated, EpisodeTeamBEliminated, EpisodeInterrupted} {
		if candidate.String() == string(text) {
			*e = candidate
			return nil
		}
	}

	return errors.Errorf("unknown episode end %q", text)
}

// Winner returns the surviving team when the episode ended by elimination
func (e EpisodeEnd) Winner() (types.TeamID, bool) {
	switch e {
	case EpisodeTeamAEliminated:
		return types.TeamB, true
	case EpisodeTeamBEliminated:
		return types.TeamA, true
	}

	return 0, false
}

// Signals maps the cause to each team's terminal signal
func (e EpisodeEnd) Signals() [2]TerminalSignal {
	switch e {
	case EpisodeTeamAEliminated:
		return [2]TerminalSignal{SignalLost, SignalWon}
	case EpisodeTeamBEliminated:
		return [2]TerminalSignal{SignalWon, SignalLost}
	case EpisodeInterrupted:
		return [2]TerminalSignal{SignalInterrupted, SignalInterrupted}
	}

	return [2]TerminalSignal{SignalNone, SignalNone}
}

// HitEvent records a shot that struck an agent
type HitEvent struct {
	Tick           int          `json:"tick"`
	Firer          ecs.EntityID `json:"firer"`
	FirerPlayerID  string       `json:"firerplayerid"`
	Target         ecs.EntityID `json:"target"`
	TargetPlayerID string       `json:"targetplayerid"`
	SameTeam       bool         `json:"sameteam"`
	Reward         float64      `json:"reward"`
}

type SkirmishGameLog struct {
	entries []HitEvent
}

func NewSkirmishGameLog() *SkirmishGameLog {
	return &SkirmishGameLog{
		entries: make([]HitEvent, 0),
	}
}

func (l *SkirmishGameLog) AddEntry(entry HitEvent) {
	l.entries = append(l.entries, entry)
}

// Flush returns the entries logged since the previous flush
func (l *SkirmishGameLog) Flush() []HitEvent {
	res := l.entries
	l.entries = make([]HitEvent, 0)
	return res
}

// Episode identifies the run between two resets
type Episode struct {
	ID     uuid.UUID `json:"id"`
	Number int       `json:"number"`
	Steps  int       `json:"steps"`

	// counts the ticks that reached the timeout check
	timer int
}

// EpisodeSummary is reported once, on the tick an episode ends
type EpisodeSummary struct {
	Episode
	Cause        EpisodeEnd         `json:"cause"`
	TeamRewards  [2]float64         `json:"teamrewards"`
	AgentRewards map[string]float64 `json:"agentrewards"` // by player id
	Hits         int                `json:"hits"`
	Shots        int                `json:"shots"`
	Reloads      int                `json:"reloads"`
}

// StepResult is everything the outside world learns from one tick
type StepResult struct {
	Episode      uuid.UUID                `json:"episode"`
	Tick         int                      `json:"tick"`
	Rewards      map[ecs.EntityID]float64 `json:"rewards"`
	TeamRewards  [2]float64               `json:"teamrewards"`
	Signals      [2]TerminalSignal        `json:"signals"`
	Cause        EpisodeEnd               `json:"cause"`
	Events       []HitEvent               `json:"events"`
	States       []AgentState             `json:"states"`
	Observations []Observation            `json:"observations"`

	// true when the episode ended and the game was reset after computing Observations
	Reset   bool            `json:"reset"`
	Summary *EpisodeSummary `json:"summary,omitempty"`
}

func (r StepResult) IsEpisodeEnd() bool {
	return r.Cause != EpisodeRunning
}
