package game

import (
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"survivor/internal/config"
)

// Phase is a match state.
type Phase uint8

const (
	PhaseInit Phase = iota
	PhasePreparation
	PhasePlaying
	PhaseResolution
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhasePreparation:
		return "preparation"
	case PhasePlaying:
		return "playing"
	case PhaseResolution:
		return "resolution"
	default:
		return "unknown"
	}
}

// Resolution reasons.
const (
	ReasonPlayerDied  = "Player Died"
	ReasonTimeExpired = "Time Expired"
	ReasonKillTarget  = "Kill Target Reached"
)

// MatchPlayer is the part of the player the match director controls.
type MatchPlayer interface {
	Health() int
	ResetState()
}

// MatchResult summarizes one finished match.
type MatchResult struct {
	ID       string  `json:"id" msgpack:"id"`
	Level    int     `json:"level" msgpack:"level"`
	Win      bool    `json:"win" msgpack:"win"`
	Reason   string  `json:"reason" msgpack:"reason"`
	Kills    int     `json:"kills" msgpack:"kills"`
	Target   int     `json:"target" msgpack:"target"`
	Score    int     `json:"score" msgpack:"score"`
	Duration float64 `json:"duration" msgpack:"duration"`
}

// MatchDirector sequences Preparation, Playing and Resolution.
type MatchDirector struct {
	cfg       config.MatchConfig
	player    MatchPlayer
	director  *Director
	presenter Presenter

	phase       Phase
	remaining   float64
	justEntered bool
	nextMark    int

	level   int
	matchID ulid.ULID
	elapsed float64
	result  MatchResult
	restart bool

	onPhase    func(from, to Phase)
	onResolved func(r MatchResult)
}

// NewMatchDirector creates a director in PhaseInit. The first Update enters
// Preparation.
func NewMatchDirector(cfg config.MatchConfig, player MatchPlayer, director *Director, presenter Presenter) (*MatchDirector, error) {
	if player == nil || director == nil {
		return nil, fmt.Errorf("match: player and director: %w", ErrMissingCollaborator)
	}
	if len(cfg.Levels) == 0 {
		return nil, fmt.Errorf("match: %w", ErrNoLevels)
	}
	if cfg.KillTarget <= 0 {
		return nil, fmt.Errorf("match: kill target %d: %w", cfg.KillTarget, ErrInvalidMatchConfig)
	}
	if presenter == nil {
		presenter = NopPresenter{}
	}
	return &MatchDirector{
		cfg:       cfg,
		player:    player,
		director:  director,
		presenter: presenter,
		phase:     PhaseInit,
	}, nil
}

// OnPhaseChange registers a callback fired after every transition.
func (m *MatchDirector) OnPhaseChange(fn func(from, to Phase)) { m.onPhase = fn }

// OnResolved registers a callback fired when a match is decided.
func (m *MatchDirector) OnResolved(fn func(r MatchResult)) { m.onResolved = fn }

func (m *MatchDirector) Phase() Phase            { return m.phase }
func (m *MatchDirector) Remaining() float64      { return m.remaining }
func (m *MatchDirector) Level() int              { return m.level }
func (m *MatchDirector) LastResult() MatchResult { return m.result }

// MatchID returns the ID of the current or last played match.
func (m *MatchDirector) MatchID() string {
	if m.matchID == (ulid.ULID{}) {
		return ""
	}
	return m.matchID.String()
}

// KillTarget returns the current level's kill target.
func (m *MatchDirector) KillTarget() int {
	if t := m.cfg.Levels[m.level].KillTarget; t > 0 {
		return t
	}
	return m.cfg.KillTarget
}

// Restart requests leaving Resolution. With auto-restart it only shortens
// the wait.
func (m *MatchDirector) Restart() bool {
	if m.phase != PhaseResolution {
		return false
	}
	m.restart = true
	return true
}

// Update advances the state machine by one frame tick.
func (m *MatchDirector) Update(dt float64) {
	if m.phase == PhaseInit {
		m.transition(PhasePreparation)
		return
	}
	if m.justEntered {
		m.justEntered = false
		return
	}

	switch m.phase {
	case PhasePreparation:
		m.remaining -= dt
		for m.nextMark < len(m.cfg.CountdownMarks) && m.remaining <= float64(m.cfg.CountdownMarks[m.nextMark]) {
			mark := m.cfg.CountdownMarks[m.nextMark]
			m.nextMark++
			if m.remaining > float64(mark-1) {
				m.presenter.Countdown(mark)
				log.Printf("⏳ [Match] %d", mark)
			}
		}
		if m.remaining <= 0 {
			m.transition(PhasePlaying)
		}

	case PhasePlaying:
		m.remaining -= dt
		m.elapsed += dt
		switch {
		case m.player.Health() <= 0:
			m.resolve(false, ReasonPlayerDied)
		case m.remaining <= 0:
			m.resolve(false, ReasonTimeExpired)
		case m.director.Kills() >= m.KillTarget():
			m.resolve(true, ReasonKillTarget)
		}

	case PhaseResolution:
		if m.restart {
			m.transition(PhasePreparation)
			return
		}
		if !m.cfg.AutoRestart {
			return
		}
		m.remaining -= dt
		if m.remaining <= 0 {
			m.transition(PhasePreparation)
		}
	}
}

func (m *MatchDirector) resolve(win bool, reason string) {
	m.result = MatchResult{
		ID:       m.MatchID(),
		Level:    m.level + 1,
		Win:      win,
		Reason:   reason,
		Kills:    m.director.Kills(),
		Target:   m.KillTarget(),
		Score:    m.director.Score(),
		Duration: m.elapsed,
	}
	m.transition(PhaseResolution)
}

func (m *MatchDirector) transition(to Phase) {
	from := m.phase
	if from == PhaseResolution {
		m.presenter.HideStatus()
	}

	m.phase = to
	m.justEntered = true

	switch to {
	case PhasePreparation:
		m.director.Reset()
		m.player.ResetState()
		m.remaining = m.cfg.PreGameDuration
		m.nextMark = 0
		m.restart = false

	case PhasePlaying:
		m.remaining = m.cfg.GameDuration
		m.elapsed = 0
		m.matchID = ulid.Make()
		m.director.StartSpawning(m.cfg.Levels[m.level])

	case PhaseResolution:
		m.director.StopSpawning()
		returned := m.director.ReturnAllLiveToPool()
		m.remaining = m.cfg.ResolutionDuration
		m.presenter.ShowStatus(m.statusMessage())
		log.Printf("🏁 [Match %s] %s after %.1fs, %d kills, %d returned to pool",
			m.result.ID, m.result.Reason, m.result.Duration, m.result.Kills, returned)
		if m.result.Win {
			m.level = (m.level + 1) % len(m.cfg.Levels)
		}
		if m.onResolved != nil {
			m.onResolved(m.result)
		}
	}

	log.Printf("🎬 [Match] %s -> %s", from, to)
	if m.onPhase != nil {
		m.onPhase(from, to)
	}
}

func (m *MatchDirector) statusMessage() string {
	switch {
	case !m.result.Win:
		return "Game Over: " + m.result.Reason
	case m.result.Level >= len(m.cfg.Levels):
		return "You Win: " + m.result.Reason
	default:
		return "Next Level: " + m.result.Reason
	}
}

// Elapsed returns seconds played in the current or last match.
func (m *MatchDirector) Elapsed() time.Duration {
	return time.Duration(m.elapsed * float64(time.Second))
}
