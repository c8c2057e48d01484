package game

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"survivor/internal/config"
	"survivor/internal/game/arena"
	"survivor/internal/game/spatial"
)

const maxSubSteps = 8

// CommandKind identifies a queued input command.
type CommandKind uint8

const (
	CmdMove CommandKind = iota
	CmdFire
	CmdFireMode
	CmdFirePattern
	CmdRestart
)

// Command is input from another goroutine, applied at the start of the next
// tick.
type Command struct {
	Kind    CommandKind
	Move    spatial.Vec3
	On      bool
	Mode    FireMode
	Pattern FirePattern
}

// Hooks observe the simulation from the tick goroutine. They must not call
// back into the engine.
type Hooks struct {
	OnTick        func(d time.Duration)
	OnPhaseChange func(from, to Phase)
	OnSpawn       func(typ EnemyType)
	OnKill        func(typ EnemyType)
	OnRecycle     func(typ EnemyType)
	OnPoolGrow    func(typ EnemyType, n int)
}

// Engine is the main game engine handling the game loop and physics
type Engine struct {
	mu sync.RWMutex

	cfg      config.AppConfig
	world    *arena.World
	recorder *Recorder
	player   *Player
	tracker  *Tracker
	director *Director
	match    *MatchDirector
	board    *MatchBoard

	commands  *spatial.Queue[Command]
	snapshots *SnapshotPool
	eventLog  *EventLog
	hooks     Hooks

	tickRate    int
	physicsStep float64
	accumulator float64
	tickCount   uint64
	rngSeed     int64
	lastHP      int

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
}

// FinderFunc adapts a function to EnemyFinder.
type FinderFunc func(pos spatial.Vec3, maxRange float64) *Enemy

func (f FinderFunc) NearestEnemy(pos spatial.Vec3, maxRange float64) *Enemy {
	return f(pos, maxRange)
}

// NewEngine wires the arena, player, enemy pools and directors from cfg.
func NewEngine(cfg config.AppConfig, hooks Hooks) (*Engine, error) {
	sim := cfg.Simulation
	if sim.TickRate <= 0 || sim.PhysicsRate <= 0 {
		return nil, fmt.Errorf("engine: tick rate %d, physics rate %d", sim.TickRate, sim.PhysicsRate)
	}
	seed := sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	e := &Engine{
		cfg:         cfg,
		recorder:    NewRecorder(),
		board:       NewMatchBoard(),
		commands:    spatial.NewQueue[Command](sim.CommandQueueSize),
		snapshots:   NewSnapshotPool(),
		eventLog:    NewEventLog(),
		hooks:       hooks,
		tickRate:    sim.TickRate,
		physicsStep: 1 / float64(sim.PhysicsRate),
		rngSeed:     seed,
	}

	e.world = arena.NewWorld(arena.Config{
		Origin:       spatial.Vec3{X: -sim.ArenaWidth / 2, Z: -sim.ArenaDepth / 2},
		Width:        sim.ArenaWidth,
		Depth:        sim.ArenaDepth,
		GridCellSize: sim.GridCellSize,
		FlowCellSize: sim.FlowCellSize,
		Gravity:      sim.Gravity,
		MaxBodies:    sim.MaxBodies,
	})
	e.recorder.OnCue = e.onCue

	playerBody := e.world.NewBody(arena.BodyOptions{
		Position: e.world.Center(),
		Radius:   cfg.Player.Radius,
		Layer:    spatial.LayerPlayer,
		Drag:     8,
	})
	player, err := NewPlayer(cfg.Player, PlayerDeps{
		Body:     playerBody,
		Physics:  e.world,
		Finder:   FinderFunc(func(pos spatial.Vec3, r float64) *Enemy { return e.director.NearestEnemy(pos, r) }),
		Animator: e.recorder,
		Effects:  e.recorder,
	}, e.world.Center())
	if err != nil {
		return nil, err
	}
	playerBody.SetOwner(player)
	e.player = player
	e.lastHP = player.Health()

	pools := make(map[EnemyType]*Pool, len(cfg.Enemies))
	for _, et := range cfg.Enemies {
		pool, err := NewPool(EnemyType(et.Name), e.enemyFactory(et, rand.New(rand.NewSource(rng.Int63()))), et.PoolSize, et.GrowBatch)
		if err != nil {
			return nil, err
		}
		pool.OnGrow(e.onPoolGrow)
		pools[EnemyType(et.Name)] = pool
	}

	points := make([]SpawnPoint, 0, len(sim.SpawnPoints))
	for _, p := range sim.SpawnPoints {
		points = append(points, SpawnPoint{Position: spatial.Vec3{X: p.X, Z: p.Z}, Yaw: p.Yaw})
	}

	e.tracker = NewTracker()
	e.director, err = NewDirector(DirectorConfig{
		SpawnInterval: cfg.Match.SpawnInterval,
		SpawnPoints:   points,
	}, pools, NewSpawner(rand.New(rand.NewSource(rng.Int63()))), e.tracker, player)
	if err != nil {
		return nil, err
	}
	e.director.OnSpawn(e.onSpawn)
	e.director.OnKill(e.onKill)
	e.director.OnRecycle(e.onRecycle)

	e.match, err = NewMatchDirector(cfg.Match, player, e.director, e.recorder)
	if err != nil {
		return nil, err
	}
	e.match.OnPhaseChange(e.onPhaseChange)
	e.match.OnResolved(e.onResolved)

	e.publishSnapshot()
	return e, nil
}

func (e *Engine) enemyFactory(et config.EnemyType, rng *rand.Rand) EnemyFactory {
	typ := EnemyType(et.Name)
	return func() (*Enemy, error) {
		body := e.world.NewBody(arena.BodyOptions{
			Radius:   et.Radius,
			Layer:    spatial.LayerShootable,
			Drag:     4,
			Inactive: true,
		})
		agent := e.world.NewAgent(body, et.MoveSpeed, et.AttackRange*0.8)
		en, err := NewEnemy(typ, et.EnemyConfig, EnemyDeps{
			Body:     body,
			Nav:      agent,
			Animator: e.recorder,
			Effects:  e.recorder,
			Rand:     rand.New(rand.NewSource(rng.Int63())),
		})
		if err != nil {
			e.world.RemoveBody(body)
			return nil, err
		}
		body.SetOwner(en)
		return en, nil
	}
}

// StartEventLog starts the JSONL event writer. An empty path counts events
// without writing them.
func (e *Engine) StartEventLog(path string) error {
	return e.eventLog.Start(path)
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	e.stopChan = make(chan struct{})
	ticker, stop := e.ticker, e.stopChan
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Game engine started at %d TPS (physics %.0f Hz, seed %d)", e.tickRate, 1/e.physicsStep, e.rngSeed)
}

// Stop stops the game loop and flushes the event log.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		e.eventLog.Stop()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	e.mu.Unlock()

	e.eventLog.Stop()
	log.Println("🛑 Game engine stopped")
}

func (e *Engine) tick() {
	start := time.Now()
	e.Step(1 / float64(e.tickRate))
	if e.hooks.OnTick != nil {
		e.hooks.OnTick(time.Since(start))
	}
}

// Step advances the simulation by one frame of dt seconds: queued commands,
// whole physics sub-steps, then the frame update.
func (e *Engine) Step(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++
	e.commands.Drain(e.apply)

	e.accumulator += dt
	for n := 0; e.accumulator >= e.physicsStep-1e-9; n++ {
		if n == maxSubSteps {
			e.accumulator = 0
			break
		}
		e.accumulator -= e.physicsStep
		e.fixedStep(e.physicsStep)
	}

	e.frameStep(dt)
	e.publishSnapshot()
}

func (e *Engine) fixedStep(dt float64) {
	safeUpdate("player fixed update", func() { e.player.FixedUpdate(dt) })
	e.director.EachLive(func(en *Enemy) {
		safeUpdate("enemy fixed update", en.FixedUpdate)
	})
	e.world.Step(dt)
}

func (e *Engine) frameStep(dt float64) {
	safeUpdate("player update", func() { e.player.Update(dt) })
	e.director.EachLive(func(en *Enemy) {
		safeUpdate("enemy update", func() { en.Update(dt) })
	})
	e.director.Update(dt)
	e.match.Update(dt)

	if e.tickCount%uint64(e.tickRate) == 0 {
		e.rngSeed = rand.New(rand.NewSource(e.rngSeed)).Int63()
		e.emit(EventTypeTick, "engine", TickPayload{
			RNGSeed:     e.rngSeed,
			LiveEnemies: e.tracker.Len(),
			PlayerHP:    e.player.Health(),
			Remaining:   e.match.Remaining(),
		})
	}
}

// safeUpdate keeps one actor's panic from halting the tick.
func safeUpdate(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ [Engine] recovered panic in %s: %v", what, r)
		}
	}()
	fn()
}

func (e *Engine) apply(cmd Command) {
	switch cmd.Kind {
	case CmdMove:
		e.player.SetMoveInput(cmd.Move)
	case CmdFire:
		e.player.SetFiring(cmd.On)
	case CmdFireMode:
		e.player.SetFireMode(cmd.Mode)
	case CmdFirePattern:
		e.player.Shooter().SetPattern(cmd.Pattern)
	case CmdRestart:
		e.match.Restart()
	}
}

// Submit queues a command for the next tick. Returns false when the queue
// is full.
func (e *Engine) Submit(cmd Command) bool {
	return e.commands.TryPush(cmd)
}

func (e *Engine) SetMoveInput(dir spatial.Vec3) bool {
	return e.Submit(Command{Kind: CmdMove, Move: dir})
}

func (e *Engine) SetFiring(on bool) bool {
	return e.Submit(Command{Kind: CmdFire, On: on})
}

func (e *Engine) SetFireMode(m FireMode) bool {
	return e.Submit(Command{Kind: CmdFireMode, Mode: m})
}

func (e *Engine) SetFirePattern(p FirePattern) bool {
	return e.Submit(Command{Kind: CmdFirePattern, Pattern: p})
}

func (e *Engine) RequestRestart() bool {
	return e.Submit(Command{Kind: CmdRestart})
}

func (e *Engine) emit(t EventType, source string, payload any) {
	e.eventLog.EmitSimple(t, e.tickCount, e.match.MatchID(), source, payload)
}

func (e *Engine) onCue(cue Cue, _ spatial.Vec3) {
	if cue != CuePlayerHurt {
		return
	}
	hp := e.player.Health()
	e.emit(EventTypeDamage, "player", DamagePayload{Damage: e.lastHP - hp, PlayerHP: hp})
	e.lastHP = hp
}

func (e *Engine) onSpawn(en *Enemy) {
	pos := en.Position()
	e.emit(EventTypeSpawn, "director", SpawnPayload{EnemyID: en.ID(), Type: string(en.Type()), X: pos.X, Z: pos.Z})
	if e.hooks.OnSpawn != nil {
		e.hooks.OnSpawn(en.Type())
	}
}

func (e *Engine) onKill(en *Enemy) {
	e.emit(EventTypeKill, "director", KillPayload{
		EnemyID: en.ID(),
		Type:    string(en.Type()),
		Kills:   e.director.Kills(),
		Score:   e.director.Score(),
	})
	if e.hooks.OnKill != nil {
		e.hooks.OnKill(en.Type())
	}
}

func (e *Engine) onRecycle(en *Enemy) {
	e.emit(EventTypeRecycle, "director", RecyclePayload{EnemyID: en.ID(), Type: string(en.Type())})
	if e.hooks.OnRecycle != nil {
		e.hooks.OnRecycle(en.Type())
	}
}

func (e *Engine) onPoolGrow(typ EnemyType, n int) {
	total := 0
	if e.director != nil {
		if p, ok := e.director.Pool(typ); ok {
			total = p.Total()
		}
	}
	e.emit(EventTypePoolGrow, "pool", PoolGrowPayload{Type: string(typ), Added: n, Total: total})
	if e.hooks.OnPoolGrow != nil {
		e.hooks.OnPoolGrow(typ, n)
	}
}

func (e *Engine) onPhaseChange(from, to Phase) {
	if to == PhasePreparation {
		e.lastHP = e.player.Health()
	}
	e.emit(EventTypePhaseChange, "match", PhasePayload{From: from.String(), To: to.String(), Level: e.match.Level() + 1})
	if e.hooks.OnPhaseChange != nil {
		e.hooks.OnPhaseChange(from, to)
	}
}

func (e *Engine) onResolved(r MatchResult) {
	e.board.Record(r)
	e.emit(EventTypeMatchResolved, "match", r)
}

func (e *Engine) publishSnapshot() {
	snap := e.snapshots.AcquireWrite()
	snap.TickNumber = e.tickCount

	p := e.player
	pos := p.Position()
	snap.Player = PlayerSnapshot{
		X:           pos.X,
		Z:           pos.Z,
		Yaw:         p.Yaw(),
		HP:          p.DisplayHealth(),
		MaxHP:       p.MaxHealth(),
		Dead:        p.Dead(),
		Walking:     p.Walking(),
		FireMode:    p.Shooter().Mode().String(),
		FirePattern: p.Shooter().Pattern().String(),
		Bursting:    p.Shooter().Bursting(),
		ShotCount:   p.Shooter().ShotCount(),
		LastShot:    p.Shooter().LastShot(),
	}
	if t := p.Target(); t != nil {
		snap.Player.TargetID = t.ID()
	}

	m := e.match
	snap.Match = MatchSnapshot{
		ID:         m.MatchID(),
		Phase:      m.Phase().String(),
		Remaining:  m.Remaining(),
		Level:      m.Level() + 1,
		Kills:      e.director.Kills(),
		KillTarget: m.KillTarget(),
		Score:      e.director.Score(),
		Queued:     e.director.QueueLen(),
		Status:     e.recorder.Status(),
	}
	if m.Phase() == PhasePreparation {
		snap.Match.Countdown = e.recorder.LastCountdown()
	}

	e.director.EachLive(func(en *Enemy) {
		if len(snap.Enemies) >= MaxSnapshotEnemies {
			return
		}
		ep := en.Position()
		snap.Enemies = append(snap.Enemies, EnemySnapshot{
			ID:      en.ID(),
			Type:    string(en.Type()),
			X:       ep.X,
			Y:       ep.Y,
			Z:       ep.Z,
			Yaw:     en.Yaw(),
			HP:      en.DisplayHealth(),
			MaxHP:   en.MaxHealth(),
			State:   en.State().String(),
			Knocked: en.Knocked(),
		})
	})
	snap.Pools = append(snap.Pools, e.director.PoolStats()...)

	e.snapshots.PublishWrite()
}

// Snapshot returns a copy of the latest published state.
func (e *Engine) Snapshot() GameSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshots.AcquireRead().Clone()
}

// EngineStats is an operator view of the engine.
type EngineStats struct {
	Tick        uint64         `json:"tick"`
	Seed        int64          `json:"seed"`
	Phase       string         `json:"phase"`
	Level       int            `json:"level"`
	Kills       int            `json:"kills"`
	Score       int            `json:"score"`
	PlayerHP    int            `json:"playerHp"`
	Tracked     int            `json:"tracked"`
	Bodies      int            `json:"bodies"`
	Pools       []PoolStat     `json:"pools"`
	Cues        map[string]int `json:"cues"`
	Triggers    map[string]int `json:"triggers"`
	EventLog    EventLogStats  `json:"eventLog"`
	MatchesSeen int            `json:"matchesSeen"`
}

// Stats returns engine counters.
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return EngineStats{
		Tick:        e.tickCount,
		Seed:        e.rngSeed,
		Phase:       e.match.Phase().String(),
		Level:       e.match.Level() + 1,
		Kills:       e.director.Kills(),
		Score:       e.director.Score(),
		PlayerHP:    e.player.Health(),
		Tracked:     e.tracker.Len(),
		Bodies:      e.world.BodyCount(),
		Pools:       e.director.PoolStats(),
		Cues:        e.recorder.CueCounts(),
		Triggers:    e.recorder.TriggerCounts(),
		EventLog:    e.eventLog.Stats(),
		MatchesSeen: e.board.Len(),
	}
}

// Leaderboard returns the n best finished matches.
func (e *Engine) Leaderboard(n int) []BoardEntry {
	return e.board.Top(n)
}

// Levels returns the configured level list.
func (e *Engine) Levels() []config.LevelConfig {
	return e.cfg.Match.Levels
}

// Phase returns the current match phase.
func (e *Engine) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.match.Phase()
}

// TickRate returns the frame tick rate.
func (e *Engine) TickRate() int { return e.tickRate }
