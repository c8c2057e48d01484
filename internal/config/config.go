// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for simulation, combat and server settings.
//
// Every section has a Default* constructor and a *FromEnv variant that
// applies environment overrides on top of the defaults.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig holds tick rates and arena geometry.
type SimulationConfig struct {
	TickRate         int     // Frame ticks per second
	PhysicsRate      int     // Physics sub-steps per second
	Seed             int64   // RNG seed, 0 picks one from the clock
	ArenaWidth       float64 // World units along X
	ArenaDepth       float64 // World units along Z
	GridCellSize     float64 // Broad-phase cell size
	FlowCellSize     float64 // Navigation resolution
	Gravity          float64
	MaxBodies        int
	CommandQueueSize int
	SpawnPoints      []SpawnPoint
}

// SpawnPoint is an enemy entry location facing Yaw (radians).
type SpawnPoint struct {
	X, Z float64
	Yaw  float64
}

// DefaultSimulation returns the default simulation configuration.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:         30,
		PhysicsRate:      50,
		ArenaWidth:       60,
		ArenaDepth:       60,
		GridCellSize:     5,
		FlowCellSize:     1,
		Gravity:          9.81,
		MaxBodies:        512,
		CommandQueueSize: 1024,
		SpawnPoints:      RingSpawnPoints(8, 25),
	}
}

// RingSpawnPoints places n points on a circle around the arena center, each
// facing inward.
func RingSpawnPoints(n int, radius float64) []SpawnPoint {
	points := make([]SpawnPoint, 0, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x, z := radius*math.Sin(a), radius*math.Cos(a)
		points = append(points, SpawnPoint{X: x, Z: z, Yaw: math.Atan2(-x, -z)})
	}
	return points
}

// SimulationFromEnv returns simulation configuration with environment overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("PHYSICS_RATE", 0); v > 0 {
		cfg.PhysicsRate = v
	}
	if v := getEnvInt64("SIM_SEED", 0); v != 0 {
		cfg.Seed = v
	}
	if v := getEnvFloat("ARENA_WIDTH", 0); v > 0 {
		cfg.ArenaWidth = v
	}
	if v := getEnvFloat("ARENA_DEPTH", 0); v > 0 {
		cfg.ArenaDepth = v
	}
	if v := getEnvInt("SPAWN_POINTS", 0); v > 0 {
		r := math.Min(cfg.ArenaWidth, cfg.ArenaDepth) * 0.42
		cfg.SpawnPoints = RingSpawnPoints(v, r)
	}

	return cfg
}

// =============================================================================
// PLAYER CONFIGURATION
// =============================================================================

// BurstConfig describes one firing burst: Shots spread over Duration
// seconds, then Pause seconds before the next burst may start.
type BurstConfig struct {
	Shots    int
	Duration float64
	Pause    float64
}

// PlayerConfig holds player movement and weapon settings.
type PlayerConfig struct {
	MaxHealth      int
	MoveSpeed      float64
	TargetRange    float64 // Acquisition range for auto-aim
	RotateSpeed    float64 // Degrees per second
	Radius         float64
	Damage         int
	ShotCooldown   float64 // Seconds between shots (cooldown pattern)
	ShotRange      float64
	AreaRadius     float64
	AreaAngle      float64 // Full cone angle in degrees
	KnockbackForce float64
	FireMode       string // "single" or "area"
	FirePattern    string // "cooldown" or "burst"
	AutoFire       bool   // Fire whenever a target is acquired
	SingleBurst    BurstConfig
	AreaBurst      BurstConfig
	EffectFraction float64 // Muzzle effect lifetime as a fraction of ShotCooldown
}

// DefaultPlayer returns the default player configuration.
func DefaultPlayer() PlayerConfig {
	return PlayerConfig{
		MaxHealth:      100,
		MoveSpeed:      6,
		TargetRange:    10,
		RotateSpeed:    720,
		Radius:         0.5,
		Damage:         20,
		ShotCooldown:   0.3,
		ShotRange:      100,
		AreaRadius:     6,
		AreaAngle:      60,
		KnockbackForce: 10,
		FireMode:       "single",
		FirePattern:    "cooldown",
		AutoFire:       true,
		SingleBurst:    BurstConfig{Shots: 5, Duration: 0.5, Pause: 0.25},
		AreaBurst:      BurstConfig{Shots: 2, Duration: 0.5, Pause: 0.5},
		EffectFraction: 0.2,
	}
}

// PlayerFromEnv returns player configuration with environment overrides.
func PlayerFromEnv() PlayerConfig {
	cfg := DefaultPlayer()

	if v := getEnvInt("PLAYER_HEALTH", 0); v > 0 {
		cfg.MaxHealth = v
	}
	if v := getEnvFloat("PLAYER_SPEED", 0); v > 0 {
		cfg.MoveSpeed = v
	}
	if v := getEnvInt("PLAYER_DAMAGE", 0); v > 0 {
		cfg.Damage = v
	}
	if v := os.Getenv("FIRE_MODE"); v != "" {
		cfg.FireMode = strings.ToLower(v)
	}
	if v := os.Getenv("FIRE_PATTERN"); v != "" {
		cfg.FirePattern = strings.ToLower(v)
	}
	cfg.AutoFire = getEnvBool("AUTO_FIRE", cfg.AutoFire)

	return cfg
}

// =============================================================================
// ENEMY CONFIGURATION
// =============================================================================

// EnemyConfig holds the per-type enemy tuning.
type EnemyConfig struct {
	MaxHealth             int
	AttackDamage          int
	AttackInterval        float64 // Seconds between melee hits
	AttackRange           float64
	MoveSpeed             float64
	Radius                float64
	KnockbackDuration     float64
	MinKnockbackForce     float64 // Forces below this use DefaultKnockbackForce
	DefaultKnockbackForce float64
	SinkSpeed             float64 // Units per second while sinking
	SinkDelay             float64 // Seconds from death to pool release
	WanderForce           float64
	WanderInterval        float64
	WanderLift            float64 // Upward share of the wander impulse
	Score                 int
	PoolSize              int // Actors created up front
	GrowBatch             int // Actors created when the pool runs dry
}

// EnemyType pairs a type tag with its tuning.
type EnemyType struct {
	Name string
	EnemyConfig
}

// DefaultEnemy returns the baseline enemy configuration.
func DefaultEnemy() EnemyConfig {
	return EnemyConfig{
		MaxHealth:             100,
		AttackDamage:          10,
		AttackInterval:        0.5,
		AttackRange:           1.5,
		MoveSpeed:             3.5,
		Radius:                0.5,
		KnockbackDuration:     0.5,
		MinKnockbackForce:     0.1,
		DefaultKnockbackForce: 20,
		SinkSpeed:             2.5,
		SinkDelay:             2,
		WanderForce:           10,
		WanderInterval:        1,
		WanderLift:            0.3,
		Score:                 10,
		PoolSize:              10,
		GrowBatch:             10,
	}
}

// DefaultEnemies returns the three stock enemy types.
func DefaultEnemies() []EnemyType {
	a := DefaultEnemy()

	b := DefaultEnemy()
	b.MaxHealth = 60
	b.MoveSpeed = 4.5
	b.Score = 15

	c := DefaultEnemy()
	c.MaxHealth = 200
	c.AttackDamage = 20
	c.MoveSpeed = 2.5
	c.Radius = 0.8
	c.Score = 30

	return []EnemyType{{"A", a}, {"B", b}, {"C", c}}
}

// EnemiesFromEnv applies global enemy overrides to every stock type.
func EnemiesFromEnv() []EnemyType {
	types := DefaultEnemies()
	for i := range types {
		if v := getEnvInt("ENEMY_POOL_SIZE", 0); v > 0 {
			types[i].PoolSize = v
		}
		if v := getEnvInt("ENEMY_GROW_BATCH", 0); v > 0 {
			types[i].GrowBatch = v
		}
		if v := getEnvFloat("ENEMY_SINK_DELAY", 0); v > 0 {
			types[i].SinkDelay = v
		}
	}
	return types
}

// =============================================================================
// MATCH CONFIGURATION
// =============================================================================

// SpawnCount requests Count enemies of Type.
type SpawnCount struct {
	Type  string
	Count int
}

// LevelConfig is one level's spawn queue. KillTarget 0 uses the match default.
type LevelConfig struct {
	Spawns     []SpawnCount
	KillTarget int
}

// Total returns the number of enemies the level spawns.
func (l LevelConfig) Total() int {
	n := 0
	for _, s := range l.Spawns {
		n += s.Count
	}
	return n
}

// MatchConfig holds phase timings and win conditions.
type MatchConfig struct {
	PreGameDuration    float64
	GameDuration       float64
	ResolutionDuration float64
	KillTarget         int
	AutoRestart        bool
	CountdownMarks     []int
	SpawnInterval      float64
	Levels             []LevelConfig
}

// DefaultLevels is the stock level list in LEVELS syntax.
const DefaultLevels = "A:20,B:10,C:5,K=30;A:30,B:20,C:10,K=50;A:40,B:30,C:20"

// DefaultMatch returns the default match configuration.
func DefaultMatch() MatchConfig {
	levels, _ := ParseLevels(DefaultLevels)
	return MatchConfig{
		PreGameDuration:    10,
		GameDuration:       180,
		ResolutionDuration: 10,
		KillTarget:         50,
		AutoRestart:        true,
		CountdownMarks:     []int{3, 2, 1},
		SpawnInterval:      3,
		Levels:             levels,
	}
}

// MatchFromEnv returns match configuration with environment overrides.
func MatchFromEnv() (MatchConfig, error) {
	cfg := DefaultMatch()

	if v := getEnvFloat("PRE_GAME_DURATION", -1); v >= 0 {
		cfg.PreGameDuration = v
	}
	if v := getEnvFloat("GAME_DURATION", 0); v > 0 {
		cfg.GameDuration = v
	}
	if v := getEnvFloat("RESOLUTION_DURATION", -1); v >= 0 {
		cfg.ResolutionDuration = v
	}
	if v := getEnvInt("KILL_TARGET", 0); v > 0 {
		cfg.KillTarget = v
	}
	if v := getEnvFloat("SPAWN_INTERVAL", 0); v > 0 {
		cfg.SpawnInterval = v
	}
	cfg.AutoRestart = getEnvBool("AUTO_RESTART", cfg.AutoRestart)

	if v := os.Getenv("LEVELS"); v != "" {
		levels, err := ParseLevels(v)
		if err != nil {
			return cfg, fmt.Errorf("LEVELS: %w", err)
		}
		cfg.Levels = levels
	}

	return cfg, nil
}

// ParseLevels parses "A:2,B:1,C:0;A:5,B:3,K=8". Levels are separated by ';',
// items by ','. "T:n" queues n enemies of type T in the order given and
// "K=n" overrides the level's kill target.
func ParseLevels(s string) ([]LevelConfig, error) {
	var levels []LevelConfig
	for li, raw := range strings.Split(s, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var level LevelConfig
		for _, item := range strings.Split(raw, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if k, ok := strings.CutPrefix(item, "K="); ok {
				n, err := strconv.Atoi(k)
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("level %d: invalid kill target %q", li+1, item)
				}
				level.KillTarget = n
				continue
			}
			name, count, ok := strings.Cut(item, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("level %d: expected TYPE:COUNT, got %q", li+1, item)
			}
			n, err := strconv.Atoi(strings.TrimSpace(count))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("level %d: invalid count in %q", li+1, item)
			}
			level.Spawns = append(level.Spawns, SpawnCount{Type: strings.TrimSpace(name), Count: n})
		}
		levels = append(levels, level)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no levels in %q", s)
	}
	return levels, nil
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int
	CORSOrigins   []string
	RateLimit     float64 // Requests per second per IP
	RateBurst     int
	BroadcastRate int // Spectator frames per second
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:          3000,
		CORSOrigins:   []string{"*"},
		RateLimit:     20,
		RateBurst:     40,
		BroadcastRate: 10,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
	if v := getEnvFloat("RATE_LIMIT", 0); v > 0 {
		cfg.RateLimit = v
	}
	if v := getEnvInt("RATE_BURST", 0); v > 0 {
		cfg.RateBurst = v
	}
	if v := getEnvInt("BROADCAST_RATE", 0); v > 0 {
		cfg.BroadcastRate = v
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig holds the debug server and event log settings.
type ObservabilityConfig struct {
	DebugAddr    string // pprof + /metrics, empty disables
	EventLogPath string // JSONL event log, empty keeps events in memory only
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		DebugAddr: "localhost:6060",
	}
}

// ObservabilityFromEnv returns observability configuration with environment overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()

	if v, ok := os.LookupEnv("DEBUG_ADDR"); ok {
		cfg.DebugAddr = v
	}
	if v := os.Getenv("EVENT_LOG_PATH"); v != "" {
		cfg.EventLogPath = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation    SimulationConfig
	Player        PlayerConfig
	Enemies       []EnemyType
	Match         MatchConfig
	Server        ServerConfig
	Observability ObservabilityConfig
}

// Default returns the complete configuration without environment overrides.
func Default() AppConfig {
	return AppConfig{
		Simulation:    DefaultSimulation(),
		Player:        DefaultPlayer(),
		Enemies:       DefaultEnemies(),
		Match:         DefaultMatch(),
		Server:        DefaultServer(),
		Observability: DefaultObservability(),
	}
}

// Load returns the complete configuration with environment overrides.
func Load() (AppConfig, error) {
	match, err := MatchFromEnv()
	if err != nil {
		return AppConfig{}, err
	}
	cfg := AppConfig{
		Simulation:    SimulationFromEnv(),
		Player:        PlayerFromEnv(),
		Enemies:       EnemiesFromEnv(),
		Match:         match,
		Server:        ServerFromEnv(),
		Observability: ObservabilityFromEnv(),
	}
	return cfg, cfg.Validate()
}

// Validate reports settings the simulation cannot run with.
func (c AppConfig) Validate() error {
	if c.Simulation.TickRate <= 0 || c.Simulation.PhysicsRate <= 0 {
		return fmt.Errorf("tick and physics rates must be positive")
	}
	if len(c.Simulation.SpawnPoints) == 0 {
		return fmt.Errorf("at least one spawn point is required")
	}
	if len(c.Enemies) == 0 {
		return fmt.Errorf("at least one enemy type is required")
	}
	if c.Match.KillTarget <= 0 {
		return fmt.Errorf("kill target must be positive, got %d", c.Match.KillTarget)
	}
	if c.Match.SpawnInterval <= 0 {
		return fmt.Errorf("spawn interval must be positive, got %v", c.Match.SpawnInterval)
	}
	known := make(map[string]bool, len(c.Enemies))
	for _, e := range c.Enemies {
		known[e.Name] = true
	}
	for i, l := range c.Match.Levels {
		if l.KillTarget < 0 {
			return fmt.Errorf("level %d: kill target must not be negative", i+1)
		}
		for _, s := range l.Spawns {
			if !known[s.Type] {
				return fmt.Errorf("level %d: unknown enemy type %q", i+1, s.Type)
			}
		}
	}
	switch c.Player.FireMode {
	case "single", "area":
	default:
		return fmt.Errorf("unknown fire mode %q", c.Player.FireMode)
	}
	switch c.Player.FirePattern {
	case "cooldown", "burst":
	default:
		return fmt.Errorf("unknown fire pattern %q", c.Player.FirePattern)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
