package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/types/mapcontainer"
	"github.com/bytearena/skirmish/game/physics"
	"github.com/bytearena/skirmish/game/skirmish"
)

const EnvPrefix = "SKIRMISH"

type StoreConfig struct {
	Path string // empty disables the episode ledger
}

type InfluxConfig struct {
	URL    string // empty disables reporting
	Token  string
	Org    string
	Bucket string
}

type ServerConfig struct {
	Addr          string
	ActionTimeout time.Duration
}

// Config is the process configuration shared by the CLIs
type Config struct {
	LogLevel  string
	Map       string // empty selects the built-in map
	Seed      int64
	Episodes  int
	Heuristic bool

	TeamSizes      [2]int
	MaxSteps       int
	SpawnRadius    float64 // 0 spawns over the whole map
	TickDuration   float64
	RewardPolarity string
	HitPenalty     float64
	Camera         skirmish.CameraTarget

	Perception   skirmish.PerceptionParams
	RaySensor    skirmish.RaySensorSpecs
	MuzzleOffset float64

	Record     bool
	RecordFile string

	Store  StoreConfig
	Influx InfluxConfig
	Server ServerConfig
}

func setDefaults(v *viper.Viper) {
	perception := skirmish.DefaultPerceptionParams()
	raySensor := skirmish.DefaultRaySensorSpecs()

	v.SetDefault("logLevel", "info")
	v.SetDefault("map", "")
	v.SetDefault("seed", 0)
	v.SetDefault("episodes", 10)
	v.SetDefault("heuristic", true)

	v.SetDefault("teams.a.size", 1)
	v.SetDefault("teams.b.size", 1)

	v.SetDefault("episode.maxSteps", 24000)
	v.SetDefault("episode.spawnRadius", 0)
	v.SetDefault("episode.tickDuration", 0.02)

	v.SetDefault("rewards.polarity", string(skirmish.RewardPolarityAdversarial))
	v.SetDefault("rewards.hitPenalty", -1)

	v.SetDefault("camera.team", 0)
	v.SetDefault("camera.index", 0)

	v.SetDefault("perception.proximityRadius", perception.ProximityRadius)
	v.SetDefault("perception.radius", perception.Radius)
	v.SetDefault("perception.coneAngle", perception.ConeAngle)
	v.SetDefault("perception.eyeOffset", perception.EyeOffset)
	v.SetDefault("perception.revealOccludedPositions", perception.RevealOccludedPositions)

	v.SetDefault("raySensor.raysPerDirection", raySensor.RaysPerDirection)
	v.SetDefault("raySensor.maxRayDegrees", raySensor.MaxRayDegrees)
	v.SetDefault("raySensor.rayLength", raySensor.RayLength)

	v.SetDefault("weapon.muzzleOffset", skirmish.DefaultWeaponSpecs().MuzzleOffset)

	v.SetDefault("record", false)
	v.SetDefault("recordFile", "skirmish-record.zip")

	v.SetDefault("store.path", "")

	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "bytearena")
	v.SetDefault("influx.bucket", "skirmish")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.actionTimeout", "200ms")
}

// Load reads the configuration file at path, if any, over the defaults.
// Every key can be overridden from the environment, e.g. SKIRMISH_TEAMS_A_SIZE.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "error reading config file %s", path)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		LogLevel:  v.GetString("logLevel"),
		Map:       v.GetString("map"),
		Seed:      v.GetInt64("seed"),
		Episodes:  v.GetInt("episodes"),
		Heuristic: v.GetBool("heuristic"),

		TeamSizes:      [2]int{v.GetInt("teams.a.size"), v.GetInt("teams.b.size")},
		MaxSteps:       v.GetInt("episode.maxSteps"),
		SpawnRadius:    v.GetFloat64("episode.spawnRadius"),
		TickDuration:   v.GetFloat64("episode.tickDuration"),
		RewardPolarity: v.GetString("rewards.polarity"),
		HitPenalty:     v.GetFloat64("rewards.hitPenalty"),
		Camera: skirmish.CameraTarget{
			Team:  types.TeamID(v.GetInt("camera.team")),
			Index: v.GetInt("camera.index"),
		},

		Perception: skirmish.PerceptionParams{
			ProximityRadius: v.GetFloat64("perception.proximityRadius"),
			Radius:          v.GetFloat64("perception.radius"),
			ConeAngle:       v.GetFloat64("perception.coneAngle"),
			EyeOffset:       v.GetFloat64("perception.eyeOffset"),

			RevealOccludedPositions: v.GetBool("perception.revealOccludedPositions"),
		},
		RaySensor: skirmish.RaySensorSpecs{
			RaysPerDirection: v.GetInt("raySensor.raysPerDirection"),
			MaxRayDegrees:    v.GetFloat64("raySensor.maxRayDegrees"),
			RayLength:        v.GetFloat64("raySensor.rayLength"),
		},
		MuzzleOffset: v.GetFloat64("weapon.muzzleOffset"),

		Record:     v.GetBool("record"),
		RecordFile: v.GetString("recordFile"),

		Store: StoreConfig{
			Path: v.GetString("store.path"),
		},
		Influx: InfluxConfig{
			URL:    v.GetString("influx.url"),
			Token:  v.GetString("influx.token"),
			Org:    v.GetString("influx.org"),
			Bucket: v.GetString("influx.bucket"),
		},
		Server: ServerConfig{
			Addr:          v.GetString("server.addr"),
			ActionTimeout: v.GetDuration("server.actionTimeout"),
		},
	}
}

// Validate checks the keys the engine does not see; engine parameters are checked by GameConfig
func (cfg Config) Validate() error {
	if _, err := skirmish.ParseRewardPolarity(cfg.RewardPolarity); err != nil {
		return err
	}

	if cfg.Episodes < 0 {
		return errors.Wrapf(skirmish.ErrInvalidConfig, "episodes must not be negative, got %d", cfg.Episodes)
	}

	if cfg.Server.ActionTimeout <= 0 {
		return errors.Wrapf(skirmish.ErrInvalidConfig, "server action timeout must be positive, got %s", cfg.Server.ActionTimeout)
	}

	if cfg.Record && cfg.RecordFile == "" {
		return errors.Wrap(skirmish.ErrInvalidConfig, "recording needs a record file")
	}

	return nil
}

// LoadMap returns the configured arena, or the built-in one
func (cfg Config) LoadMap() (*mapcontainer.MapContainer, error) {
	if cfg.Map == "" {
		return mapcontainer.Default(), nil
	}

	return mapcontainer.Load(cfg.Map)
}

// GameConfig maps the configuration onto the engine's, for the given arena
func (cfg Config) GameConfig(arena *mapcontainer.MapContainer) (skirmish.Config, error) {
	game := skirmish.DefaultConfig(arena.Data.Bounds)

	polarity, err := skirmish.ParseRewardPolarity(cfg.RewardPolarity)
	if err != nil {
		return game, err
	}

	game.TeamSizes = cfg.TeamSizes
	game.MaxEnvironmentSteps = cfg.MaxSteps
	if cfg.SpawnRadius > 0 {
		game.SpawnRadius = cfg.SpawnRadius
	}
	game.TickDuration = cfg.TickDuration
	game.RewardPolarity = polarity
	game.HitPenalty = cfg.HitPenalty
	game.CameraTarget = cfg.Camera
	game.Seed = cfg.Seed
	game.Perception = cfg.Perception
	game.RaySensor = cfg.RaySensor
	game.Weapon.MuzzleOffset = cfg.MuzzleOffset

	if err := game.Validate(); err != nil {
		return game, err
	}

	return game, nil
}

// NewGame loads the arena and builds a game on the Box2D world
func (cfg Config) NewGame(opts ...skirmish.Option) (*skirmish.SkirmishGame, error) {
	arena, err := cfg.LoadMap()
	if err != nil {
		return nil, err
	}

	gameConfig, err := cfg.GameConfig(arena)
	if err != nil {
		return nil, err
	}

	return skirmish.NewSkirmishGame(gameConfig, arena, physics.NewBox2DWorld(physics.DefaultBox2DOptions()), opts...)
}
