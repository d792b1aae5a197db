package skirmish

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/types"
)

var (
	ErrInvalidConfig  = errors.New("invalid skirmish configuration")
	ErrMissingPhysics = errors.New("no physics provider")
	ErrSpawnExhausted = errors.New("could not find a free spawn position")
)

const (
	MaxTeamSize = 12

	// spawn placement is resampled at most this many times per agent
	maxSpawnAttempts = 1000

	// fog rays are extended past their hit so that cells behind thin walls get revealed
	fogRayExtension = 0.000625
)

type RewardPolarity string

const (
	// Enemy hits are rewarded, friendly fire is punished
	RewardPolarityAdversarial RewardPolarity = "adversarial"

	// Friendly fire is rewarded, enemy hits are punished
	RewardPolarityObserved RewardPolarity = "observed"
)

// Rewards returns the firer's reward for hitting a teammate and for hitting an enemy
func (p RewardPolarity) Rewards() (same float64, diff float64) {
	if p == RewardPolarityObserved {
		return 1, -1
	}

	return -1, 1
}

func ParseRewardPolarity(s string) (RewardPolarity, error) {
	switch RewardPolarity(strings.ToLower(s)) {
	case RewardPolarityAdversarial:
		return RewardPolarityAdversarial, nil
	case RewardPolarityObserved:
		return RewardPolarityObserved, nil
	}

	return "", errors.Wrapf(ErrInvalidConfig, "unknown reward polarity %q", s)
}

// WeaponSpecs are in seconds and degrees
type WeaponSpecs struct {
	MaxAmmo              int
	ShootCooldown        float64
	ReloadCooldown       float64
	MinSpread            float64
	MaxSpread            float64
	ShootSpreadIncrement float64
	RunSpreadRate        float64
	TurnSpreadRate       float64
	SpreadRecoveryFactor float64
	MuzzleOffset         float64 // along the forward vector, from the body center
}

type MotionSpecs struct {
	MaxRunForce    float64
	MaxRunSpeed    float64 // m/s
	MaxTurnSpeed   float64 // deg/s
	MaxTurnTorque  float64
	AngularDamping float64 // torque per deg/s of angular velocity
	AgentRadius    float64
}

type PerceptionParams struct {
	ProximityRadius float64
	Radius          float64
	ConeAngle       float64 // full angle, in degrees
	EyeOffset       float64 // along the forward vector, from the body center

	// occluded targets still report their normalized position when set
	RevealOccludedPositions bool
}

type RaySensorSpecs struct {
	RaysPerDirection int
	MaxRayDegrees    float64
	RayLength        float64
}

// CameraTarget selects the agent whose perspective drives the fog of war and the ammo listener
type CameraTarget struct {
	Team  types.TeamID
	Index int
}

type Config struct {
	TeamSizes           [2]int
	MaxEnvironmentSteps int // 0 disables the timeout
	SpawnRadius         float64
	TickDuration        float64
	RewardPolarity      RewardPolarity
	HitPenalty          float64
	CameraTarget        CameraTarget
	Seed                int64 // 0 seeds from the clock

	Weapon     WeaponSpecs
	Motion     MotionSpecs
	Perception PerceptionParams
	RaySensor  RaySensorSpecs
}

func DefaultWeaponSpecs() WeaponSpecs {
	return WeaponSpecs{
		MaxAmmo:              30,
		ShootCooldown:        0.08,
		ReloadCooldown:       3,
		MinSpread:            1,
		MaxSpread:            18,
		ShootSpreadIncrement: 3,
		RunSpreadRate:        0.6,
		TurnSpreadRate:       3,
		SpreadRecoveryFactor: 0.8,
		MuzzleOffset:         0,
	}
}

func DefaultMotionSpecs() MotionSpecs {
	return MotionSpecs{
		MaxRunForce:    50,
		MaxRunSpeed:    5,
		MaxTurnSpeed:   330,
		MaxTurnTorque:  7.2,
		AngularDamping: 0.025,
		AgentRadius:    0.5,
	}
}

func DefaultPerceptionParams() PerceptionParams {
	return PerceptionParams{
		ProximityRadius: 1.5,
		Radius:          12,
		ConeAngle:       90,
		EyeOffset:       0,
	}
}

func DefaultRaySensorSpecs() RaySensorSpecs {
	return RaySensorSpecs{
		RaysPerDirection: 16,
		MaxRayDegrees:    180,
		RayLength:        20,
	}
}

// DefaultConfig is a one-on-one duel on an arena of the given half-extent
func DefaultConfig(bounds float64) Config {
	return Config{
		TeamSizes:           [2]int{1, 1},
		MaxEnvironmentSteps: 24000,
		SpawnRadius:         bounds,
		TickDuration:        0.02,
		RewardPolarity:      RewardPolarityAdversarial,
		HitPenalty:          -1,
		Weapon:              DefaultWeaponSpecs(),
		Motion:              DefaultMotionSpecs(),
		Perception:          DefaultPerceptionParams(),
		RaySensor:           DefaultRaySensorSpecs(),
	}
}

func (cfg Config) Validate() error {
	for team, size := range cfg.TeamSizes {
		if size < 1 || size > MaxTeamSize {
			return errors.Wrapf(ErrInvalidConfig, "%s size must be within [1, %d], got %d", types.TeamID(team), MaxTeamSize, size)
		}
	}

	if cfg.MaxEnvironmentSteps < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max environment steps must not be negative, got %d", cfg.MaxEnvironmentSteps)
	}

	if !isPositive(cfg.TickDuration) {
		return errors.Wrapf(ErrInvalidConfig, "tick duration must be positive, got %v", cfg.TickDuration)
	}

	if cfg.SpawnRadius < 0 || math.IsNaN(cfg.SpawnRadius) {
		return errors.Wrapf(ErrInvalidConfig, "spawn radius must not be negative, got %v", cfg.SpawnRadius)
	}

	if _, err := ParseRewardPolarity(string(cfg.RewardPolarity)); err != nil {
		return err
	}

	camera := cfg.CameraTarget
	if camera.Team != types.TeamA && camera.Team != types.TeamB {
		return errors.Wrapf(ErrInvalidConfig, "camera team must be 0 or 1, got %d", camera.Team)
	}

	if camera.Index < 0 || camera.Index >= cfg.TeamSizes[camera.Team] {
		return errors.Wrapf(ErrInvalidConfig, "camera index %d is outside %s", camera.Index, camera.Team)
	}

	weapon := cfg.Weapon
	if weapon.MaxAmmo < 1 {
		return errors.Wrapf(ErrInvalidConfig, "max ammo must be at least 1, got %d", weapon.MaxAmmo)
	}

	if !isPositive(weapon.ReloadCooldown) || weapon.ShootCooldown < 0 {
		return errors.Wrapf(ErrInvalidConfig, "invalid weapon cooldowns (shoot %v, reload %v)", weapon.ShootCooldown, weapon.ReloadCooldown)
	}

	if weapon.MinSpread < 0 || !isPositive(weapon.MaxSpread) || weapon.MinSpread > weapon.MaxSpread {
		return errors.Wrapf(ErrInvalidConfig, "invalid spread range [%v, %v]", weapon.MinSpread, weapon.MaxSpread)
	}

	if weapon.SpreadRecoveryFactor < 0 || weapon.SpreadRecoveryFactor > 1 {
		return errors.Wrapf(ErrInvalidConfig, "spread recovery factor must be within [0, 1], got %v", weapon.SpreadRecoveryFactor)
	}

	motion := cfg.Motion
	if !isPositive(motion.MaxRunSpeed) || !isPositive(motion.MaxTurnSpeed) || !isPositive(motion.AgentRadius) {
		return errors.Wrapf(ErrInvalidConfig, "max run speed, max turn speed and agent radius must be positive")
	}

	perception := cfg.Perception
	if perception.ProximityRadius < 0 || perception.Radius <= 0.5 || perception.ConeAngle < 0 || perception.ConeAngle > 360 {
		return errors.Wrapf(ErrInvalidConfig, "invalid perception parameters %+v", perception)
	}

	if cfg.RaySensor.RaysPerDirection < 0 || cfg.RaySensor.RayLength < 0 {
		return errors.Wrapf(ErrInvalidConfig, "invalid ray sensor %+v", cfg.RaySensor)
	}

	return nil
}

func isPositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}
