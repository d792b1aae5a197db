package skirmish

import (
	"math"
	"math/rand"

	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/trigo"
)

type WeaponTrigger uint8

const (
	WeaponTriggerNone WeaponTrigger = iota
	WeaponTriggerFire
	WeaponTriggerReload
)

func (t WeaponTrigger) String() string {
	switch t {
	case WeaponTriggerFire:
		return "fire"
	case WeaponTriggerReload:
		return "reload"
	}

	return "none"
}

// Weapon holds ammo, cooldown (seconds) and bullet spread (degrees)
type Weapon struct {
	specs WeaponSpecs

	ammo     int
	cooldown float64
	spread   float64
}

func NewWeapon(specs WeaponSpecs) *Weapon {
	weapon := &Weapon{specs: specs}
	weapon.Reset()
	return weapon
}

func (game SkirmishGame) CastWeapon(data interface{}) *Weapon {
	return data.(*Weapon)
}

func (w Weapon) GetAmmo() int {
	return w.ammo
}

func (w Weapon) GetCooldown() float64 {
	return w.cooldown
}

func (w Weapon) GetSpread() float64 {
	return w.spread
}

func (w Weapon) GetSpecs() WeaponSpecs {
	return w.specs
}

// IsReady is true when the cooldown has elapsed
func (w Weapon) IsReady() bool {
	return w.cooldown <= 0
}

func (w *Weapon) Reset() {
	w.ammo = w.specs.MaxAmmo
	w.cooldown = 0
	w.spread = w.specs.MinSpread
}

// Trigger evaluates the weapon state machine once; a weapon that is cooling down never triggers
func (w Weapon) Trigger(fire bool, reload bool) WeaponTrigger {
	if !w.IsReady() {
		return WeaponTriggerNone
	}

	if w.ammo <= 0 {
		return WeaponTriggerReload
	}

	if fire {
		return WeaponTriggerFire
	}

	if reload && w.ammo < w.specs.MaxAmmo {
		return WeaponTriggerReload
	}

	return WeaponTriggerNone
}

// Fire spends one round and returns the spread offset of the shot, in degrees
func (w *Weapon) Fire(rng *rand.Rand) float64 {
	w.cooldown = w.specs.ShootCooldown
	w.ammo = number.ClampInt(w.ammo-1, 0, w.specs.MaxAmmo)
	return trigo.RandomRange(rng, -w.spread/2, w.spread/2)
}

// Recoil is applied once the shot is resolved
func (w *Weapon) Recoil() {
	w.AddSpread(w.specs.ShootSpreadIncrement)
}

func (w *Weapon) Reload() {
	w.cooldown = w.specs.ReloadCooldown
	w.ammo = w.specs.MaxAmmo
}

func (w *Weapon) AddSpread(delta float64) {
	w.spread = number.Clamp(w.spread+delta, w.specs.MinSpread, w.specs.MaxSpread)
}

// AddRunSpread grows the spread with the current speed
func (w *Weapon) AddRunSpread(speed float64, maxRunSpeed float64) {
	w.AddSpread(speed / maxRunSpeed * w.specs.RunSpreadRate)
}

// AddTurnSpread grows the spread with the current turn rate, in deg/s
func (w *Weapon) AddTurnSpread(turnRate float64, maxTurnSpeed float64) {
	w.AddSpread(math.Abs(turnRate) / maxTurnSpeed * w.specs.TurnSpreadRate)
}

// Recover decays the spread toward its minimum and counts the cooldown down
func (w *Weapon) Recover(dt float64) {
	w.spread = number.Clamp(w.spread*w.specs.SpreadRecoveryFactor, w.specs.MinSpread, w.specs.MaxSpread)
	w.cooldown = math.Max(0, w.cooldown-dt)
}
