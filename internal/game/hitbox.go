package game

import (
	"math"

	"survivor/internal/game/spatial"
)

// HitboxShape is the angular footprint of an area attack.
type HitboxShape int

const (
	HitboxCircle HitboxShape = iota // 360° around the shooter
	HitboxCone                      // forward cone of HalfAngle each side
)

// Hitbox filters area-attack candidates by direction. Distance filtering is
// done by the physics overlap query.
type Hitbox struct {
	Shape     HitboxShape
	HalfAngle float64 // radians
}

// AreaHitbox returns the hitbox for a full cone angle in degrees.
func AreaHitbox(angleDeg float64) Hitbox {
	if angleDeg >= 360 || angleDeg <= 0 {
		return Hitbox{Shape: HitboxCircle}
	}
	return Hitbox{Shape: HitboxCone, HalfAngle: angleDeg * math.Pi / 360}
}

// CheckHit reports whether target lies inside the hitbox of a shooter at
// origin facing along facing. A target on top of the shooter always hits.
func (h Hitbox) CheckHit(origin, facing, target spatial.Vec3) bool {
	if h.Shape == HitboxCircle {
		return true
	}
	to := target.Sub(origin).Flat()
	if to.LenSq() <= spatial.Epsilon {
		return true
	}
	return spatial.AngleBetween(facing.Flat(), to) < h.HalfAngle
}
